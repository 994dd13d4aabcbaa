package twilio

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// ErrorCodeResourceNotFound is returned when the requested resource was not found.
// https://www.twilio.com/docs/api/errors/20404
const ErrorCodeResourceNotFound = 20404

// APIError holds the error body returned by the Twilio API.
type APIError struct {
	Status   int    `json:"status"`
	Message  string `json:"message"`
	Code     int    `json:"code"`
	MoreInfo string `json:"more_info"`
	Body     string `json:"-"`
}

func (e *APIError) Error() string {
	if e.Code == 0 {
		return fmt.Sprintf("twilio: status %d: %s", e.Status, e.Body)
	}
	return fmt.Sprintf("twilio: status %d: %d: %s", e.Status, e.Code, e.Message)
}

// CheckResponse returns an *APIError for any non-2xx response.
func CheckResponse(r *http.Response) error {
	if c := r.StatusCode; 200 <= c && c <= 299 {
		return nil
	}

	apiErr := &APIError{Status: r.StatusCode}
	data, err := io.ReadAll(io.LimitReader(r.Body, 64<<10))
	if err == nil {
		apiErr.Body = string(data)
		_ = json.Unmarshal(data, apiErr)
		if apiErr.Status == 0 {
			apiErr.Status = r.StatusCode
		}
	}
	return apiErr
}
