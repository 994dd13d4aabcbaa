// Package twilio is a minimal client for the Twilio voice REST API and the
// webhook payloads Twilio posts back.
package twilio

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-querystring/query"
	"github.com/soyeahso/warmline/internal/version"
)

const (
	DefaultBaseURL = "https://api.twilio.com"
	apiVersion     = "2010-04-01"
)

// Client talks to the Twilio REST API for a single account.
type Client struct {
	accountSID string
	authToken  string
	baseURL    string
	http       *http.Client

	Participants *ParticipantService
	Calls        *CallService
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL points the client at a different API host (used by tests).
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.http = hc
	}
}

// NewClient creates a client authenticated with the account SID and auth token.
func NewClient(accountSID, authToken string, opts ...ClientOption) *Client {
	c := &Client{
		accountSID: accountSID,
		authToken:  authToken,
		baseURL:    DefaultBaseURL,
		http:       &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.Participants = &ParticipantService{client: c}
	c.Calls = &CallService{client: c}
	return c
}

// EndPoint builds the account-scoped URL for the given path segments.
func (c *Client) EndPoint(parts ...string) *url.URL {
	escaped := make([]string, len(parts))
	for i, p := range parts {
		escaped[i] = url.PathEscape(p)
	}
	u, _ := url.Parse(fmt.Sprintf("%s/%s/Accounts/%s/%s.json",
		c.baseURL, apiVersion, url.PathEscape(c.accountSID), strings.Join(escaped, "/")))
	return u
}

// post form-encodes params and decodes the JSON response into v.
func (c *Client) post(ctx context.Context, u *url.URL, params any, v any) error {
	form, err := query.Values(params)
	if err != nil {
		return fmt.Errorf("encoding params: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req, v)
}

func (c *Client) get(ctx context.Context, u *url.URL, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	return c.do(req, v)
}

func (c *Client) do(req *http.Request, v any) error {
	req.SetBasicAuth(c.accountSID, c.authToken)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("twilio request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := CheckResponse(resp); err != nil {
		return err
	}
	if v == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decoding twilio response: %w", err)
	}
	return nil
}
