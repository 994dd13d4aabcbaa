package twilio

import (
	"context"
	"errors"
)

const CallStatusCompleted = "completed"

type CallService struct {
	client *Client
}

type Call struct {
	SID       string `json:"sid"`
	From      string `json:"from"`
	To        string `json:"to"`
	Status    string `json:"status"`
	Direction string `json:"direction"`
}

type CallModificationParams struct {
	Status string `url:"Status,omitempty"`
	URL    string `url:"Url,omitempty"`
	Method string `url:"Method,omitempty"`
}

func (c CallModificationParams) Validate() error {
	if c.URL == "" && c.Status == "" {
		return errors.New("twilio: either Status or Url is required")
	}
	return nil
}

// Modify updates an in-progress call.
func (s *CallService) Modify(ctx context.Context, sid string, params CallModificationParams) (*Call, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	call := new(Call)
	if err := s.client.post(ctx, s.client.EndPoint("Calls", sid), params, call); err != nil {
		return nil, err
	}
	return call, nil
}

// Complete hangs up an in-progress call.
func (s *CallService) Complete(ctx context.Context, sid string) error {
	_, err := s.Modify(ctx, sid, CallModificationParams{Status: CallStatusCompleted})
	return err
}
