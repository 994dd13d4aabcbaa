package twilio

import (
	"context"
	"errors"
	"strconv"
)

type ParticipantService struct {
	client *Client
}

// Participant is a call leg inside a conference.
type Participant struct {
	AccountSID    string `json:"account_sid"`
	CallSID       string `json:"call_sid"`
	ConferenceSID string `json:"conference_sid"`
	Label         string `json:"label"`
	Status        string `json:"status"`
	Hold          bool   `json:"hold"`
	Muted         bool   `json:"muted"`
	URI           string `json:"uri"`
}

// ParticipantParams creates a new participant that dials out and joins the
// conference. CallToken lets the new leg reuse the caller id of the inbound call.
type ParticipantParams struct {
	From                          string   `url:"From"`
	To                            string   `url:"To"`
	Label                         string   `url:"Label,omitempty"`
	EarlyMedia                    bool     `url:"EarlyMedia,omitempty"`
	CallToken                     string   `url:"CallToken,omitempty"`
	ConferenceStatusCallback      string   `url:"ConferenceStatusCallback,omitempty"`
	ConferenceStatusCallbackEvent []string `url:"ConferenceStatusCallbackEvent,omitempty,space"`
}

func (p ParticipantParams) Validate() error {
	if p.From == "" {
		return errors.New("twilio: participant From is required")
	}
	if p.To == "" {
		return errors.New("twilio: participant To is required")
	}
	return nil
}

type participantPage struct {
	Participants []Participant `json:"participants"`
	NextPageURI  string        `json:"next_page_uri"`
}

// Create adds a participant to a conference. conference may be the
// conference SID or its friendly name.
func (s *ParticipantService) Create(ctx context.Context, conference string, params ParticipantParams) (*Participant, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	u := s.client.EndPoint("Conferences", conference, "Participants")

	p := new(Participant)
	if err := s.client.post(ctx, u, params, p); err != nil {
		return nil, err
	}
	return p, nil
}

// List returns the first page of participants in a conference.
func (s *ParticipantService) List(ctx context.Context, conferenceSID string, pageSize int) ([]Participant, error) {
	u := s.client.EndPoint("Conferences", conferenceSID, "Participants")
	if pageSize > 0 {
		q := u.Query()
		q.Set("PageSize", strconv.Itoa(pageSize))
		u.RawQuery = q.Encode()
	}

	var page participantPage
	if err := s.client.get(ctx, u, &page); err != nil {
		return nil, err
	}
	return page.Participants, nil
}
