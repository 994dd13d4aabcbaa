package transfer

import (
	"context"

	"github.com/soyeahso/warmline/internal/twilio"
)

type twilioTelephony struct {
	client *twilio.Client
}

// NewTwilioTelephony drives conferences through the Twilio REST API.
func NewTwilioTelephony(c *twilio.Client) Telephony {
	return &twilioTelephony{client: c}
}

func (t *twilioTelephony) CreateParticipant(ctx context.Context, conference string, params twilio.ParticipantParams) (*twilio.Participant, error) {
	return t.client.Participants.Create(ctx, conference, params)
}

func (t *twilioTelephony) ListParticipants(ctx context.Context, conferenceSID string, pageSize int) ([]twilio.Participant, error) {
	return t.client.Participants.List(ctx, conferenceSID, pageSize)
}

func (t *twilioTelephony) CompleteCall(ctx context.Context, callSID string) error {
	return t.client.Calls.Complete(ctx, callSID)
}
