package twilio

import (
	"errors"
	"net/url"
)

// Conference status callback event values.
const (
	ConferenceEventParticipantJoin  = "participant-join"
	ConferenceEventParticipantLeave = "participant-leave"
	ConferenceEventStart            = "conference-start"
	ConferenceEventEnd              = "conference-end"
)

var ErrMissingCallSID = errors.New("twilio: CallSid is required")

// IncomingCall is the voice webhook Twilio posts when a call arrives.
type IncomingCall struct {
	CallSID    string
	AccountSID string
	From       string
	To         string
	CallToken  string
}

// ParseIncomingCall reads an incoming call from form values.
func ParseIncomingCall(v url.Values) (IncomingCall, error) {
	c := IncomingCall{
		CallSID:    v.Get("CallSid"),
		AccountSID: v.Get("AccountSid"),
		From:       v.Get("From"),
		To:         v.Get("To"),
		CallToken:  v.Get("CallToken"),
	}
	if c.CallSID == "" {
		return c, ErrMissingCallSID
	}
	return c, nil
}

// ConferenceEvent is a conference status callback.
type ConferenceEvent struct {
	ConferenceSID       string
	FriendlyName        string
	StatusCallbackEvent string
	ParticipantLabel    string
	CallSID             string
}

// ParseConferenceEvent reads a conference status callback from form values.
func ParseConferenceEvent(v url.Values) ConferenceEvent {
	return ConferenceEvent{
		ConferenceSID:       v.Get("ConferenceSid"),
		FriendlyName:        v.Get("FriendlyName"),
		StatusCallbackEvent: v.Get("StatusCallbackEvent"),
		ParticipantLabel:    v.Get("ParticipantLabel"),
		CallSID:             v.Get("CallSid"),
	}
}
