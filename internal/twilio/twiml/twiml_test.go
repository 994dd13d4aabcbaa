package twiml

import (
	"encoding/xml"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func conferenceDial() *Dial {
	return &Dial{
		Nouns: []any{&Conference{
			Name:                   "CA123",
			StartConferenceOnEnter: Bool(true),
			EndConferenceOnExit:    Bool(true),
			ParticipantLabel:       "customer",
			StatusCallback:         "https://example.com/conference-events",
			StatusCallbackEvent:    StatusCallbackEvents{EventJoin},
		}},
	}
}

func TestGenerateConferenceDial(t *testing.T) {
	out, err := NewResponse(conferenceDial()).GenerateTwiML()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, xml.Header))
	assert.Contains(t, out, `<Response><Dial><Conference `)
	assert.Contains(t, out, `startConferenceOnEnter="true"`)
	assert.Contains(t, out, `endConferenceOnExit="true"`)
	assert.Contains(t, out, `participantLabel="customer"`)
	assert.Contains(t, out, `statusCallback="https://example.com/conference-events"`)
	assert.Contains(t, out, `statusCallbackEvent="join"`)
	assert.Contains(t, out, `>CA123</Conference></Dial></Response>`)
}

func TestStatusCallbackEventsAttr(t *testing.T) {
	name := xml.Name{Local: "statusCallbackEvent"}

	attr, err := StatusCallbackEvents{EventStart, EventJoin, EventEnd}.MarshalXMLAttr(name)
	require.NoError(t, err)
	assert.Equal(t, "start join end", attr.Value)
	assert.Equal(t, "statusCallbackEvent", attr.Name.Local)

	attr, err = StatusCallbackEvents{}.MarshalXMLAttr(name)
	require.NoError(t, err)
	assert.Equal(t, xml.Attr{}, attr)
}

func TestGenerateRejectsInvalidDocuments(t *testing.T) {
	tests := []struct {
		name string
		verb any
	}{
		{"empty dial", &Dial{}},
		{"unnamed conference", &Dial{Nouns: []any{&Conference{}}}},
		{"events without callback", &Dial{Nouns: []any{&Conference{Name: "c", StatusCallbackEvent: StatusCallbackEvents{EventJoin}}}}},
		{"unknown event", &Dial{Nouns: []any{&Conference{Name: "c", StatusCallback: "https://x", StatusCallbackEvent: StatusCallbackEvents{"explode"}}}}},
		{"bad method", &Dial{Nouns: []any{&Conference{Name: "c", StatusCallbackMethod: "PUT"}}}},
		{"bad noun", &Dial{Nouns: []any{&Say{Text: "hi"}}}},
		{"unknown verb", struct{}{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewResponse(tt.verb).GenerateTwiML()
			assert.Error(t, err)
		})
	}
}

func TestWriteResponse(t *testing.T) {
	rec := httptest.NewRecorder()
	require.NoError(t, NewResponse(&Say{Text: "Please hold"}, &Hangup{}).WriteResponse(rec))

	assert.Equal(t, "text/xml", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `<Say>Please hold</Say><Hangup></Hangup>`)
}
