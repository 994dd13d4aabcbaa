// Package twiml models the subset of Twilio call-control documents used to
// bridge callers into conferences.
package twiml

import (
	"encoding/xml"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Conference status callback events.
const (
	EventStart    = "start"
	EventEnd      = "end"
	EventJoin     = "join"
	EventLeave    = "leave"
	EventMute     = "mute"
	EventHold     = "hold"
	EventModify   = "modify"
	EventSpeaker  = "speaker"
	EventAnnounce = "announcement"
)

const (
	methodPost     = "POST"
	contentTypeXML = "text/xml"
)

var validEvents = map[string]bool{
	EventStart: true, EventEnd: true, EventJoin: true, EventLeave: true,
	EventMute: true, EventHold: true, EventModify: true, EventSpeaker: true, EventAnnounce: true,
}

type Validator interface {
	Validate() error
}

type Response struct {
	XMLName xml.Name `xml:"Response"`
	Verbs   []any    `xml:""`
}

func NewResponse(verbs ...any) *Response {
	return &Response{Verbs: verbs}
}

// GenerateTwiML validates every verb and renders the document with an XML header.
func (t *Response) GenerateTwiML() (string, error) {
	for _, v := range t.Verbs {
		if va, ok := v.(Validator); ok {
			if err := va.Validate(); err != nil {
				return "", err
			}
		}

		switch s := v.(type) {
		case *Dial, *Say, *Hangup, *Pause:
		default:
			return "", fmt.Errorf("invalid verb '%T'", s)
		}
	}

	data, err := xml.Marshal(t)
	if err != nil {
		return "", err
	}
	return xml.Header + string(data), nil
}

// WriteResponse renders the document to w with the TwiML content type.
func (t *Response) WriteResponse(w http.ResponseWriter) error {
	str, err := t.GenerateTwiML()
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", contentTypeXML)
	_, err = w.Write([]byte(str))
	return err
}

type Dial struct {
	XMLName            xml.Name `xml:"Dial"`
	Action             string   `xml:"action,attr,omitempty"`
	Method             string   `xml:"method,attr,omitempty"`
	TimeoutInSeconds   uint     `xml:"timeout,attr,omitempty"`
	TimeLimitInSeconds uint     `xml:"timeLimit,attr,omitempty"`
	CallerID           string   `xml:"callerId,attr,omitempty"`
	Nouns              []any
}

func (d *Dial) Validate() error {
	if len(d.Nouns) == 0 {
		return errors.New("dial requires a noun")
	}
	for _, n := range d.Nouns {
		if va, ok := n.(Validator); ok {
			if err := va.Validate(); err != nil {
				return err
			}
		}
		switch s := n.(type) {
		case *Conference:
		default:
			return fmt.Errorf("invalid dial noun '%T'", s)
		}
	}
	return nil
}

// Conference places the dialed leg into a named conference room.
type Conference struct {
	XMLName                xml.Name             `xml:"Conference"`
	StartConferenceOnEnter *bool                `xml:"startConferenceOnEnter,attr,omitempty"`
	EndConferenceOnExit    *bool                `xml:"endConferenceOnExit,attr,omitempty"`
	ParticipantLabel       string               `xml:"participantLabel,attr,omitempty"`
	Beep                   string               `xml:"beep,attr,omitempty"`
	WaitURL                string               `xml:"waitUrl,attr,omitempty"`
	StatusCallback         string               `xml:"statusCallback,attr,omitempty"`
	StatusCallbackMethod   string               `xml:"statusCallbackMethod,attr,omitempty"`
	StatusCallbackEvent    StatusCallbackEvents `xml:"statusCallbackEvent,attr,omitempty"`
	Name                   string               `xml:",chardata"`
}

func (c *Conference) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return errors.New("conference name is required")
	}
	if len(c.StatusCallbackEvent) > 0 && c.StatusCallback == "" {
		return errors.New("statusCallbackEvent requires statusCallback")
	}
	for _, e := range c.StatusCallbackEvent {
		if !validEvents[e] {
			return fmt.Errorf("invalid conference status callback event %q", e)
		}
	}
	if c.StatusCallbackMethod != "" && c.StatusCallbackMethod != methodPost && c.StatusCallbackMethod != "GET" {
		return fmt.Errorf("invalid statusCallbackMethod %q", c.StatusCallbackMethod)
	}
	return nil
}

// StatusCallbackEvents renders as a space separated attribute value.
type StatusCallbackEvents []string

func (s StatusCallbackEvents) MarshalXMLAttr(name xml.Name) (xml.Attr, error) {
	if len(s) == 0 {
		return xml.Attr{}, nil
	}
	return xml.Attr{Name: name, Value: strings.Join(s, " ")}, nil
}

type Say struct {
	XMLName  xml.Name `xml:"Say"`
	Voice    string   `xml:"voice,attr,omitempty"`
	Language string   `xml:"language,attr,omitempty"`
	Text     string   `xml:",chardata"`
}

type Pause struct {
	XMLName         xml.Name `xml:"Pause"`
	LengthInSeconds uint     `xml:"length,attr,omitempty"`
}

type Hangup struct {
	XMLName xml.Name `xml:"Hangup"`
}

// Bool returns a pointer to b for optional boolean attributes.
func Bool(b bool) *bool {
	return &b
}
