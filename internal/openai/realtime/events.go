package realtime

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformedEvent is returned for an inbound frame that is not a valid
// JSON event. The connection stays usable.
var ErrMalformedEvent = errors.New("malformed realtime event")

const (
	TypeResponseCreate         = "response.create"
	TypeConversationItemCreate = "conversation.item.create"
	TypeResponseDone           = "response.done"
	TypeError                  = "error"

	OutputTypeFunctionCall = "function_call"
)

// Event is a decoded server event: *ResponseDone, *ErrorEvent or *OtherEvent.
type Event interface {
	EventType() string
}

// OutputItem is one item of a completed response.
type OutputItem struct {
	Type      string `json:"type"`
	ID        string `json:"id,omitempty"`
	Name      string `json:"name,omitempty"`
	CallID    string `json:"call_id,omitempty"`
	Arguments string `json:"arguments,omitempty"`
}

// IsFunctionCall reports whether the item invokes the named function and
// carries a call id.
func (o OutputItem) IsFunctionCall(name string) bool {
	return o.Type == OutputTypeFunctionCall && o.Name == name && o.CallID != ""
}

// ResponseDone is sent when the model finishes a response.
type ResponseDone struct {
	ResponseID string
	Status     string
	Output     []OutputItem
}

func (e *ResponseDone) EventType() string { return TypeResponseDone }

// FirstOutput returns the first output item of the response, if any.
func (e *ResponseDone) FirstOutput() (OutputItem, bool) {
	if len(e.Output) == 0 {
		return OutputItem{}, false
	}
	return e.Output[0], true
}

// ErrorEvent reports a problem with a client event.
type ErrorEvent struct {
	Code    string
	Message string
}

func (e *ErrorEvent) EventType() string { return TypeError }

// OtherEvent is any server event the gateway does not act on.
type OtherEvent struct {
	Type string
	Raw  json.RawMessage
}

func (e *OtherEvent) EventType() string { return e.Type }

type serverFrame struct {
	Type     string `json:"type"`
	Response *struct {
		ID     string       `json:"id"`
		Status string       `json:"status"`
		Output []OutputItem `json:"output"`
	} `json:"response,omitempty"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// DecodeEvent parses a single text frame.
func DecodeEvent(data []byte) (Event, error) {
	var frame serverFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if frame.Type == "" {
		return nil, fmt.Errorf("%w: missing type", ErrMalformedEvent)
	}

	switch frame.Type {
	case TypeResponseDone:
		ev := &ResponseDone{}
		if frame.Response != nil {
			ev.ResponseID = frame.Response.ID
			ev.Status = frame.Response.Status
			ev.Output = frame.Response.Output
		}
		return ev, nil
	case TypeError:
		ev := &ErrorEvent{}
		if frame.Error != nil {
			ev.Code = frame.Error.Code
			ev.Message = frame.Error.Message
		}
		return ev, nil
	default:
		return &OtherEvent{Type: frame.Type, Raw: append(json.RawMessage(nil), data...)}, nil
	}
}

// ResponseParams overrides the session defaults for a single response.
type ResponseParams struct {
	Instructions string `json:"instructions,omitempty"`
}

// ResponseCreate asks the model to generate a response.
type ResponseCreate struct {
	Type     string          `json:"type"`
	Response *ResponseParams `json:"response,omitempty"`
}

// NewResponseCreate builds a response.create event. An empty instruction
// leaves the model to decide what to say.
func NewResponseCreate(instructions string) ResponseCreate {
	ev := ResponseCreate{Type: TypeResponseCreate}
	if instructions != "" {
		ev.Response = &ResponseParams{Instructions: instructions}
	}
	return ev
}

type ContentPart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type ConversationItem struct {
	Type    string        `json:"type"`
	Role    string        `json:"role"`
	Content []ContentPart `json:"content"`
}

// ConversationItemCreate adds an item to the conversation.
type ConversationItemCreate struct {
	Type string           `json:"type"`
	Item ConversationItem `json:"item"`
}

// NewUserMessage builds a synthetic user turn carrying text.
func NewUserMessage(text string) ConversationItemCreate {
	return ConversationItemCreate{
		Type: TypeConversationItemCreate,
		Item: ConversationItem{
			Type:    "message",
			Role:    "user",
			Content: []ContentPart{{Type: "input_text", Text: text}},
		},
	}
}
