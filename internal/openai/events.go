package openai

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// EventTypeIncomingCall is delivered when a SIP call reaches the project.
const EventTypeIncomingCall = "realtime.call.incoming"

//go:embed schema/webhook_event.json
var webhookEventSchema string

const webhookEventSchemaURL = "webhook_event.json"

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func eventSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(webhookEventSchemaURL, strings.NewReader(webhookEventSchema)); err != nil {
			schemaErr = fmt.Errorf("add schema resource: %w", err)
			return
		}
		compiledSchema, schemaErr = compiler.Compile(webhookEventSchemaURL)
		if schemaErr != nil {
			schemaErr = fmt.Errorf("compile schema: %w", schemaErr)
		}
	})
	return compiledSchema, schemaErr
}

// Event is a decoded webhook delivery. It is one of *IncomingCallEvent or
// *OtherEvent.
type Event interface {
	EventType() string
	EventID() string
}

// SIPHeader is a single SIP header carried on an incoming call.
type SIPHeader struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// SIPHeaders keeps headers in the order they were received.
type SIPHeaders []SIPHeader

// Lookup returns the value of the first header matching name. SIP header
// names are case-insensitive.
func (h SIPHeaders) Lookup(name string) (string, bool) {
	for _, hdr := range h {
		if strings.EqualFold(hdr.Name, name) {
			return hdr.Value, true
		}
	}
	return "", false
}

// IncomingCallEvent announces a SIP call waiting to be accepted.
type IncomingCallEvent struct {
	ID         string
	CreatedAt  int64
	CallID     string
	SIPHeaders SIPHeaders
}

func (e *IncomingCallEvent) EventType() string { return EventTypeIncomingCall }
func (e *IncomingCallEvent) EventID() string   { return e.ID }

// OtherEvent is any webhook type this service does not act on.
type OtherEvent struct {
	ID   string
	Type string
	Data json.RawMessage
}

func (e *OtherEvent) EventType() string { return e.Type }
func (e *OtherEvent) EventID() string   { return e.ID }

type envelope struct {
	Object    string          `json:"object"`
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	CreatedAt int64           `json:"created_at"`
	Data      json.RawMessage `json:"data"`
}

type incomingCallData struct {
	CallID     string     `json:"call_id"`
	SIPHeaders SIPHeaders `json:"sip_headers"`
}

// DecodeEvent validates a webhook body and decodes it into its variant.
func DecodeEvent(body []byte) (Event, error) {
	schema, err := eventSchema()
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var payload any
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode webhook event: %w", err)
	}
	if err := schema.Validate(payload); err != nil {
		return nil, fmt.Errorf("invalid webhook event: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode webhook event: %w", err)
	}

	switch env.Type {
	case EventTypeIncomingCall:
		var data incomingCallData
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return nil, fmt.Errorf("decode %s data: %w", env.Type, err)
		}
		return &IncomingCallEvent{
			ID:         env.ID,
			CreatedAt:  env.CreatedAt,
			CallID:     data.CallID,
			SIPHeaders: data.SIPHeaders,
		}, nil
	default:
		return &OtherEvent{ID: env.ID, Type: env.Type, Data: env.Data}, nil
	}
}
