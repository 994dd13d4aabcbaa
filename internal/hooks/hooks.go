// Package hooks dispatches call lifecycle events to registered handlers.
package hooks

import (
	"context"
	"sync"
	"time"

	"github.com/soyeahso/warmline/internal/logging"
)

// Event names for the hook system.
const (
	EventCallStarted      = "call_started"
	EventAIAccepted       = "ai_accepted"
	EventAIConnected      = "ai_connected"
	EventHandoffRequested = "handoff_requested"
	EventHumanJoined      = "human_joined"
	EventCallEnded        = "call_ended"
	EventGatewayStart     = "gateway_start"
	EventGatewayStop      = "gateway_stop"
)

// AllEvents lists all known hook event names.
var AllEvents = []string{
	EventCallStarted,
	EventAIAccepted,
	EventAIConnected,
	EventHandoffRequested,
	EventHumanJoined,
	EventCallEnded,
	EventGatewayStart,
	EventGatewayStop,
}

// CallEvents lists the events that describe a single call.
var CallEvents = AllEvents[:6]

// Payload carries event data to hook handlers.
type Payload struct {
	Event      string    `json:"event"`
	Conference string    `json:"conference,omitempty"`
	AICallID   string    `json:"aiCallId,omitempty"`
	Detail     string    `json:"detail,omitempty"`
	At         time.Time `json:"at"`
}

// Handler is a function that handles a hook event.
// Returning an error logs the failure but does not stop processing.
type Handler func(ctx context.Context, p Payload) error

// Manager manages hook registrations and dispatches events.
type Manager struct {
	mu       sync.RWMutex
	handlers map[string][]namedHandler
	inflight sync.WaitGroup
	log      *logging.Logger
	now      func() time.Time
}

type namedHandler struct {
	name    string
	handler Handler
}

// NewManager creates a hook manager.
func NewManager(log *logging.Logger) *Manager {
	return &Manager{
		handlers: make(map[string][]namedHandler),
		log:      log.Sub("hooks"),
		now:      time.Now,
	}
}

// On registers a handler for the given event.
// The name identifies the handler for logging and debugging.
func (m *Manager) On(event, name string, handler Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[event] = append(m.handlers[event], namedHandler{name: name, handler: handler})
	m.log.Debug().Str("event", event).Str("handler", name).Msg("hook registered")
}

func (m *Manager) prepare(p Payload) ([]namedHandler, Payload) {
	m.mu.RLock()
	handlers := make([]namedHandler, len(m.handlers[p.Event]))
	copy(handlers, m.handlers[p.Event])
	m.mu.RUnlock()

	if p.At.IsZero() {
		p.At = m.now()
	}
	return handlers, p
}

// Emit dispatches an event to all registered handlers synchronously.
// Handlers are called in registration order. Errors are logged but do not
// prevent subsequent handlers from running.
func (m *Manager) Emit(ctx context.Context, p Payload) {
	handlers, p := m.prepare(p)
	for _, h := range handlers {
		m.run(ctx, h, p)
	}
}

// EmitAsync dispatches an event to all registered handlers concurrently.
// Returns immediately; handler errors are logged. Wait blocks until every
// async handler has returned.
func (m *Manager) EmitAsync(ctx context.Context, p Payload) {
	handlers, p := m.prepare(p)
	for _, h := range handlers {
		m.inflight.Add(1)
		go func(h namedHandler) {
			defer m.inflight.Done()
			m.run(context.WithoutCancel(ctx), h, p)
		}(h)
	}
}

// Wait blocks until all handlers started by EmitAsync have finished.
func (m *Manager) Wait() {
	m.inflight.Wait()
}

func (m *Manager) run(ctx context.Context, h namedHandler, p Payload) {
	if err := h.handler(ctx, p); err != nil {
		m.log.Warn().
			Err(err).
			Str("event", p.Event).
			Str("conference", p.Conference).
			Str("handler", h.name).
			Msg("hook handler error")
	}
}
