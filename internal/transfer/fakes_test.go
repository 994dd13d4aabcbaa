package transfer

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/soyeahso/warmline/internal/hooks"
	"github.com/soyeahso/warmline/internal/logging"
	"github.com/soyeahso/warmline/internal/openai"
	"github.com/soyeahso/warmline/internal/openai/realtime"
	"github.com/soyeahso/warmline/internal/session"
	"github.com/soyeahso/warmline/internal/twilio"
)

type createdParticipant struct {
	Conference string
	Params     twilio.ParticipantParams
}

type fakeTelephony struct {
	mu           sync.Mutex
	created      []createdParticipant
	listed       []string
	completed    []string
	participants []twilio.Participant
	createErr    error
	completeErr  error
}

func (f *fakeTelephony) CreateParticipant(_ context.Context, conference string, params twilio.ParticipantParams) (*twilio.Participant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, createdParticipant{Conference: conference, Params: params})
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &twilio.Participant{CallSID: "CA-" + params.Label, Label: params.Label}, nil
}

func (f *fakeTelephony) ListParticipants(_ context.Context, conferenceSID string, _ int) ([]twilio.Participant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listed = append(f.listed, conferenceSID)
	return f.participants, nil
}

func (f *fakeTelephony) CompleteCall(_ context.Context, callSID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completed = append(f.completed, callSID)
	return f.completeErr
}

func (f *fakeTelephony) setCreateErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createErr = err
}

func (f *fakeTelephony) Created() []createdParticipant {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]createdParticipant(nil), f.created...)
}

func (f *fakeTelephony) createdWithLabel(label string) []createdParticipant {
	var out []createdParticipant
	for _, c := range f.Created() {
		if c.Params.Label == label {
			out = append(out, c)
		}
	}
	return out
}

type fakeAcceptor struct {
	mu       sync.Mutex
	accepted []string
	requests []openai.AcceptRequest
	delay    time.Duration
	err      error
	done     atomic.Bool
}

func (f *fakeAcceptor) AcceptCall(_ context.Context, callID string, req openai.AcceptRequest) error {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	f.accepted = append(f.accepted, callID)
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.done.Store(true)
	return nil
}

type readResult struct {
	ev  realtime.Event
	err error
}

type fakeConn struct {
	events    chan readResult
	closed    chan struct{}
	closeOnce sync.Once

	mu   sync.Mutex
	sent []any
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		events: make(chan readResult, 16),
		closed: make(chan struct{}),
	}
}

func (c *fakeConn) Send(v any) error {
	select {
	case <-c.closed:
		return realtime.ErrClosed
	default:
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, v)
	return nil
}

func (c *fakeConn) ReadEvent() (realtime.Event, error) {
	select {
	case r := <-c.events:
		return r.ev, r.err
	case <-c.closed:
		return nil, realtime.ErrClosed
	}
}

func (c *fakeConn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) push(ev realtime.Event) { c.events <- readResult{ev: ev} }
func (c *fakeConn) pushErr(err error) { c.events <- readResult{err: err} }
func (c *fakeConn) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

func (c *fakeConn) Sent() []any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]any(nil), c.sent...)
}

type fakeDialer struct {
	mu    sync.Mutex
	conns map[string]*fakeConn
	dials []string
	err   error
	// onDial runs before the connection is returned.
	onDial func(aiCallID string)
}

func newFakeDialer() *fakeDialer {
	return &fakeDialer{conns: make(map[string]*fakeConn)}
}

func (d *fakeDialer) Dial(_ context.Context, aiCallID string) (RealtimeConn, error) {
	if d.onDial != nil {
		d.onDial(aiCallID)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dials = append(d.dials, aiCallID)
	if d.err != nil {
		return nil, d.err
	}
	c, ok := d.conns[aiCallID]
	if !ok {
		c = newFakeConn()
		d.conns[aiCallID] = c
	}
	return c, nil
}

// conn returns the connection for aiCallID, creating it ahead of the dial
// so tests can queue events.
func (d *fakeDialer) conn(aiCallID string) *fakeConn {
	d.mu.Lock()
	defer d.mu.Unlock()
	c, ok := d.conns[aiCallID]
	if !ok {
		c = newFakeConn()
		d.conns[aiCallID] = c
	}
	return c
}

func (d *fakeDialer) Dials() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.dials...)
}

type harness struct {
	svc       *Service
	registry  *session.Registry
	telephony *fakeTelephony
	acceptor  *fakeAcceptor
	dialer    *fakeDialer
	hooks     *hooks.Manager

	mu     sync.Mutex
	events []hooks.Payload
}

func testOptions() Options {
	return Options{
		PublicDomain:        "example.ngrok.app",
		HumanAgentNumber:    "+15559990000",
		ProjectID:           "proj_123",
		SIPHost:             "sip.api.openai.com",
		ConferenceHeader:    "X-conferenceName",
		Model:               "gpt-realtime",
		Voice:               "alloy",
		Instructions:        "You are a support agent.",
		Greeting:            "Say: Thanks for calling, how can I help?",
		HoldMessage:         "Let the caller know a human agent is being connected.",
		HandoffTool:         "addHumanAgent",
		HandoffDescription:  "Transfer the caller to a human agent.",
		RequestTimeout:      time.Second,
		ParticipantPageSize: 20,
	}
}

func newHarness() *harness {
	log := logging.New(nil, "silent")
	h := &harness{
		registry:  session.NewRegistry(),
		telephony: &fakeTelephony{},
		acceptor:  &fakeAcceptor{},
		dialer:    newFakeDialer(),
		hooks:     hooks.NewManager(log),
	}
	for _, ev := range hooks.CallEvents {
		h.hooks.On(ev, "recorder", func(_ context.Context, p hooks.Payload) error {
			h.mu.Lock()
			defer h.mu.Unlock()
			h.events = append(h.events, p)
			return nil
		})
	}
	h.svc = New(testOptions(), Deps{
		Registry:  h.registry,
		Telephony: h.telephony,
		Acceptor:  h.acceptor,
		Dialer:    h.dialer,
		Hooks:     h.hooks,
	}, log)
	return h
}

func (h *harness) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = h.svc.Shutdown(ctx)
	h.hooks.Wait()
}

func (h *harness) sawEvent(event, conference string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, p := range h.events {
		if p.Event == event && p.Conference == conference {
			return true
		}
	}
	return false
}

var errBoom = errors.New("boom")

func incomingAICall(callID, conference string) *openai.IncomingCallEvent {
	ev := &openai.IncomingCallEvent{ID: "evt_" + callID, CallID: callID}
	if conference != "" {
		ev.SIPHeaders = openai.SIPHeaders{
			{Name: "From", Value: "sip:+15551230000@pstn.twilio.com"},
			{Name: "X-conferenceName", Value: conference},
		}
	}
	return ev
}

func handoffDone(tool string) *realtime.ResponseDone {
	return &realtime.ResponseDone{
		ResponseID: "resp_1",
		Output: []realtime.OutputItem{
			{Type: realtime.OutputTypeFunctionCall, Name: tool, CallID: "fc1"},
		},
	}
}
