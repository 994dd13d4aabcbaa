// Package transfer runs the warm-transfer pipeline: it bridges inbound calls
// into a conference with an AI agent, accepts the AI session, watches the
// realtime stream for a hand-off request, dials the human agent and drops
// the AI leg once the human has joined.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/soyeahso/warmline/internal/hooks"
	"github.com/soyeahso/warmline/internal/logging"
	"github.com/soyeahso/warmline/internal/openai"
	"github.com/soyeahso/warmline/internal/openai/realtime"
	"github.com/soyeahso/warmline/internal/session"
	"github.com/soyeahso/warmline/internal/twilio"
)

// Participant labels used inside a conference.
const (
	LabelCustomer     = "customer"
	LabelVirtualAgent = "virtual agent"
	LabelHumanAgent   = "human agent"
)

// ConferenceEventsPath is where conference status callbacks are delivered.
const ConferenceEventsPath = "/conference-events"

var (
	ErrNoCorrelation = errors.New("no correlation entry")
	ErrAcceptFailed  = errors.New("accepting ai call failed")
)

// Telephony is the subset of the Twilio API the pipeline drives.
type Telephony interface {
	CreateParticipant(ctx context.Context, conference string, params twilio.ParticipantParams) (*twilio.Participant, error)
	ListParticipants(ctx context.Context, conferenceSID string, pageSize int) ([]twilio.Participant, error)
	CompleteCall(ctx context.Context, callSID string) error
}

// CallAcceptor answers AI provider SIP calls.
type CallAcceptor interface {
	AcceptCall(ctx context.Context, callID string, req openai.AcceptRequest) error
}

// Conversation sends client events on a realtime session.
type Conversation interface {
	Send(v any) error
}

// RealtimeConn is a live realtime session for one AI call.
type RealtimeConn interface {
	Conversation
	ReadEvent() (realtime.Event, error)
	Close() error
}

// RealtimeDialer opens the realtime session for an accepted AI call.
type RealtimeDialer interface {
	Dial(ctx context.Context, aiCallID string) (RealtimeConn, error)
}

// DialerFunc adapts a function to RealtimeDialer.
type DialerFunc func(ctx context.Context, aiCallID string) (RealtimeConn, error)

func (f DialerFunc) Dial(ctx context.Context, aiCallID string) (RealtimeConn, error) {
	return f(ctx, aiCallID)
}

// NewRealtimeDialer dials the OpenAI realtime endpoint with a bearer key.
func NewRealtimeDialer(endpoint, apiKey string) RealtimeDialer {
	return DialerFunc(func(ctx context.Context, aiCallID string) (RealtimeConn, error) {
		return realtime.Dial(ctx, endpoint, aiCallID, apiKey)
	})
}

// Options holds the per-deployment settings of the pipeline.
type Options struct {
	PublicDomain        string
	HumanAgentNumber    string
	ProjectID           string
	SIPHost             string
	ConferenceHeader    string
	Model               string
	Voice               string
	Instructions        string
	Greeting            string
	HoldMessage         string
	HandoffTool         string
	HandoffDescription  string
	RequestTimeout      time.Duration
	ParticipantPageSize int
}

// Deps are the collaborators a Service drives.
type Deps struct {
	Registry  *session.Registry
	Telephony Telephony
	Acceptor  CallAcceptor
	Dialer    RealtimeDialer
	Hooks     *hooks.Manager
}

// Service coordinates the three provider event streams of a warm transfer.
type Service struct {
	opts      Options
	registry  *session.Registry
	telephony Telephony
	acceptor  CallAcceptor
	dialer    RealtimeDialer
	hooks     *hooks.Manager
	log       *logging.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// beforeRealtime runs on the realtime goroutine before dialing.
	beforeRealtime func(aiCallID string)
}

// New creates a Service. Background work it starts lives until Shutdown.
func New(opts Options, deps Deps, log *logging.Logger) *Service {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 15 * time.Second
	}
	if opts.ParticipantPageSize <= 0 {
		opts.ParticipantPageSize = 20
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		opts:      opts,
		registry:  deps.Registry,
		telephony: deps.Telephony,
		acceptor:  deps.Acceptor,
		dialer:    deps.Dialer,
		hooks:     deps.Hooks,
		log:       log.Sub("transfer"),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Registry returns the session registry the service correlates calls in.
func (s *Service) Registry() *session.Registry {
	return s.registry
}

// Shutdown closes every realtime session and waits for background work.
func (s *Service) Shutdown(ctx context.Context) error {
	s.cancel()
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for calls to drain: %w", ctx.Err())
	}
}

// Forget ends a call outside the normal flow, e.g. when the sweeper expires it.
func (s *Service) Forget(conference, reason string) {
	snap, ok := s.registry.Forget(conference)
	if !ok {
		return
	}
	s.log.With("conference", conference).Info().Str("reason", reason).Msg("call ended")
	s.emit(hooks.EventCallEnded, conference, snap.AICallID, reason)
}

// RunSweeper expires calls older than maxAge every interval until ctx is
// cancelled. It covers calls whose end was never signalled.
func (s *Service) RunSweeper(ctx context.Context, interval, maxAge time.Duration) {
	s.registry.RunSweeper(ctx, interval, maxAge, func(c session.CallSession) {
		s.log.With("conference", c.ConferenceName).Warn().
			Str("aiCallId", c.AICallID).
			Time("createdAt", c.CreatedAt).
			Msg("call expired")
		s.emit(hooks.EventCallEnded, c.ConferenceName, c.AICallID, "expired")
	})
}

// background runs fn on its own goroutine, tied to the service lifetime.
func (s *Service) background(fn func(ctx context.Context)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fn(s.ctx)
	}()
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.opts.RequestTimeout)
}

func (s *Service) emit(event, conference, aiCallID, detail string) {
	if s.hooks == nil {
		return
	}
	s.hooks.EmitAsync(s.ctx, hooks.Payload{
		Event:      event,
		Conference: conference,
		AICallID:   aiCallID,
		Detail:     detail,
	})
}

func (s *Service) statusCallbackURL() string {
	return (&url.URL{Scheme: "https", Host: s.opts.PublicDomain, Path: ConferenceEventsPath}).String()
}

// aiAgentURI addresses the AI provider SIP endpoint and carries the
// conference name as a header the provider echoes back on accept.
func (s *Service) aiAgentURI(conference string) string {
	return fmt.Sprintf("sip:%s@%s;transport=tls?%s=%s",
		s.opts.ProjectID, s.opts.SIPHost, s.opts.ConferenceHeader, url.QueryEscape(conference))
}
