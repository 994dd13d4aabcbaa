package transfer

import (
	"context"
	"fmt"

	"github.com/soyeahso/warmline/internal/hooks"
	"github.com/soyeahso/warmline/internal/openai"
)

// HandleAIWebhook acts on a verified AI provider webhook. Incoming calls are
// correlated with their conference and accepted; once the accept response
// has been observed the realtime session is started. Other event types are
// ignored.
func (s *Service) HandleAIWebhook(ctx context.Context, ev openai.Event) error {
	call, ok := ev.(*openai.IncomingCallEvent)
	if !ok {
		s.log.Debug().Str("type", ev.EventType()).Str("id", ev.EventID()).Msg("ignoring webhook event")
		return nil
	}

	log := s.log.With("aiCallId", call.CallID)
	conference, found := call.SIPHeaders.Lookup(s.opts.ConferenceHeader)
	if found && conference != "" {
		s.registry.AttachAICall(call.CallID, conference)
		log = log.With("conference", conference)
	} else {
		log.Warn().Str("header", s.opts.ConferenceHeader).Msg("incoming ai call has no conference header")
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	if err := s.acceptor.AcceptCall(ctx, call.CallID, s.acceptRequest()); err != nil {
		log.Error().Err(err).Msg("failed to accept ai call")
		return fmt.Errorf("%w: %w", ErrAcceptFailed, err)
	}

	log.Info().Msg("ai call accepted")
	s.emit(hooks.EventAIAccepted, conference, call.CallID, "")

	aiCallID := call.CallID
	s.background(func(ctx context.Context) {
		s.runRealtime(ctx, aiCallID)
	})
	return nil
}

func (s *Service) acceptRequest() openai.AcceptRequest {
	req := openai.AcceptRequest{
		Type:         "realtime",
		Model:        s.opts.Model,
		Instructions: s.opts.Instructions,
		Tools:        []openai.Tool{openai.FunctionTool(s.opts.HandoffTool, s.opts.HandoffDescription)},
	}
	if s.opts.Voice != "" {
		req.Audio = &openai.AudioConfig{Output: openai.AudioOutput{Voice: s.opts.Voice}}
	}
	return req
}
