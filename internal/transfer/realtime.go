package transfer

import (
	"context"
	"errors"

	"github.com/soyeahso/warmline/internal/hooks"
	"github.com/soyeahso/warmline/internal/openai/realtime"
	"github.com/soyeahso/warmline/internal/session"
)

// runRealtime owns the realtime session of one accepted AI call until the
// stream closes. There is no reconnect; when the stream ends the call's
// correlation state is dropped.
func (s *Service) runRealtime(ctx context.Context, aiCallID string) {
	log := s.log.With("aiCallId", aiCallID)
	if s.beforeRealtime != nil {
		s.beforeRealtime(aiCallID)
	}

	dialCtx, cancel := s.withTimeout(ctx)
	conn, err := s.dialer.Dial(dialCtx, aiCallID)
	cancel()
	if err != nil {
		log.Error().Err(err).Msg("failed to open realtime session")
		s.endAICall(aiCallID, "realtime dial failed")
		return
	}
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()
	defer conn.Close()

	if conference, ok := s.registry.ConferenceFor(aiCallID); ok {
		if err := s.registry.Advance(conference, session.StateAIConnected); err != nil {
			log.Debug().Err(err).Msg("state not advanced")
		}
		s.emit(hooks.EventAIConnected, conference, aiCallID, "")
	}
	log.Info().Msg("realtime session open")

	if err := conn.Send(realtime.NewResponseCreate(s.opts.Greeting)); err != nil {
		log.Warn().Err(err).Msg("failed to send greeting")
	}

	reason := "ai leg closed"
	for {
		ev, err := conn.ReadEvent()
		if err != nil {
			if errors.Is(err, realtime.ErrMalformedEvent) {
				log.Warn().Err(err).Msg("skipping realtime event")
				continue
			}
			if errors.Is(err, realtime.ErrClosed) || ctx.Err() != nil {
				log.Info().Msg("realtime session closed")
			} else {
				log.Warn().Err(err).Msg("realtime session failed")
				reason = "realtime error"
			}
			break
		}
		s.handleRealtimeEvent(aiCallID, conn, ev)
	}

	s.endAICall(aiCallID, reason)
}

func (s *Service) handleRealtimeEvent(aiCallID string, conv Conversation, ev realtime.Event) {
	switch e := ev.(type) {
	case *realtime.ResponseDone:
		item, ok := e.FirstOutput()
		if !ok || !item.IsFunctionCall(s.opts.HandoffTool) {
			return
		}
		s.log.With("aiCallId", aiCallID).Info().Str("functionCallId", item.CallID).Msg("hand-off requested")
		s.background(func(ctx context.Context) {
			ctx, cancel := s.withTimeout(ctx)
			defer cancel()
			if err := s.HandOff(ctx, aiCallID, conv); err != nil {
				s.log.With("aiCallId", aiCallID).Warn().Err(err).Msg("hand-off aborted")
			}
		})
	case *realtime.ErrorEvent:
		s.log.With("aiCallId", aiCallID).Warn().Str("code", e.Code).Str("message", e.Message).Msg("realtime error event")
	default:
		s.log.Trace().Str("aiCallId", aiCallID).Str("type", ev.EventType()).Msg("realtime event")
	}
}

// endAICall forgets the conference the AI call belonged to, if any.
func (s *Service) endAICall(aiCallID, reason string) {
	conference, ok := s.registry.ConferenceFor(aiCallID)
	if !ok {
		return
	}
	s.Forget(conference, reason)
}
