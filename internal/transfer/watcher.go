package transfer

import (
	"context"
	"errors"
	"fmt"

	"github.com/soyeahso/warmline/internal/hooks"
	"github.com/soyeahso/warmline/internal/session"
	"github.com/soyeahso/warmline/internal/twilio"
)

// HandleConferenceEvent reacts to conference status callbacks. When the
// human agent joins, the virtual agent's call is completed; when the
// conference ends, the call is forgotten.
func (s *Service) HandleConferenceEvent(ctx context.Context, ev twilio.ConferenceEvent) error {
	conference := ev.FriendlyName
	if conference == "" {
		conference = ev.ConferenceSID
	}
	log := s.log.With("conference", conference)

	switch {
	case ev.StatusCallbackEvent == twilio.ConferenceEventEnd:
		s.Forget(conference, "conference ended")
		return nil
	case ev.StatusCallbackEvent == twilio.ConferenceEventParticipantJoin && ev.ParticipantLabel == LabelHumanAgent:
	default:
		log.Trace().Str("event", ev.StatusCallbackEvent).Str("label", ev.ParticipantLabel).Msg("conference event ignored")
		return nil
	}

	log.Info().Msg("human agent joined")
	if err := s.registry.Advance(conference, session.StateHumanJoined); err != nil {
		log.Debug().Err(err).Msg("state not advanced")
	}
	s.emit(hooks.EventHumanJoined, conference, "", ev.CallSID)

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	participants, err := s.telephony.ListParticipants(ctx, ev.ConferenceSID, s.opts.ParticipantPageSize)
	if err != nil {
		return fmt.Errorf("listing participants: %w", err)
	}
	for _, p := range participants {
		if p.Label != LabelVirtualAgent {
			continue
		}
		if err := s.telephony.CompleteCall(ctx, p.CallSID); err != nil {
			var apiErr *twilio.APIError
			if errors.As(err, &apiErr) && apiErr.Code == twilio.ErrorCodeResourceNotFound {
				log.Info().Str("callSid", p.CallSID).Msg("virtual agent already gone")
				return nil
			}
			return fmt.Errorf("removing virtual agent: %w", err)
		}
		log.Info().Str("callSid", p.CallSID).Msg("virtual agent removed")
		return nil
	}
	log.Warn().Msg("no virtual agent in conference")
	return nil
}
