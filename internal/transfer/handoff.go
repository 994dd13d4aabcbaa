package transfer

import (
	"context"
	"fmt"

	"github.com/soyeahso/warmline/internal/hooks"
	"github.com/soyeahso/warmline/internal/openai/realtime"
	"github.com/soyeahso/warmline/internal/twilio"
	"github.com/soyeahso/warmline/internal/twilio/twiml"
)

// HandOff dials the human agent into the conference of an AI call and asks
// the AI agent to keep the caller engaged meanwhile. Only one hand-off per
// call may be in flight; once the human agent is dialed the call is not
// handed off again, but a failed dial may be retried.
func (s *Service) HandOff(ctx context.Context, aiCallID string, conv Conversation) error {
	conference, ok := s.registry.ConferenceFor(aiCallID)
	if !ok {
		return fmt.Errorf("%w: ai call %s has no conference", ErrNoCorrelation, aiCallID)
	}
	caller, token, ok := s.registry.CallerFor(conference)
	if !ok {
		return fmt.Errorf("%w: conference %s has no caller", ErrNoCorrelation, conference)
	}
	if err := s.registry.ClaimHandoff(conference); err != nil {
		return err
	}

	log := s.log.With("conference", conference)
	s.emit(hooks.EventHandoffRequested, conference, aiCallID, s.opts.HumanAgentNumber)

	p, err := s.telephony.CreateParticipant(ctx, conference, twilio.ParticipantParams{
		From:                          caller,
		To:                            s.opts.HumanAgentNumber,
		Label:                         LabelHumanAgent,
		EarlyMedia:                    true,
		CallToken:                     token,
		ConferenceStatusCallback:      s.statusCallbackURL(),
		ConferenceStatusCallbackEvent: []string{twiml.EventJoin, twiml.EventEnd},
	})
	s.registry.ReleaseHandoff(conference, err == nil)
	if err != nil {
		log.Error().Err(err).Msg("failed to dial human agent")
	} else {
		log.Info().Str("callSid", p.CallSID).Msg("human agent dialed")
	}

	if serr := conv.Send(realtime.NewUserMessage(s.opts.HoldMessage)); serr != nil {
		log.Warn().Err(serr).Msg("failed to send hold message")
	}
	if serr := conv.Send(realtime.NewResponseCreate("")); serr != nil {
		log.Warn().Err(serr).Msg("failed to request hold response")
	}

	if err != nil {
		return fmt.Errorf("adding human agent: %w", err)
	}
	return nil
}
