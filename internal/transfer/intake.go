package transfer

import (
	"context"
	"fmt"

	"github.com/soyeahso/warmline/internal/hooks"
	"github.com/soyeahso/warmline/internal/session"
	"github.com/soyeahso/warmline/internal/twilio"
	"github.com/soyeahso/warmline/internal/twilio/twiml"
)

// HandleIncomingCall registers an inbound call and returns the TwiML that
// dials the caller into a conference named after the call. The AI agent is
// added to the same conference in the background. A repeated webhook for a
// live call gets the same document and no second AI agent.
func (s *Service) HandleIncomingCall(ctx context.Context, call twilio.IncomingCall) (*twiml.Response, error) {
	conference := call.CallSID
	log := s.log.With("conference", conference)

	existing := s.registry.Register(session.CallSession{
		TelephonyCallID: call.CallSID,
		ConferenceName:  conference,
		CallerNumber:    call.From,
		CallToken:       call.CallToken,
	})
	if existing {
		log.Warn().Msg("duplicate incoming call; reusing conference")
		return s.conferenceDocument(conference), nil
	}
	if err := s.registry.Advance(conference, session.StateBridged); err != nil {
		log.Debug().Err(err).Msg("state not advanced")
	}

	doc := s.conferenceDocument(conference)
	if _, err := doc.GenerateTwiML(); err != nil {
		s.registry.Forget(conference)
		return nil, fmt.Errorf("building conference twiml: %w", err)
	}

	log.Info().Str("from", call.From).Msg("incoming call")
	s.emit(hooks.EventCallStarted, conference, "", call.From)

	s.background(func(ctx context.Context) {
		s.addAIAgent(ctx, conference, call.From)
	})
	return doc, nil
}

func (s *Service) conferenceDocument(conference string) *twiml.Response {
	return twiml.NewResponse(&twiml.Dial{
		Nouns: []any{&twiml.Conference{
			Name:                   conference,
			ParticipantLabel:       LabelCustomer,
			StartConferenceOnEnter: twiml.Bool(true),
			EndConferenceOnExit:    twiml.Bool(true),
			StatusCallback:         s.statusCallbackURL(),
			StatusCallbackMethod:   "POST",
			StatusCallbackEvent:    twiml.StatusCallbackEvents{twiml.EventJoin, twiml.EventEnd},
		}},
	})
}

// addAIAgent dials the AI provider into the conference over SIP. Failure is
// logged only; the caller stays in the conference.
func (s *Service) addAIAgent(ctx context.Context, conference, from string) {
	log := s.log.With("conference", conference)
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	p, err := s.telephony.CreateParticipant(ctx, conference, twilio.ParticipantParams{
		From:  from,
		To:    s.aiAgentURI(conference),
		Label: LabelVirtualAgent,
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to add virtual agent to conference")
		return
	}
	log.Info().Str("callSid", p.CallSID).Msg("virtual agent dialed")
}
