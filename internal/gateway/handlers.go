package gateway

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/soyeahso/warmline/internal/openai"
	"github.com/soyeahso/warmline/internal/store"
	"github.com/soyeahso/warmline/internal/transfer"
	"github.com/soyeahso/warmline/internal/twilio"
)

// statusRecentEvents is how many journal entries the status endpoint shows.
const statusRecentEvents = 20

// StatusResponse is returned by the status endpoint.
type StatusResponse struct {
	Status       string            `json:"status"`
	Version      string            `json:"version"`
	Uptime       string            `json:"uptime"`
	ActiveCalls  int               `json:"activeCalls"`
	RecentEvents []store.CallEvent `json:"recentEvents,omitempty"`
}

// handleHealth always reports the server as alive.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, "Health ok")
}

// handleStatus reports live call counts and the latest journaled events.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{
		Status:      "ok",
		Version:     s.version,
		Uptime:      s.uptime().Truncate(time.Second).String(),
		ActiveCalls: s.transfer.Registry().Len(),
	}
	if s.journal != nil {
		events, err := s.journal.List(r.Context(), "", statusRecentEvents)
		if err != nil {
			s.log.Warn().Err(err).Msg("failed to read journal")
		}
		resp.RecentEvents = events
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleIncomingCall answers Twilio's voice webhook with a conference
// document and starts dialing the AI agent into it.
func (s *Server) handleIncomingCall(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxWebhookBody)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form body", http.StatusBadRequest)
		return
	}
	call, err := twilio.ParseIncomingCall(r.PostForm)
	if err != nil {
		s.log.Warn().Err(err).Msg("rejected incoming call webhook")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	doc, err := s.transfer.HandleIncomingCall(r.Context(), call)
	if err != nil {
		s.log.Error().Err(err).Str("callSid", call.CallSID).Msg("failed to handle incoming call")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if err := doc.WriteResponse(w); err != nil {
		s.log.Error().Err(err).Str("callSid", call.CallSID).Msg("failed to write call document")
	}
}

// handleConferenceEvent processes a conference status callback. Twilio
// does not retry on failure, so errors are logged and 200 is returned.
func (s *Server) handleConferenceEvent(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxWebhookBody)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form body", http.StatusBadRequest)
		return
	}
	ev := twilio.ParseConferenceEvent(r.PostForm)
	if err := s.transfer.HandleConferenceEvent(r.Context(), ev); err != nil {
		s.log.Error().Err(err).
			Str("conferenceSid", ev.ConferenceSID).
			Str("event", ev.StatusCallbackEvent).
			Str("label", ev.ParticipantLabel).
			Msg("conference event failed")
	}
	w.WriteHeader(http.StatusOK)
}

// handleAIWebhook verifies and dispatches an OpenAI webhook delivery.
func (s *Server) handleAIWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		http.Error(w, "unreadable body", http.StatusBadRequest)
		return
	}

	if err := openai.VerifyWebhook(s.cfg.OpenAI.WebhookSecret, r.Header, body, s.now()); err != nil {
		s.log.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("rejected ai webhook")
		http.Error(w, "invalid signature", http.StatusBadRequest)
		return
	}

	ev, err := openai.DecodeEvent(body)
	if err != nil {
		s.log.Warn().Err(err).Msg("malformed ai webhook")
		http.Error(w, "invalid event", http.StatusBadRequest)
		return
	}

	if err := s.transfer.HandleAIWebhook(r.Context(), ev); err != nil {
		// Accept failures are already logged by the transfer service.
		if !errors.Is(err, transfer.ErrAcceptFailed) {
			s.log.Error().Err(err).Str("type", ev.EventType()).Msg("ai webhook failed")
		}
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// handleNotFound returns a 404 for unknown routes.
func handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, map[string]string{
		"error": "not found",
		"path":  r.URL.Path,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
