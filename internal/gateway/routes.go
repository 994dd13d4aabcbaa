package gateway

import (
	"net/http"

	"github.com/soyeahso/warmline/internal/transfer"
)

// Webhook paths served by the gateway.
const (
	PathHealth       = "/health"
	PathStatus       = "/status"
	PathIncomingCall = "/incoming-call"
	PathAIWebhook    = "/"
)

// registerHTTPRoutes sets up all HTTP routes on the server mux.
func (s *Server) registerHTTPRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET "+PathHealth, s.handleHealth)
	mux.HandleFunc("GET "+PathStatus, s.handleStatus)
	mux.HandleFunc("POST "+PathIncomingCall, s.handleIncomingCall)
	mux.HandleFunc("POST "+transfer.ConferenceEventsPath, s.handleConferenceEvent)
	mux.HandleFunc("POST /{$}", s.handleAIWebhook)

	// Catch-all for unknown routes
	mux.HandleFunc("/", handleNotFound)
}
