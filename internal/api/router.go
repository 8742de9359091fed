package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeNotFound(w, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, ErrCodeMethodNotAllow, "method not allowed")
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/metrics", s.handleMetrics)

		r.Route("/groups", func(r chi.Router) {
			r.Get("/", s.handleListGroups)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetGroup)
				r.Post("/commands", s.handleGroupCommand)
			})
		})

		// Encoder tools; nothing is sent to the wifi bridge.
		r.Route("/frames", func(r chi.Router) {
			r.Post("/preview", s.handlePreviewFrame)
			r.Post("/decode", s.handleDecodeFrame)
		})
	})

	return r
}

// handleHealth returns the service health.
//
// The status is "ok" while the wifi bridge session is up and "degraded"
// otherwise. MQTT state is reported when known.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	m := s.bridge.GetMetrics()
	status := "ok"
	if !m.Connected {
		status = "degraded"
	}
	body := map[string]any{
		"status":  status,
		"version": s.version,
		"bridge":  m.Status,
	}
	if s.mqtt != nil {
		body["mqtt_connected"] = s.mqtt.IsConnected()
	}
	writeJSON(w, http.StatusOK, body)
}
