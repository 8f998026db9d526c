package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// NewHTTPHandler returns an http.Handler with all routes registered.
// Submission and form reads are anonymous; /api/me and /api/dashboard
// require a session.
func (s *FormsServer) NewHTTPHandler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.accessLog)
	r.Use(s.recoverer)
	r.Use(middleware.CleanPath)

	r.Get("/v1/health", s.handleHealth)

	r.Post("/f/{id}", s.handleSubmit)
	r.Route("/api/forms/{id}", func(r chi.Router) {
		r.Get("/", s.handleGetForm)
		r.Post("/submissions", s.handleSubmit)
	})

	r.Get("/api/me", s.guard.Protect(s.handleMe))
	r.Route("/api/dashboard", func(r chi.Router) {
		r.Get("/forms", s.guard.Protect(s.handleListOwnerForms))
		r.Get("/forms/{id}", s.guard.Protect(s.handleGetOwnerForm))
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	return r
}

// handleHealth handles GET /v1/health.
func (s *FormsServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.storeContext(r.Context())
	defer cancel()

	start := time.Now()
	if err := s.store.Ping(ctx); err != nil {
		s.log.Warn("health check failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"db_latency": time.Since(start).String(),
	})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
