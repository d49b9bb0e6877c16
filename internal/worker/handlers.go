package worker

import (
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/thebtf/medialens/internal/chat"
)

// writeBody marshals v onto an already-prepared response.
func writeBody(w http.ResponseWriter, v any) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response body")
	}
}

// writeJSON renders a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	writeBody(w, v)
}

// decodeBody parses a JSON request body into dst.
func decodeBody(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errValidation("malformed JSON body", nil)
	}
	return nil
}

// handleHealth reports service liveness and the state of each binding.
func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	bindings := map[string]string{
		"database": "ok",
		"cache":    "ok",
	}
	status := "healthy"

	if err := s.store.Ping(ctx); err != nil {
		bindings["database"] = err.Error()
		status = "degraded"
	}
	if err := s.cache.Ping(ctx); err != nil {
		bindings["cache"] = err.Error()
		status = "degraded"
	}
	if s.inference == nil {
		bindings["inference"] = "not configured"
	} else {
		bindings["inference"] = "ok"
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"bindings":  bindings,
	})
}

// handleSuggestedQuestions serves the static question catalog.
func (s *Service) handleSuggestedQuestions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"categories": chat.SuggestedQuestions(),
	})
}

// handleNotFound lists the valid endpoints so misdirected callers can
// self-correct.
func (s *Service) handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, map[string]any{
		"error": "unknown endpoint",
		"path":  r.URL.Path,
		"endpoints": []string{
			"GET /health",
			"GET /suggested-questions",
			"POST /media/index-batch",
			"POST /media/delete-batch",
			"POST /media/clear-site",
			"GET /media/count",
			"GET /media/sites",
			"POST /chat",
			"POST /analyze",
		},
	})
}
