package worker

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/thebtf/medialens/internal/chat"
	"github.com/thebtf/medialens/internal/inference"
)

// chatRequest is one conversational query against a site's index.
type chatRequest struct {
	SiteKey string              `json:"siteKey"`
	Query   string              `json:"query"`
	History []inference.Message `json:"conversationHistory,omitempty"`
}

// handleChat resolves a query and streams the answer as NDJSON frames.
// Validation happens before the stream opens so malformed requests get
// a plain 400; once streaming starts every failure is reported in-band.
func (s *Service) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, mapError(err))
		return
	}

	var fields []string
	if req.SiteKey == "" {
		fields = append(fields, "siteKey")
	}
	if req.Query == "" {
		fields = append(fields, "query")
	}
	if len(fields) > 0 {
		writeError(w, errValidation("invalid request", fields))
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	enc := chat.NewStreamEncoder(w)
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Interface("panic", rec).Msg("Chat resolution panicked")
			enc.WriteError("internal error while answering")
		}
	}()

	res := s.resolver.Resolve(r.Context(), req.SiteKey, req.Query, req.History)
	enc.Encode(res)
}
