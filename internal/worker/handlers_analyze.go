package worker

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/thebtf/medialens/internal/analyze"
)

// handleAnalyzeImage runs the deep per-occurrence analysis. All four
// identifying fields are required and occurrence is 1-based.
func (s *Service) handleAnalyzeImage(w http.ResponseWriter, r *http.Request) {
	var req analyze.Request
	if err := decodeBody(r, &req); err != nil {
		writeError(w, mapError(err))
		return
	}

	var fields []string
	if req.ImageURL == "" {
		fields = append(fields, "imageUrl")
	}
	if req.PageURL == "" {
		fields = append(fields, "pageUrl")
	}
	if req.SiteKey == "" {
		fields = append(fields, "siteKey")
	}
	if req.Occurrence < 1 {
		fields = append(fields, "occurrence")
	}
	if len(fields) > 0 {
		writeError(w, errValidation("invalid request", fields))
		return
	}

	if s.inference == nil {
		writeError(w, errUpstream(errNoInference))
		return
	}

	result, err := s.analyzer.Analyze(r.Context(), req)
	if err != nil {
		log.Warn().Err(err).Str("imageUrl", req.ImageURL).Msg("Image analysis failed")
		writeError(w, mapError(err))
		return
	}

	writeJSON(w, http.StatusOK, result)
}
