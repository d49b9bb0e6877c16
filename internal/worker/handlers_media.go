package worker

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/thebtf/medialens/internal/db"
	"github.com/thebtf/medialens/internal/ingest"
	"github.com/thebtf/medialens/pkg/models"
)

// indexBatchRequest carries one ingestion batch.
type indexBatchRequest struct {
	SiteKey string               `json:"siteKey"`
	Batch   []models.MediaRecord `json:"batch"`
}

func (s *Service) handleIndexBatch(w http.ResponseWriter, r *http.Request) {
	var req indexBatchRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, mapError(err))
		return
	}

	result, err := s.pipeline.Ingest(r.Context(), req.SiteKey, req.Batch)
	if err != nil {
		var chunkErr *ingest.ChunkError
		if errors.As(err, &chunkErr) {
			// Prior chunks are kept; report the partial counts so the
			// caller can resume from the failed chunk.
			writeJSON(w, http.StatusInternalServerError, map[string]any{
				"success":    false,
				"code":       "chunk_error",
				"error":      chunkErr.Error(),
				"indexed":    result.Indexed,
				"embeddings": result.Embeddings,
				"chunks":     result.Chunks,
			})
			return
		}
		writeError(w, mapError(err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"indexed":    result.Indexed,
		"embeddings": result.Embeddings,
		"chunks":     result.Chunks,
	})
}

// deleteBatchRequest names the hashes to remove from a site.
type deleteBatchRequest struct {
	SiteKey string   `json:"siteKey"`
	Hashes  []string `json:"hashes"`
}

func (s *Service) handleDeleteBatch(w http.ResponseWriter, r *http.Request) {
	var req deleteBatchRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, mapError(err))
		return
	}

	var fields []string
	if req.SiteKey == "" {
		fields = append(fields, "siteKey")
	}
	if len(req.Hashes) == 0 {
		fields = append(fields, "hashes")
	}
	if len(fields) > 0 {
		writeError(w, errValidation("invalid request", fields))
		return
	}

	deleted, err := s.deleter.DeleteHashes(r.Context(), req.SiteKey, req.Hashes)
	if err != nil {
		log.Error().Err(err).Str("siteKey", req.SiteKey).Msg("Delete batch failed")
		writeError(w, mapError(err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "deleted": deleted})
}

// clearSiteRequest names the site to purge entirely.
type clearSiteRequest struct {
	SiteKey string `json:"siteKey"`
}

func (s *Service) handleClearSite(w http.ResponseWriter, r *http.Request) {
	var req clearSiteRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, mapError(err))
		return
	}
	if req.SiteKey == "" {
		writeError(w, errValidation("invalid request", []string{"siteKey"}))
		return
	}

	deleted, err := s.deleter.ClearSite(r.Context(), req.SiteKey)
	if err != nil {
		log.Error().Err(err).Str("siteKey", req.SiteKey).Msg("Clear site failed")
		writeError(w, mapError(err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "deleted": deleted})
}

func (s *Service) handleCount(w http.ResponseWriter, r *http.Request) {
	siteKey := r.URL.Query().Get("siteKey")
	if siteKey == "" {
		writeError(w, errValidation("invalid request", []string{"siteKey"}))
		return
	}

	filter, fields := filterFromQuery(r)
	if len(fields) > 0 {
		writeError(w, errValidation("invalid request", fields))
		return
	}

	count, err := s.store.Count(r.Context(), siteKey, filter)
	if err != nil {
		writeError(w, mapError(err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"siteKey": siteKey, "count": count})
}

func (s *Service) handleSites(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	sites, err := s.store.ListSites(r.Context(), limit)
	if err != nil {
		writeError(w, mapError(err))
		return
	}
	if sites == nil {
		sites = []models.SiteInfo{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"sites": sites, "count": len(sites)})
}

// filterFromQuery builds a ListFilter from count query parameters.
// Unknown alt states are reported as validation fields.
func filterFromQuery(r *http.Request) (db.ListFilter, []string) {
	q := r.URL.Query()
	var fields []string

	var f db.ListFilter
	switch alt := q.Get("alt"); alt {
	case "", "any":
	case "missing":
		f.AltState = db.AltMissing
	case "decorative":
		f.AltState = db.AltDecorative
	case "filled":
		f.AltState = db.AltFilled
	default:
		fields = append(fields, "alt")
	}

	f.Orientation = q.Get("orientation")
	f.TypePrefix = q.Get("type")
	f.Format = q.Get("format")

	if v := q.Get("lazy"); v != "" {
		lazy, err := strconv.ParseBool(v)
		if err != nil {
			fields = append(fields, "lazy")
		} else {
			f.Lazy = &lazy
		}
	}

	return f, fields
}
