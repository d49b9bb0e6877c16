package worker

import (
	"errors"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/thebtf/medialens/internal/cache"
)

// counterEntry is the cached per-client request counter. The
// read-increment-write cycle is not atomic; under concurrent bursts the
// limit can be overshot slightly, which is acceptable for an
// operator-facing service.
type counterEntry struct {
	Count   int64 `json:"count"`
	ResetAt int64 `json:"resetAt"`
}

// rateLimitMiddleware caps requests per client per window using the
// shared cache. Cache failures fail open so a degraded cache never
// takes the whole API down with it.
func (s *Service) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.config.RateLimit <= 0 || gateExemptPaths[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}

		client := clientKey(r)
		key := "ratelimit:" + client
		now := time.Now()

		entry := counterEntry{ResetAt: now.Add(s.config.RateWindow).Unix()}
		if data, err := s.cache.Get(r.Context(), key); err == nil {
			var stored counterEntry
			if err := json.Unmarshal(data, &stored); err == nil && stored.ResetAt > now.Unix() {
				entry = stored
			}
		} else if !errors.Is(err, cache.ErrMiss) {
			log.Warn().Err(err).Msg("Rate limit cache read failed, allowing request")
			next.ServeHTTP(w, r)
			return
		}

		if entry.Count >= int64(s.config.RateLimit) {
			retryAfter := int(entry.ResetAt - now.Unix())
			if retryAfter < 1 {
				retryAfter = 1
			}
			writeError(w, errRateLimited(retryAfter))
			return
		}

		entry.Count++
		if data, err := json.Marshal(entry); err == nil {
			ttl := time.Until(time.Unix(entry.ResetAt, 0))
			if ttl <= 0 {
				ttl = s.config.RateWindow
			}
			if err := s.cache.Set(r.Context(), key, data, ttl); err != nil {
				log.Warn().Err(err).Msg("Rate limit cache write failed")
			}
		}
		next.ServeHTTP(w, r)
	})
}

// clientKey identifies the caller for rate limiting: the API key when
// present, otherwise the remote address.
func clientKey(r *http.Request) string {
	if key := r.Header.Get("X-API-Key"); key != "" {
		return key
	}
	host := r.RemoteAddr
	if i := strings.LastIndex(host, ":"); i > 0 {
		host = host[:i]
	}
	return host
}
