package worker

import (
	"crypto/subtle"
	"net/http"

	"github.com/rs/zerolog/log"
)

// gateExemptPaths bypass both authentication and rate limiting. Health
// is for probes; the other two serve static, non-sensitive catalogs.
var gateExemptPaths = map[string]bool{
	"/health":              true,
	"/suggested-questions": true,
	"/media/sites":         true,
}

// corsMiddleware applies a permissive CORS policy and short-circuits
// preflight requests.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-API-Key")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// authMiddleware enforces the X-API-Key header on all non-exempt paths.
// Missing key and wrong key are distinct failures so clients can tell
// a misconfiguration from a revocation.
func (s *Service) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.config.AuthDisabled || gateExemptPaths[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}

		key := r.Header.Get("X-API-Key")
		if key == "" {
			writeError(w, errAuthMissing())
			return
		}
		if subtle.ConstantTimeCompare([]byte(key), []byte(s.config.APIKey)) != 1 {
			log.Warn().Str("path", r.URL.Path).Msg("Rejected request with invalid API key")
			writeError(w, errAuthInvalid())
			return
		}
		next.ServeHTTP(w, r)
	})
}
