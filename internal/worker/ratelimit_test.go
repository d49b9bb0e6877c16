package worker

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thebtf/medialens/internal/config"
)

// brokenCache fails every operation.
type brokenCache struct{}

func (brokenCache) Get(ctx context.Context, key string) ([]byte, error) {
	return nil, errors.New("cache unavailable")
}

func (brokenCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return errors.New("cache unavailable")
}

func (brokenCache) Ping(ctx context.Context) error {
	return errors.New("cache unavailable")
}

func TestRateLimitFailsOpenOnCacheErrors(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.Config, deps *Dependencies) {
		cfg.RateLimit = 1
		deps.Cache = brokenCache{}
	})

	// Well past the limit; a broken cache must never reject requests.
	for i := 0; i < 5; i++ {
		rec := env.do(t, http.MethodGet, "/media/count?siteKey=site-a", nil, testAPIKey)
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i+1)
	}
}

func TestRateLimitDisabledWhenZero(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.Config, deps *Dependencies) {
		cfg.RateLimit = 0
	})

	for i := 0; i < 5; i++ {
		rec := env.do(t, http.MethodGet, "/media/count?siteKey=site-a", nil, testAPIKey)
		require.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestClientKeyPrefersAPIKey(t *testing.T) {
	req, err := http.NewRequest(http.MethodGet, "/media/count", nil)
	require.NoError(t, err)
	req.RemoteAddr = "10.0.0.7:54321"

	assert.Equal(t, "10.0.0.7", clientKey(req))

	req.Header.Set("X-API-Key", "abc")
	assert.Equal(t, "abc", clientKey(req))
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodOptions, "/media/count", nil, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
