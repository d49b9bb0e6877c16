package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, DefaultWorkerPort, cfg.WorkerPort)
	assert.Equal(t, DefaultChunkSize, cfg.ChunkSize)
	assert.Equal(t, DefaultRateLimit, cfg.RateLimit)
	assert.Equal(t, time.Hour, cfg.RateWindow)
	assert.False(t, cfg.AuthDisabled)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("MEDIALENS_WORKER_PORT", "9999")
	t.Setenv("MEDIALENS_API_KEY", "secret")
	t.Setenv("MEDIALENS_AUTH_DISABLED", "true")
	t.Setenv("MEDIALENS_RATE_LIMIT", "5")
	t.Setenv("MEDIALENS_RATE_WINDOW", "30s")
	t.Setenv("MEDIALENS_CHUNK_SIZE", "100")

	cfg := FromEnv()

	assert.Equal(t, 9999, cfg.WorkerPort)
	assert.Equal(t, "secret", cfg.APIKey)
	assert.True(t, cfg.AuthDisabled)
	assert.Equal(t, 5, cfg.RateLimit)
	assert.Equal(t, 30*time.Second, cfg.RateWindow)
	assert.Equal(t, 100, cfg.ChunkSize)
}

func TestFromEnv_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("MEDIALENS_WORKER_PORT", "not-a-number")
	t.Setenv("MEDIALENS_RATE_WINDOW", "not-a-duration")

	cfg := FromEnv()

	assert.Equal(t, DefaultWorkerPort, cfg.WorkerPort)
	assert.Equal(t, DefaultRateWindow, cfg.RateWindow)
}
