package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SESSION_TTL", "")
	t.Setenv("CONFLICT_RETRIES", "")

	cfg := Load()

	assert.Equal(t, "memory", cfg.Session.Store)
	assert.Equal(t, 24*time.Hour, cfg.Session.TTL)
	assert.Equal(t, 2, cfg.Session.ConflictRetries)
	assert.Equal(t, 0.80, cfg.Orchestration.HighThreshold)
	assert.Equal(t, 0.50, cfg.Orchestration.LowThreshold)
	assert.Equal(t, 3, cfg.Orchestration.MaxReprompts)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SESSION_STORE", "redis")
	t.Setenv("SESSION_TTL", "30m")
	t.Setenv("PREDICT_HIGH_THRESHOLD", "0.9")
	t.Setenv("LLM_MAX_RETRIES", "not-a-number")

	cfg := Load()

	assert.Equal(t, "redis", cfg.Session.Store)
	assert.Equal(t, 30*time.Minute, cfg.Session.TTL)
	assert.Equal(t, 0.9, cfg.Orchestration.HighThreshold)
	assert.Equal(t, 2, cfg.Ai.MaxRetries)
}
