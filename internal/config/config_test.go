package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	setCoreEnvEmpty(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.FlushThreshold != 10 {
		t.Fatalf("FlushThreshold = %d, want 10", cfg.FlushThreshold)
	}
	if cfg.SummaryMinTurns != 5 {
		t.Fatalf("SummaryMinTurns = %d, want 5", cfg.SummaryMinTurns)
	}
	if cfg.BufferTTL != 24*time.Hour {
		t.Fatalf("BufferTTL = %v, want 24h", cfg.BufferTTL)
	}
	if cfg.IdleFlushAfter != 3*time.Minute {
		t.Fatalf("IdleFlushAfter = %v, want 3m", cfg.IdleFlushAfter)
	}
	if cfg.EmbeddingDim != 384 {
		t.Fatalf("EmbeddingDim = %d, want 384", cfg.EmbeddingDim)
	}
	if cfg.DatabaseURL != "" {
		t.Fatalf("DatabaseURL = %q, want empty default", cfg.DatabaseURL)
	}
}

func TestLoadOverrides(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("BUFFER_FLUSH_THRESHOLD", "12")
	t.Setenv("IDLE_FLUSH_AFTER", "90s")
	t.Setenv("LLM_BASE_URL", "https://api.groq.com/openai/v1")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.FlushThreshold != 12 {
		t.Fatalf("FlushThreshold = %d, want 12", cfg.FlushThreshold)
	}
	if cfg.IdleFlushAfter != 90*time.Second {
		t.Fatalf("IdleFlushAfter = %v, want 90s", cfg.IdleFlushAfter)
	}
	if cfg.LLMBaseURL != "https://api.groq.com/openai/v1" {
		t.Fatalf("LLMBaseURL = %q, want explicit value", cfg.LLMBaseURL)
	}
}

func TestLoadRejectsMinTurnsAboveThreshold(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("BUFFER_FLUSH_THRESHOLD", "4")
	t.Setenv("SUMMARY_MIN_TURNS", "5")

	if _, err := Load(); err == nil {
		t.Fatalf("Load() should reject SUMMARY_MIN_TURNS above BUFFER_FLUSH_THRESHOLD")
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("SWEEP_INTERVAL", "soon")

	if _, err := Load(); err == nil {
		t.Fatalf("Load() should reject unparsable SWEEP_INTERVAL")
	}
}

func setCoreEnvEmpty(t *testing.T) {
	t.Helper()
	keys := []string{
		"APP_BIND_ADDR",
		"APP_SHUTDOWN_TIMEOUT",
		"APP_METRICS_NAMESPACE",
		"APP_ALLOW_ANY_ORIGIN",
		"REDIS_ADDR",
		"REDIS_USERNAME",
		"REDIS_PASSWORD",
		"BUFFER_TTL",
		"BUFFER_OP_TIMEOUT",
		"BUFFER_FLUSH_THRESHOLD",
		"BUFFER_MAX_TURN_CHARS",
		"SUMMARY_MIN_TURNS",
		"SUMMARY_MAX_INPUT_CHARS",
		"IDLE_FLUSH_AFTER",
		"SWEEP_INTERVAL",
		"FLUSH_CLAIM_TTL",
		"VECTOR_DATA_PATH",
		"EMBEDDING_DIM",
		"RECENT_TURN_LIMIT",
		"LLM_BASE_URL",
		"LLM_API_KEY",
		"LLM_CHAT_MODEL",
		"LLM_EMBEDDING_MODEL",
		"LLM_GENERATION_TIMEOUT",
		"LLM_EMBEDDING_TIMEOUT",
		"DATABASE_URL",
	}
	for _, key := range keys {
		t.Setenv(key, "")
	}
}
