package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config contains all runtime settings for the pet care assistant service.
type Config struct {
	BindAddr         string
	ShutdownTimeout  time.Duration
	MetricsNamespace string

	AllowAnyOrigin bool

	// Ephemeral session buffer (Redis).
	RedisAddr      string
	RedisUsername  string
	RedisPassword  string
	BufferTTL      time.Duration
	CacheOpTimeout time.Duration

	// Summarization.
	FlushThreshold  int
	SummaryMinTurns int
	MaxTurnChars    int
	MaxSummaryInput int
	IdleFlushAfter  time.Duration
	SweepInterval   time.Duration
	FlushClaimTTL   time.Duration

	// Semantic index.
	VectorDataPath string
	EmbeddingDim   int

	// Context assembly.
	RecentTurnLimit int

	// Generation / embedding backend (OpenAI-compatible API).
	LLMBaseURL        string
	LLMAPIKey         string
	ChatModel         string
	EmbeddingModel    string
	GenerationTimeout time.Duration
	EmbeddingTimeout  time.Duration

	// Durable profile/transcript store.
	DatabaseURL string
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:         envOrDefault("APP_BIND_ADDR", ":8080"),
		MetricsNamespace: envOrDefault("APP_METRICS_NAMESPACE", "marshee"),
		AllowAnyOrigin:   false,

		RedisAddr:      envOrDefault("REDIS_ADDR", "localhost:6379"),
		RedisUsername:  stringsTrimSpace("REDIS_USERNAME"),
		RedisPassword:  stringsTrimSpace("REDIS_PASSWORD"),
		BufferTTL:      24 * time.Hour,
		CacheOpTimeout: 3 * time.Second,

		FlushThreshold:  10,
		SummaryMinTurns: 5,
		MaxTurnChars:    2000,
		MaxSummaryInput: 3000,
		IdleFlushAfter:  3 * time.Minute,
		SweepInterval:   time.Minute,
		FlushClaimTTL:   30 * time.Second,

		VectorDataPath: stringsTrimSpace("VECTOR_DATA_PATH"),
		EmbeddingDim:   384,

		RecentTurnLimit: 6,

		LLMBaseURL:        stringsTrimSpace("LLM_BASE_URL"),
		LLMAPIKey:         stringsTrimSpace("LLM_API_KEY"),
		ChatModel:         envOrDefault("LLM_CHAT_MODEL", "openai/gpt-oss-120b"),
		EmbeddingModel:    envOrDefault("LLM_EMBEDDING_MODEL", "text-embedding-3-small"),
		GenerationTimeout: 20 * time.Second,
		EmbeddingTimeout:  10 * time.Second,

		DatabaseURL: stringsTrimSpace("DATABASE_URL"),

		ShutdownTimeout: 15 * time.Second,
	}

	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.BufferTTL, err = durationFromEnv("BUFFER_TTL", cfg.BufferTTL)
	if err != nil {
		return Config{}, err
	}
	cfg.CacheOpTimeout, err = durationFromEnv("BUFFER_OP_TIMEOUT", cfg.CacheOpTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.IdleFlushAfter, err = durationFromEnv("IDLE_FLUSH_AFTER", cfg.IdleFlushAfter)
	if err != nil {
		return Config{}, err
	}
	cfg.SweepInterval, err = durationFromEnv("SWEEP_INTERVAL", cfg.SweepInterval)
	if err != nil {
		return Config{}, err
	}
	cfg.FlushClaimTTL, err = durationFromEnv("FLUSH_CLAIM_TTL", cfg.FlushClaimTTL)
	if err != nil {
		return Config{}, err
	}
	cfg.GenerationTimeout, err = durationFromEnv("LLM_GENERATION_TIMEOUT", cfg.GenerationTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.EmbeddingTimeout, err = durationFromEnv("LLM_EMBEDDING_TIMEOUT", cfg.EmbeddingTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.FlushThreshold, err = intFromEnv("BUFFER_FLUSH_THRESHOLD", cfg.FlushThreshold)
	if err != nil {
		return Config{}, err
	}
	cfg.SummaryMinTurns, err = intFromEnv("SUMMARY_MIN_TURNS", cfg.SummaryMinTurns)
	if err != nil {
		return Config{}, err
	}
	cfg.MaxTurnChars, err = intFromEnv("BUFFER_MAX_TURN_CHARS", cfg.MaxTurnChars)
	if err != nil {
		return Config{}, err
	}
	cfg.MaxSummaryInput, err = intFromEnv("SUMMARY_MAX_INPUT_CHARS", cfg.MaxSummaryInput)
	if err != nil {
		return Config{}, err
	}
	cfg.EmbeddingDim, err = intFromEnv("EMBEDDING_DIM", cfg.EmbeddingDim)
	if err != nil {
		return Config{}, err
	}
	cfg.RecentTurnLimit, err = intFromEnv("RECENT_TURN_LIMIT", cfg.RecentTurnLimit)
	if err != nil {
		return Config{}, err
	}
	cfg.AllowAnyOrigin, err = boolFromEnv("APP_ALLOW_ANY_ORIGIN", cfg.AllowAnyOrigin)
	if err != nil {
		return Config{}, err
	}

	if cfg.FlushThreshold < 2 {
		return Config{}, fmt.Errorf("BUFFER_FLUSH_THRESHOLD must be at least 2")
	}
	if cfg.SummaryMinTurns < 1 {
		return Config{}, fmt.Errorf("SUMMARY_MIN_TURNS must be positive")
	}
	if cfg.SummaryMinTurns > cfg.FlushThreshold {
		return Config{}, fmt.Errorf("SUMMARY_MIN_TURNS must not exceed BUFFER_FLUSH_THRESHOLD")
	}
	if cfg.MaxTurnChars < 100 {
		return Config{}, fmt.Errorf("BUFFER_MAX_TURN_CHARS must be at least 100")
	}
	if cfg.MaxSummaryInput < 200 {
		return Config{}, fmt.Errorf("SUMMARY_MAX_INPUT_CHARS must be at least 200")
	}
	if cfg.EmbeddingDim <= 0 {
		return Config{}, fmt.Errorf("EMBEDDING_DIM must be positive")
	}
	if cfg.IdleFlushAfter < 10*time.Second {
		return Config{}, fmt.Errorf("IDLE_FLUSH_AFTER must be at least 10s")
	}
	if cfg.SweepInterval < time.Second {
		return Config{}, fmt.Errorf("SWEEP_INTERVAL must be at least 1s")
	}
	if cfg.RecentTurnLimit <= 0 {
		return Config{}, fmt.Errorf("RECENT_TURN_LIMIT must be positive")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func stringsTrimSpace(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(stringsTrimSpace(key))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	}
	return false, fmt.Errorf("%s parse error: expected bool", key)
}
