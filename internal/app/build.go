// Package app wires the memory tiers, generation stack and API server into
// a runnable service.
package app

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/marshee-ai/marshee/internal/assemble"
	"github.com/marshee-ai/marshee/internal/buffer"
	"github.com/marshee-ai/marshee/internal/config"
	"github.com/marshee-ai/marshee/internal/embed"
	"github.com/marshee-ai/marshee/internal/engine"
	"github.com/marshee-ai/marshee/internal/genai"
	"github.com/marshee-ai/marshee/internal/httpapi"
	"github.com/marshee-ai/marshee/internal/observability"
	"github.com/marshee-ai/marshee/internal/onboarding"
	"github.com/marshee-ai/marshee/internal/profile"
	"github.com/marshee-ai/marshee/internal/summary"
	"github.com/marshee-ai/marshee/internal/vector"
)

type BuildResult struct {
	Config  config.Config
	API     *httpapi.Server
	Sweeper *summary.Sweeper
	Metrics *observability.Metrics

	// Cleanup should be called on shutdown to release external resources
	// (Redis, Postgres, the persisted vector index).
	Cleanup func() error
}

func Build(ctx context.Context, cfg config.Config) (*BuildResult, error) {
	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	bufferStore := buffer.NewStore(ctx, buffer.RedisConfig{
		Addr:     cfg.RedisAddr,
		Username: cfg.RedisUsername,
		Password: cfg.RedisPassword,
		TTL:      cfg.BufferTTL,
	})
	buffers := buffer.NewService(bufferStore, buffer.ServiceConfig{
		OpTimeout:      cfg.CacheOpTimeout,
		MaxTurnChars:   cfg.MaxTurnChars,
		FlushThreshold: cfg.FlushThreshold,
		ClaimTTL:       cfg.FlushClaimTTL,
	}, metrics)

	index, err := vector.NewChromemIndex(cfg.VectorDataPath)
	if err != nil {
		_ = buffers.Close()
		return nil, fmt.Errorf("vector index init failed: %w", err)
	}

	embedder := resolveEmbedder(cfg)
	vectors := vector.NewStore(index, embedder, metrics)
	if err := vector.Seed(ctx, vectors, vector.DefaultKnowledge()); err != nil {
		log.Printf("knowledge seeding incomplete: %v", err)
	}

	gen := resolveCompleter(cfg)

	summarizer := summary.New(buffers, vectors, gen, summary.Config{
		MinTurns: cfg.SummaryMinTurns,
		MaxInput: cfg.MaxSummaryInput,
	}, metrics)
	buffers.SetFlushHook(summarizer.HookFor(ctx))
	sweeper := summary.NewSweeper(summarizer, buffers, cfg.SweepInterval, cfg.IdleFlushAfter, metrics)

	profiles, err := profile.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		_ = vectors.Close()
		_ = buffers.Close()
		return nil, fmt.Errorf("profile store init failed: %w", err)
	}

	flow := onboarding.New(profiles, vectors)
	assembler := assemble.New(buffers, vectors, cfg.RecentTurnLimit, metrics)
	eng := engine.New(buffers, assembler, gen, profiles, metrics)

	api := httpapi.New(cfg, profiles, flow, eng, buffers, vectors, gen, metrics)

	cleanup := func() error {
		var errs []string
		if err := profiles.Close(); err != nil {
			errs = append(errs, err.Error())
		}
		if err := vectors.Close(); err != nil {
			errs = append(errs, err.Error())
		}
		if err := buffers.Close(); err != nil {
			errs = append(errs, err.Error())
		}
		if len(errs) > 0 {
			return fmt.Errorf("%s", strings.Join(errs, "; "))
		}
		return nil
	}

	return &BuildResult{
		Config:  cfg,
		API:     api,
		Sweeper: sweeper,
		Metrics: metrics,
		Cleanup: cleanup,
	}, nil
}

// resolveEmbedder picks the configured embedding backend, degrading to the
// deterministic local embedder when no API key is set so the service still
// runs (with reduced retrieval quality) in dev environments.
func resolveEmbedder(cfg config.Config) embed.Embedder {
	e, err := embed.NewOpenAIEmbedder(embed.OpenAIConfig{
		APIKey:  cfg.LLMAPIKey,
		BaseURL: cfg.LLMBaseURL,
		Model:   cfg.EmbeddingModel,
		Dim:     cfg.EmbeddingDim,
		Timeout: cfg.EmbeddingTimeout,
	})
	if err != nil {
		log.Printf("embedding provider unavailable, using local embedder: %v", err)
		return embed.NewMockEmbedder(cfg.EmbeddingDim)
	}
	return e
}

// resolveCompleter picks the chat backend. A nil-ready completer is fine:
// the engine and summarizer both carry deterministic fallbacks.
func resolveCompleter(cfg config.Config) genai.Completer {
	c, err := genai.NewOpenAIClient(genai.OpenAIConfig{
		APIKey:  cfg.LLMAPIKey,
		BaseURL: cfg.LLMBaseURL,
		Model:   cfg.ChatModel,
		Timeout: cfg.GenerationTimeout,
	})
	if err != nil {
		log.Printf("chat provider unavailable, using keyword fallback: %v", err)
		return genai.DownCompleter{}
	}
	return c
}
