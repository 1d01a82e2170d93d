package buffer

import (
	"context"
	"strings"
)

// NewStore creates a Redis-backed store when an address is configured,
// otherwise an in-process store for local development.
func NewStore(ctx context.Context, cfg RedisConfig) Store {
	if strings.TrimSpace(cfg.Addr) == "" {
		return NewInMemoryStore(cfg.TTL)
	}
	return NewRedisStore(ctx, cfg)
}
