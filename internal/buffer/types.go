package buffer

import (
	"context"
	"time"
)

// Turn stores one exchanged user/assistant pair. Immutable once appended.
type Turn struct {
	UserID        string    `json:"user_id"`
	UserText      string    `json:"user_message"`
	AssistantText string    `json:"assistant_response"`
	CreatedAt     time.Time `json:"created_at"`
}

// Store is the ephemeral per-user turn log backend.
//
// Implementations report transport failures as errors; Service converts them
// into degraded empty results so callers never see the backend flapping.
type Store interface {
	// Append pushes a turn onto the user's log, refreshes the entry TTL and
	// the activity timestamp, and returns the new log length.
	Append(ctx context.Context, userID string, turn Turn) (int, error)
	// Read returns all buffered turns in chronological order (oldest first).
	Read(ctx context.Context, userID string) ([]Turn, error)
	// Count returns the buffered turn count without reading payloads.
	Count(ctx context.Context, userID string) (int, error)
	// Clear deletes the user's log and activity marker atomically.
	Clear(ctx context.Context, userID string) error
	// IdleUsers returns users whose last activity is older than the cutoff.
	IdleUsers(ctx context.Context, olderThan time.Duration) ([]string, error)
	// AcquireClaim takes the per-user flush claim for ttl. Returns false when
	// another holder already owns it.
	AcquireClaim(ctx context.Context, userID string, ttl time.Duration) (bool, error)
	// ReleaseClaim drops the per-user flush claim.
	ReleaseClaim(ctx context.Context, userID string) error
	// Ready reports whether the backend connection is usable.
	Ready() bool
	Close() error
}
