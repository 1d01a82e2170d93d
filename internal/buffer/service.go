package buffer

import (
	"context"
	"time"
	"unicode/utf8"

	"github.com/marshee-ai/marshee/internal/observability"
)

// Service is the session buffer exposed to the rest of the system.
//
// It owns input validation, per-side truncation and the flush-threshold hook,
// and it converts every backend failure into a no-op/empty result: when the
// ephemeral store is down the assistant keeps answering with reduced context.
type Service struct {
	store          Store
	opTimeout      time.Duration
	maxTurnChars   int
	flushThreshold int
	claimTTL       time.Duration
	metrics        *observability.Metrics

	onThreshold func(userID string)
}

// ServiceConfig controls Service construction.
type ServiceConfig struct {
	OpTimeout      time.Duration
	MaxTurnChars   int
	FlushThreshold int
	ClaimTTL       time.Duration
}

func NewService(store Store, cfg ServiceConfig, metrics *observability.Metrics) *Service {
	if cfg.OpTimeout <= 0 {
		cfg.OpTimeout = 3 * time.Second
	}
	if cfg.MaxTurnChars <= 0 {
		cfg.MaxTurnChars = 2000
	}
	if cfg.FlushThreshold <= 0 {
		cfg.FlushThreshold = 10
	}
	if cfg.ClaimTTL <= 0 {
		cfg.ClaimTTL = 30 * time.Second
	}
	return &Service{
		store:          store,
		opTimeout:      cfg.OpTimeout,
		maxTurnChars:   cfg.MaxTurnChars,
		flushThreshold: cfg.FlushThreshold,
		claimTTL:       cfg.ClaimTTL,
		metrics:        metrics,
	}
}

// SetFlushHook registers the callback invoked synchronously whenever an
// append brings the buffer to the flush threshold. The hook must isolate its
// own failures; Append succeeds regardless of what the hook does.
func (s *Service) SetFlushHook(hook func(userID string)) {
	s.onThreshold = hook
}

// FlushThreshold returns the configured message-count trigger.
func (s *Service) FlushThreshold() int { return s.flushThreshold }

// Append stores one exchanged pair and returns the buffer's new length.
// Returns 0 for invalid input or an unreachable backend.
func (s *Service) Append(ctx context.Context, userID, userText, assistantText string) int {
	if len(userID) < 3 || userText == "" || assistantText == "" {
		return 0
	}
	if !s.store.Ready() {
		s.countOp("append", "skipped")
		return 0
	}

	turn := Turn{
		UserID:        userID,
		UserText:      truncate(userText, s.maxTurnChars),
		AssistantText: truncate(assistantText, s.maxTurnChars),
		CreatedAt:     time.Now().UTC(),
	}

	opCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()
	n, err := s.store.Append(opCtx, userID, turn)
	if err != nil {
		s.countOp("append", "error")
		s.countDependencyError()
		return 0
	}
	s.countOp("append", "ok")

	if n >= s.flushThreshold && s.onThreshold != nil {
		s.onThreshold(userID)
	}
	return n
}

// Read returns the user's buffered turns in chronological order, or an empty
// slice when none exist or the backend is unreachable.
func (s *Service) Read(ctx context.Context, userID string) []Turn {
	if !s.store.Ready() {
		return nil
	}
	opCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()
	turns, err := s.store.Read(opCtx, userID)
	if err != nil {
		s.countOp("read", "error")
		s.countDependencyError()
		return nil
	}
	return turns
}

// Count returns the buffered turn count, 0 when absent or unreachable.
func (s *Service) Count(ctx context.Context, userID string) int {
	if !s.store.Ready() {
		return 0
	}
	opCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()
	n, err := s.store.Count(opCtx, userID)
	if err != nil {
		s.countOp("count", "error")
		s.countDependencyError()
		return 0
	}
	return n
}

// Clear deletes the user's buffer. Reports success so the caller can tell a
// confirmed delete from a degraded no-op.
func (s *Service) Clear(ctx context.Context, userID string) bool {
	if !s.store.Ready() {
		return false
	}
	opCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()
	if err := s.store.Clear(opCtx, userID); err != nil {
		s.countOp("clear", "error")
		s.countDependencyError()
		return false
	}
	s.countOp("clear", "ok")
	return true
}

// IdleUsers returns users whose last buffer activity is older than the cutoff.
func (s *Service) IdleUsers(ctx context.Context, olderThan time.Duration) []string {
	if !s.store.Ready() {
		return nil
	}
	opCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()
	users, err := s.store.IdleUsers(opCtx, olderThan)
	if err != nil {
		s.countDependencyError()
	}
	return users
}

// TryClaim takes the short-lived per-user flush claim. Denied on any backend
// failure: a skipped flush is retried on the next trigger, a doubled one
// could drop turns.
func (s *Service) TryClaim(ctx context.Context, userID string) bool {
	if !s.store.Ready() {
		return false
	}
	opCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()
	ok, err := s.store.AcquireClaim(opCtx, userID, s.claimTTL)
	if err != nil {
		s.countDependencyError()
		return false
	}
	return ok
}

// ReleaseClaim drops the per-user flush claim. Best-effort: an orphaned claim
// lapses with its TTL.
func (s *Service) ReleaseClaim(ctx context.Context, userID string) {
	if !s.store.Ready() {
		return
	}
	opCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()
	if err := s.store.ReleaseClaim(opCtx, userID); err != nil {
		s.countDependencyError()
	}
}

// Ready reports whether the ephemeral backend is usable.
func (s *Service) Ready() bool { return s.store.Ready() }

func (s *Service) Close() error { return s.store.Close() }

func (s *Service) countOp(op, result string) {
	if s.metrics != nil {
		s.metrics.BufferOps.WithLabelValues(op, result).Inc()
	}
}

func (s *Service) countDependencyError() {
	if s.metrics != nil {
		s.metrics.DependencyErrors.WithLabelValues("buffer").Inc()
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	// Back up to a rune boundary so the cut never leaves invalid UTF-8.
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
