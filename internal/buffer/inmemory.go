package buffer

import (
	"context"
	"sync"
	"time"
)

// InMemoryStore is a simple in-process buffer backend for local/dev use.
type InMemoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]*bufferEntry
	claims  map[string]time.Time
}

type bufferEntry struct {
	turns        []Turn // newest-first, matching the Redis layout
	lastActivity time.Time
	expiresAt    time.Time
}

func NewInMemoryStore(ttl time.Duration) *InMemoryStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &InMemoryStore{
		ttl:     ttl,
		entries: make(map[string]*bufferEntry),
		claims:  make(map[string]time.Time),
	}
}

// live returns the entry for userID, dropping it first if its TTL lapsed.
func (s *InMemoryStore) live(userID string) *bufferEntry {
	e, ok := s.entries[userID]
	if !ok {
		return nil
	}
	if time.Now().After(e.expiresAt) {
		delete(s.entries, userID)
		return nil
	}
	return e
}

func (s *InMemoryStore) Append(_ context.Context, userID string, turn Turn) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	e := s.live(userID)
	if e == nil {
		e = &bufferEntry{}
		s.entries[userID] = e
	}
	e.turns = append([]Turn{turn}, e.turns...)
	e.lastActivity = now
	e.expiresAt = now.Add(s.ttl)
	return len(e.turns), nil
}

func (s *InMemoryStore) Read(_ context.Context, userID string) ([]Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.live(userID)
	if e == nil {
		return nil, nil
	}
	out := make([]Turn, 0, len(e.turns))
	for i := len(e.turns) - 1; i >= 0; i-- {
		out = append(out, e.turns[i])
	}
	return out, nil
}

func (s *InMemoryStore) Count(_ context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.live(userID)
	if e == nil {
		return 0, nil
	}
	return len(e.turns), nil
}

func (s *InMemoryStore) Clear(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, userID)
	return nil
}

func (s *InMemoryStore) IdleUsers(_ context.Context, olderThan time.Duration) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := time.Now().Add(-olderThan)
	var users []string
	for userID := range s.entries {
		e := s.live(userID)
		if e == nil {
			continue
		}
		if e.lastActivity.Before(cutoff) {
			users = append(users, userID)
		}
	}
	return users, nil
}

func (s *InMemoryStore) AcquireClaim(_ context.Context, userID string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if until, ok := s.claims[userID]; ok && time.Now().Before(until) {
		return false, nil
	}
	s.claims[userID] = time.Now().Add(ttl)
	return true, nil
}

func (s *InMemoryStore) ReleaseClaim(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.claims, userID)
	return nil
}

func (s *InMemoryStore) Ready() bool { return true }

func (s *InMemoryStore) Close() error { return nil }
