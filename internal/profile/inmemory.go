package profile

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryStore is a simple in-process profile store for local/dev use.
type InMemoryStore struct {
	mu          sync.RWMutex
	profiles    map[string]Profile
	transcripts map[string][]Transcript
	breedRows   []BreedWeight
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		profiles:    make(map[string]Profile),
		transcripts: make(map[string][]Transcript),
		breedRows:   DefaultBreedWeights(),
	}
}

func (s *InMemoryStore) GetOrCreate(_ context.Context, userID string) (Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.profiles[userID]; ok {
		return p, nil
	}
	now := time.Now().UTC()
	p := Profile{
		UserID:       userID,
		CurrentStage: "user_name",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.profiles[userID] = p
	return p, nil
}

func (s *InMemoryStore) Get(_ context.Context, userID string) (Profile, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[userID]
	return p, ok, nil
}

func (s *InMemoryStore) Update(_ context.Context, p Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.UpdatedAt = time.Now().UTC()
	s.profiles[p.UserID] = p
	return nil
}

func (s *InMemoryStore) SaveTranscript(_ context.Context, t Transcript) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	s.transcripts[t.UserID] = append(s.transcripts[t.UserID], t)
	return nil
}

func (s *InMemoryStore) RecentTranscripts(_ context.Context, userID string, limit int) ([]Transcript, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	arr := s.transcripts[userID]
	if len(arr) == 0 {
		return nil, nil
	}
	if limit <= 0 || limit > len(arr) {
		limit = len(arr)
	}
	out := make([]Transcript, 0, limit)
	for i := len(arr) - limit; i < len(arr); i++ {
		out = append(out, arr[i])
	}
	return out, nil
}

func (s *InMemoryStore) BreedWeightFor(_ context.Context, breed, gender string, ageMonths int) (BreedWeight, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var best BreedWeight
	var found, anyRow bool
	var youngest BreedWeight
	for _, row := range s.breedRows {
		if row.Breed != breed || row.Gender != gender {
			continue
		}
		if !anyRow || row.AgeMonths < youngest.AgeMonths {
			youngest = row
			anyRow = true
		}
		if row.AgeMonths <= ageMonths && (!found || row.AgeMonths > best.AgeMonths) {
			best = row
			found = true
		}
	}
	if found {
		return best, true, nil
	}
	if anyRow {
		return youngest, true, nil
	}
	return BreedWeight{}, false, nil
}

func (s *InMemoryStore) Close() error { return nil }
