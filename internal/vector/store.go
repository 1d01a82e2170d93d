package vector

import (
	"context"
	"errors"

	"github.com/marshee-ai/marshee/internal/embed"
	"github.com/marshee-ai/marshee/internal/observability"
)

// ErrNotReady is returned from writes while the semantic store is unusable.
var ErrNotReady = errors.New("semantic store not ready")

// Store couples the vector index with the embedding provider and acts as the
// degradation boundary for retrieval: reads on a broken store yield empty
// results, never errors. Writes DO report failure, because the summarizer
// must not clear a buffer whose summary never reached the index.
type Store struct {
	index    Index
	embedder embed.Embedder
	metrics  *observability.Metrics
	ready    bool
}

func NewStore(index Index, embedder embed.Embedder, metrics *observability.Metrics) *Store {
	return &Store{
		index:    index,
		embedder: embedder,
		metrics:  metrics,
		ready:    index != nil && embedder != nil,
	}
}

// Ready reports whether the index and embedding capability are usable.
func (s *Store) Ready() bool { return s != nil && s.ready }

// Embed converts text to a vector. On any failure it returns a zero vector
// of the expected dimensionality so downstream code never special-cases
// embedding errors.
func (s *Store) Embed(ctx context.Context, text string) []float32 {
	if !s.Ready() {
		return make([]float32, s.dimensions())
	}
	vec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		s.countError()
		return make([]float32, s.embedder.Dimensions())
	}
	return vec
}

// UpsertText embeds rec.Text and writes the record into ns.
func (s *Store) UpsertText(ctx context.Context, ns Namespace, rec Record) error {
	if !s.Ready() {
		return ErrNotReady
	}
	if !ns.Known() {
		return errors.New("unknown namespace " + string(ns))
	}
	vec, err := s.embedder.Embed(ctx, rec.Text)
	if err != nil {
		s.countError()
		return err
	}
	if err := s.index.Upsert(ctx, ns, vec, rec); err != nil {
		s.countError()
		return err
	}
	return nil
}

// Query returns up to topK matches above zero similarity, best first. The
// per-namespace score floor is applied by the caller (the context assembler),
// which owns the recall/precision tradeoff.
func (s *Store) Query(ctx context.Context, ns Namespace, queryVec []float32, topK int, filter map[string]string) []Match {
	if !s.Ready() || !ns.Known() {
		return nil
	}
	matches, err := s.index.Query(ctx, ns, queryVec, topK, filter)
	if err != nil {
		s.countError()
		return nil
	}
	return matches
}

func (s *Store) Close() error {
	if s.index == nil {
		return nil
	}
	return s.index.Close()
}

func (s *Store) dimensions() int {
	if s.embedder != nil {
		return s.embedder.Dimensions()
	}
	return 0
}

func (s *Store) countError() {
	if s.metrics != nil {
		s.metrics.DependencyErrors.WithLabelValues("vector").Inc()
	}
}
