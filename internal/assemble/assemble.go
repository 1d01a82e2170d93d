// Package assemble builds the per-turn context window: the tail of the
// user's session buffer plus semantic snippets retrieved from the routed
// namespaces. Assembly is best-effort and never fails a turn; a degraded
// tier simply contributes nothing.
package assemble

import (
	"context"
	"time"

	"github.com/marshee-ai/marshee/internal/buffer"
	"github.com/marshee-ai/marshee/internal/observability"
	"github.com/marshee-ai/marshee/internal/vector"
)

// Snippet is one retrieved piece of long-term context, already past the
// namespace's similarity floor.
type Snippet struct {
	Text      string
	Kind      string
	Score     float32
	CreatedAt time.Time
}

// Context is everything the generation layer gets to see for one turn.
type Context struct {
	RecentTurns []buffer.Turn
	Snippets    map[vector.Namespace][]Snippet
}

// HasSnippets reports whether any namespace contributed at least one snippet.
func (c Context) HasSnippets() bool {
	for _, s := range c.Snippets {
		if len(s) > 0 {
			return true
		}
	}
	return false
}

// Assembler joins the session buffer and the semantic store for a query.
type Assembler struct {
	buffers     *buffer.Service
	store       *vector.Store
	recentLimit int
	metrics     *observability.Metrics
}

func New(buffers *buffer.Service, store *vector.Store, recentLimit int, metrics *observability.Metrics) *Assembler {
	if recentLimit <= 0 {
		recentLimit = 6
	}
	return &Assembler{
		buffers:     buffers,
		store:       store,
		recentLimit: recentLimit,
		metrics:     metrics,
	}
}

// BuildContext gathers the most recent turns and the routed, score-filtered
// snippets for the query. It never returns an error: whatever tier is down
// is left out and the caller works with the rest.
func (a *Assembler) BuildContext(ctx context.Context, userID, query string) Context {
	out := Context{
		RecentTurns: a.recentTurns(ctx, userID),
		Snippets:    make(map[vector.Namespace][]Snippet),
	}
	if a.store == nil || !a.store.Ready() {
		return out
	}

	queryVec := a.store.Embed(ctx, query)
	if isZeroVector(queryVec) {
		// The embedder failed (or produced nothing usable). Cosine scores
		// against a zero vector are meaningless, so retrieval is skipped
		// rather than letting unranked records through the floor.
		return out
	}
	for _, ns := range vector.SelectNamespaces(query) {
		// Only a user's own history is scoped to them; the knowledge
		// namespaces are shared across all users.
		var filter map[string]string
		if ns == vector.UserHistory {
			filter = map[string]string{"user_id": userID}
		}
		for _, m := range a.store.Query(ctx, ns, queryVec, ns.TopK(), filter) {
			// Written so a NaN score also fails the floor.
			if !(m.Score >= ns.MinScore()) {
				continue
			}
			out.Snippets[ns] = append(out.Snippets[ns], Snippet{
				Text:      m.Text,
				Kind:      m.Kind,
				Score:     m.Score,
				CreatedAt: m.CreatedAt,
			})
			a.countSnippet(ns)
		}
	}
	return out
}

func (a *Assembler) recentTurns(ctx context.Context, userID string) []buffer.Turn {
	turns := a.buffers.Read(ctx, userID)
	if len(turns) > a.recentLimit {
		turns = turns[len(turns)-a.recentLimit:]
	}
	return turns
}

func isZeroVector(vec []float32) bool {
	for _, v := range vec {
		if v != 0 {
			return false
		}
	}
	return true
}

func (a *Assembler) countSnippet(ns vector.Namespace) {
	if a.metrics != nil {
		a.metrics.RetrievedSnippets.WithLabelValues(string(ns)).Inc()
	}
}
