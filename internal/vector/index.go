package vector

import (
	"context"
	"fmt"
	"time"
)

// Record is the metadata payload stored alongside an embedding. Records are
// immutable once written; re-upserting an ID replaces the prior record.
type Record struct {
	ID        string
	Text      string
	Kind      string // user_profile, chat_summary, knowledge
	UserID    string // empty for shared knowledge records
	CreatedAt time.Time
	Extra     map[string]string
}

// Match is a retrieval result with its similarity score.
type Match struct {
	Record
	Score float32
}

// Index is the namespaced nearest-neighbor store.
type Index interface {
	// Upsert writes a record under its ID inside one namespace. Idempotent.
	Upsert(ctx context.Context, ns Namespace, embedding []float32, rec Record) error
	// Query returns up to topK records ordered by descending similarity.
	// filter applies metadata equality (e.g. user_id) before ranking.
	Query(ctx context.Context, ns Namespace, embedding []float32, topK int, filter map[string]string) ([]Match, error)
	Close() error
}

// ProfileRecordID is the stable ID for a user's profile record, so a profile
// rewrite replaces the prior one.
func ProfileRecordID(userID string) string {
	return "profile_" + userID
}

// SummaryRecordID is the ID for one flushed-session summary.
func SummaryRecordID(userID string, at time.Time) string {
	return fmt.Sprintf("summary_%s_%d", userID, at.Unix())
}
