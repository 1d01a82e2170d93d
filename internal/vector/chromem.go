package vector

import (
	"context"
	"fmt"
	"strings"
	"time"

	chromem "github.com/philippgille/chromem-go"
)

// ChromemIndex stores vectors in chromem-go, an embedded pure-Go vector
// database, with one collection per namespace and cosine similarity.
type ChromemIndex struct {
	db          *chromem.DB
	collections map[Namespace]*chromem.Collection
}

// NewChromemIndex opens the index. With an empty path everything lives in
// process memory; with a path the collections persist across restarts.
// Collection creation is idempotent.
func NewChromemIndex(path string) (*ChromemIndex, error) {
	var db *chromem.DB
	var err error
	if path == "" {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(path, false)
		if err != nil {
			return nil, fmt.Errorf("open vector db: %w", err)
		}
	}

	idx := &ChromemIndex{
		db:          db,
		collections: make(map[Namespace]*chromem.Collection, len(All())),
	}
	for _, ns := range All() {
		// Embeddings are always provided by the caller, so no embedding func.
		col, err := db.GetOrCreateCollection(string(ns), nil, nil)
		if err != nil {
			return nil, fmt.Errorf("create collection %s: %w", ns, err)
		}
		idx.collections[ns] = col
	}
	return idx, nil
}

func (x *ChromemIndex) collection(ns Namespace) (*chromem.Collection, error) {
	col, ok := x.collections[ns]
	if !ok {
		return nil, fmt.Errorf("unknown namespace %q", ns)
	}
	return col, nil
}

func (x *ChromemIndex) Upsert(ctx context.Context, ns Namespace, embedding []float32, rec Record) error {
	col, err := x.collection(ns)
	if err != nil {
		return err
	}

	metadata := map[string]string{
		"type":       rec.Kind,
		"created_at": rec.CreatedAt.UTC().Format(time.RFC3339),
	}
	if rec.UserID != "" {
		metadata["user_id"] = rec.UserID
	}
	for k, v := range rec.Extra {
		metadata[k] = v
	}

	err = col.AddDocument(ctx, chromem.Document{
		ID:        rec.ID,
		Content:   rec.Text,
		Embedding: embedding,
		Metadata:  metadata,
	})
	if err != nil {
		return fmt.Errorf("upsert %s/%s: %w", ns, rec.ID, err)
	}
	return nil
}

func (x *ChromemIndex) Query(ctx context.Context, ns Namespace, embedding []float32, topK int, filter map[string]string) ([]Match, error) {
	col, err := x.collection(ns)
	if err != nil {
		return nil, err
	}
	if n := col.Count(); n < topK {
		topK = n
	}
	if topK <= 0 {
		return nil, nil
	}

	// chromem rejects nResults above the eligible document count, which
	// depends on the metadata filter. Shrink until the query fits.
	var results []chromem.Result
	for k := topK; k >= 1; k-- {
		results, err = col.QueryEmbedding(ctx, embedding, k, filter, nil)
		if err == nil {
			break
		}
		if !isTooFewDocsError(err) {
			return nil, fmt.Errorf("query %s: %w", ns, err)
		}
		if k == 1 {
			return nil, nil
		}
	}

	matches := make([]Match, 0, len(results))
	for _, res := range results {
		matches = append(matches, Match{
			Record: recordFromResult(res),
			Score:  res.Similarity,
		})
	}
	return matches, nil
}

func (x *ChromemIndex) Close() error { return nil }

func recordFromResult(res chromem.Result) Record {
	createdAt, _ := time.Parse(time.RFC3339, res.Metadata["created_at"])
	var extra map[string]string
	for k, v := range res.Metadata {
		switch k {
		case "type", "user_id", "created_at":
		default:
			if extra == nil {
				extra = make(map[string]string)
			}
			extra[k] = v
		}
	}
	return Record{
		ID:        res.ID,
		Text:      res.Content,
		Kind:      res.Metadata["type"],
		UserID:    res.Metadata["user_id"],
		CreatedAt: createdAt,
		Extra:     extra,
	}
}

func isTooFewDocsError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "nResults must be") || strings.Contains(msg, "number of documents")
}
