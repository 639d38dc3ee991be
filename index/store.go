package index

import "context"

// Metadata is the chunk metadata persisted alongside each vector.
type Metadata struct {
	DocumentID string
	Position   int
	TokenCount int
	Timestamp  string
	Speaker    string
}

// Record is one indexed chunk as the store persists it. The store exclusively
// owns persisted vectors; the core never re-derives them.
type Record struct {
	ID       string
	Vector   []float32
	Text     string
	Metadata Metadata
}

// Match is a store query hit, ordered by the store's similarity ranking.
type Match struct {
	Record
	Score float64
}

// Filter restricts a query to chunks from the given documents. A nil filter
// or empty id list matches everything.
type Filter struct {
	DocumentIDs []string
}

func (f *Filter) matches(documentID string) bool {
	if f == nil || len(f.DocumentIDs) == 0 {
		return true
	}
	for _, id := range f.DocumentIDs {
		if id == documentID {
			return true
		}
	}
	return false
}

// Store is the nearest-neighbor vector store collaborator.
type Store interface {
	Upsert(ctx context.Context, records ...Record) error
	// Query returns up to k matches ordered most similar first.
	Query(ctx context.Context, vector []float32, k int, filter *Filter) ([]Match, error)
	Count(ctx context.Context) (int, error)
	// CountWhere counts the chunks stored for one document. It exists so
	// ingestion idempotence checks need no dummy-vector query.
	CountWhere(ctx context.Context, documentID string) (int, error)
}
