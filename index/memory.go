package index

import (
	"context"
	"math"
	"sort"
	"sync"
)

// MemoryStore is an in-process Store with brute-force cosine ranking. It
// backs tests and small local corpora; production uses the pgvector store.
type MemoryStore struct {
	mu      sync.RWMutex
	records []Record
	byID    map[string]int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: make(map[string]int)}
}

func (s *MemoryStore) Upsert(_ context.Context, records ...Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, record := range records {
		if pos, ok := s.byID[record.ID]; ok {
			s.records[pos] = record
			continue
		}
		s.byID[record.ID] = len(s.records)
		s.records = append(s.records, record)
	}
	return nil
}

func (s *MemoryStore) Query(_ context.Context, vector []float32, k int, filter *Filter) ([]Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := make([]Match, 0, len(s.records))
	for _, record := range s.records {
		if !filter.matches(record.Metadata.DocumentID) {
			continue
		}
		matches = append(matches, Match{Record: record, Score: cosineSimilarity(vector, record.Vector)})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if k > 0 && len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

func (s *MemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

func (s *MemoryStore) CountWhere(_ context.Context, documentID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, record := range s.records {
		if record.Metadata.DocumentID == documentID {
			count++
		}
	}
	return count, nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

var _ Store = (*MemoryStore)(nil)
