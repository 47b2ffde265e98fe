package rag

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
)

// MemoryStore is an in-process VectorStore using exact cosine similarity.
// It is intended for local runs (VECTOR_BACKEND=memory) and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]VectorRecord
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]VectorRecord)}
}

// Upsert stores or overwrites records by id. A batch with an empty id is
// rejected before anything is written.
func (s *MemoryStore) Upsert(_ context.Context, records []VectorRecord) error {
	for i, rec := range records {
		if rec.ID == "" {
			return fmt.Errorf("memory: record %d of %d has an empty id", i, len(records))
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range records {
		vec := make([]float32, len(rec.Vector))
		copy(vec, rec.Vector)
		rec.Vector = vec
		s.records[rec.ID] = rec
	}
	return nil
}

// Query returns the topK records by cosine similarity, best first. Ties are
// broken by id so results are deterministic.
func (s *MemoryStore) Query(ctx context.Context, vector []float32, topK int) ([]Match, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	matches := make([]Match, 0, len(s.records))
	for _, rec := range s.records {
		if len(rec.Vector) != len(vector) {
			continue
		}
		matches = append(matches, Match{
			ID:       rec.ID,
			Metadata: rec.Metadata,
			Score:    cosine(vector, rec.Vector),
		})
	}
	s.mu.RUnlock()

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].ID < matches[j].ID
	})
	if topK > 0 && len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

// Len returns the number of stored records.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// IDs returns the stored record ids in sorted order.
func (s *MemoryStore) IDs() []string {
	s.mu.RLock()
	ids := make([]string, 0, len(s.records))
	for id := range s.records {
		ids = append(ids, id)
	}
	s.mu.RUnlock()
	sort.Strings(ids)
	return ids
}

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }

func cosine(a, b []float32) float32 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}
