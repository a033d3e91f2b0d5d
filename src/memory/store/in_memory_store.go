package store

import (
	"context"
	"sort"
	"sync"
)

// InMemoryStore implements VectorStore for tests and lightweight deployments.
// It needs no provisioning: the embedded map is the collection.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[string]QARecord
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[string]QARecord)}
}

func (s *InMemoryStore) Upsert(_ context.Context, records []QARecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.records == nil {
		s.records = make(map[string]QARecord)
	}
	for _, rec := range records {
		rec.Embedding = append([]float32(nil), rec.Embedding...)
		s.records[rec.ID] = rec
	}
	return nil
}

func (s *InMemoryStore) Query(_ context.Context, vector []float32, topK int) ([]QARecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if topK <= 0 {
		return nil, nil
	}
	scored := make([]QARecord, 0, len(s.records))
	for _, rec := range s.records {
		rec.Score = CosineSimilarity(vector, rec.Embedding)
		rec.Embedding = nil
		scored = append(scored, rec)
	}
	sort.Slice(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if len(scored) > topK {
		scored = scored[:topK]
	}
	return scored, nil
}

func (s *InMemoryStore) ListAll(_ context.Context) ([]QARecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := make([]QARecord, 0, len(s.records))
	for _, rec := range s.records {
		rec.Embedding = nil
		all = append(all, rec)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].ID < all[j].ID
	})
	return all, nil
}

func (s *InMemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}
