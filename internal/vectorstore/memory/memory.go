package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/Zephyr-ace/Mentis-KI-Challange-Version/internal/domain"
)

// Store is an in-memory vector store using brute-force cosine similarity.
// It enforces the same dimension invariant as the remote backends, which
// makes it a faithful stand-in for them in tests and local runs.
type Store struct {
	mu          sync.RWMutex
	collections map[string]*collection
}

type collection struct {
	dimension int
	records   map[string]domain.Record
}

func NewStore() *Store {
	return &Store{collections: map[string]*collection{}}
}

func (s *Store) EnsureCollection(_ context.Context, name string, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("invalid dimension %d for collection %s", dimension, name)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.collections[name]; ok {
		if c.dimension != dimension {
			return fmt.Errorf("collection %s has dimension %d, requested %d", name, c.dimension, dimension)
		}
		return nil
	}
	s.collections[name] = &collection{dimension: dimension, records: map[string]domain.Record{}}
	return nil
}

func (s *Store) DeleteCollection(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.collections, name)
	return nil
}

func (s *Store) Upsert(_ context.Context, name string, records []domain.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collections[name]
	if !ok {
		return fmt.Errorf("collection %s does not exist", name)
	}
	for _, r := range records {
		if len(r.Vector) != c.dimension {
			return fmt.Errorf("record %s has dimension %d, collection %s expects %d", r.ID, len(r.Vector), name, c.dimension)
		}
	}
	for _, r := range records {
		c.records[r.ID] = r
	}
	return nil
}

func (s *Store) Query(_ context.Context, name string, vector []float32, topK int) ([]domain.Hit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[name]
	if !ok {
		return nil, fmt.Errorf("collection %s does not exist", name)
	}
	if len(vector) != c.dimension {
		return nil, fmt.Errorf("query vector has dimension %d, collection %s expects %d", len(vector), name, c.dimension)
	}
	if topK <= 0 {
		return nil, nil
	}
	hits := make([]domain.Hit, 0, len(c.records))
	for _, r := range c.records {
		hits = append(hits, domain.Hit{ID: r.ID, Score: cosine(vector, r.Vector), Payload: r.Payload})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ID < hits[j].ID
	})
	if topK < len(hits) {
		hits = hits[:topK]
	}
	return hits, nil
}

func (s *Store) Fetch(_ context.Context, name string, ids []string) ([]domain.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[name]
	if !ok {
		return nil, fmt.Errorf("collection %s does not exist", name)
	}
	records := make([]domain.Record, 0, len(ids))
	for _, id := range ids {
		if r, ok := c.records[id]; ok {
			records = append(records, r)
		}
	}
	return records, nil
}

// Len reports how many records a collection holds. Zero for collections
// that do not exist.
func (s *Store) Len(name string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[name]
	if !ok {
		return 0
	}
	return len(c.records)
}

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
