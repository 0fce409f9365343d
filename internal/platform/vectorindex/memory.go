package vectorindex

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Memory is an in-process index for local runs and tests.
type Memory struct {
	mu      sync.RWMutex
	records map[uuid.UUID]Record
}

var _ Index = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{records: map[uuid.UUID]Record{}}
}

func (m *Memory) Name() string { return "memory" }

func (m *Memory) Query(_ context.Context, vector []float32, filter Filter, limit int) ([]Match, error) {
	if limit <= 0 {
		limit = 10
	}
	m.mu.RLock()
	out := make([]Match, 0, len(m.records))
	for id, rec := range m.records {
		if !filter.matches(rec.Visibility) {
			continue
		}
		out = append(out, Match{ID: id, Score: cosine(vector, rec.Vector)})
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score == out[j].Score {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].Score > out[j].Score
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) Upsert(_ context.Context, records []Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range records {
		if len(rec.Vector) == 0 {
			existing, ok := m.records[rec.ID]
			if !ok {
				continue
			}
			existing.Visibility = rec.Visibility
			m.records[rec.ID] = existing
			continue
		}
		rec.Vector = append([]float32(nil), rec.Vector...)
		m.records[rec.ID] = rec
	}
	return nil
}

func (m *Memory) Delete(_ context.Context, ids []uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		delete(m.records, id)
	}
	return nil
}

// Len reports how many records are indexed.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

func cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
