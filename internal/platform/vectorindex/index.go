// Package vectorindex is the approximate nearest-neighbour primitive search
// runs against. Indexes are eventually consistent with the relational store
// and are never trusted for visibility or existence.
package vectorindex

import (
	"context"
	"errors"

	"github.com/google/uuid"

	types "github.com/yungbote/skillhub-backend/internal/domain/skills"
)

// Record is the indexed form of a SkillEmbedding.
type Record struct {
	ID         uuid.UUID
	SkillID    uuid.UUID
	VersionID  uuid.UUID
	Vector     []float32
	Visibility types.Visibility
}

// Filter restricts a query to embeddings whose visibility is any of the
// listed classes. An empty filter matches everything.
type Filter struct {
	Visibility []types.Visibility
}

type Match struct {
	ID    uuid.UUID
	Score float64
}

type Index interface {
	Name() string
	Query(ctx context.Context, vector []float32, filter Filter, limit int) ([]Match, error)
	// Upsert writes records. A record without a vector only refreshes its
	// visibility.
	Upsert(ctx context.Context, records []Record) error
	Delete(ctx context.Context, ids []uuid.UUID) error
}

func RecordFromEmbedding(e *types.SkillEmbedding) Record {
	return Record{
		ID:         e.ID,
		SkillID:    e.SkillID,
		VersionID:  e.VersionID,
		Vector:     e.Embedding.Slice(),
		Visibility: e.Visibility,
	}
}

func RecordsFromEmbeddings(rows []*types.SkillEmbedding) []Record {
	out := make([]Record, 0, len(rows))
	for _, row := range rows {
		if row == nil {
			continue
		}
		out = append(out, RecordFromEmbedding(row))
	}
	return out
}

func (f Filter) matches(v types.Visibility) bool {
	if len(f.Visibility) == 0 {
		return true
	}
	for _, want := range f.Visibility {
		if want == v {
			return true
		}
	}
	return false
}

// Strings returns the filter's visibility classes as plain strings.
func (f Filter) Strings() []string {
	out := make([]string, 0, len(f.Visibility))
	for _, v := range f.Visibility {
		out = append(out, string(v))
	}
	return out
}

// ErrorStatus labels an index failure for metrics: "success", "transient" for
// errors that report Temporary() true, or "error".
func ErrorStatus(err error) string {
	if err == nil {
		return "success"
	}
	var t interface{ Temporary() bool }
	if errors.As(err, &t) && t.Temporary() {
		return "transient"
	}
	return "error"
}
