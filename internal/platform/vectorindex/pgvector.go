package vectorindex

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"

	"github.com/yungbote/skillhub-backend/internal/platform/logger"
)

// PGVector queries the skill_embedding table directly. The table is the
// source of truth, so writes are no-ops.
type PGVector struct {
	db  *gorm.DB
	log *logger.Logger
}

var _ Index = (*PGVector)(nil)

func NewPGVector(db *gorm.DB, log *logger.Logger) *PGVector {
	if log == nil {
		log = logger.NewNop()
	}
	return &PGVector{db: db, log: log.With("service", "PGVectorIndex")}
}

func (p *PGVector) Name() string { return "pgvector" }

type pgMatch struct {
	ID    uuid.UUID `gorm:"column:id"`
	Score float64   `gorm:"column:score"`
}

func (p *PGVector) Query(ctx context.Context, vector []float32, filter Filter, limit int) ([]Match, error) {
	if len(vector) == 0 {
		return nil, fmt.Errorf("pgvector: query vector required")
	}
	if limit <= 0 {
		limit = 10
	}
	q := pgvector.NewVector(vector)
	tx := p.db.WithContext(ctx).
		Table("skill_embedding").
		Select("id, 1 - (embedding <=> ?) AS score", q)
	if len(filter.Visibility) > 0 {
		tx = tx.Where("visibility IN ?", filter.Strings())
	}
	var rows []pgMatch
	if err := tx.Order(gorm.Expr("embedding <=> ?", q)).Limit(limit).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("pgvector: query: %w", err)
	}
	out := make([]Match, 0, len(rows))
	for _, r := range rows {
		out = append(out, Match{ID: r.ID, Score: r.Score})
	}
	return out, nil
}

func (p *PGVector) Upsert(context.Context, []Record) error { return nil }

func (p *PGVector) Delete(context.Context, []uuid.UUID) error { return nil }
