package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	skillrepo "github.com/yungbote/skillhub-backend/internal/data/repos/skills"
	"github.com/yungbote/skillhub-backend/internal/platform/dbctx"
	"github.com/yungbote/skillhub-backend/internal/platform/logger"
	"github.com/yungbote/skillhub-backend/internal/platform/vectorindex"
)

const reindexPageSize = 500

// IndexSyncService rebuilds an external vector index from the relational
// embeddings. Used on boot for the in-memory index and on demand for qdrant.
type IndexSyncService interface {
	Reindex(ctx context.Context) (int, error)
}

type indexSyncService struct {
	log        *logger.Logger
	embeddings skillrepo.SkillEmbeddingRepo
	index      vectorindex.Index
}

func NewIndexSyncService(log *logger.Logger, embeddings skillrepo.SkillEmbeddingRepo, index vectorindex.Index) IndexSyncService {
	if log == nil {
		log = logger.NewNop()
	}
	return &indexSyncService{log: log.With("service", "IndexSyncService"), embeddings: embeddings, index: index}
}

func (s *indexSyncService) Reindex(ctx context.Context) (int, error) {
	start := time.Now()
	total := 0
	after := uuid.Nil
	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		rows, err := s.embeddings.ListPage(dbctx.Context{Ctx: ctx}, after, reindexPageSize)
		if err != nil {
			return total, err
		}
		if len(rows) == 0 {
			break
		}
		if err := s.index.Upsert(ctx, vectorindex.RecordsFromEmbeddings(rows)); err != nil {
			return total, err
		}
		total += len(rows)
		after = rows[len(rows)-1].ID
		if len(rows) < reindexPageSize {
			break
		}
	}
	s.log.Info("Vector index rebuilt", "index", s.index.Name(), "records", total, "ms", time.Since(start).Milliseconds())
	return total, nil
}
