package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	skillrepo "github.com/yungbote/skillhub-backend/internal/data/repos/skills"
	domainagg "github.com/yungbote/skillhub-backend/internal/domain/aggregates"
	"github.com/yungbote/skillhub-backend/internal/domain/skills"
	"github.com/yungbote/skillhub-backend/internal/observability"
	"github.com/yungbote/skillhub-backend/internal/platform/dbctx"
	"github.com/yungbote/skillhub-backend/internal/platform/embedding"
	"github.com/yungbote/skillhub-backend/internal/platform/logger"
	"github.com/yungbote/skillhub-backend/internal/platform/vectorindex"
)

const (
	DefaultSearchLimit = 10
	MaxSearchLimit     = 50
)

type SearchInput struct {
	Query        string
	Limit        int
	ApprovedOnly bool
}

type SearchResult struct {
	Score float64
	Skill *skills.Skill
	// Version is nil when the version row is gone.
	Version *skills.SkillVersion
}

// SearchService runs vector search, then re-reads every hit from the
// relational store. Index hits whose embedding, visibility or skill no longer
// hold are dropped.
type SearchService interface {
	Search(ctx context.Context, in SearchInput) ([]SearchResult, error)
}

type SearchDeps struct {
	Log        *logger.Logger
	Embedder   embedding.Embedder
	Index      vectorindex.Index
	Skills     skillrepo.SkillRepo
	Versions   skillrepo.SkillVersionRepo
	Embeddings skillrepo.SkillEmbeddingRepo
	Metrics    *observability.Metrics
}

type searchService struct {
	deps SearchDeps
	log  *logger.Logger
}

func NewSearchService(deps SearchDeps) SearchService {
	if deps.Log == nil {
		deps.Log = logger.NewNop()
	}
	return &searchService{deps: deps, log: deps.Log.With("service", "SearchService")}
}

func (s *searchService) Search(ctx context.Context, in SearchInput) (out []SearchResult, err error) {
	const op = "services.search"
	query := strings.TrimSpace(in.Query)
	if query == "" {
		return []SearchResult{}, nil
	}
	limit := in.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	if limit > MaxSearchLimit {
		limit = MaxSearchLimit
	}

	ctx, span := observability.StartSpan(ctx, "skills.search",
		attribute.Int("search.limit", limit),
		attribute.Bool("search.approved_only", in.ApprovedOnly),
	)
	defer func() {
		status := "success"
		if err != nil {
			status = "error"
		}
		s.deps.Metrics.ObserveSearch(status, len(out))
		observability.EndSpan(span, err)
	}()

	vector, err := s.deps.Embedder.Embed(ctx, query)
	if err != nil {
		return nil, domainagg.NewError(domainagg.CodeDependency, op, "Embedding generation failed", err)
	}

	filter := vectorindex.Filter{Visibility: skills.SearchableVisibilities(in.ApprovedOnly)}
	start := time.Now()
	matches, err := s.deps.Index.Query(ctx, vector, filter, limit)
	if err != nil {
		return nil, domainagg.NewError(domainagg.CodeDependency, op, "Vector search failed", err)
	}
	s.log.Debug("Vector search done", "index", s.deps.Index.Name(), "matches", len(matches), "ms", time.Since(start).Milliseconds())

	out, err = s.hydrate(dbctx.Context{Ctx: ctx}, matches, filter)
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	span.SetAttributes(attribute.Int("search.results", len(out)))
	return out, nil
}

func (s *searchService) hydrate(dbc dbctx.Context, matches []vectorindex.Match, filter vectorindex.Filter) ([]SearchResult, error) {
	out := []SearchResult{}
	if len(matches) == 0 {
		return out, nil
	}
	ids := make([]uuid.UUID, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, m.ID)
	}
	rows, err := s.deps.Embeddings.GetByIDs(dbc, ids)
	if err != nil {
		return nil, err
	}
	allowed := map[skills.Visibility]bool{}
	for _, v := range filter.Visibility {
		allowed[v] = true
	}
	byID := make(map[uuid.UUID]*skills.SkillEmbedding, len(rows))
	skillIDs := make([]uuid.UUID, 0, len(rows))
	versionIDs := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		if row == nil {
			continue
		}
		// The index may lag a retag or approval change.
		if len(allowed) > 0 && !allowed[row.Visibility] {
			continue
		}
		byID[row.ID] = row
		skillIDs = append(skillIDs, row.SkillID)
		versionIDs = append(versionIDs, row.VersionID)
	}
	if len(byID) == 0 {
		return out, nil
	}

	var (
		skillRows   []*skills.Skill
		versionRows []*skills.SkillVersion
	)
	g, gctx := errgroup.WithContext(dbc.Ctx)
	g.Go(func() (err error) {
		skillRows, err = s.deps.Skills.GetByIDs(dbctx.Context{Ctx: gctx}, skillIDs)
		return err
	})
	g.Go(func() (err error) {
		versionRows, err = s.deps.Versions.GetByIDs(dbctx.Context{Ctx: gctx}, versionIDs)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	skillByID := make(map[uuid.UUID]*skills.Skill, len(skillRows))
	for _, sk := range skillRows {
		if sk != nil {
			skillByID[sk.ID] = sk
		}
	}
	versionByID := make(map[uuid.UUID]*skills.SkillVersion, len(versionRows))
	for _, v := range versionRows {
		if v != nil {
			versionByID[v.ID] = v
		}
	}

	for _, m := range matches {
		row := byID[m.ID]
		if row == nil {
			continue
		}
		sk := skillByID[row.SkillID]
		if sk == nil || sk.IsSoftDeleted() {
			continue
		}
		out = append(out, SearchResult{Score: m.Score, Skill: sk, Version: versionByID[row.VersionID]})
	}
	return out, nil
}
