package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	domainagg "github.com/yungbote/skillhub-backend/internal/domain/aggregates"
	"github.com/yungbote/skillhub-backend/internal/domain/skills"
	"github.com/yungbote/skillhub-backend/internal/observability"
	"github.com/yungbote/skillhub-backend/internal/platform/blob"
	"github.com/yungbote/skillhub-backend/internal/platform/embedding"
	"github.com/yungbote/skillhub-backend/internal/platform/logger"
	"github.com/yungbote/skillhub-backend/internal/platform/vectorindex"
	"github.com/yungbote/skillhub-backend/internal/skills/bundle"
)

const blobFetchConcurrency = 8

type PublishInput struct {
	Slug        string
	DisplayName string
	Version     string
	Changelog   string
	Tags        []string
	Files       []skills.VersionFile
}

type PublishOutput struct {
	SkillID     uuid.UUID `json:"skillId"`
	VersionID   uuid.UUID `json:"versionId"`
	EmbeddingID uuid.UUID `json:"embeddingId"`
}

// PublishService runs the publish pipeline: gate, validate, extract, embed,
// then one aggregate write. Nothing is persisted unless every step before the
// write succeeds.
type PublishService interface {
	Publish(ctx context.Context, actor domainagg.Actor, in PublishInput) (PublishOutput, error)
}

type PublishDeps struct {
	Log       *logger.Logger
	Aggregate domainagg.SkillAggregate
	Blobs     blob.Store
	Embedder  embedding.Embedder
	Index     vectorindex.Index
	// Gate is optional; nil skips the account-age check.
	Gate    AccountAgeService
	Metrics *observability.Metrics
}

type publishService struct {
	deps PublishDeps
	log  *logger.Logger
}

func NewPublishService(deps PublishDeps) PublishService {
	if deps.Log == nil {
		deps.Log = logger.NewNop()
	}
	return &publishService{deps: deps, log: deps.Log.With("service", "PublishService")}
}

func (s *publishService) Publish(ctx context.Context, actor domainagg.Actor, in PublishInput) (out PublishOutput, err error) {
	const op = "services.publish"
	ctx, span := observability.StartSpan(ctx, "skills.publish",
		attribute.String("skill.slug", in.Slug),
		attribute.String("skill.version", in.Version),
	)
	defer func() {
		status := "success"
		if err != nil {
			status = string(domainagg.CodeOf(err))
			if status == "" {
				status = "error"
			}
		}
		s.deps.Metrics.IncPublish(status)
		observability.EndSpan(span, err)
	}()

	log := s.log.ForRequest(ctx)

	if actor.UserID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeUnauthorized, op, "unauthorized", nil)
	}
	if s.deps.Gate != nil {
		if err := s.deps.Gate.RequireAccountAge(ctx, actor.UserID); err != nil {
			return out, err
		}
	}

	valid, err := bundle.ValidatePublish(bundle.PublishRequest{
		Slug:        in.Slug,
		DisplayName: in.DisplayName,
		Version:     in.Version,
		Changelog:   in.Changelog,
		Tags:        in.Tags,
		Files:       in.Files,
	})
	if err != nil {
		return out, err
	}

	readme, others, err := s.fetchTexts(ctx, valid)
	if err != nil {
		return out, err
	}
	parsed := bundle.ParseReadme(readme)
	text := bundle.BuildEmbeddingText(parsed.Frontmatter, readme, others)

	start := time.Now()
	vector, err := s.deps.Embedder.Embed(ctx, text)
	if err != nil {
		log.Warn("Embedding generation failed", "slug", valid.Slug, "error", err)
		return out, domainagg.NewError(domainagg.CodeDependency, op, "Embedding generation failed", err)
	}
	log.Debug("Embedding generated", "slug", valid.Slug, "dims", len(vector), "ms", time.Since(start).Milliseconds())

	var summary *string
	if desc := bundle.FrontmatterValue(parsed.Frontmatter, "description"); desc != "" {
		summary = &desc
	}

	res, err := s.deps.Aggregate.Publish(ctx, domainagg.PublishInput{
		Actor:       actor,
		Slug:        valid.Slug,
		DisplayName: valid.DisplayName,
		Version:     valid.Version,
		Changelog:   valid.Changelog,
		Tags:        valid.Tags,
		Files:       valid.Files,
		Parsed:      parsed,
		Summary:     summary,
		Embedding:   vector,
	})
	if err != nil {
		return out, err
	}

	syncIndex(ctx, log, s.deps.Index, s.deps.Metrics, res.Changed)
	span.SetAttributes(attribute.String("skill.id", res.SkillID.String()))
	log.Info("Skill version published",
		"skill_id", res.SkillID.String(),
		"version_id", res.VersionID.String(),
		"slug", valid.Slug,
		"version", valid.Version,
	)
	return PublishOutput{SkillID: res.SkillID, VersionID: res.VersionID, EmbeddingID: res.EmbeddingID}, nil
}

// fetchTexts reads the readme and the embedding candidates concurrently,
// keeping bundle order.
func (s *publishService) fetchTexts(ctx context.Context, valid bundle.ValidatedPublish) (string, []bundle.TextFile, error) {
	const op = "services.publish.fetch"
	candidates := bundle.EmbeddingCandidates(valid.Files)
	contents := make([]string, len(candidates)+1)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(blobFetchConcurrency)
	fetch := func(i int, f skills.VersionFile) {
		g.Go(func() error {
			data, err := s.deps.Blobs.Get(gctx, f.StorageID)
			if err != nil {
				return err
			}
			contents[i] = string(data)
			return nil
		})
	}
	fetch(0, valid.Readme)
	for i, f := range candidates {
		fetch(i+1, f)
	}
	if err := g.Wait(); err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			return "", nil, domainagg.NewError(domainagg.CodeDependency, op, "File missing in storage", err)
		}
		return "", nil, domainagg.NewError(domainagg.CodeDependency, op, "Failed to read file from storage", err)
	}

	others := make([]bundle.TextFile, len(candidates))
	for i, f := range candidates {
		others[i] = bundle.TextFile{Path: f.Path, Content: contents[i+1]}
	}
	return contents[0], others, nil
}

// syncIndex pushes committed embedding changes to an external index. The
// relational rows stay authoritative, so failures are only logged.
func syncIndex(ctx context.Context, log *logger.Logger, idx vectorindex.Index, m *observability.Metrics, changed []*skills.SkillEmbedding) {
	if idx == nil || len(changed) == 0 {
		return
	}
	if err := idx.Upsert(ctx, vectorindex.RecordsFromEmbeddings(changed)); err != nil {
		log.Warn("Vector index sync failed", "index", idx.Name(), "records", len(changed), "status", vectorindex.ErrorStatus(err), "error", err)
		m.IncVectorSyncFailure(idx.Name(), "upsert")
	}
}

func deleteFromIndex(ctx context.Context, log *logger.Logger, idx vectorindex.Index, m *observability.Metrics, ids []uuid.UUID) {
	if idx == nil || len(ids) == 0 {
		return
	}
	if err := idx.Delete(ctx, ids); err != nil {
		log.Warn("Vector index delete failed", "index", idx.Name(), "records", len(ids), "status", vectorindex.ErrorStatus(err), "error", err)
		m.IncVectorSyncFailure(idx.Name(), "delete")
	}
}
