package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yungbote/skillhub-backend/internal/data/aggregates"
	auditrepo "github.com/yungbote/skillhub-backend/internal/data/repos/audit"
	skillrepo "github.com/yungbote/skillhub-backend/internal/data/repos/skills"
	"github.com/yungbote/skillhub-backend/internal/data/repos/testutil"
	userrepo "github.com/yungbote/skillhub-backend/internal/data/repos/user"
	types "github.com/yungbote/skillhub-backend/internal/domain"
	domainagg "github.com/yungbote/skillhub-backend/internal/domain/aggregates"
	"github.com/yungbote/skillhub-backend/internal/domain/skills"
	"github.com/yungbote/skillhub-backend/internal/domain/user"
	"github.com/yungbote/skillhub-backend/internal/platform/blob"
	"github.com/yungbote/skillhub-backend/internal/platform/dbctx"
	"github.com/yungbote/skillhub-backend/internal/platform/embedding"
	"github.com/yungbote/skillhub-backend/internal/platform/vectorindex"
	"github.com/yungbote/skillhub-backend/internal/services"
)

type fakeLookup struct {
	mu        sync.Mutex
	calls     int
	createdAt time.Time
	err       error
}

func (f *fakeLookup) CreatedAt(_ context.Context, _, _ string) (time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.createdAt, f.err
}

func (f *fakeLookup) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type failingEmbedder struct{}

func (failingEmbedder) Embed(context.Context, string) ([]float32, error) {
	return nil, errors.New("upstream 500")
}

func (failingEmbedder) ModelName() string { return "failing" }

type fixture struct {
	ctx        context.Context
	db         *gorm.DB
	skills     skillrepo.SkillRepo
	versions   skillrepo.SkillVersionRepo
	embeddings skillrepo.SkillEmbeddingRepo
	users      userrepo.UserRepo
	agg        domainagg.SkillAggregate
	blobs      *blob.MemoryStore
	index      *vectorindex.Memory
	embedder   embedding.Embedder

	publish services.PublishService
	search  services.SearchService
	query   services.SkillQueryService
	admin   services.SkillAdminService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.SQLite(t)
	log := testutil.Logger(t)

	f := &fixture{
		ctx:        context.Background(),
		db:         db,
		skills:     skillrepo.NewSkillRepo(db, log),
		versions:   skillrepo.NewSkillVersionRepo(db, log),
		embeddings: skillrepo.NewSkillEmbeddingRepo(db, log),
		users:      userrepo.NewUserRepo(db, log),
		blobs:      blob.NewMemoryStore(),
		index:      vectorindex.NewMemory(),
		embedder:   embedding.HashEmbedder{Dim: 512},
	}
	f.agg = aggregates.NewSkillAggregate(aggregates.SkillAggregateDeps{
		Base:       aggregates.BaseDeps{DB: db, Log: log},
		Skills:     f.skills,
		Versions:   f.versions,
		Embeddings: f.embeddings,
		Users:      f.users,
		Audit:      auditrepo.NewAuditLogRepo(db, log),
	})
	f.publish = f.newPublish(f.embedder)
	f.search = services.NewSearchService(services.SearchDeps{
		Log:        log,
		Embedder:   f.embedder,
		Index:      f.index,
		Skills:     f.skills,
		Versions:   f.versions,
		Embeddings: f.embeddings,
	})
	f.query = services.NewSkillQueryService(services.SkillQueryDeps{
		Log:      log,
		Skills:   f.skills,
		Versions: f.versions,
		Users:    f.users,
		Blobs:    f.blobs,
	})
	f.admin = services.NewSkillAdminService(services.SkillAdminDeps{Log: log, Aggregate: f.agg, Index: f.index})
	return f
}

func (f *fixture) newPublish(e embedding.Embedder) services.PublishService {
	return services.NewPublishService(services.PublishDeps{
		Aggregate: f.agg,
		Blobs:     f.blobs,
		Embedder:  e,
		Index:     f.index,
	})
}

func (f *fixture) createUser(t *testing.T, u *types.User) domainagg.Actor {
	t.Helper()
	require.NoError(t, f.users.Create(dbctx.Context{Ctx: f.ctx}, u))
	return domainagg.Actor{UserID: u.ID, Role: u.Role}
}

func (f *fixture) actor(t *testing.T, handle string, role user.Role) domainagg.Actor {
	t.Helper()
	return f.createUser(t, &types.User{Handle: handle, Role: role, Provider: user.ProviderOIDC})
}

// put stores content and returns its file descriptor.
func (f *fixture) put(t *testing.T, path, content string) skills.VersionFile {
	t.Helper()
	key := "blob/" + uuid.NewString()
	require.NoError(t, f.blobs.Put(f.ctx, key, []byte(content), "text/plain"))
	return skills.VersionFile{Path: path, Size: int64(len(content)), StorageID: key, SHA256: "sha"}
}

func (f *fixture) publishSkill(t *testing.T, actor domainagg.Actor, slug, version, readme string, extra ...skills.VersionFile) services.PublishOutput {
	t.Helper()
	files := append([]skills.VersionFile{f.put(t, "SKILL.md", readme)}, extra...)
	out, err := f.publish.Publish(f.ctx, actor, services.PublishInput{
		Slug:        slug,
		DisplayName: "Skill " + slug,
		Version:     version,
		Changelog:   "release " + version,
		Files:       files,
	})
	require.NoError(t, err)
	return out
}

func (f *fixture) skill(t *testing.T, slug string) *types.Skill {
	t.Helper()
	row, err := f.skills.GetBySlug(dbctx.Context{Ctx: f.ctx}, slug)
	require.NoError(t, err)
	require.NotNil(t, row)
	return row
}
