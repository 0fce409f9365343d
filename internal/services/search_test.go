package services_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yungbote/skillhub-backend/internal/domain/skills"
	"github.com/yungbote/skillhub-backend/internal/domain/user"
	"github.com/yungbote/skillhub-backend/internal/platform/vectorindex"
	"github.com/yungbote/skillhub-backend/internal/services"
)

func slugsOf(results []services.SearchResult) []string {
	out := make([]string, 0, len(results))
	for _, r := range results {
		out = append(out, r.Skill.Slug)
	}
	return out
}

func TestSearchEmptyQueryShortCircuits(t *testing.T) {
	f := newFixture(t)
	out, err := f.search.Search(f.ctx, services.SearchInput{Query: "   "})
	require.NoError(t, err)
	require.NotNil(t, out)
	require.Empty(t, out)
}

func TestSearchRanksAndHydrates(t *testing.T) {
	f := newFixture(t)
	owner := f.actor(t, "owner", user.RoleUser)
	f.publishSkill(t, owner, "kube", "1.0.0", "# Kubernetes deploy helper\n\nkubernetes deploy rollout\n")
	f.publishSkill(t, owner, "pasta", "1.0.0", "# Pasta recipes\n\ncooking dinner noodles\n")

	out, err := f.search.Search(f.ctx, services.SearchInput{Query: "kubernetes deploy"})
	require.NoError(t, err)
	require.Len(t, out, 2)
	require.Equal(t, "kube", out[0].Skill.Slug)
	require.NotNil(t, out[0].Version)
	require.Equal(t, "1.0.0", out[0].Version.Version)
	require.Greater(t, out[0].Score, out[1].Score)
}

func TestSearchOnlyReturnsLatestVersion(t *testing.T) {
	f := newFixture(t)
	owner := f.actor(t, "owner", user.RoleUser)
	f.publishSkill(t, owner, "kube", "1.0.0", "kubernetes deploy\n")
	f.publishSkill(t, owner, "kube", "2.0.0", "kubernetes deploy\n")

	out, err := f.search.Search(f.ctx, services.SearchInput{Query: "kubernetes"})
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, "2.0.0", out[0].Version.Version)
}

func TestSearchApprovedOnlyFollowsBadge(t *testing.T) {
	f := newFixture(t)
	owner := f.actor(t, "owner", user.RoleUser)
	mod := f.actor(t, "mod", user.RoleModerator)
	out := f.publishSkill(t, owner, "kube", "1.0.0", "kubernetes deploy\n")

	res, err := f.search.Search(f.ctx, services.SearchInput{Query: "kubernetes", ApprovedOnly: true})
	require.NoError(t, err)
	require.Empty(t, res)

	require.NoError(t, f.admin.SetApproval(f.ctx, mod, out.SkillID, true))
	res, err = f.search.Search(f.ctx, services.SearchInput{Query: "kubernetes", ApprovedOnly: true})
	require.NoError(t, err)
	require.Equal(t, []string{"kube"}, slugsOf(res))

	// Revoke without touching the index; hydration must still drop it.
	unsynced := services.NewSkillAdminService(services.SkillAdminDeps{Aggregate: f.agg})
	require.NoError(t, unsynced.SetApproval(f.ctx, mod, out.SkillID, false))
	res, err = f.search.Search(f.ctx, services.SearchInput{Query: "kubernetes", ApprovedOnly: true})
	require.NoError(t, err)
	require.Empty(t, res)

	res, err = f.search.Search(f.ctx, services.SearchInput{Query: "kubernetes"})
	require.NoError(t, err)
	require.Equal(t, []string{"kube"}, slugsOf(res))
}

func TestSearchDropsDeletedAndHiddenSkills(t *testing.T) {
	f := newFixture(t)
	owner := f.actor(t, "owner", user.RoleUser)
	admin := f.actor(t, "admin", user.RoleAdmin)
	gone := f.publishSkill(t, owner, "gone", "1.0.0", "kubernetes deploy\n")
	hidden := f.publishSkill(t, owner, "hidden", "1.0.0", "kubernetes deploy\n")
	f.publishSkill(t, owner, "kept", "1.0.0", "kubernetes deploy\n")

	// Hard delete without index sync leaves a dangling index record.
	unsynced := services.NewSkillAdminService(services.SkillAdminDeps{Aggregate: f.agg})
	require.NoError(t, unsynced.HardDelete(f.ctx, admin, gone.SkillID))
	require.NoError(t, f.admin.SetModerationStatus(f.ctx, admin, hidden.SkillID, skills.ModerationHidden))

	res, err := f.search.Search(f.ctx, services.SearchInput{Query: "kubernetes"})
	require.NoError(t, err)
	require.Equal(t, []string{"kept"}, slugsOf(res))
	require.Equal(t, 3, f.index.Len())
}

func TestReindexRebuildsIndex(t *testing.T) {
	f := newFixture(t)
	owner := f.actor(t, "owner", user.RoleUser)
	f.publishSkill(t, owner, "kube", "1.0.0", "kubernetes deploy\n")
	f.publishSkill(t, owner, "kube", "1.1.0", "kubernetes deploy\n")

	fresh := vectorindex.NewMemory()
	n, err := services.NewIndexSyncService(nil, f.embeddings, fresh).Reindex(f.ctx)
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Equal(t, 2, fresh.Len())

	searchFresh := services.NewSearchService(services.SearchDeps{
		Embedder:   f.embedder,
		Index:      fresh,
		Skills:     f.skills,
		Versions:   f.versions,
		Embeddings: f.embeddings,
	})
	res, err := searchFresh.Search(f.ctx, services.SearchInput{Query: "kubernetes"})
	require.NoError(t, err)
	require.Len(t, res, 1)
	require.Equal(t, "1.1.0", res[0].Version.Version)
}

func TestHardDeleteRemovesIndexRecords(t *testing.T) {
	f := newFixture(t)
	owner := f.actor(t, "owner", user.RoleUser)
	admin := f.actor(t, "admin", user.RoleAdmin)
	out := f.publishSkill(t, owner, "kube", "1.0.0", "kubernetes deploy\n")
	require.Equal(t, 1, f.index.Len())

	require.NoError(t, f.admin.HardDelete(f.ctx, admin, out.SkillID))
	require.Equal(t, 0, f.index.Len())
}
