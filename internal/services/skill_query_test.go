package services_test

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	domainagg "github.com/yungbote/skillhub-backend/internal/domain/aggregates"
	"github.com/yungbote/skillhub-backend/internal/domain/skills"
	"github.com/yungbote/skillhub-backend/internal/domain/user"
	"github.com/yungbote/skillhub-backend/internal/services"
)

func unzip(t *testing.T, data []byte) map[string]string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	out := map[string]string{}
	for _, zf := range zr.File {
		rc, err := zf.Open()
		require.NoError(t, err)
		body, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		out[zf.Name] = string(body)
	}
	return out
}

func TestGetByPublicSlug(t *testing.T) {
	f := newFixture(t)
	owner := f.actor(t, "owner", user.RoleUser)
	admin := f.actor(t, "admin", user.RoleAdmin)
	out := f.publishSkill(t, owner, "foo", "1.0.0", fooReadme)

	detail, err := f.query.GetByPublicSlug(f.ctx, "  FOO ")
	require.NoError(t, err)
	require.Equal(t, out.SkillID, detail.Skill.ID)
	require.NotNil(t, detail.LatestVersion)
	require.Equal(t, "1.0.0", detail.LatestVersion.Version)
	require.NotNil(t, detail.Owner)
	require.Equal(t, "owner", detail.Owner.Handle)

	_, err = f.query.GetByPublicSlug(f.ctx, "missing")
	require.True(t, domainagg.IsCode(err, domainagg.CodeNotFound))

	require.NoError(t, f.admin.SetModerationStatus(f.ctx, admin, out.SkillID, skills.ModerationRemoved))
	_, err = f.query.GetByPublicSlug(f.ctx, "foo")
	require.True(t, domainagg.IsCode(err, domainagg.CodeNotFound))
}

func TestListExcludesHiddenAndFiltersByOwner(t *testing.T) {
	f := newFixture(t)
	alice := f.actor(t, "alice", user.RoleUser)
	bob := f.actor(t, "bob", user.RoleUser)
	admin := f.actor(t, "admin", user.RoleAdmin)
	f.publishSkill(t, alice, "a1", "1.0.0", fooReadme)
	hidden := f.publishSkill(t, alice, "a2", "1.0.0", fooReadme)
	f.publishSkill(t, bob, "b1", "1.0.0", fooReadme)
	require.NoError(t, f.admin.SetModerationStatus(f.ctx, admin, hidden.SkillID, skills.ModerationHidden))

	all, err := f.query.List(f.ctx, services.ListSkillsInput{})
	require.NoError(t, err)
	require.Len(t, all, 2)

	mine, err := f.query.List(f.ctx, services.ListSkillsInput{OwnerUserID: alice.UserID})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.Equal(t, "a1", mine[0].Slug)
}

func TestListVersionsNewestFirst(t *testing.T) {
	f := newFixture(t)
	owner := f.actor(t, "owner", user.RoleUser)
	out := f.publishSkill(t, owner, "foo", "1.0.0", fooReadme)
	f.publishSkill(t, owner, "foo", "1.1.0", fooReadme)
	f.publishSkill(t, owner, "foo", "2.0.0", fooReadme)

	rows, err := f.query.ListVersions(f.ctx, out.SkillID, 0)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, "2.0.0", rows[0].Version)
	require.Equal(t, "1.0.0", rows[2].Version)

	v, err := f.query.GetVersion(f.ctx, out.SkillID, "1.1.0")
	require.NoError(t, err)
	require.Equal(t, "1.1.0", v.Version)

	_, err = f.query.GetVersion(f.ctx, out.SkillID, "9.9.9")
	require.True(t, domainagg.IsCode(err, domainagg.CodeNotFound))
}

func TestGetReadme(t *testing.T) {
	f := newFixture(t)
	owner := f.actor(t, "owner", user.RoleUser)
	out := f.publishSkill(t, owner, "foo", "1.0.0", fooReadme)

	readme, err := f.query.GetReadme(f.ctx, out.VersionID)
	require.NoError(t, err)
	require.Equal(t, "SKILL.md", readme.Path)
	require.Equal(t, fooReadme, readme.Text)

	_, err = f.query.GetReadme(f.ctx, out.SkillID)
	require.True(t, domainagg.IsCode(err, domainagg.CodeNotFound))
	require.Equal(t, "Version not found", domainagg.MessageOf(err))
}

func TestDownloadResolvesVersionTagAndLatest(t *testing.T) {
	f := newFixture(t)
	owner := f.actor(t, "owner", user.RoleUser)
	first := f.publishSkill(t, owner, "foo", "1.0.0", "v1 readme")
	f.publishSkill(t, owner, "foo", "1.1.0", "v2 readme", f.put(t, "notes.txt", "notes"))
	require.NoError(t, f.admin.Retag(f.ctx, owner, first.SkillID, []domainagg.TagAssignment{{Tag: "stable", VersionID: first.VersionID}}))

	latest, err := f.query.Download(f.ctx, services.DownloadInput{Slug: "foo"})
	require.NoError(t, err)
	require.Equal(t, "foo-1.1.0.zip", latest.Filename())
	require.Equal(t, map[string]string{"SKILL.md": "v2 readme", "notes.txt": "notes"}, unzip(t, latest.Archive))

	tagged, err := f.query.Download(f.ctx, services.DownloadInput{Slug: "foo", Tag: "stable"})
	require.NoError(t, err)
	require.Equal(t, "1.0.0", tagged.Version)

	unknownTag, err := f.query.Download(f.ctx, services.DownloadInput{Slug: "foo", Tag: "nope"})
	require.NoError(t, err)
	require.Equal(t, "1.1.0", unknownTag.Version)

	explicit, err := f.query.Download(f.ctx, services.DownloadInput{Slug: "foo", Version: "1.0.0", Tag: "latest"})
	require.NoError(t, err)
	require.Equal(t, map[string]string{"SKILL.md": "v1 readme"}, unzip(t, explicit.Archive))

	prefixed, err := f.query.Download(f.ctx, services.DownloadInput{Slug: "foo", Version: "v1.0.0"})
	require.NoError(t, err)
	require.Equal(t, "1.0.0", prefixed.Version)

	_, err = f.query.Download(f.ctx, services.DownloadInput{Slug: "foo", Version: "3.0.0"})
	require.True(t, domainagg.IsCode(err, domainagg.CodeNotFound))
	require.Equal(t, "Version not found", domainagg.MessageOf(err))

	require.EqualValues(t, 5, f.skill(t, "foo").Stats.Downloads)
}

func TestDownloadSkipsFilesMissingFromStorage(t *testing.T) {
	f := newFixture(t)
	owner := f.actor(t, "owner", user.RoleUser)
	notes := f.put(t, "notes.txt", "notes")
	f.publishSkill(t, owner, "foo", "1.0.0", fooReadme, notes)
	require.NoError(t, f.blobs.Delete(f.ctx, notes.StorageID))

	out, err := f.query.Download(f.ctx, services.DownloadInput{Slug: "foo"})
	require.NoError(t, err)
	files := unzip(t, out.Archive)
	require.Contains(t, files, "SKILL.md")
	require.NotContains(t, files, "notes.txt")
}

func TestDownloadMissingSkill(t *testing.T) {
	f := newFixture(t)
	_, err := f.query.Download(f.ctx, services.DownloadInput{Slug: "nope"})
	require.True(t, domainagg.IsCode(err, domainagg.CodeNotFound))

	_, err = f.query.Download(f.ctx, services.DownloadInput{Slug: " "})
	require.True(t, domainagg.IsCode(err, domainagg.CodeValidation))
}
