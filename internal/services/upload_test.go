package services_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	domainagg "github.com/yungbote/skillhub-backend/internal/domain/aggregates"
	"github.com/yungbote/skillhub-backend/internal/domain/skills"
	"github.com/yungbote/skillhub-backend/internal/domain/user"
	"github.com/yungbote/skillhub-backend/internal/services"
)

func TestUploadThenPublish(t *testing.T) {
	f := newFixture(t)
	owner := f.actor(t, "owner", user.RoleUser)
	uploads := services.NewUploadService(nil, f.blobs)

	up, err := uploads.Upload(f.ctx, owner, []byte(fooReadme), "text/markdown")
	require.NoError(t, err)
	require.Len(t, up.SHA256, 64)
	require.EqualValues(t, len(fooReadme), up.Size)

	out, err := f.publish.Publish(f.ctx, owner, services.PublishInput{
		Slug:        "foo",
		DisplayName: "Foo",
		Version:     "1.0.0",
		Changelog:   "first",
		Files: []skills.VersionFile{{
			Path: "SKILL.md", Size: up.Size, StorageID: up.StorageID, SHA256: up.SHA256, ContentType: up.ContentType,
		}},
	})
	require.NoError(t, err)

	readme, err := f.query.GetReadme(f.ctx, out.VersionID)
	require.NoError(t, err)
	require.Equal(t, fooReadme, readme.Text)
}

func TestUploadRejectsEmptyAndAnonymous(t *testing.T) {
	f := newFixture(t)
	owner := f.actor(t, "owner", user.RoleUser)
	uploads := services.NewUploadService(nil, f.blobs)

	_, err := uploads.Upload(f.ctx, owner, nil, "")
	require.True(t, domainagg.IsCode(err, domainagg.CodeValidation))

	_, err = uploads.Upload(f.ctx, domainagg.Actor{}, []byte("x"), "")
	require.True(t, domainagg.IsCode(err, domainagg.CodeUnauthorized))
}
