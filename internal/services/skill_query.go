package services

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	skillrepo "github.com/yungbote/skillhub-backend/internal/data/repos/skills"
	userrepo "github.com/yungbote/skillhub-backend/internal/data/repos/user"
	domainagg "github.com/yungbote/skillhub-backend/internal/domain/aggregates"
	"github.com/yungbote/skillhub-backend/internal/domain/skills"
	"github.com/yungbote/skillhub-backend/internal/domain/user"
	"github.com/yungbote/skillhub-backend/internal/observability"
	"github.com/yungbote/skillhub-backend/internal/platform/blob"
	"github.com/yungbote/skillhub-backend/internal/platform/dbctx"
	"github.com/yungbote/skillhub-backend/internal/platform/logger"
	"github.com/yungbote/skillhub-backend/internal/skills/bundle"
)

type SkillDetail struct {
	Skill         *skills.Skill
	LatestVersion *skills.SkillVersion
	Owner         *user.User
}

type ListSkillsInput struct {
	Batch       string
	OwnerUserID uuid.UUID
	Limit       int
}

type Readme struct {
	Path string `json:"path"`
	Text string `json:"text"`
}

type DownloadInput struct {
	Slug    string
	Version string
	Tag     string
}

type DownloadOutput struct {
	Slug    string
	Version string
	Archive []byte
}

func (d DownloadOutput) Filename() string {
	return d.Slug + "-" + d.Version + ".zip"
}

type SkillQueryService interface {
	GetByPublicSlug(ctx context.Context, slug string) (*SkillDetail, error)
	List(ctx context.Context, in ListSkillsInput) ([]*skills.Skill, error)
	ListVersions(ctx context.Context, skillID uuid.UUID, limit int) ([]*skills.SkillVersion, error)
	GetVersion(ctx context.Context, skillID uuid.UUID, version string) (*skills.SkillVersion, error)
	GetReadme(ctx context.Context, versionID uuid.UUID) (*Readme, error)
	Download(ctx context.Context, in DownloadInput) (*DownloadOutput, error)
}

type SkillQueryDeps struct {
	Log      *logger.Logger
	Skills   skillrepo.SkillRepo
	Versions skillrepo.SkillVersionRepo
	Users    userrepo.UserRepo
	Blobs    blob.Store
	Metrics  *observability.Metrics
}

type skillQueryService struct {
	deps SkillQueryDeps
	log  *logger.Logger
}

func NewSkillQueryService(deps SkillQueryDeps) SkillQueryService {
	if deps.Log == nil {
		deps.Log = logger.NewNop()
	}
	return &skillQueryService{deps: deps, log: deps.Log.With("service", "SkillQueryService")}
}

func normalizeSlug(slug string) string {
	return strings.ToLower(strings.TrimSpace(slug))
}

func (s *skillQueryService) GetByPublicSlug(ctx context.Context, slug string) (*SkillDetail, error) {
	const op = "services.skill_query.get_by_slug"
	slug = normalizeSlug(slug)
	if slug == "" {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "Missing slug", nil)
	}
	dbc := dbctx.Context{Ctx: ctx}
	sk, err := s.deps.Skills.GetBySlug(dbc, slug)
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	if sk == nil || sk.IsSoftDeleted() {
		return nil, domainagg.NewError(domainagg.CodeNotFound, op, "Skill not found", nil)
	}
	out := &SkillDetail{Skill: sk}
	if sk.LatestVersionID != nil {
		if out.LatestVersion, err = s.deps.Versions.GetByID(dbc, *sk.LatestVersionID); err != nil {
			return nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
		}
	}
	if out.Owner, err = s.deps.Users.GetByID(dbc, sk.OwnerUserID); err != nil {
		return nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	return out, nil
}

func (s *skillQueryService) List(ctx context.Context, in ListSkillsInput) ([]*skills.Skill, error) {
	rows, err := s.deps.Skills.List(dbctx.Context{Ctx: ctx}, skillrepo.ListFilter{
		Batch:       in.Batch,
		OwnerUserID: in.OwnerUserID,
		Limit:       in.Limit,
	})
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeInternal, "services.skill_query.list", err)
	}
	return rows, nil
}

// ListVersions returns newest first; versions created in the same instant
// fall back to semver order.
func (s *skillQueryService) ListVersions(ctx context.Context, skillID uuid.UUID, limit int) ([]*skills.SkillVersion, error) {
	const op = "services.skill_query.list_versions"
	if skillID == uuid.Nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "Missing skill id", nil)
	}
	rows, err := s.deps.Versions.ListBySkill(dbctx.Context{Ctx: ctx}, skillID, limit)
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].CreatedAt.Equal(rows[j].CreatedAt) {
			return rows[i].CreatedAt.After(rows[j].CreatedAt)
		}
		return bundle.CompareVersions(rows[i].Version, rows[j].Version) > 0
	})
	return rows, nil
}

func (s *skillQueryService) GetVersion(ctx context.Context, skillID uuid.UUID, version string) (*skills.SkillVersion, error) {
	const op = "services.skill_query.get_version"
	row, err := s.deps.Versions.GetBySkillAndVersion(dbctx.Context{Ctx: ctx}, skillID, bundle.CanonicalVersion(version))
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	if row == nil {
		return nil, domainagg.NewError(domainagg.CodeNotFound, op, "Version not found", nil)
	}
	return row, nil
}

func (s *skillQueryService) GetReadme(ctx context.Context, versionID uuid.UUID) (*Readme, error) {
	const op = "services.skill_query.get_readme"
	v, err := s.deps.Versions.GetByID(dbctx.Context{Ctx: ctx}, versionID)
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	if v == nil {
		return nil, domainagg.NewError(domainagg.CodeNotFound, op, "Version not found", nil)
	}
	readme, ok := v.Readme()
	if !ok {
		return nil, domainagg.NewError(domainagg.CodeNotFound, op, "SKILL.md not found", nil)
	}
	data, err := s.deps.Blobs.Get(ctx, readme.StorageID)
	if err != nil {
		return nil, domainagg.NewError(domainagg.CodeDependency, op, "File missing in storage", err)
	}
	return &Readme{Path: readme.Path, Text: string(data)}, nil
}

// Download resolves an explicit version, then a tag, then latest, and zips
// the version's files. Files absent from the blob store are left out.
func (s *skillQueryService) Download(ctx context.Context, in DownloadInput) (out *DownloadOutput, err error) {
	const op = "services.skill_query.download"
	slug := normalizeSlug(in.Slug)
	if slug == "" {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "Missing slug", nil)
	}
	ctx, span := observability.StartSpan(ctx, "skills.download", attribute.String("skill.slug", slug))
	defer func() { observability.EndSpan(span, err) }()

	dbc := dbctx.Context{Ctx: ctx}
	sk, err := s.deps.Skills.GetBySlug(dbc, slug)
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	if sk == nil || sk.IsSoftDeleted() {
		return nil, domainagg.NewError(domainagg.CodeNotFound, op, "Skill not found", nil)
	}

	version, err := s.resolveVersion(dbc, sk, bundle.CanonicalVersion(in.Version), strings.TrimSpace(in.Tag))
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	if version == nil {
		return nil, domainagg.NewError(domainagg.CodeNotFound, op, "Version not found", nil)
	}
	if version.SoftDeletedAt != nil {
		return nil, domainagg.NewError(domainagg.CodeGone, op, "Version not available", nil)
	}

	archive, err := s.buildArchive(ctx, version)
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	if err := s.deps.Skills.IncrementDownloads(dbc, sk.ID); err != nil {
		s.log.Warn("Download counter update failed", "skill_id", sk.ID.String(), "error", err)
	} else {
		s.deps.Metrics.IncDownload()
	}
	return &DownloadOutput{Slug: slug, Version: version.Version, Archive: archive}, nil
}

func (s *skillQueryService) resolveVersion(dbc dbctx.Context, sk *skills.Skill, version, tag string) (*skills.SkillVersion, error) {
	switch {
	case version != "":
		return s.deps.Versions.GetBySkillAndVersion(dbc, sk.ID, version)
	case tag != "":
		if id, ok := sk.TagMap()[tag]; ok {
			return s.deps.Versions.GetByID(dbc, id)
		}
	}
	if sk.LatestVersionID == nil {
		return nil, nil
	}
	return s.deps.Versions.GetByID(dbc, *sk.LatestVersionID)
}

func (s *skillQueryService) buildArchive(ctx context.Context, v *skills.SkillVersion) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, f := range v.Files {
		data, err := s.deps.Blobs.Get(ctx, f.StorageID)
		if errors.Is(err, blob.ErrNotFound) {
			s.log.Warn("Skipping file missing from storage", "version_id", v.ID.String(), "path", f.Path)
			continue
		}
		if err != nil {
			return nil, err
		}
		w, err := zw.CreateHeader(&zip.FileHeader{Name: f.Path, Method: zip.Deflate, Modified: v.CreatedAt})
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(data); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
