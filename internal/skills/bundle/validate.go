package bundle

import (
	"regexp"
	"strings"

	"github.com/blang/semver/v4"

	domainagg "github.com/yungbote/skillhub-backend/internal/domain/aggregates"
	"github.com/yungbote/skillhub-backend/internal/domain/skills"
)

const MaxTotalBytes int64 = 50 * 1024 * 1024

var slugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

type PublishRequest struct {
	Slug        string
	DisplayName string
	Version     string
	Changelog   string
	Tags        []string
	Files       []skills.VersionFile
}

// ValidatedPublish is a PublishRequest after normalization.
type ValidatedPublish struct {
	Slug        string
	DisplayName string
	Version     string
	Changelog   string
	Tags        []string
	Files       []skills.VersionFile
	Readme      skills.VersionFile
}

// ValidatePublish applies the publish preconditions in order and stops at the
// first failure with a CodeValidation error carrying the user-facing message.
func ValidatePublish(req PublishRequest) (ValidatedPublish, error) {
	const op = "skills.bundle.validate_publish"
	fail := func(msg string) (ValidatedPublish, error) {
		return ValidatedPublish{}, domainagg.NewError(domainagg.CodeValidation, op, msg, nil)
	}

	slug := strings.ToLower(strings.TrimSpace(req.Slug))
	displayName := strings.TrimSpace(req.DisplayName)
	version := strings.TrimSpace(req.Version)
	changelog := strings.TrimSpace(req.Changelog)

	if slug == "" || displayName == "" {
		return fail("Slug and display name required")
	}
	if !slugPattern.MatchString(slug) {
		return fail("Slug must be lowercase and url-safe")
	}
	parsed, err := parseVersion(version)
	if err != nil {
		return fail("Version must be valid semver")
	}
	version = parsed.String()
	if changelog == "" {
		return fail("Changelog is required")
	}

	files := make([]skills.VersionFile, len(req.Files))
	for i, f := range req.Files {
		f.Path = SanitizePath(f.Path)
		if f.Path == "" {
			return fail("Invalid file paths")
		}
		files[i] = f
	}
	for _, f := range files {
		if !IsTextFile(f.Path, f.ContentType) {
			return fail("Only text-based files are allowed")
		}
	}
	var total int64
	for _, f := range files {
		if f.Size < 0 {
			return fail("Invalid file size")
		}
		// Stop at the cap so the sum never overflows.
		if f.Size > MaxTotalBytes-total {
			return fail("Skill bundle exceeds 50MB limit")
		}
		total += f.Size
	}

	var readme *skills.VersionFile
	for i := range files {
		if skills.IsReadmePath(files[i].Path) {
			readme = &files[i]
			break
		}
	}
	if readme == nil {
		return fail("SKILL.md is required")
	}

	var tags []string
	for _, t := range req.Tags {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}

	return ValidatedPublish{
		Slug:        slug,
		DisplayName: displayName,
		Version:     version,
		Changelog:   changelog,
		Tags:        tags,
		Files:       files,
		Readme:      *readme,
	}, nil
}

// CompareVersions orders two semver strings; an unparseable version orders
// below any valid one.
func CompareVersions(a, b string) int {
	va, errA := parseVersion(a)
	vb, errB := parseVersion(b)
	switch {
	case errA != nil && errB != nil:
		return strings.Compare(a, b)
	case errA != nil:
		return -1
	case errB != nil:
		return 1
	default:
		return va.Compare(vb)
	}
}

// parseVersion accepts strict semver with at most one leading "v".
func parseVersion(v string) (semver.Version, error) {
	return semver.Parse(strings.TrimPrefix(strings.TrimSpace(v), "v"))
}

// CanonicalVersion returns the stored form of v, or v trimmed when it is not
// valid semver.
func CanonicalVersion(v string) string {
	parsed, err := parseVersion(v)
	if err != nil {
		return strings.TrimSpace(v)
	}
	return parsed.String()
}
