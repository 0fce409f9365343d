package skills

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type VersionFile struct {
	Path        string `json:"path"`
	Size        int64  `json:"size"`
	StorageID   string `json:"storageId"`
	SHA256      string `json:"sha256"`
	ContentType string `json:"contentType,omitempty"`
}

// ToolMetadata is the optional "clawdis" block describing runtime needs.
type ToolMetadata struct {
	Emoji      string   `json:"emoji,omitempty"`
	Homepage   string   `json:"homepage,omitempty"`
	OS         []string `json:"os,omitempty"`
	Bins       []string `json:"bins,omitempty"`
	Env        []string `json:"env,omitempty"`
	PrimaryEnv string   `json:"primaryEnv,omitempty"`
}

// ParsedMetadata is what the publish pipeline extracted from the readme.
// Metadata is an untyped JSON payload; nil means absent or unparseable.
type ParsedMetadata struct {
	Frontmatter map[string]string `json:"frontmatter"`
	Metadata    json.RawMessage   `json:"metadata,omitempty"`
	Clawdis     *ToolMetadata     `json:"clawdis,omitempty"`
}

type SkillVersion struct {
	ID            uuid.UUID                          `gorm:"type:uuid;primaryKey" json:"id"`
	SkillID       uuid.UUID                          `gorm:"type:uuid;column:skill_id;not null;uniqueIndex:idx_skill_version_skill_version,priority:1" json:"skillId"`
	Version       string                             `gorm:"column:version;not null;uniqueIndex:idx_skill_version_skill_version,priority:2" json:"version"`
	Changelog     string                             `gorm:"column:changelog;not null" json:"changelog"`
	Files         datatypes.JSONSlice[VersionFile]   `gorm:"column:files" json:"files"`
	Parsed        datatypes.JSONType[ParsedMetadata] `gorm:"column:parsed" json:"parsed"`
	CreatedBy     uuid.UUID                          `gorm:"type:uuid;column:created_by;not null" json:"createdBy"`
	CreatedAt     time.Time                          `gorm:"column:created_at;not null;index" json:"createdAt"`
	SoftDeletedAt *time.Time                         `gorm:"column:soft_deleted_at" json:"softDeletedAt,omitempty"`
}

func (SkillVersion) TableName() string { return "skill_version" }

// IsReadmePath reports whether a sanitized path names the canonical readme.
// Only top-level files qualify.
func IsReadmePath(path string) bool {
	p := strings.ToLower(path)
	return p == "skill.md" || p == "skills.md"
}

// Readme returns the canonical readme file of the version, if any.
func (v *SkillVersion) Readme() (VersionFile, bool) {
	for _, f := range v.Files {
		if IsReadmePath(f.Path) {
			return f, true
		}
	}
	return VersionFile{}, false
}
