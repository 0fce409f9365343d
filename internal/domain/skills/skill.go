package skills

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// LatestTag is the reserved tag that always mirrors Skill.LatestVersionID.
const LatestTag = "latest"

type ModerationStatus string

const (
	ModerationActive  ModerationStatus = "active"
	ModerationHidden  ModerationStatus = "hidden"
	ModerationRemoved ModerationStatus = "removed"
)

func (s ModerationStatus) Valid() bool {
	switch s {
	case ModerationActive, ModerationHidden, ModerationRemoved:
		return true
	default:
		return false
	}
}

// TagMap maps tag names to version ids.
type TagMap map[string]uuid.UUID

func (m TagMap) Clone() TagMap {
	out := make(TagMap, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	return out
}

type SkillStats struct {
	Downloads int64 `gorm:"column:downloads;not null;default:0" json:"downloads"`
	Stars     int64 `gorm:"column:stars;not null;default:0" json:"stars"`
	Versions  int64 `gorm:"column:versions;not null;default:0" json:"versions"`
	Comments  int64 `gorm:"column:comments;not null;default:0" json:"comments"`
}

// SkillBadges holds the optional redaction-approval record. Both columns are
// set together or both are null.
type SkillBadges struct {
	RedactionApprovedBy *uuid.UUID `gorm:"type:uuid;column:redaction_approved_by" json:"-"`
	RedactionApprovedAt *time.Time `gorm:"column:redaction_approved_at" json:"-"`
}

type RedactionApproval struct {
	ByUserID uuid.UUID `json:"byUserId"`
	At       time.Time `json:"at"`
}

func (b SkillBadges) RedactionApproved() *RedactionApproval {
	if b.RedactionApprovedBy == nil || b.RedactionApprovedAt == nil {
		return nil
	}
	return &RedactionApproval{ByUserID: *b.RedactionApprovedBy, At: *b.RedactionApprovedAt}
}

func (b SkillBadges) IsRedactionApproved() bool {
	return b.RedactionApproved() != nil
}

type Skill struct {
	ID               uuid.UUID                  `gorm:"type:uuid;primaryKey" json:"id"`
	Slug             string                     `gorm:"column:slug;not null;uniqueIndex:idx_skill_slug" json:"slug"`
	DisplayName      string                     `gorm:"column:display_name;not null" json:"displayName"`
	Summary          *string                    `gorm:"column:summary" json:"summary"`
	OwnerUserID      uuid.UUID                  `gorm:"type:uuid;column:owner_user_id;not null;index" json:"ownerUserId"`
	Tags             datatypes.JSONType[TagMap] `gorm:"column:tags" json:"tags"`
	LatestVersionID  *uuid.UUID                 `gorm:"type:uuid;column:latest_version_id" json:"latestVersionId"`
	Stats            SkillStats                 `gorm:"embedded;embeddedPrefix:stats_" json:"stats"`
	Badges           SkillBadges                `gorm:"embedded;embeddedPrefix:badge_" json:"-"`
	Batch            *string                    `gorm:"column:batch;index" json:"batch,omitempty"`
	ModerationStatus ModerationStatus           `gorm:"column:moderation_status;not null" json:"moderationStatus"`
	SoftDeletedAt    *time.Time                 `gorm:"column:soft_deleted_at" json:"softDeletedAt,omitempty"`
	CanonicalSkillID *uuid.UUID                 `gorm:"type:uuid;column:canonical_skill_id" json:"canonicalSkillId,omitempty"`
	CreatedAt        time.Time                  `gorm:"column:created_at;not null" json:"createdAt"`
	UpdatedAt        time.Time                  `gorm:"column:updated_at;not null;index" json:"updatedAt"`
}

func (Skill) TableName() string { return "skill" }

// TagMap returns a copy of the skill's tags, never nil.
func (s *Skill) TagMap() TagMap {
	return s.Tags.Data().Clone()
}

func (s *Skill) IsSoftDeleted() bool {
	return s.SoftDeletedAt != nil
}
