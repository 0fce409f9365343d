package skills

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

// SkillEmbedding is the unit search operates over; one per version.
// IsLatest, IsApproved and Visibility are only changed by the skill aggregate.
type SkillEmbedding struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	SkillID    uuid.UUID       `gorm:"type:uuid;column:skill_id;not null;index" json:"skillId"`
	VersionID  uuid.UUID       `gorm:"type:uuid;column:version_id;not null;uniqueIndex:idx_skill_embedding_version" json:"versionId"`
	OwnerID    uuid.UUID       `gorm:"type:uuid;column:owner_id;not null" json:"ownerId"`
	Embedding  pgvector.Vector `gorm:"column:embedding;type:vector" json:"-"`
	IsLatest   bool            `gorm:"column:is_latest;not null" json:"isLatest"`
	IsApproved bool            `gorm:"column:is_approved;not null" json:"isApproved"`
	Visibility Visibility      `gorm:"column:visibility;not null;index" json:"visibility"`
	UpdatedAt  time.Time       `gorm:"column:updated_at;not null" json:"updatedAt"`
}

func (SkillEmbedding) TableName() string { return "skill_embedding" }

// Apply sets the two flags and rederives Visibility.
func (e *SkillEmbedding) Apply(isLatest, isApproved bool) {
	e.IsLatest = isLatest
	e.IsApproved = isApproved
	e.Visibility = VisibilityFor(isLatest, isApproved)
}
