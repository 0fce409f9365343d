package audit

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	ActionBadgeSet         = "badge.set"
	ActionBadgeUnset       = "badge.unset"
	ActionBatchSet         = "batch.set"
	ActionModerationSet    = "moderation.set"
	ActionSkillDelete      = "skill.delete"
	ActionOwnerTransfer    = "owner.transfer"
	ActionDuplicateSet     = "duplicate.set"
	ActionTagsUpdate       = "tags.update"
	TargetTypeSkill        = "skill"
	BadgeRedactionApproved = "redactionApproved"
)

type AuditLog struct {
	ID          uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	ActorUserID uuid.UUID         `gorm:"type:uuid;column:actor_user_id;not null;index" json:"actorUserId"`
	Action      string            `gorm:"column:action;not null" json:"action"`
	TargetType  string            `gorm:"column:target_type;not null;index:idx_audit_log_target,priority:1" json:"targetType"`
	TargetID    string            `gorm:"column:target_id;not null;index:idx_audit_log_target,priority:2" json:"targetId"`
	Metadata    datatypes.JSONMap `gorm:"column:metadata" json:"metadata"`
	CreatedAt   time.Time         `gorm:"column:created_at;not null" json:"createdAt"`
}

func (AuditLog) TableName() string { return "audit_log" }
