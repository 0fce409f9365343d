package domain

import (
	"github.com/yungbote/skillhub-backend/internal/domain/audit"
	"github.com/yungbote/skillhub-backend/internal/domain/skills"
	"github.com/yungbote/skillhub-backend/internal/domain/user"
)

type (
	Skill             = skills.Skill
	SkillVersion      = skills.SkillVersion
	SkillEmbedding    = skills.SkillEmbedding
	SkillStats        = skills.SkillStats
	SkillBadges       = skills.SkillBadges
	VersionFile       = skills.VersionFile
	ParsedMetadata    = skills.ParsedMetadata
	ToolMetadata      = skills.ToolMetadata
	TagMap            = skills.TagMap
	Visibility        = skills.Visibility
	RedactionApproval = skills.RedactionApproval
	ModerationStatus  = skills.ModerationStatus

	User = user.User
	Role = user.Role

	AuditLog = audit.AuditLog
)
