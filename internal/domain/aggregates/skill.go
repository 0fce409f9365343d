package aggregates

import (
	"context"

	"github.com/google/uuid"

	"github.com/yungbote/skillhub-backend/internal/domain/skills"
	"github.com/yungbote/skillhub-backend/internal/domain/user"
)

// SkillAggregateContract covers one skill with its versions, tags, embeddings
// and the moderation audit trail.
var SkillAggregateContract = Contract{
	Name:        "SkillAggregate",
	LockTable:   "skill",
	OwnedTables: []string{"skill", "skill_version", "skill_embedding", "audit_log"},
}

// Actor is the authenticated caller of a write.
type Actor struct {
	UserID uuid.UUID
	Role   user.Role
}

// SkillAggregate owns skill publish/versioning consistency.
//
// Each write runs in one transaction holding the skill row lock. Failures are
// *aggregates.Error with codes CodeValidation, CodeUnauthorized, CodeNotFound,
// CodeConflict, CodeRetryable or CodeInternal.
type SkillAggregate interface {
	Aggregate

	// Publish creates-or-loads the skill by slug, inserts the version and its
	// embedding, moves tags and demotes the previous latest embedding.
	Publish(ctx context.Context, in PublishInput) (PublishResult, error)

	// Retag merges tag assignments. Assigning "latest" moves LatestVersionID and
	// recomputes isLatest across every embedding of the skill.
	Retag(ctx context.Context, in RetagInput) (EmbeddingChangeResult, error)

	// SetApprovalBadge sets or clears the redaction-approval badge and mirrors
	// it onto every embedding of the skill.
	SetApprovalBadge(ctx context.Context, in ApprovalInput) (EmbeddingChangeResult, error)

	SetBatch(ctx context.Context, in SetBatchInput) error
	SetModerationStatus(ctx context.Context, in ModerationInput) error
	HardDelete(ctx context.Context, in HardDeleteInput) (HardDeleteResult, error)
	TransferOwner(ctx context.Context, in TransferOwnerInput) error
	MarkDuplicate(ctx context.Context, in MarkDuplicateInput) error
}

type PublishInput struct {
	Actor       Actor
	Slug        string
	DisplayName string
	Version     string
	Changelog   string
	Tags        []string
	Files       []skills.VersionFile
	Parsed      skills.ParsedMetadata
	// Summary is the frontmatter description; nil keeps the current summary.
	Summary   *string
	Embedding []float32
}

type PublishResult struct {
	SkillID     uuid.UUID
	VersionID   uuid.UUID
	EmbeddingID uuid.UUID
	// Changed holds every embedding row written, for index sync.
	Changed []*skills.SkillEmbedding
}

type TagAssignment struct {
	Tag       string
	VersionID uuid.UUID
}

type RetagInput struct {
	Actor   Actor
	SkillID uuid.UUID
	Tags    []TagAssignment
}

type ApprovalInput struct {
	Actor    Actor
	SkillID  uuid.UUID
	Approved bool
}

// EmbeddingChangeResult lists embeddings whose derived fields were rewritten.
type EmbeddingChangeResult struct {
	Changed []*skills.SkillEmbedding
}

type SetBatchInput struct {
	Actor   Actor
	SkillID uuid.UUID
	Batch   *string
}

type ModerationInput struct {
	Actor   Actor
	SkillID uuid.UUID
	Status  skills.ModerationStatus
}

type HardDeleteInput struct {
	Actor   Actor
	SkillID uuid.UUID
}

type HardDeleteResult struct {
	DeletedEmbeddingIDs []uuid.UUID
}

type TransferOwnerInput struct {
	Actor      Actor
	SkillID    uuid.UUID
	NewOwnerID uuid.UUID
}

type MarkDuplicateInput struct {
	Actor   Actor
	SkillID uuid.UUID
	// CanonicalSkillID nil clears the marking.
	CanonicalSkillID *uuid.UUID
}
