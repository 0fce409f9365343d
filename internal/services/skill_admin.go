package services

import (
	"context"

	"github.com/google/uuid"

	domainagg "github.com/yungbote/skillhub-backend/internal/domain/aggregates"
	"github.com/yungbote/skillhub-backend/internal/domain/skills"
	"github.com/yungbote/skillhub-backend/internal/observability"
	"github.com/yungbote/skillhub-backend/internal/platform/logger"
	"github.com/yungbote/skillhub-backend/internal/platform/vectorindex"
)

// SkillAdminService fronts the aggregate's non-publish writes and mirrors
// committed embedding changes into the external vector index.
type SkillAdminService interface {
	Retag(ctx context.Context, actor domainagg.Actor, skillID uuid.UUID, tags []domainagg.TagAssignment) error
	SetApproval(ctx context.Context, actor domainagg.Actor, skillID uuid.UUID, approved bool) error
	SetBatch(ctx context.Context, actor domainagg.Actor, skillID uuid.UUID, batch *string) error
	SetModerationStatus(ctx context.Context, actor domainagg.Actor, skillID uuid.UUID, status skills.ModerationStatus) error
	HardDelete(ctx context.Context, actor domainagg.Actor, skillID uuid.UUID) error
	TransferOwner(ctx context.Context, actor domainagg.Actor, skillID, newOwnerID uuid.UUID) error
	MarkDuplicate(ctx context.Context, actor domainagg.Actor, skillID uuid.UUID, canonicalID *uuid.UUID) error
}

type SkillAdminDeps struct {
	Log       *logger.Logger
	Aggregate domainagg.SkillAggregate
	Index     vectorindex.Index
	Metrics   *observability.Metrics
}

type skillAdminService struct {
	deps SkillAdminDeps
	log  *logger.Logger
}

func NewSkillAdminService(deps SkillAdminDeps) SkillAdminService {
	if deps.Log == nil {
		deps.Log = logger.NewNop()
	}
	return &skillAdminService{deps: deps, log: deps.Log.With("service", "SkillAdminService")}
}

func (s *skillAdminService) Retag(ctx context.Context, actor domainagg.Actor, skillID uuid.UUID, tags []domainagg.TagAssignment) error {
	res, err := s.deps.Aggregate.Retag(ctx, domainagg.RetagInput{Actor: actor, SkillID: skillID, Tags: tags})
	if err != nil {
		return err
	}
	syncIndex(ctx, s.log, s.deps.Index, s.deps.Metrics, res.Changed)
	return nil
}

func (s *skillAdminService) SetApproval(ctx context.Context, actor domainagg.Actor, skillID uuid.UUID, approved bool) error {
	res, err := s.deps.Aggregate.SetApprovalBadge(ctx, domainagg.ApprovalInput{Actor: actor, SkillID: skillID, Approved: approved})
	if err != nil {
		return err
	}
	syncIndex(ctx, s.log, s.deps.Index, s.deps.Metrics, res.Changed)
	return nil
}

func (s *skillAdminService) SetBatch(ctx context.Context, actor domainagg.Actor, skillID uuid.UUID, batch *string) error {
	return s.deps.Aggregate.SetBatch(ctx, domainagg.SetBatchInput{Actor: actor, SkillID: skillID, Batch: batch})
}

func (s *skillAdminService) SetModerationStatus(ctx context.Context, actor domainagg.Actor, skillID uuid.UUID, status skills.ModerationStatus) error {
	return s.deps.Aggregate.SetModerationStatus(ctx, domainagg.ModerationInput{Actor: actor, SkillID: skillID, Status: status})
}

func (s *skillAdminService) HardDelete(ctx context.Context, actor domainagg.Actor, skillID uuid.UUID) error {
	res, err := s.deps.Aggregate.HardDelete(ctx, domainagg.HardDeleteInput{Actor: actor, SkillID: skillID})
	if err != nil {
		return err
	}
	deleteFromIndex(ctx, s.log, s.deps.Index, s.deps.Metrics, res.DeletedEmbeddingIDs)
	s.log.Info("Skill hard deleted", "skill_id", skillID.String(), "embeddings", len(res.DeletedEmbeddingIDs))
	return nil
}

func (s *skillAdminService) TransferOwner(ctx context.Context, actor domainagg.Actor, skillID, newOwnerID uuid.UUID) error {
	return s.deps.Aggregate.TransferOwner(ctx, domainagg.TransferOwnerInput{Actor: actor, SkillID: skillID, NewOwnerID: newOwnerID})
}

func (s *skillAdminService) MarkDuplicate(ctx context.Context, actor domainagg.Actor, skillID uuid.UUID, canonicalID *uuid.UUID) error {
	return s.deps.Aggregate.MarkDuplicate(ctx, domainagg.MarkDuplicateInput{Actor: actor, SkillID: skillID, CanonicalSkillID: canonicalID})
}
