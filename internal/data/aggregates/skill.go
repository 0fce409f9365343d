package aggregates

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	auditrepo "github.com/yungbote/skillhub-backend/internal/data/repos/audit"
	skillrepo "github.com/yungbote/skillhub-backend/internal/data/repos/skills"
	userrepo "github.com/yungbote/skillhub-backend/internal/data/repos/user"
	types "github.com/yungbote/skillhub-backend/internal/domain"
	domainagg "github.com/yungbote/skillhub-backend/internal/domain/aggregates"
	"github.com/yungbote/skillhub-backend/internal/domain/audit"
	"github.com/yungbote/skillhub-backend/internal/domain/skills"
	"github.com/yungbote/skillhub-backend/internal/domain/user"
	"github.com/yungbote/skillhub-backend/internal/platform/dbctx"
)

type SkillAggregateDeps struct {
	Base       BaseDeps
	Skills     skillrepo.SkillRepo
	Versions   skillrepo.SkillVersionRepo
	Embeddings skillrepo.SkillEmbeddingRepo
	Users      userrepo.UserRepo
	Audit      auditrepo.AuditLogRepo
	// Now defaults to time.Now.
	Now func() time.Time
}

type skillAggregate struct {
	deps SkillAggregateDeps
}

var _ domainagg.SkillAggregate = (*skillAggregate)(nil)

func NewSkillAggregate(deps SkillAggregateDeps) domainagg.SkillAggregate {
	deps.Base = deps.Base.withDefaults()
	deps.Base.Log = deps.Base.Log.With("aggregate", "SkillAggregate")
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &skillAggregate{deps: deps}
}

func (a *skillAggregate) Contract() domainagg.Contract {
	return domainagg.SkillAggregateContract
}

func (a *skillAggregate) now() time.Time {
	return a.deps.Now().UTC()
}

func (a *skillAggregate) Publish(ctx context.Context, in domainagg.PublishInput) (domainagg.PublishResult, error) {
	const op = "skills.skill_aggregate.publish"

	out := domainagg.PublishResult{}
	if in.Actor.UserID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeUnauthorized, op, "Unauthorized", nil)
	}
	slug := strings.TrimSpace(in.Slug)
	version := strings.TrimSpace(in.Version)
	if slug == "" || version == "" {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "Slug and version required", nil)
	}
	if len(in.Embedding) == 0 {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "Embedding required", nil)
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		now := a.now()

		skill, err := a.deps.Skills.LockBySlug(dbc, slug)
		if err != nil {
			return err
		}
		if skill == nil {
			skill = &types.Skill{
				ID:               uuid.New(),
				Slug:             slug,
				DisplayName:      in.DisplayName,
				Summary:          in.Summary,
				OwnerUserID:      in.Actor.UserID,
				Tags:             datatypes.NewJSONType(skills.TagMap{}),
				ModerationStatus: skills.ModerationActive,
				CreatedAt:        now,
				UpdatedAt:        now,
			}
			if err := a.deps.Skills.Create(dbc, skill); err != nil {
				return err
			}
		} else if skill.OwnerUserID != in.Actor.UserID {
			return domainagg.NewError(domainagg.CodeUnauthorized, op, "Only the owner can publish updates", nil)
		}

		existing, err := a.deps.Versions.GetBySkillAndVersion(dbc, skill.ID, version)
		if err != nil {
			return err
		}
		if existing != nil {
			return domainagg.NewError(domainagg.CodeConflict, op, "Version already exists", nil)
		}

		row := &types.SkillVersion{
			ID:        uuid.New(),
			SkillID:   skill.ID,
			Version:   version,
			Changelog: in.Changelog,
			Files:     datatypes.NewJSONSlice(in.Files),
			Parsed:    datatypes.NewJSONType(in.Parsed),
			CreatedBy: in.Actor.UserID,
			CreatedAt: now,
		}
		if err := a.deps.Versions.Create(dbc, row); err != nil {
			return err
		}

		previousLatest := skill.LatestVersionID
		tags := skill.TagMap()
		tags[skills.LatestTag] = row.ID
		for _, tag := range in.Tags {
			tag = strings.TrimSpace(tag)
			if tag == "" {
				continue
			}
			tags[tag] = row.ID
		}

		summary := skill.Summary
		if in.Summary != nil {
			summary = in.Summary
		}
		if err := a.deps.Skills.UpdateFields(dbc, skill.ID, map[string]interface{}{
			"display_name":      in.DisplayName,
			"summary":           summary,
			"latest_version_id": row.ID,
			"tags":              datatypes.NewJSONType(tags),
			"stats_versions":    gorm.Expr("stats_versions + ?", 1),
			"updated_at":        now,
		}); err != nil {
			return err
		}

		emb := &types.SkillEmbedding{
			ID:         uuid.New(),
			SkillID:    skill.ID,
			VersionID:  row.ID,
			OwnerID:    skill.OwnerUserID,
			Embedding:  pgvector.NewVector(in.Embedding),
			IsLatest:   true,
			IsApproved: skill.Badges.IsRedactionApproved(),
			UpdatedAt:  now,
		}
		if err := a.deps.Embeddings.Create(dbc, emb); err != nil {
			return err
		}

		changed := []*types.SkillEmbedding{emb}
		demoted, err := a.demoteOtherLatest(dbc, skill.ID, emb.ID)
		if err != nil {
			return err
		}
		changed = append(changed, demoted...)
		if previousLatest != nil && len(demoted) > 1 {
			a.deps.Base.Log.Warn("Publish demoted more than one latest embedding",
				"skill_id", skill.ID.String(),
				"previous_latest_version_id", previousLatest.String(),
				"demoted", len(demoted),
			)
		}

		out = domainagg.PublishResult{
			SkillID:     skill.ID,
			VersionID:   row.ID,
			EmbeddingID: emb.ID,
			Changed:     changed,
		}
		return nil
	})
	if err != nil {
		return domainagg.PublishResult{}, err
	}
	return out, nil
}

// demoteOtherLatest clears isLatest on every embedding of the skill except keep.
func (a *skillAggregate) demoteOtherLatest(dbc dbctx.Context, skillID, keep uuid.UUID) ([]*types.SkillEmbedding, error) {
	rows, err := a.deps.Embeddings.ListBySkill(dbc, skillID)
	if err != nil {
		return nil, err
	}
	var demoted []*types.SkillEmbedding
	for _, row := range rows {
		if row.ID == keep || !row.IsLatest {
			continue
		}
		if err := a.deps.Embeddings.SetFlags(dbc, row, false, row.IsApproved); err != nil {
			return nil, err
		}
		demoted = append(demoted, row)
	}
	return demoted, nil
}

func (a *skillAggregate) Retag(ctx context.Context, in domainagg.RetagInput) (domainagg.EmbeddingChangeResult, error) {
	const op = "skills.skill_aggregate.retag"

	out := domainagg.EmbeddingChangeResult{}
	if in.SkillID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "Skill id required", nil)
	}
	if len(in.Tags) == 0 {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "Tags required", nil)
	}
	assignments := make([]domainagg.TagAssignment, 0, len(in.Tags))
	for _, t := range in.Tags {
		tag := strings.TrimSpace(t.Tag)
		if tag == "" || t.VersionID == uuid.Nil {
			return out, domainagg.NewError(domainagg.CodeValidation, op, "Tag and version required", nil)
		}
		assignments = append(assignments, domainagg.TagAssignment{Tag: tag, VersionID: t.VersionID})
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		skill, err := a.lockSkill(dbc, op, in.SkillID)
		if err != nil {
			return err
		}
		if skill.OwnerUserID != in.Actor.UserID && !in.Actor.Role.Elevated() {
			return domainagg.NewError(domainagg.CodeUnauthorized, op, "Unauthorized", nil)
		}

		seen := map[uuid.UUID]bool{}
		for _, t := range assignments {
			if seen[t.VersionID] {
				continue
			}
			v, err := a.deps.Versions.GetByID(dbc, t.VersionID)
			if err != nil {
				return err
			}
			if v == nil || v.SkillID != skill.ID {
				return domainagg.NewError(domainagg.CodeNotFound, op, "Version not found", nil)
			}
			seen[t.VersionID] = true
		}

		tags := skill.TagMap()
		var newLatest *uuid.UUID
		for _, t := range assignments {
			tags[t.Tag] = t.VersionID
			if t.Tag == skills.LatestTag {
				id := t.VersionID
				newLatest = &id
			}
		}

		updates := map[string]interface{}{
			"tags":       datatypes.NewJSONType(tags),
			"updated_at": a.now(),
		}
		if newLatest != nil {
			updates["latest_version_id"] = *newLatest
		}
		if err := a.deps.Skills.UpdateFields(dbc, skill.ID, updates); err != nil {
			return err
		}

		if newLatest == nil {
			return nil
		}
		rows, err := a.deps.Embeddings.ListBySkill(dbc, skill.ID)
		if err != nil {
			return err
		}
		for _, row := range rows {
			isLatest := row.VersionID == *newLatest
			if row.IsLatest == isLatest && row.Visibility == skills.VisibilityFor(isLatest, row.IsApproved) {
				continue
			}
			if err := a.deps.Embeddings.SetFlags(dbc, row, isLatest, row.IsApproved); err != nil {
				return err
			}
			out.Changed = append(out.Changed, row)
		}
		return nil
	})
	if err != nil {
		return domainagg.EmbeddingChangeResult{}, err
	}
	return out, nil
}

func (a *skillAggregate) SetApprovalBadge(ctx context.Context, in domainagg.ApprovalInput) (domainagg.EmbeddingChangeResult, error) {
	const op = "skills.skill_aggregate.set_approval_badge"

	out := domainagg.EmbeddingChangeResult{}
	if err := requireRole(op, in.Actor, false); err != nil {
		return out, err
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		skill, err := a.lockSkill(dbc, op, in.SkillID)
		if err != nil {
			return err
		}
		now := a.now()

		updates := map[string]interface{}{"updated_at": now}
		if in.Approved {
			updates["badge_redaction_approved_by"] = in.Actor.UserID
			updates["badge_redaction_approved_at"] = now
		} else {
			updates["badge_redaction_approved_by"] = nil
			updates["badge_redaction_approved_at"] = nil
		}
		if err := a.deps.Skills.UpdateFields(dbc, skill.ID, updates); err != nil {
			return err
		}

		rows, err := a.deps.Embeddings.ListBySkill(dbc, skill.ID)
		if err != nil {
			return err
		}
		for _, row := range rows {
			if err := a.deps.Embeddings.SetFlags(dbc, row, row.IsLatest, in.Approved); err != nil {
				return err
			}
			out.Changed = append(out.Changed, row)
		}

		action := audit.ActionBadgeSet
		if !in.Approved {
			action = audit.ActionBadgeUnset
		}
		return a.appendAudit(dbc, in.Actor, action, skill.ID, map[string]interface{}{
			"badge":    audit.BadgeRedactionApproved,
			"approved": in.Approved,
		})
	})
	if err != nil {
		return domainagg.EmbeddingChangeResult{}, err
	}
	return out, nil
}

func (a *skillAggregate) SetBatch(ctx context.Context, in domainagg.SetBatchInput) error {
	const op = "skills.skill_aggregate.set_batch"

	if err := requireRole(op, in.Actor, false); err != nil {
		return err
	}
	var batch *string
	if in.Batch != nil {
		if b := strings.TrimSpace(*in.Batch); b != "" {
			batch = &b
		}
	}

	return executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		skill, err := a.lockSkill(dbc, op, in.SkillID)
		if err != nil {
			return err
		}
		if err := a.deps.Skills.UpdateFields(dbc, skill.ID, map[string]interface{}{
			"batch":      batch,
			"updated_at": a.now(),
		}); err != nil {
			return err
		}
		var meta interface{}
		if batch != nil {
			meta = *batch
		}
		return a.appendAudit(dbc, in.Actor, audit.ActionBatchSet, skill.ID, map[string]interface{}{"batch": meta})
	})
}

func (a *skillAggregate) SetModerationStatus(ctx context.Context, in domainagg.ModerationInput) error {
	const op = "skills.skill_aggregate.set_moderation_status"

	if err := requireRole(op, in.Actor, false); err != nil {
		return err
	}
	if !in.Status.Valid() {
		return domainagg.NewError(domainagg.CodeValidation, op, "Invalid moderation status", nil)
	}

	return executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		skill, err := a.lockSkill(dbc, op, in.SkillID)
		if err != nil {
			return err
		}
		now := a.now()
		var softDeletedAt *time.Time
		if in.Status != skills.ModerationActive {
			softDeletedAt = &now
			if skill.SoftDeletedAt != nil {
				softDeletedAt = skill.SoftDeletedAt
			}
		}
		if err := a.deps.Skills.UpdateFields(dbc, skill.ID, map[string]interface{}{
			"moderation_status": in.Status,
			"soft_deleted_at":   softDeletedAt,
			"updated_at":        now,
		}); err != nil {
			return err
		}
		return a.appendAudit(dbc, in.Actor, audit.ActionModerationSet, skill.ID, map[string]interface{}{
			"status": string(in.Status),
		})
	})
}

func (a *skillAggregate) HardDelete(ctx context.Context, in domainagg.HardDeleteInput) (domainagg.HardDeleteResult, error) {
	const op = "skills.skill_aggregate.hard_delete"

	out := domainagg.HardDeleteResult{}
	if err := requireRole(op, in.Actor, true); err != nil {
		return out, err
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		skill, err := a.lockSkill(dbc, op, in.SkillID)
		if err != nil {
			return err
		}
		ids, err := a.deps.Embeddings.DeleteBySkill(dbc, skill.ID)
		if err != nil {
			return err
		}
		if err := a.deps.Versions.DeleteBySkill(dbc, skill.ID); err != nil {
			return err
		}
		if err := a.deps.Skills.Delete(dbc, skill.ID); err != nil {
			return err
		}
		out.DeletedEmbeddingIDs = ids
		return a.appendAudit(dbc, in.Actor, audit.ActionSkillDelete, skill.ID, map[string]interface{}{
			"slug": skill.Slug,
		})
	})
	if err != nil {
		return domainagg.HardDeleteResult{}, err
	}
	return out, nil
}

func (a *skillAggregate) TransferOwner(ctx context.Context, in domainagg.TransferOwnerInput) error {
	const op = "skills.skill_aggregate.transfer_owner"

	if err := requireRole(op, in.Actor, true); err != nil {
		return err
	}
	if in.NewOwnerID == uuid.Nil {
		return domainagg.NewError(domainagg.CodeValidation, op, "Owner required", nil)
	}

	return executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		skill, err := a.lockSkill(dbc, op, in.SkillID)
		if err != nil {
			return err
		}
		target, err := a.deps.Users.GetByID(dbc, in.NewOwnerID)
		if err != nil {
			return err
		}
		if target == nil {
			return domainagg.NewError(domainagg.CodeNotFound, op, "User not found", nil)
		}
		if err := a.deps.Skills.UpdateFields(dbc, skill.ID, map[string]interface{}{
			"owner_user_id": target.ID,
			"updated_at":    a.now(),
		}); err != nil {
			return err
		}
		if err := a.deps.Embeddings.UpdateOwnerBySkill(dbc, skill.ID, target.ID); err != nil {
			return err
		}
		return a.appendAudit(dbc, in.Actor, audit.ActionOwnerTransfer, skill.ID, map[string]interface{}{
			"from": skill.OwnerUserID.String(),
			"to":   target.ID.String(),
		})
	})
}

func (a *skillAggregate) MarkDuplicate(ctx context.Context, in domainagg.MarkDuplicateInput) error {
	const op = "skills.skill_aggregate.mark_duplicate"

	if err := requireRole(op, in.Actor, false); err != nil {
		return err
	}
	if in.CanonicalSkillID != nil && *in.CanonicalSkillID == in.SkillID {
		return domainagg.NewError(domainagg.CodeValidation, op, "A skill cannot duplicate itself", nil)
	}

	return executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		skill, err := a.lockSkill(dbc, op, in.SkillID)
		if err != nil {
			return err
		}
		var canonical *uuid.UUID
		var meta interface{}
		if in.CanonicalSkillID != nil && *in.CanonicalSkillID != uuid.Nil {
			rows, err := a.deps.Skills.GetByIDs(dbc, []uuid.UUID{*in.CanonicalSkillID})
			if err != nil {
				return err
			}
			if len(rows) == 0 {
				return domainagg.NewError(domainagg.CodeNotFound, op, "Canonical skill not found", nil)
			}
			id := rows[0].ID
			canonical = &id
			meta = rows[0].Slug
		}
		if err := a.deps.Skills.UpdateFields(dbc, skill.ID, map[string]interface{}{
			"canonical_skill_id": canonical,
			"updated_at":         a.now(),
		}); err != nil {
			return err
		}
		return a.appendAudit(dbc, in.Actor, audit.ActionDuplicateSet, skill.ID, map[string]interface{}{
			"canonicalSlug": meta,
		})
	})
}

func (a *skillAggregate) lockSkill(dbc dbctx.Context, op string, id uuid.UUID) (*types.Skill, error) {
	if id == uuid.Nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "Skill id required", nil)
	}
	skill, err := a.deps.Skills.LockByID(dbc, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domainagg.NewError(domainagg.CodeNotFound, op, "Skill not found", err)
	}
	if err != nil {
		return nil, err
	}
	return skill, nil
}

func (a *skillAggregate) appendAudit(dbc dbctx.Context, actor domainagg.Actor, action string, skillID uuid.UUID, meta map[string]interface{}) error {
	if a.deps.Audit == nil {
		return nil
	}
	return a.deps.Audit.Append(dbc, &types.AuditLog{
		ActorUserID: actor.UserID,
		Action:      action,
		TargetType:  audit.TargetTypeSkill,
		TargetID:    skillID.String(),
		Metadata:    datatypes.JSONMap(meta),
		CreatedAt:   a.now(),
	})
}

// requireRole admits moderators and admins, or admins only when adminOnly.
func requireRole(op string, actor domainagg.Actor, adminOnly bool) error {
	if actor.UserID == uuid.Nil {
		return domainagg.NewError(domainagg.CodeUnauthorized, op, "Unauthorized", nil)
	}
	min := user.RoleModerator
	if adminOnly {
		min = user.RoleAdmin
	}
	if !actor.Role.AtLeast(min) {
		return domainagg.NewError(domainagg.CodeUnauthorized, op, "Unauthorized", nil)
	}
	return nil
}
