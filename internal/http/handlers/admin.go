package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	domainagg "github.com/yungbote/skillhub-backend/internal/domain/aggregates"
	"github.com/yungbote/skillhub-backend/internal/domain/skills"
	"github.com/yungbote/skillhub-backend/internal/http/response"
	"github.com/yungbote/skillhub-backend/internal/platform/logger"
	"github.com/yungbote/skillhub-backend/internal/services"
)

// SkillAdminHandler serves owner and moderator writes on an existing skill.
// Authorization is enforced by the aggregate.
type SkillAdminHandler struct {
	log   *logger.Logger
	admin services.SkillAdminService
}

func NewSkillAdminHandler(log *logger.Logger, admin services.SkillAdminService) *SkillAdminHandler {
	return &SkillAdminHandler{log: log.With("handler", "SkillAdminHandler"), admin: admin}
}

func (h *SkillAdminHandler) target(c *gin.Context) (domainagg.Actor, uuid.UUID, bool) {
	actor, err := services.ActorFromContext(c.Request.Context())
	if err != nil {
		response.RespondFrom(c, err)
		return actor, uuid.Nil, false
	}
	skillID, ok := pathUUID(c, "id", "Invalid skill id")
	return actor, skillID, ok
}

func bindBody(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.RespondFrom(c, domainagg.NewError(domainagg.CodeValidation, "http.bind", "Invalid JSON", err))
		return false
	}
	return true
}

func (h *SkillAdminHandler) finish(c *gin.Context, action string, skillID uuid.UUID, err error) {
	if err != nil {
		if domainagg.CodeOf(err) == domainagg.CodeInternal {
			h.log.Error("Skill admin write failed", "action", action, "skill_id", skillID, "error", err)
		}
		response.RespondFrom(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

// POST /api/v1/skills/:id/tags
// body: { "tags": [{ "tag": "stable", "versionId": "..." }] }
func (h *SkillAdminHandler) Retag(c *gin.Context) {
	actor, skillID, ok := h.target(c)
	if !ok {
		return
	}
	var req struct {
		Tags []struct {
			Tag       string    `json:"tag"`
			VersionID uuid.UUID `json:"versionId"`
		} `json:"tags"`
	}
	if !bindBody(c, &req) {
		return
	}
	tags := make([]domainagg.TagAssignment, 0, len(req.Tags))
	for _, t := range req.Tags {
		tags = append(tags, domainagg.TagAssignment{Tag: strings.TrimSpace(t.Tag), VersionID: t.VersionID})
	}
	h.finish(c, "retag", skillID, h.admin.Retag(c.Request.Context(), actor, skillID, tags))
}

// POST /api/v1/skills/:id/approval
// body: { "approved": true }
func (h *SkillAdminHandler) SetApproval(c *gin.Context) {
	actor, skillID, ok := h.target(c)
	if !ok {
		return
	}
	var req struct {
		Approved *bool `json:"approved"`
	}
	if !bindBody(c, &req) {
		return
	}
	if req.Approved == nil {
		response.RespondFrom(c, domainagg.NewError(domainagg.CodeValidation, "http.approval", "approved required", nil))
		return
	}
	h.finish(c, "approval", skillID, h.admin.SetApproval(c.Request.Context(), actor, skillID, *req.Approved))
}

// POST /api/v1/skills/:id/batch
// body: { "batch": "featured" } or { "batch": null }
func (h *SkillAdminHandler) SetBatch(c *gin.Context) {
	actor, skillID, ok := h.target(c)
	if !ok {
		return
	}
	var req struct {
		Batch *string `json:"batch"`
	}
	if !bindBody(c, &req) {
		return
	}
	h.finish(c, "batch", skillID, h.admin.SetBatch(c.Request.Context(), actor, skillID, req.Batch))
}

// POST /api/v1/skills/:id/moderation
// body: { "status": "active" | "hidden" | "removed" }
func (h *SkillAdminHandler) SetModeration(c *gin.Context) {
	actor, skillID, ok := h.target(c)
	if !ok {
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if !bindBody(c, &req) {
		return
	}
	status := skills.ModerationStatus(strings.ToLower(strings.TrimSpace(req.Status)))
	h.finish(c, "moderation", skillID, h.admin.SetModerationStatus(c.Request.Context(), actor, skillID, status))
}

// POST /api/v1/skills/:id/owner
// body: { "ownerUserId": "..." }
func (h *SkillAdminHandler) TransferOwner(c *gin.Context) {
	actor, skillID, ok := h.target(c)
	if !ok {
		return
	}
	var req struct {
		OwnerUserID uuid.UUID `json:"ownerUserId"`
	}
	if !bindBody(c, &req) {
		return
	}
	if req.OwnerUserID == uuid.Nil {
		response.RespondFrom(c, domainagg.NewError(domainagg.CodeValidation, "http.owner", "ownerUserId required", nil))
		return
	}
	h.finish(c, "owner", skillID, h.admin.TransferOwner(c.Request.Context(), actor, skillID, req.OwnerUserID))
}

// POST /api/v1/skills/:id/duplicate
// body: { "canonicalSkillId": "..." } or { "canonicalSkillId": null } to clear
func (h *SkillAdminHandler) MarkDuplicate(c *gin.Context) {
	actor, skillID, ok := h.target(c)
	if !ok {
		return
	}
	var req struct {
		CanonicalSkillID *uuid.UUID `json:"canonicalSkillId"`
	}
	if !bindBody(c, &req) {
		return
	}
	h.finish(c, "duplicate", skillID, h.admin.MarkDuplicate(c.Request.Context(), actor, skillID, req.CanonicalSkillID))
}

// DELETE /api/v1/skills/:id
func (h *SkillAdminHandler) Delete(c *gin.Context) {
	actor, skillID, ok := h.target(c)
	if !ok {
		return
	}
	h.finish(c, "delete", skillID, h.admin.HardDelete(c.Request.Context(), actor, skillID))
}
