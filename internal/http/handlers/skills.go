package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	domainagg "github.com/yungbote/skillhub-backend/internal/domain/aggregates"
	"github.com/yungbote/skillhub-backend/internal/http/response"
	"github.com/yungbote/skillhub-backend/internal/platform/logger"
	"github.com/yungbote/skillhub-backend/internal/services"
)

type SkillHandler struct {
	log    *logger.Logger
	query  services.SkillQueryService
	search services.SearchService
}

func NewSkillHandler(log *logger.Logger, query services.SkillQueryService, search services.SearchService) *SkillHandler {
	return &SkillHandler{
		log:    log.With("handler", "SkillHandler"),
		query:  query,
		search: search,
	}
}

type searchHit struct {
	Score       float64   `json:"score"`
	Slug        string    `json:"slug"`
	DisplayName string    `json:"displayName"`
	Summary     *string   `json:"summary"`
	Version     *string   `json:"version"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// GET /api/v1/search?q=&limit=&approvedOnly=true
func (h *SkillHandler) Search(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		response.RespondOK(c, gin.H{"results": []searchHit{}})
		return
	}
	results, err := h.search.Search(c.Request.Context(), services.SearchInput{
		Query:        query,
		Limit:        optionalInt(c.Query("limit")),
		ApprovedOnly: c.Query("approvedOnly") == "true",
	})
	if err != nil {
		response.RespondFrom(c, err)
		return
	}
	hits := make([]searchHit, 0, len(results))
	for _, r := range results {
		hit := searchHit{
			Score:       r.Score,
			Slug:        r.Skill.Slug,
			DisplayName: r.Skill.DisplayName,
			Summary:     r.Skill.Summary,
			UpdatedAt:   r.Skill.UpdatedAt,
		}
		if r.Version != nil {
			v := r.Version.Version
			hit.Version = &v
		}
		hits = append(hits, hit)
	}
	response.RespondOK(c, gin.H{"results": hits})
}

// GET /api/v1/skill?slug=
func (h *SkillHandler) GetSkill(c *gin.Context) {
	detail, err := h.query.GetByPublicSlug(c.Request.Context(), c.Query("slug"))
	if err != nil {
		response.RespondFrom(c, err)
		return
	}
	sk := detail.Skill
	out := gin.H{
		"skill": gin.H{
			"slug":        sk.Slug,
			"displayName": sk.DisplayName,
			"summary":     sk.Summary,
			"tags":        sk.Tags.Data(),
			"stats":       sk.Stats,
			"createdAt":   sk.CreatedAt,
			"updatedAt":   sk.UpdatedAt,
		},
		"latestVersion": nil,
		"owner":         nil,
	}
	if v := detail.LatestVersion; v != nil {
		out["latestVersion"] = gin.H{
			"version":   v.Version,
			"createdAt": v.CreatedAt,
			"changelog": v.Changelog,
		}
	}
	if o := detail.Owner; o != nil {
		out["owner"] = gin.H{
			"handle":      o.Handle,
			"displayName": o.DisplayName,
			"image":       o.Image,
		}
	}
	response.RespondOK(c, out)
}

// GET /api/v1/skills?batch=&owner=&limit=
func (h *SkillHandler) ListSkills(c *gin.Context) {
	in := services.ListSkillsInput{
		Batch: strings.TrimSpace(c.Query("batch")),
		Limit: optionalInt(c.Query("limit")),
	}
	if owner := strings.TrimSpace(c.Query("owner")); owner != "" {
		ownerID, err := uuid.Parse(owner)
		if err != nil {
			response.RespondFrom(c, domainagg.NewError(domainagg.CodeValidation, "http.list_skills", "Invalid owner id", err))
			return
		}
		in.OwnerUserID = ownerID
	}
	list, err := h.query.List(c.Request.Context(), in)
	if err != nil {
		response.RespondFrom(c, err)
		return
	}
	response.RespondOK(c, gin.H{"skills": list})
}

// GET /api/v1/skills/:id/versions?limit=
func (h *SkillHandler) ListVersions(c *gin.Context) {
	skillID, ok := pathUUID(c, "id", "Invalid skill id")
	if !ok {
		return
	}
	versions, err := h.query.ListVersions(c.Request.Context(), skillID, optionalInt(c.Query("limit")))
	if err != nil {
		response.RespondFrom(c, err)
		return
	}
	response.RespondOK(c, gin.H{"versions": versions})
}

// GET /api/v1/skills/:id/versions/:version
func (h *SkillHandler) GetVersion(c *gin.Context) {
	skillID, ok := pathUUID(c, "id", "Invalid skill id")
	if !ok {
		return
	}
	v, err := h.query.GetVersion(c.Request.Context(), skillID, c.Param("version"))
	if err != nil {
		response.RespondFrom(c, err)
		return
	}
	response.RespondOK(c, gin.H{"version": v})
}

// GET /api/v1/versions/:id/readme
func (h *SkillHandler) GetReadme(c *gin.Context) {
	versionID, ok := pathUUID(c, "id", "Invalid version id")
	if !ok {
		return
	}
	readme, err := h.query.GetReadme(c.Request.Context(), versionID)
	if err != nil {
		response.RespondFrom(c, err)
		return
	}
	response.RespondOK(c, readme)
}

// GET /api/v1/download?slug=&version=&tag=
func (h *SkillHandler) Download(c *gin.Context) {
	out, err := h.query.Download(c.Request.Context(), services.DownloadInput{
		Slug:    c.Query("slug"),
		Version: strings.TrimSpace(c.Query("version")),
		Tag:     strings.TrimSpace(c.Query("tag")),
	})
	if err != nil {
		response.RespondFrom(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+out.Filename()+`"`)
	c.Header("Cache-Control", "private, max-age=60")
	c.Data(http.StatusOK, "application/zip", out.Archive)
}

func optionalInt(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0
	}
	return n
}

func pathUUID(c *gin.Context, name, message string) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param(name)))
	if err != nil || id == uuid.Nil {
		response.RespondFrom(c, domainagg.NewError(domainagg.CodeValidation, "http.path_param", message, err))
		return uuid.Nil, false
	}
	return id, true
}
