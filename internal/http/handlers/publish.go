package handlers

import (
	"encoding/json"
	"io"
	"math"
	"strings"

	"github.com/gin-gonic/gin"

	domainagg "github.com/yungbote/skillhub-backend/internal/domain/aggregates"
	"github.com/yungbote/skillhub-backend/internal/domain/skills"
	"github.com/yungbote/skillhub-backend/internal/http/response"
	"github.com/yungbote/skillhub-backend/internal/platform/blob"
	"github.com/yungbote/skillhub-backend/internal/platform/logger"
	"github.com/yungbote/skillhub-backend/internal/services"
	"github.com/yungbote/skillhub-backend/internal/skills/bundle"
)

const opParsePublish = "http.publish.parse"

type PublishHandler struct {
	log     *logger.Logger
	publish services.PublishService
	upload  services.UploadService
}

func NewPublishHandler(log *logger.Logger, publish services.PublishService, upload services.UploadService) *PublishHandler {
	return &PublishHandler{
		log:     log.With("handler", "PublishHandler"),
		publish: publish,
		upload:  upload,
	}
}

// POST /api/v1/skills/publish
func (h *PublishHandler) Publish(c *gin.Context) {
	actor, err := services.ActorFromContext(c.Request.Context())
	if err != nil {
		response.RespondFrom(c, err)
		return
	}
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		response.RespondFrom(c, domainagg.NewError(domainagg.CodeValidation, opParsePublish, "Invalid JSON", err))
		return
	}
	in, err := parsePublishBody(raw)
	if err != nil {
		response.RespondFrom(c, err)
		return
	}
	out, err := h.publish.Publish(c.Request.Context(), actor, in)
	if err != nil {
		if domainagg.CodeOf(err) == domainagg.CodeInternal {
			h.log.Error("Publish failed", "slug", in.Slug, "version", in.Version, "error", err)
		}
		response.RespondFrom(c, err)
		return
	}
	response.RespondOK(c, gin.H{
		"ok":          true,
		"skillId":     out.SkillID,
		"versionId":   out.VersionID,
		"embeddingId": out.EmbeddingID,
	})
}

// POST /api/v1/uploads
// body: raw file bytes; Content-Type is recorded with the blob.
func (h *PublishHandler) Upload(c *gin.Context) {
	actor, err := services.ActorFromContext(c.Request.Context())
	if err != nil {
		response.RespondFrom(c, err)
		return
	}
	data, err := io.ReadAll(io.LimitReader(c.Request.Body, blob.MaxObjectBytes+1))
	if err != nil {
		response.RespondFrom(c, domainagg.NewError(domainagg.CodeValidation, "http.upload", "Failed to read upload", err))
		return
	}
	out, err := h.upload.Upload(c.Request.Context(), actor, data, c.ContentType())
	if err != nil {
		response.RespondFrom(c, err)
		return
	}
	response.RespondOK(c, out)
}

func parsePublishBody(raw []byte) (services.PublishInput, error) {
	var body any
	if err := json.Unmarshal(raw, &body); err != nil {
		return services.PublishInput{}, publishError("Invalid JSON", err)
	}
	obj, ok := body.(map[string]any)
	if !ok {
		return services.PublishInput{}, publishError("Invalid publish payload", nil)
	}

	var in services.PublishInput
	var err error
	if in.Slug, err = stringField(obj, "slug"); err != nil {
		return in, err
	}
	if in.DisplayName, err = stringField(obj, "displayName"); err != nil {
		return in, err
	}
	if in.Version, err = stringField(obj, "version"); err != nil {
		return in, err
	}
	if in.Changelog, err = stringField(obj, "changelog"); err != nil {
		return in, err
	}
	in.Tags = stringList(obj["tags"])

	filesRaw, ok := obj["files"].([]any)
	if !ok || len(filesRaw) == 0 {
		return in, publishError("files required", nil)
	}
	in.Files = make([]skills.VersionFile, 0, len(filesRaw))
	for _, rawFile := range filesRaw {
		file, ok := rawFile.(map[string]any)
		if !ok {
			return in, publishError("Invalid file entry", nil)
		}
		var f skills.VersionFile
		if f.Path, err = stringField(file, "path"); err != nil {
			return in, err
		}
		if f.Size, err = sizeField(file, "size"); err != nil {
			return in, err
		}
		if f.StorageID, err = stringField(file, "storageId"); err != nil {
			return in, err
		}
		if f.SHA256, err = stringField(file, "sha256"); err != nil {
			return in, err
		}
		if ct, ok := file["contentType"].(string); ok {
			f.ContentType = ct
		}
		in.Files = append(in.Files, f)
	}
	return in, nil
}

func stringField(obj map[string]any, key string) (string, error) {
	v, ok := obj[key].(string)
	if !ok || strings.TrimSpace(v) == "" {
		return "", publishError(key+" required", nil)
	}
	return v, nil
}

func numberField(obj map[string]any, key string) (float64, error) {
	v, ok := obj[key].(float64)
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, publishError(key+" must be number", nil)
	}
	return v, nil
}

// sizeField reads a byte count. Counts past the bundle cap are pinned just
// above it so the int64 conversion cannot wrap and validation still reports
// the cap.
func sizeField(obj map[string]any, key string) (int64, error) {
	v, err := numberField(obj, key)
	if err != nil {
		return 0, err
	}
	if v < 0 || v != math.Trunc(v) {
		return 0, publishError(key+" must be a non-negative integer", nil)
	}
	if v > float64(bundle.MaxTotalBytes) {
		return bundle.MaxTotalBytes + 1, nil
	}
	return int64(v), nil
}

// stringList returns nil unless every element is a string.
func stringList(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil
		}
		out = append(out, s)
	}
	return out
}

func publishError(msg string, cause error) error {
	return domainagg.NewError(domainagg.CodeValidation, opParsePublish, msg, cause)
}
