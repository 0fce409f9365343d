package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"

	domainagg "github.com/yungbote/skillhub-backend/internal/domain/aggregates"
	"github.com/yungbote/skillhub-backend/internal/platform/blob"
	"github.com/yungbote/skillhub-backend/internal/platform/logger"
)

type UploadOutput struct {
	StorageID   string `json:"storageId"`
	SHA256      string `json:"sha256"`
	Size        int64  `json:"size"`
	ContentType string `json:"contentType,omitempty"`
}

// UploadService stores one bundle file ahead of publish. Publish later refers
// to it by StorageID.
type UploadService interface {
	Upload(ctx context.Context, actor domainagg.Actor, data []byte, contentType string) (UploadOutput, error)
}

type uploadService struct {
	log   *logger.Logger
	blobs blob.Store
}

func NewUploadService(log *logger.Logger, blobs blob.Store) UploadService {
	if log == nil {
		log = logger.NewNop()
	}
	return &uploadService{log: log.With("service", "UploadService"), blobs: blobs}
}

func (s *uploadService) Upload(ctx context.Context, actor domainagg.Actor, data []byte, contentType string) (UploadOutput, error) {
	const op = "services.upload"
	if actor.UserID == uuid.Nil {
		return UploadOutput{}, domainagg.NewError(domainagg.CodeUnauthorized, op, "unauthorized", nil)
	}
	if len(data) == 0 {
		return UploadOutput{}, domainagg.NewError(domainagg.CodeValidation, op, "Empty upload", nil)
	}
	if len(data) > blob.MaxObjectBytes {
		return UploadOutput{}, domainagg.NewError(domainagg.CodeValidation, op, "File exceeds 50MB limit", nil)
	}
	sum := sha256.Sum256(data)
	out := UploadOutput{
		StorageID:   "uploads/" + actor.UserID.String() + "/" + uuid.NewString(),
		SHA256:      hex.EncodeToString(sum[:]),
		Size:        int64(len(data)),
		ContentType: strings.TrimSpace(contentType),
	}
	if err := s.blobs.Put(ctx, out.StorageID, data, out.ContentType); err != nil {
		s.log.Warn("Blob upload failed", "store", s.blobs.Name(), "error", err)
		return UploadOutput{}, domainagg.NewError(domainagg.CodeDependency, op, "Failed to store file", err)
	}
	return out, nil
}
