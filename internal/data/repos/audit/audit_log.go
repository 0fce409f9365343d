package audit

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/skillhub-backend/internal/domain"
	"github.com/yungbote/skillhub-backend/internal/platform/dbctx"
	"github.com/yungbote/skillhub-backend/internal/platform/logger"
)

type AuditLogRepo interface {
	Append(dbc dbctx.Context, row *types.AuditLog) error
	ListByTarget(dbc dbctx.Context, targetType, targetID string, limit int) ([]*types.AuditLog, error)
}

type auditLogRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAuditLogRepo(db *gorm.DB, baseLog *logger.Logger) AuditLogRepo {
	return &auditLogRepo{db: db, log: baseLog.With("repo", "AuditLogRepo")}
}

func (r *auditLogRepo) Append(dbc dbctx.Context, row *types.AuditLog) error {
	if row == nil {
		return fmt.Errorf("missing audit entry")
	}
	if row.Action == "" || row.TargetType == "" || row.TargetID == "" {
		return fmt.Errorf("audit entry requires action and target")
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	return dbc.DB(r.db).Create(row).Error
}

func (r *auditLogRepo) ListByTarget(dbc dbctx.Context, targetType, targetID string, limit int) ([]*types.AuditLog, error) {
	if limit <= 0 {
		limit = 50
	}
	var out []*types.AuditLog
	if err := dbc.DB(r.db).
		Where("target_type = ? AND target_id = ?", targetType, targetID).
		Order("created_at ASC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
