package skills

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/skillhub-backend/internal/domain"
	domainskills "github.com/yungbote/skillhub-backend/internal/domain/skills"
	"github.com/yungbote/skillhub-backend/internal/platform/dbctx"
	"github.com/yungbote/skillhub-backend/internal/platform/logger"
)

type SkillEmbeddingRepo interface {
	Create(dbc dbctx.Context, row *types.SkillEmbedding) error
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.SkillEmbedding, error)
	GetByVersionID(dbc dbctx.Context, versionID uuid.UUID) (*types.SkillEmbedding, error)
	ListBySkill(dbc dbctx.Context, skillID uuid.UUID) ([]*types.SkillEmbedding, error)
	// ListPage walks every embedding in id order, starting after the given id.
	ListPage(dbc dbctx.Context, after uuid.UUID, limit int) ([]*types.SkillEmbedding, error)
	// SetFlags writes isLatest/isApproved and the visibility derived from them.
	SetFlags(dbc dbctx.Context, row *types.SkillEmbedding, isLatest, isApproved bool) error
	UpdateOwnerBySkill(dbc dbctx.Context, skillID, ownerID uuid.UUID) error
	DeleteBySkill(dbc dbctx.Context, skillID uuid.UUID) ([]uuid.UUID, error)
}

type skillEmbeddingRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSkillEmbeddingRepo(db *gorm.DB, log *logger.Logger) SkillEmbeddingRepo {
	return &skillEmbeddingRepo{db: db, log: log.With("repo", "SkillEmbeddingRepo")}
}

func (r *skillEmbeddingRepo) Create(dbc dbctx.Context, row *types.SkillEmbedding) error {
	if row == nil {
		return fmt.Errorf("missing embedding")
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	row.Visibility = domainskills.VisibilityFor(row.IsLatest, row.IsApproved)
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = time.Now().UTC()
	}
	return dbc.DB(r.db).Create(row).Error
}

func (r *skillEmbeddingRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.SkillEmbedding, error) {
	if len(ids) == 0 {
		return []*types.SkillEmbedding{}, nil
	}
	var out []*types.SkillEmbedding
	if err := dbc.DB(r.db).
		Omit("embedding").
		Where("id IN ?", ids).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// GetByVersionID returns nil, nil when the version has no embedding.
func (r *skillEmbeddingRepo) GetByVersionID(dbc dbctx.Context, versionID uuid.UUID) (*types.SkillEmbedding, error) {
	if versionID == uuid.Nil {
		return nil, nil
	}
	var out types.SkillEmbedding
	err := dbc.DB(r.db).
		Omit("embedding").
		Where("version_id = ?", versionID).
		Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *skillEmbeddingRepo) ListBySkill(dbc dbctx.Context, skillID uuid.UUID) ([]*types.SkillEmbedding, error) {
	if skillID == uuid.Nil {
		return nil, fmt.Errorf("missing skill_id")
	}
	var out []*types.SkillEmbedding
	if err := dbc.DB(r.db).
		Where("skill_id = ?", skillID).
		Order("updated_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *skillEmbeddingRepo) ListPage(dbc dbctx.Context, after uuid.UUID, limit int) ([]*types.SkillEmbedding, error) {
	if limit <= 0 {
		limit = 500
	}
	q := dbc.DB(r.db).Order("id ASC").Limit(limit)
	if after != uuid.Nil {
		q = q.Where("id > ?", after)
	}
	var out []*types.SkillEmbedding
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *skillEmbeddingRepo) SetFlags(dbc dbctx.Context, row *types.SkillEmbedding, isLatest, isApproved bool) error {
	if row == nil || row.ID == uuid.Nil {
		return fmt.Errorf("missing embedding")
	}
	now := time.Now().UTC()
	if err := dbc.DB(r.db).
		Model(&types.SkillEmbedding{}).
		Where("id = ?", row.ID).
		Updates(map[string]interface{}{
			"is_latest":   isLatest,
			"is_approved": isApproved,
			"visibility":  domainskills.VisibilityFor(isLatest, isApproved),
			"updated_at":  now,
		}).Error; err != nil {
		return err
	}
	row.Apply(isLatest, isApproved)
	row.UpdatedAt = now
	return nil
}

func (r *skillEmbeddingRepo) UpdateOwnerBySkill(dbc dbctx.Context, skillID, ownerID uuid.UUID) error {
	if skillID == uuid.Nil || ownerID == uuid.Nil {
		return fmt.Errorf("missing skill_id or owner_id")
	}
	return dbc.DB(r.db).
		Model(&types.SkillEmbedding{}).
		Where("skill_id = ?", skillID).
		Updates(map[string]interface{}{
			"owner_id":   ownerID,
			"updated_at": time.Now().UTC(),
		}).Error
}

func (r *skillEmbeddingRepo) DeleteBySkill(dbc dbctx.Context, skillID uuid.UUID) ([]uuid.UUID, error) {
	if skillID == uuid.Nil {
		return nil, fmt.Errorf("missing skill_id")
	}
	db := dbc.DB(r.db)
	var ids []uuid.UUID
	if err := db.Model(&types.SkillEmbedding{}).
		Where("skill_id = ?", skillID).
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return ids, nil
	}
	if err := db.Where("skill_id = ?", skillID).Delete(&types.SkillEmbedding{}).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
