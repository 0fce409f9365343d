package skills

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/skillhub-backend/internal/domain"
	"github.com/yungbote/skillhub-backend/internal/platform/dbctx"
	"github.com/yungbote/skillhub-backend/internal/platform/logger"
)

type SkillVersionRepo interface {
	Create(dbc dbctx.Context, row *types.SkillVersion) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.SkillVersion, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.SkillVersion, error)
	GetBySkillAndVersion(dbc dbctx.Context, skillID uuid.UUID, version string) (*types.SkillVersion, error)
	ListBySkill(dbc dbctx.Context, skillID uuid.UUID, limit int) ([]*types.SkillVersion, error)
	DeleteBySkill(dbc dbctx.Context, skillID uuid.UUID) error
}

type skillVersionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSkillVersionRepo(db *gorm.DB, log *logger.Logger) SkillVersionRepo {
	return &skillVersionRepo{db: db, log: log.With("repo", "SkillVersionRepo")}
}

func (r *skillVersionRepo) Create(dbc dbctx.Context, row *types.SkillVersion) error {
	if row == nil {
		return fmt.Errorf("missing version")
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	return dbc.DB(r.db).Create(row).Error
}

// GetByID returns nil, nil when the version does not exist.
func (r *skillVersionRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.SkillVersion, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var out types.SkillVersion
	err := dbc.DB(r.db).Where("id = ?", id).Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *skillVersionRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.SkillVersion, error) {
	if len(ids) == 0 {
		return []*types.SkillVersion{}, nil
	}
	var out []*types.SkillVersion
	if err := dbc.DB(r.db).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// GetBySkillAndVersion returns nil, nil when the pair does not exist.
func (r *skillVersionRepo) GetBySkillAndVersion(dbc dbctx.Context, skillID uuid.UUID, version string) (*types.SkillVersion, error) {
	if skillID == uuid.Nil || version == "" {
		return nil, nil
	}
	var out types.SkillVersion
	err := dbc.DB(r.db).
		Where("skill_id = ? AND version = ?", skillID, version).
		Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *skillVersionRepo) ListBySkill(dbc dbctx.Context, skillID uuid.UUID, limit int) ([]*types.SkillVersion, error) {
	if skillID == uuid.Nil {
		return nil, fmt.Errorf("missing skill_id")
	}
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	var out []*types.SkillVersion
	if err := dbc.DB(r.db).
		Where("skill_id = ?", skillID).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *skillVersionRepo) DeleteBySkill(dbc dbctx.Context, skillID uuid.UUID) error {
	if skillID == uuid.Nil {
		return fmt.Errorf("missing skill_id")
	}
	return dbc.DB(r.db).Where("skill_id = ?", skillID).Delete(&types.SkillVersion{}).Error
}
