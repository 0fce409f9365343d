package skills

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/skillhub-backend/internal/domain"
	"github.com/yungbote/skillhub-backend/internal/platform/dbctx"
	"github.com/yungbote/skillhub-backend/internal/platform/logger"
)

type ListFilter struct {
	Batch       string
	OwnerUserID uuid.UUID
	Limit       int
	// IncludeHidden also returns soft-deleted skills.
	IncludeHidden bool
}

type SkillRepo interface {
	Create(dbc dbctx.Context, row *types.Skill) error
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Skill, error)
	GetBySlug(dbc dbctx.Context, slug string) (*types.Skill, error)
	LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Skill, error)
	LockBySlug(dbc dbctx.Context, slug string) (*types.Skill, error)
	List(dbc dbctx.Context, f ListFilter) ([]*types.Skill, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	IncrementDownloads(dbc dbctx.Context, id uuid.UUID) error
	Delete(dbc dbctx.Context, id uuid.UUID) error
}

type skillRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSkillRepo(db *gorm.DB, log *logger.Logger) SkillRepo {
	return &skillRepo{db: db, log: log.With("repo", "SkillRepo")}
}

func (r *skillRepo) Create(dbc dbctx.Context, row *types.Skill) error {
	if row == nil {
		return fmt.Errorf("missing skill")
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	return dbc.DB(r.db).Create(row).Error
}

func (r *skillRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Skill, error) {
	if len(ids) == 0 {
		return []*types.Skill{}, nil
	}
	var out []*types.Skill
	if err := dbc.DB(r.db).
		Where("id IN ?", ids).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// GetBySlug returns nil, nil when no skill has the slug.
func (r *skillRepo) GetBySlug(dbc dbctx.Context, slug string) (*types.Skill, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, nil
	}
	var out types.Skill
	err := dbc.DB(r.db).Where("slug = ?", slug).Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *skillRepo) LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Skill, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("missing id")
	}
	if dbc.Tx == nil {
		return nil, fmt.Errorf("LockByID requires dbc.Tx")
	}
	var out types.Skill
	if err := dbc.Tx.WithContext(dbc.Ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		Take(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

// LockBySlug returns nil, nil when the slug is free.
func (r *skillRepo) LockBySlug(dbc dbctx.Context, slug string) (*types.Skill, error) {
	if dbc.Tx == nil {
		return nil, fmt.Errorf("LockBySlug requires dbc.Tx")
	}
	var rows []*types.Skill
	if err := dbc.Tx.WithContext(dbc.Ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("slug = ?", slug).
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *skillRepo) List(dbc dbctx.Context, f ListFilter) ([]*types.Skill, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 24
	}
	if limit > 100 {
		limit = 100
	}
	q := dbc.DB(r.db).Model(&types.Skill{})
	if b := strings.TrimSpace(f.Batch); b != "" {
		q = q.Where("batch = ?", b)
	} else if f.OwnerUserID != uuid.Nil {
		q = q.Where("owner_user_id = ?", f.OwnerUserID)
	}
	if !f.IncludeHidden {
		q = q.Where("soft_deleted_at IS NULL")
	}
	var out []*types.Skill
	if err := q.Order("updated_at DESC").Limit(limit).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *skillRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if id == uuid.Nil {
		return fmt.Errorf("missing id")
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	return dbc.DB(r.db).
		Model(&types.Skill{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *skillRepo) IncrementDownloads(dbc dbctx.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return fmt.Errorf("missing id")
	}
	return dbc.DB(r.db).
		Model(&types.Skill{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"stats_downloads": gorm.Expr("stats_downloads + ?", 1),
			"updated_at":      time.Now().UTC(),
		}).Error
}

func (r *skillRepo) Delete(dbc dbctx.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return fmt.Errorf("missing id")
	}
	return dbc.DB(r.db).Where("id = ?", id).Delete(&types.Skill{}).Error
}
