package user

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/skillhub-backend/internal/domain"
	"github.com/yungbote/skillhub-backend/internal/platform/dbctx"
	"github.com/yungbote/skillhub-backend/internal/platform/logger"
)

type UserRepo interface {
	Create(dbc dbctx.Context, row *types.User) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.User, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.User, error)
	UpdateProviderAccount(dbc dbctx.Context, id uuid.UUID, createdAt, fetchedAt time.Time) error
}

type userRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	return &userRepo{db: db, log: baseLog.With("repo", "UserRepo")}
}

func (r *userRepo) Create(dbc dbctx.Context, row *types.User) error {
	if row == nil {
		return fmt.Errorf("missing user")
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	if row.Role == "" {
		row.Role = "user"
	}
	return dbc.DB(r.db).Create(row).Error
}

// GetByID returns nil, nil for unknown or soft-deleted users.
func (r *userRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.User, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var out types.User
	err := dbc.DB(r.db).Where("id = ?", id).Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *userRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.User, error) {
	if len(ids) == 0 {
		return []*types.User{}, nil
	}
	var out []*types.User
	if err := dbc.DB(r.db).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *userRepo) UpdateProviderAccount(dbc dbctx.Context, id uuid.UUID, createdAt, fetchedAt time.Time) error {
	if id == uuid.Nil {
		return fmt.Errorf("missing id")
	}
	return dbc.DB(r.db).
		Model(&types.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"provider_created_at": createdAt.UTC(),
			"provider_fetched_at": fetchedAt.UTC(),
			"updated_at":          time.Now().UTC(),
		}).Error
}
