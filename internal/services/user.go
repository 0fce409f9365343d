package services

import (
	"context"

	userrepo "github.com/yungbote/skillhub-backend/internal/data/repos/user"
	domainagg "github.com/yungbote/skillhub-backend/internal/domain/aggregates"
	"github.com/yungbote/skillhub-backend/internal/domain/user"
	"github.com/yungbote/skillhub-backend/internal/platform/dbctx"
	"github.com/yungbote/skillhub-backend/internal/platform/logger"
)

type UserService interface {
	GetMe(ctx context.Context) (*user.User, error)
}

type userService struct {
	log      *logger.Logger
	userRepo userrepo.UserRepo
}

func NewUserService(log *logger.Logger, userRepo userrepo.UserRepo) UserService {
	if log == nil {
		log = logger.NewNop()
	}
	return &userService{log: log.With("service", "UserService"), userRepo: userRepo}
}

func (us *userService) GetMe(ctx context.Context) (*user.User, error) {
	const op = "services.user.me"
	actor, err := ActorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	u, err := us.userRepo.GetByID(dbctx.Context{Ctx: ctx}, actor.UserID)
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	if u == nil {
		return nil, domainagg.NewError(domainagg.CodeNotFound, op, "User not found", nil)
	}
	return u, nil
}
