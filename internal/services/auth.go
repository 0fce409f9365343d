package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	userrepo "github.com/yungbote/skillhub-backend/internal/data/repos/user"
	domainagg "github.com/yungbote/skillhub-backend/internal/domain/aggregates"
	"github.com/yungbote/skillhub-backend/internal/domain/user"
	"github.com/yungbote/skillhub-backend/internal/platform/ctxutil"
	"github.com/yungbote/skillhub-backend/internal/platform/dbctx"
	"github.com/yungbote/skillhub-backend/internal/platform/logger"
)

// AuthService verifies bearer tokens minted by the identity collaborator and
// resolves them to a registry user.
type AuthService interface {
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	IssueToken(userID uuid.UUID, ttl time.Duration) (string, error)
}

type authService struct {
	log          *logger.Logger
	userRepo     userrepo.UserRepo
	jwtSecretKey []byte
}

func NewAuthService(log *logger.Logger, userRepo userrepo.UserRepo, jwtSecretKey string) AuthService {
	return &authService{
		log:          log.With("service", "AuthService"),
		userRepo:     userRepo,
		jwtSecretKey: []byte(jwtSecretKey),
	}
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	const op = "services.auth.verify"
	unauthorized := func(cause error) error {
		return domainagg.NewError(domainagg.CodeUnauthorized, op, "unauthorized", cause)
	}

	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return ctx, unauthorized(nil)
	}
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return as.jwtSecretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return ctx, unauthorized(err)
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return ctx, unauthorized(err)
	}

	u, err := as.userRepo.GetByID(dbctx.Context{Ctx: ctx}, userID)
	if err != nil {
		as.log.Warn("Failed to load token user", "user_id", userID.String(), "error", err)
		return ctx, domainagg.NewError(domainagg.CodeInternal, op, "failed to load user", err)
	}
	if u == nil {
		return ctx, unauthorized(errors.New("user not found"))
	}
	role := u.Role
	if role == "" {
		role = user.RoleUser
	}
	return ctxutil.WithRequestData(ctx, &ctxutil.RequestData{
		UserID: u.ID,
		Handle: u.Handle,
		Role:   string(role),
	}), nil
}

func (as *authService) IssueToken(userID uuid.UUID, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(as.jwtSecretKey)
}

// ActorFromContext returns the authenticated caller set by the auth middleware.
func ActorFromContext(ctx context.Context) (domainagg.Actor, error) {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return domainagg.Actor{}, domainagg.NewError(domainagg.CodeUnauthorized, "services.actor", "unauthorized", nil)
	}
	return domainagg.Actor{UserID: rd.UserID, Role: user.Role(rd.Role)}, nil
}
