package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	userrepo "github.com/yungbote/skillhub-backend/internal/data/repos/user"
	domainagg "github.com/yungbote/skillhub-backend/internal/domain/aggregates"
	"github.com/yungbote/skillhub-backend/internal/domain/user"
	"github.com/yungbote/skillhub-backend/internal/observability"
	"github.com/yungbote/skillhub-backend/internal/platform/accountlookup"
	"github.com/yungbote/skillhub-backend/internal/platform/dbctx"
	"github.com/yungbote/skillhub-backend/internal/platform/logger"
)

const (
	DefaultAccountMinAge    = 7 * 24 * time.Hour
	DefaultAccountLookupTTL = 24 * time.Hour
	day                     = 24 * time.Hour
)

// AccountAgeService blocks privileged actions from provider accounts younger
// than MinAge. A fresh cached creation date costs no external call.
type AccountAgeService interface {
	RequireAccountAge(ctx context.Context, userID uuid.UUID) error
}

type AccountAgeDeps struct {
	Log     *logger.Logger
	Users   userrepo.UserRepo
	Lookup  accountlookup.Client
	Metrics *observability.Metrics
	MinAge  time.Duration
	TTL     time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
}

type accountAgeService struct {
	deps AccountAgeDeps
	log  *logger.Logger
}

func NewAccountAgeService(deps AccountAgeDeps) AccountAgeService {
	if deps.Log == nil {
		deps.Log = logger.NewNop()
	}
	if deps.MinAge <= 0 {
		deps.MinAge = DefaultAccountMinAge
	}
	if deps.TTL <= 0 {
		deps.TTL = DefaultAccountLookupTTL
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &accountAgeService{deps: deps, log: deps.Log.With("service", "AccountAgeService")}
}

func (s *accountAgeService) RequireAccountAge(ctx context.Context, userID uuid.UUID) error {
	const op = "services.account_age.require"
	dbc := dbctx.Context{Ctx: ctx}

	u, err := s.deps.Users.GetByID(dbc, userID)
	if err != nil {
		return domainagg.NewError(domainagg.CodeInternal, op, "failed to load user", err)
	}
	if u == nil {
		return domainagg.NewError(domainagg.CodeNotFound, op, "User not found", nil)
	}

	provider := u.EffectiveProvider()
	if provider != user.ProviderGitHub && provider != user.ProviderGitLab {
		s.deps.Metrics.IncAccountGate(provider, "exempt")
		return nil
	}
	label := providerLabel(provider)

	handle := strings.TrimSpace(u.Handle)
	if handle == "" {
		return domainagg.NewError(domainagg.CodeValidation, op, label+" handle required", nil)
	}

	now := s.deps.Now().UTC()
	createdAt := u.ProviderCreatedAt
	stale := createdAt == nil || u.ProviderFetchedAt == nil || now.Sub(*u.ProviderFetchedAt) > s.deps.TTL
	if stale {
		fetched, err := s.deps.Lookup.CreatedAt(ctx, provider, handle)
		if err != nil {
			s.log.Warn("Provider account lookup failed", "provider", provider, "user_id", userID.String(), "error", err)
			s.deps.Metrics.IncAccountGate(provider, "lookup_failed")
			return domainagg.NewError(domainagg.CodeDependency, op, label+" account lookup failed", err)
		}
		if err := s.deps.Users.UpdateProviderAccount(dbc, u.ID, fetched, now); err != nil {
			return domainagg.NewError(domainagg.CodeInternal, op, "failed to cache account age", err)
		}
		createdAt = &fetched
	}

	age := now.Sub(*createdAt)
	if age < s.deps.MinAge {
		remaining := int(math.Ceil(float64(s.deps.MinAge-age) / float64(day)))
		if remaining < 1 {
			remaining = 1
		}
		unit := "days"
		if remaining == 1 {
			unit = "day"
		}
		s.deps.Metrics.IncAccountGate(provider, "too_young")
		return domainagg.NewError(domainagg.CodeForbidden, op, fmt.Sprintf(
			"%s account must be at least %d days old to upload skills. Try again in %d %s.",
			label, int(s.deps.MinAge/day), remaining, unit,
		), nil)
	}
	s.deps.Metrics.IncAccountGate(provider, "ok")
	return nil
}

func providerLabel(provider string) string {
	switch provider {
	case user.ProviderGitLab:
		return "GitLab"
	case user.ProviderGitHub:
		return "GitHub"
	default:
		return provider
	}
}
