package services_test

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	types "github.com/yungbote/skillhub-backend/internal/domain"
	domainagg "github.com/yungbote/skillhub-backend/internal/domain/aggregates"
	"github.com/yungbote/skillhub-backend/internal/domain/user"
	"github.com/yungbote/skillhub-backend/internal/platform/dbctx"
	"github.com/yungbote/skillhub-backend/internal/services"
)

var gateNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func newGate(f *fixture, lookup *fakeLookup) services.AccountAgeService {
	return services.NewAccountAgeService(services.AccountAgeDeps{
		Users:  f.users,
		Lookup: lookup,
		Now:    func() time.Time { return gateNow },
	})
}

func ptrTime(t time.Time) *time.Time { return &t }

func TestAccountAgeFreshCacheSkipsLookup(t *testing.T) {
	f := newFixture(t)
	lookup := &fakeLookup{err: errors.New("must not be called")}
	actor := f.createUser(t, &types.User{
		Handle:            "fresh",
		Provider:          user.ProviderGitLab,
		ProviderCreatedAt: ptrTime(gateNow.Add(-10 * 24 * time.Hour)),
		ProviderFetchedAt: ptrTime(gateNow.Add(-24*time.Hour + time.Second)),
	})

	require.NoError(t, newGate(f, lookup).RequireAccountAge(f.ctx, actor.UserID))
	require.Equal(t, 0, lookup.Calls())
}

func TestAccountAgeTooYoungReportsRemainingDays(t *testing.T) {
	f := newFixture(t)
	lookup := &fakeLookup{createdAt: gateNow.Add(-2 * 24 * time.Hour)}
	actor := f.createUser(t, &types.User{Handle: "young", Provider: user.ProviderGitLab})

	err := newGate(f, lookup).RequireAccountAge(f.ctx, actor.UserID)
	require.True(t, domainagg.IsCode(err, domainagg.CodeForbidden), "err=%v", err)
	require.Equal(t, "GitLab account must be at least 7 days old to upload skills. Try again in 5 days.", domainagg.MessageOf(err))
}

func TestAccountAgeSingularDay(t *testing.T) {
	f := newFixture(t)
	lookup := &fakeLookup{createdAt: gateNow.Add(-6*24*time.Hour - time.Hour)}
	actor := f.createUser(t, &types.User{Handle: "almost", Provider: user.ProviderGitHub})

	err := newGate(f, lookup).RequireAccountAge(f.ctx, actor.UserID)
	require.Equal(t, "GitHub account must be at least 7 days old to upload skills. Try again in 1 day.", domainagg.MessageOf(err))
}

func TestAccountAgeStaleCacheRefreshesAndPersists(t *testing.T) {
	f := newFixture(t)
	created := gateNow.Add(-30 * 24 * time.Hour)
	lookup := &fakeLookup{createdAt: created}
	actor := f.createUser(t, &types.User{
		Handle:            "stale",
		ProviderCreatedAt: ptrTime(gateNow.Add(-30 * 24 * time.Hour)),
		ProviderFetchedAt: ptrTime(gateNow.Add(-48 * time.Hour)),
	})

	require.NoError(t, newGate(f, lookup).RequireAccountAge(f.ctx, actor.UserID))
	require.Equal(t, 1, lookup.Calls())

	row, err := f.users.GetByID(dbctx.Context{Ctx: f.ctx}, actor.UserID)
	require.NoError(t, err)
	require.NotNil(t, row.ProviderFetchedAt)
	require.True(t, row.ProviderFetchedAt.Equal(gateNow), "fetchedAt=%v", row.ProviderFetchedAt)
	require.True(t, row.ProviderCreatedAt.Equal(created))
}

func TestAccountAgeLookupFailureDenies(t *testing.T) {
	f := newFixture(t)
	lookup := &fakeLookup{err: errors.New("status 502")}
	actor := f.createUser(t, &types.User{Handle: "nolookup", Provider: user.ProviderGitLab})

	err := newGate(f, lookup).RequireAccountAge(f.ctx, actor.UserID)
	require.True(t, domainagg.IsCode(err, domainagg.CodeDependency), "err=%v", err)
	require.Equal(t, "GitLab account lookup failed", domainagg.MessageOf(err))
}

func TestAccountAgeExemptProvider(t *testing.T) {
	f := newFixture(t)
	lookup := &fakeLookup{err: errors.New("must not be called")}
	actor := f.createUser(t, &types.User{Handle: "corp", Provider: user.ProviderOIDC})

	require.NoError(t, newGate(f, lookup).RequireAccountAge(f.ctx, actor.UserID))
	require.Equal(t, 0, lookup.Calls())
}

func TestAccountAgeUserNotFound(t *testing.T) {
	f := newFixture(t)
	err := newGate(f, &fakeLookup{}).RequireAccountAge(f.ctx, uuid.New())
	require.True(t, domainagg.IsCode(err, domainagg.CodeNotFound))
	require.Equal(t, "User not found", domainagg.MessageOf(err))
}

func TestAccountAgeSoftDeletedUserNotFound(t *testing.T) {
	f := newFixture(t)
	lookup := &fakeLookup{createdAt: gateNow.Add(-30 * 24 * time.Hour)}
	actor := f.createUser(t, &types.User{Handle: "gone", Provider: user.ProviderGitLab})
	require.NoError(t, f.db.Delete(&types.User{}, "id = ?", actor.UserID).Error)

	err := newGate(f, lookup).RequireAccountAge(f.ctx, actor.UserID)
	require.True(t, domainagg.IsCode(err, domainagg.CodeNotFound), "err=%v", err)
	require.Equal(t, "User not found", domainagg.MessageOf(err))
	require.Equal(t, 0, lookup.Calls())
}

func TestAccountAgeHandleRequired(t *testing.T) {
	f := newFixture(t)
	actor := f.createUser(t, &types.User{Handle: "  ", Provider: user.ProviderGitLab})
	err := newGate(f, &fakeLookup{}).RequireAccountAge(f.ctx, actor.UserID)
	require.True(t, domainagg.IsCode(err, domainagg.CodeValidation))
	require.Equal(t, "GitLab handle required", domainagg.MessageOf(err))
}
