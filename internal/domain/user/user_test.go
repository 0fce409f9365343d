package user

import "testing"

func TestRoleAtLeast(t *testing.T) {
	if !RoleAdmin.AtLeast(RoleModerator) || !RoleModerator.AtLeast(RoleModerator) {
		t.Fatalf("admin and moderator should satisfy moderator")
	}
	if RoleUser.AtLeast(RoleModerator) || RoleModerator.AtLeast(RoleAdmin) {
		t.Fatalf("lower roles must not satisfy higher ones")
	}
	if Role("root").AtLeast(RoleUser) {
		t.Fatalf("unknown role must satisfy nothing")
	}
}

func TestEffectiveProviderDefaultsToGitHub(t *testing.T) {
	if got := (&User{}).EffectiveProvider(); got != ProviderGitHub {
		t.Fatalf("got %q", got)
	}
	if got := (&User{Provider: " GitLab "}).EffectiveProvider(); got != ProviderGitLab {
		t.Fatalf("got %q", got)
	}
}
