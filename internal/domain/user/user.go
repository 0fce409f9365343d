package user

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

var roleRank = map[Role]int{RoleUser: 1, RoleModerator: 2, RoleAdmin: 3}

// AtLeast orders roles user < moderator < admin. Unknown roles satisfy
// nothing.
func (r Role) AtLeast(min Role) bool {
	have, ok := roleRank[r]
	return ok && have >= roleRank[min]
}

// Elevated reports moderator-or-admin.
func (r Role) Elevated() bool { return r.AtLeast(RoleModerator) }

const (
	ProviderGitHub = "github"
	ProviderGitLab = "gitlab"
	ProviderOIDC   = "oidc"
)

type User struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Handle      string    `gorm:"column:handle;index" json:"handle"`
	DisplayName string    `gorm:"column:display_name" json:"displayName"`
	Image       string    `gorm:"column:image" json:"image"`
	Role        Role      `gorm:"column:role;not null" json:"role"`
	// Provider is the identity provider the user signed in with; empty means
	// a legacy GitHub account.
	Provider string `gorm:"column:provider" json:"provider"`

	// Cached provider account creation time and when it was last fetched.
	ProviderCreatedAt *time.Time `gorm:"column:provider_created_at" json:"-"`
	ProviderFetchedAt *time.Time `gorm:"column:provider_fetched_at" json:"-"`

	CreatedAt time.Time      `gorm:"column:created_at;not null" json:"createdAt"`
	UpdatedAt time.Time      `gorm:"column:updated_at;not null" json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deletedAt,omitempty"`
}

func (User) TableName() string { return "user" }

// EffectiveProvider normalizes Provider, defaulting to GitHub.
func (u *User) EffectiveProvider() string {
	p := strings.ToLower(strings.TrimSpace(u.Provider))
	if p == "" {
		return ProviderGitHub
	}
	return p
}
