package model

import "time"

type User struct {
	ID           string    `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	DisplayName  *string   `db:"display_name" json:"displayName,omitempty"`
	IsAdmin      bool      `db:"is_admin" json:"isAdmin"`
	IsActive     bool      `db:"is_active" json:"isActive"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"-"`
}

// Permissions is the per-feature capability set attached 1:1 to a user.
// A missing row reads as all false for non-admins.
type Permissions struct {
	Dashboard bool `json:"dashboard"`
	GA4       bool `json:"ga4"`
	GSC       bool `json:"gsc"`
	Articles  bool `json:"articles"`
}

type PermissionRow struct {
	UserID       string `db:"user_id"`
	CanDashboard bool   `db:"can_dashboard"`
	CanGA4       bool   `db:"can_ga4"`
	CanGSC       bool   `db:"can_gsc"`
	CanArticles  bool   `db:"can_articles"`
}

// ResolvedUser is a user with the admin override already applied to
// permissions and site membership.
type ResolvedUser struct {
	ID          string      `json:"id"`
	Email       string      `json:"email"`
	DisplayName *string     `json:"displayName"`
	IsAdmin     bool        `json:"isAdmin"`
	IsActive    bool        `json:"isActive"`
	Permissions Permissions `json:"permissions"`
	Sites       []Site      `json:"sites"`
	CreatedAt   time.Time   `json:"createdAt"`
}

func (u *ResolvedUser) HasSite(site Site) bool {
	for _, s := range u.Sites {
		if s == site {
			return true
		}
	}
	return false
}

type CreateUserParams struct {
	Email        string
	PasswordHash string
	DisplayName  *string
	IsAdmin      bool
}

type UpdateUserParams struct {
	DisplayName *string
	IsAdmin     *bool
	IsActive    *bool
}
