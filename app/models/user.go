package models

import "strings"

// AdminUsername is the seed administrator that always exists
const AdminUsername = "admin"

// Permissions groups the per-user capability flags
type Permissions struct {
	CanEditProducts  bool `json:"canEditProducts"`
	CanEditInventory bool `json:"canEditInventory"`
	CanViewReports   bool `json:"canViewReports"`
	CanManageUsers   bool `json:"canManageUsers"`
}

// AllPermissions grants every capability (used for the admin)
func AllPermissions() Permissions {
	return Permissions{
		CanEditProducts:  true,
		CanEditInventory: true,
		CanViewReports:   true,
		CanManageUsers:   true,
	}
}

// User represents an operator of the system
type User struct {
	Username     string `json:"username"`
	PasswordHash string `json:"password"` // bcrypt hash, never plaintext
	Permissions
	IsAdmin bool `json:"isAdmin"`
}

// Matches reports whether name refers to this user (case-insensitive)
func (u User) Matches(name string) bool {
	return strings.EqualFold(u.Username, strings.TrimSpace(name))
}

// Session represents an authenticated user. It replaces ambient
// "current user" state and is passed to operations that need authorization.
type Session struct {
	User User
	// ActiveSector restricts inventory edits to one sector; empty means any
	ActiveSector string
}

// WithSector returns a copy of the session filtered to sector
func (s *Session) WithSector(sector string) *Session {
	cp := *s
	cp.ActiveSector = strings.TrimSpace(sector)
	return &cp
}
