package services

import (
	"fmt"
	"strings"

	"EstoqueApp/app/models"
	"EstoqueApp/app/security"
)

// Permission names one capability flag
type Permission int

const (
	PermEditProducts Permission = iota
	PermEditInventory
	PermViewReports
	PermManageUsers
)

func (p Permission) String() string {
	switch p {
	case PermEditProducts:
		return "edit products"
	case PermEditInventory:
		return "edit inventory"
	case PermViewReports:
		return "view reports"
	case PermManageUsers:
		return "manage users"
	default:
		return fmt.Sprintf("permission(%d)", int(p))
	}
}

func (p Permission) allowedBy(perms models.Permissions) bool {
	switch p {
	case PermEditProducts:
		return perms.CanEditProducts
	case PermEditInventory:
		return perms.CanEditInventory
	case PermViewReports:
		return perms.CanViewReports
	case PermManageUsers:
		return perms.CanManageUsers
	}
	return false
}

// Authenticate checks credentials and returns a new session.
// Usernames are case-insensitive.
func (s *InventoryService) Authenticate(username, password string) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexUser(username)
	if i < 0 || !security.CheckPassword(s.users[i].PasswordHash, password) {
		s.logger.LogWarning("Authentication failed", strings.TrimSpace(username))
		return nil, ErrInvalidCredentials
	}

	s.logger.LogInfo("User authenticated", s.users[i].Username)
	return &models.Session{User: s.users[i]}, nil
}

// Authorize checks perm against the current permissions of the session's
// user, so changes made after login apply immediately
func (s *InventoryService) Authorize(sess *models.Session, perm Permission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authorizeLocked(sess, perm)
}

func (s *InventoryService) authorizeLocked(sess *models.Session, perm Permission) error {
	if sess == nil {
		return fmt.Errorf("%w: not authenticated", ErrPermissionDenied)
	}
	i := s.indexUser(sess.User.Username)
	if i < 0 {
		return fmt.Errorf("%w: user %s no longer exists", ErrPermissionDenied, sess.User.Username)
	}
	if !perm.allowedBy(s.users[i].Permissions) {
		return fmt.Errorf("%w: %s cannot %s", ErrPermissionDenied, s.users[i].Username, perm)
	}
	return nil
}

// Users returns all users in order
func (s *InventoryService) Users() []models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.User(nil), s.users...)
}

// AddUser creates a non-admin user
func (s *InventoryService) AddUser(sess *models.Session, username, password string, perms models.Permissions) error {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return ErrBlankField
	}

	// Hash outside the lock; bcrypt is slow
	hashed, err := security.HashPassword(password, s.opts.BcryptCost)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.authorizeLocked(sess, PermManageUsers); err != nil {
		return err
	}
	if s.indexUser(username) >= 0 {
		return fmt.Errorf("user %q %w", username, ErrDuplicate)
	}

	s.users = append(s.users, models.User{
		Username:     username,
		PasswordHash: hashed,
		Permissions:  perms,
	})
	s.logger.LogInfo("User added", username)
	return s.persistLocked()
}

// UpdateUserPermissions replaces the permission flags of a user.
// The admin keeps all permissions.
func (s *InventoryService) UpdateUserPermissions(sess *models.Session, username string, perms models.Permissions) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.authorizeLocked(sess, PermManageUsers); err != nil {
		return err
	}
	i := s.indexUser(username)
	if i < 0 {
		return fmt.Errorf("user %q %w", username, ErrNotFound)
	}
	if s.users[i].IsAdmin {
		return ErrAdminProtected
	}

	s.users[i].Permissions = perms
	s.logger.LogInfo("User permissions updated", s.users[i].Username)
	return s.persistLocked()
}

// DeleteUser removes a user. The admin cannot be deleted.
func (s *InventoryService) DeleteUser(sess *models.Session, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.authorizeLocked(sess, PermManageUsers); err != nil {
		return err
	}
	i := s.indexUser(username)
	if i < 0 {
		return fmt.Errorf("user %q %w", username, ErrNotFound)
	}
	if s.users[i].IsAdmin {
		return ErrAdminProtected
	}

	name := s.users[i].Username
	s.users = append(s.users[:i], s.users[i+1:]...)
	s.logger.LogInfo("User deleted", name)
	return s.persistLocked()
}

// ChangePassword sets a new password. Users may change their own;
// changing another user's requires manage-users permission.
func (s *InventoryService) ChangePassword(sess *models.Session, username, newPassword string) error {
	if newPassword == "" {
		return ErrBlankField
	}
	if len(newPassword) < 4 {
		return fmt.Errorf("%w: password must be at least 4 characters", ErrInvalidCredentials)
	}

	hashed, err := security.HashPassword(newPassword, s.opts.BcryptCost)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if sess == nil {
		return fmt.Errorf("%w: not authenticated", ErrPermissionDenied)
	}
	if !sess.User.Matches(username) {
		if err := s.authorizeLocked(sess, PermManageUsers); err != nil {
			return err
		}
	}
	i := s.indexUser(username)
	if i < 0 {
		return fmt.Errorf("user %q %w", username, ErrNotFound)
	}

	s.users[i].PasswordHash = hashed
	s.logger.LogInfo("Password changed", s.users[i].Username)
	return s.persistLocked()
}

func (s *InventoryService) indexUser(username string) int {
	for i := range s.users {
		if s.users[i].Matches(username) {
			return i
		}
	}
	return -1
}
