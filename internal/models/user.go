package models

import "github.com/Dan9191/bankcards/internal/apperror"

// Role is a user's authorization role.
type Role string

const (
	RoleUser  Role = "ROLE_USER"
	RoleAdmin Role = "ROLE_ADMIN"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User represents a user in the system
type User struct {
	Record
	Email    Email
	Password Password
	Role     Role
}

// NewUser builds a user, requiring every field.
func NewUser(email Email, password Password, role Role) (*User, error) {
	if email.IsZero() {
		return nil, apperror.Validation("user email is required")
	}
	if password.Hash() == "" {
		return nil, apperror.Validation("user password is required")
	}
	if !role.Valid() {
		return nil, apperror.Validation("invalid user role %q", role)
	}
	return &User{Email: email, Password: password, Role: role}, nil
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
