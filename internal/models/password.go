package models

import (
	"strings"

	"github.com/Dan9191/bankcards/internal/apperror"
)

const (
	bcryptHashLength = 60
	// PasswordMinLength applies to raw passwords before hashing.
	PasswordMinLength = 8
	// PasswordMaxLength is the bcrypt input limit in bytes.
	PasswordMaxLength = 72
)

var bcryptPrefixes = []string{"$2a$", "$2b$", "$2y$"}

// Password holds a bcrypt hash, never a raw password.
type Password struct {
	hash string
}

// NewPassword validates the shape of a bcrypt hash.
func NewPassword(hash string) (Password, error) {
	if strings.TrimSpace(hash) == "" {
		return Password{}, apperror.Validation("password hash is blank")
	}
	if len(hash) != bcryptHashLength {
		return Password{}, apperror.Validation("invalid password hash length: %d (must be: %d)", len(hash), bcryptHashLength)
	}
	for _, prefix := range bcryptPrefixes {
		if strings.HasPrefix(hash, prefix) {
			return Password{hash: hash}, nil
		}
	}
	return Password{}, apperror.Validation("invalid password hash format")
}

// Hash returns the stored bcrypt hash for persistence and comparison.
func (p Password) Hash() string {
	return p.hash
}

func (p Password) String() string {
	return "Password{***}"
}

func (p Password) GoString() string {
	return p.String()
}
