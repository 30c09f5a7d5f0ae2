package models

import (
	"regexp"
	"strings"

	"github.com/Dan9191/bankcards/internal/apperror"
)

const EmailMaxLength = 255

var emailRegex = regexp.MustCompile("^[a-zA-Z0-9!#$%&'*+/=?^_`{|}~-]+(?:\\.[a-zA-Z0-9!#$%&'*+/=?^_`{|}~-]+)*" +
	"@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$")

// Email is a validated email address.
type Email struct {
	value string
}

func NewEmail(value string) (Email, error) {
	if strings.TrimSpace(value) == "" {
		return Email{}, apperror.Validation("email is blank")
	}
	if len(value) > EmailMaxLength {
		return Email{}, apperror.Validation("invalid email length: %d (max allowed: %d)", len(value), EmailMaxLength)
	}
	if !emailRegex.MatchString(value) {
		return Email{}, apperror.Validation("invalid email format")
	}
	return Email{value: value}, nil
}

func (e Email) String() string { return e.value }
func (e Email) IsZero() bool   { return e.value == "" }
