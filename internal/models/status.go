package models

import "github.com/Dan9191/bankcards/internal/apperror"

// CardStatus is the lifecycle state of a card.
type CardStatus string

const (
	CardStatusPendingActivation CardStatus = "PENDING_ACTIVATION"
	CardStatusActive            CardStatus = "ACTIVE"
	CardStatusBlocked           CardStatus = "BLOCKED"
	CardStatusExpired           CardStatus = "EXPIRED"
)

// ParseCardStatus validates a status name.
func ParseCardStatus(s string) (CardStatus, error) {
	status := CardStatus(s)
	if !status.Valid() {
		return "", apperror.Validation("invalid card status %q", s)
	}
	return status, nil
}

func (s CardStatus) Valid() bool {
	switch s {
	case CardStatusPendingActivation, CardStatusActive, CardStatusBlocked, CardStatusExpired:
		return true
	}
	return false
}

// CanTransitionTo reports whether an administrator or the expiry job may move
// a card from s to next. EXPIRED is terminal; ACTIVE and BLOCKED toggle.
func (s CardStatus) CanTransitionTo(next CardStatus) bool {
	if s == next || !next.Valid() {
		return false
	}
	switch s {
	case CardStatusPendingActivation:
		return next == CardStatusActive || next == CardStatusBlocked || next == CardStatusExpired
	case CardStatusActive:
		return next == CardStatusBlocked || next == CardStatusExpired
	case CardStatusBlocked:
		return next == CardStatusActive || next == CardStatusExpired
	}
	return false
}

func (s CardStatus) String() string {
	return string(s)
}
