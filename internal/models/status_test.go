package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCardStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to CardStatus
		allowed  bool
	}{
		{CardStatusPendingActivation, CardStatusActive, true},
		{CardStatusPendingActivation, CardStatusBlocked, true},
		{CardStatusActive, CardStatusBlocked, true},
		{CardStatusBlocked, CardStatusActive, true},
		{CardStatusActive, CardStatusExpired, true},
		{CardStatusActive, CardStatusActive, false},
		{CardStatusActive, CardStatusPendingActivation, false},
		{CardStatusBlocked, CardStatusPendingActivation, false},
		{CardStatusExpired, CardStatusActive, false},
		{CardStatusExpired, CardStatusBlocked, false},
		{CardStatusActive, CardStatus("FROZEN"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestParseCardStatus(t *testing.T) {
	s, err := ParseCardStatus("BLOCKED")
	assert.NoError(t, err)
	assert.Equal(t, CardStatusBlocked, s)

	_, err = ParseCardStatus("blocked")
	assert.Error(t, err)
}
