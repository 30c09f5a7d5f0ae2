package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCardExpiryDate(t *testing.T) {
	e, err := NewCardExpiryDate(2030, 2)
	require.NoError(t, err)
	assert.Equal(t, 2030, e.Year())
	assert.Equal(t, time.February, e.Month())
	assert.Equal(t, 1, e.Time().Day())
	assert.Equal(t, "02/30", e.String())

	for _, tc := range [][2]int{{2030, 0}, {2030, 13}, {0, 5}, {10000, 1}, {2030, -1}} {
		_, err := NewCardExpiryDate(tc[0], tc[1])
		assert.Error(t, err, "year=%d month=%d", tc[0], tc[1])
	}
}

func TestCardExpiryDateValidThroughEndOfMonth(t *testing.T) {
	e, err := NewCardExpiryDate(2026, 10)
	require.NoError(t, err)

	assert.False(t, e.IsExpiredAt(time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)))
	assert.False(t, e.IsExpiredAt(time.Date(2026, 10, 31, 23, 59, 59, 0, time.UTC)))
	assert.True(t, e.IsExpiredAt(time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, e.IsExpiredAt(time.Date(2027, 1, 15, 0, 0, 0, 0, time.UTC)))
}

func TestCardExpiryDateDecemberRollsOver(t *testing.T) {
	e, err := NewCardExpiryDate(2026, 12)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC), e.ExpiresAt())
}
