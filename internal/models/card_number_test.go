package models

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/Dan9191/bankcards/internal/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCardNumber(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid visa", "4532015112830366", false},
		{"valid test card", "4242424242424242", false},
		{"luhn failure", "4532015112830367", true},
		{"blank", "   ", true},
		{"empty", "", true},
		{"too short", "453201511283036", true},
		{"too long", "45320151128303660", true},
		{"letters", "4532O15112830366", true},
		{"spaces inside", "4532 01511283036", true},
		{"non ascii digit", "453201511283036٦", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := NewCardNumber(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
				assert.True(t, n.IsZero())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.input, n.Value())
		})
	}
}

func TestCardNumberNeverRendersPAN(t *testing.T) {
	n, err := NewCardNumber("4532015112830366")
	require.NoError(t, err)

	assert.Equal(t, "0366", n.LastDigits())
	assert.Equal(t, "**** **** **** 0366", n.String())

	for _, rendered := range []string{
		fmt.Sprintf("%v", n),
		fmt.Sprintf("%+v", n),
		fmt.Sprintf("%#v", n),
		fmt.Sprintf("%s", n),
	} {
		assert.NotContains(t, rendered, "4532015112830366")
	}

	data, err := json.Marshal(struct {
		Number CardNumber `json:"number"`
	}{n})
	require.NoError(t, err)
	assert.JSONEq(t, `{"number":"**** **** **** 0366"}`, string(data))
}

func TestCardNumberEquality(t *testing.T) {
	a, _ := NewCardNumber("4242424242424242")
	b, _ := NewCardNumber("4242424242424242")
	c, _ := NewCardNumber("5555555555554444")

	assert.True(t, a == b)
	assert.False(t, a == c)

	set := map[CardNumber]bool{a: true}
	assert.True(t, set[b])
}

func TestPassesLuhnAllSingleDigitChanges(t *testing.T) {
	valid := "4532015112830366"
	require.True(t, PassesLuhn(valid))

	// changing the check digit to anything else must fail
	for d := byte('0'); d <= '9'; d++ {
		candidate := valid[:15] + string(d)
		assert.Equal(t, d == '6', PassesLuhn(candidate), candidate)
	}
}
