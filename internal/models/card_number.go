package models

import (
	"encoding/json"
	"strings"

	"github.com/Dan9191/bankcards/internal/apperror"
)

const (
	CardNumberLength   = 16
	cardNumberVisible  = 4
	maskedNumberPrefix = "**** **** **** "
)

// CardNumber is a validated 16-digit primary account number.
// The raw value is available only through Value, which exists for the
// encryption engine; every rendering path shows the masked form.
type CardNumber struct {
	value string
}

// NewCardNumber validates a raw card number: non-blank, 16 ASCII digits, Luhn.
func NewCardNumber(value string) (CardNumber, error) {
	if strings.TrimSpace(value) == "" {
		return CardNumber{}, apperror.Validation("card number is blank")
	}
	if len(value) != CardNumberLength {
		return CardNumber{}, apperror.Validation("invalid card number length: %d (should be %d)", len(value), CardNumberLength)
	}
	for i := 0; i < len(value); i++ {
		if value[i] < '0' || value[i] > '9' {
			return CardNumber{}, apperror.Validation("card number must contain only digits")
		}
	}
	if !PassesLuhn(value) {
		return CardNumber{}, apperror.Validation("card number failed Luhn checksum validation")
	}
	return CardNumber{value: value}, nil
}

// PassesLuhn runs the Luhn checksum over a string of ASCII digits.
// Digits at odd positions counted from the right (0-indexed) are doubled.
func PassesLuhn(digits string) bool {
	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		d := int(digits[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

// Value returns the full PAN. Only the encryption engine should call it.
func (n CardNumber) Value() string {
	return n.value
}

// IsZero reports whether n was never constructed.
func (n CardNumber) IsZero() bool {
	return n.value == ""
}

// LastDigits returns the last 4 digits.
func (n CardNumber) LastDigits() string {
	if len(n.value) < cardNumberVisible {
		return ""
	}
	return n.value[len(n.value)-cardNumberVisible:]
}

// Masked returns the display form "**** **** **** dddd".
func (n CardNumber) Masked() string {
	return MaskLast4(n.LastDigits())
}

func (n CardNumber) String() string {
	return n.Masked()
}

func (n CardNumber) GoString() string {
	return "CardNumber{" + n.Masked() + "}"
}

// MarshalJSON emits the masked form only.
func (n CardNumber) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.Masked())
}

// MaskLast4 builds the masked display form from stored last-4 digits.
func MaskLast4(last4 string) string {
	return maskedNumberPrefix + last4
}
