package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/Dan9191/bankcards/internal/models"
	"github.com/theplant/luhn"
)

// DefaultCardPrefix is the issuer prefix of generated card numbers.
const DefaultCardPrefix = "400000"

// CardValidityYears is how long a card issued without an explicit expiry is valid.
const CardValidityYears = 3

var ten = big.NewInt(10)

// GenerateCardNumber generates a random 16-digit card number with the given
// prefix and a Luhn check digit.
func GenerateCardNumber(prefix string) (models.CardNumber, error) {
	if len(prefix) >= models.CardNumberLength {
		return models.CardNumber{}, fmt.Errorf("invalid card number prefix length: %d", len(prefix))
	}

	var builder strings.Builder
	builder.WriteString(prefix)
	for builder.Len() < models.CardNumberLength-1 {
		d, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return models.CardNumber{}, fmt.Errorf("failed to generate random digits: %w", err)
		}
		builder.WriteByte(byte('0' + d.Int64()))
	}

	body := builder.String()
	payload, err := strconv.Atoi(body)
	if err != nil {
		return models.CardNumber{}, fmt.Errorf("invalid card number prefix: %w", err)
	}

	for check := 0; check <= 9; check++ {
		if luhn.Valid(payload*10 + check) {
			return models.NewCardNumber(body + strconv.Itoa(check))
		}
	}
	return models.CardNumber{}, fmt.Errorf("failed to compute check digit")
}

// DefaultExpiry returns the expiry month of a card issued at now.
func DefaultExpiry(now time.Time) (models.CardExpiryDate, error) {
	return models.CardExpiryDateFromTime(now.UTC().AddDate(CardValidityYears, 0, 0))
}
