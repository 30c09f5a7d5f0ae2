package models

import (
	"github.com/Dan9191/bankcards/internal/apperror"
	"github.com/shopspring/decimal"
)

// MoneyScale is the maximum number of fractional digits for balances and amounts.
const MoneyScale = 2

// scaleOf returns the number of fractional digits d carries, trailing zeros included.
func scaleOf(d decimal.Decimal) int32 {
	if exp := d.Exponent(); exp < 0 {
		return -exp
	}
	return 0
}

// CardBalance is a non-negative amount of money held on a card.
type CardBalance struct {
	value decimal.Decimal
}

// ZeroBalance is the balance of a newly issued card.
var ZeroBalance = CardBalance{value: decimal.New(0, -MoneyScale)}

// NewCardBalance validates scale and sign.
func NewCardBalance(value decimal.Decimal) (CardBalance, error) {
	if scaleOf(value) > MoneyScale {
		return CardBalance{}, apperror.Validation("card balance cannot have more than %d decimal places", MoneyScale)
	}
	if value.IsNegative() {
		return CardBalance{}, apperror.Validation("card balance cannot be < 0 (actual: %s)", value.String())
	}
	return CardBalance{value: value}, nil
}

// Decimal returns the balance value.
func (b CardBalance) Decimal() decimal.Decimal {
	return b.value
}

// Equal compares balances by numeric value.
func (b CardBalance) Equal(other CardBalance) bool {
	return b.value.Equal(other.value)
}

// Add returns a new balance increased by amount.
func (b CardBalance) Add(amount Amount) (CardBalance, error) {
	return NewCardBalance(b.value.Add(amount.value))
}

// Sub returns a new balance decreased by amount or ErrInsufficientFunds.
func (b CardBalance) Sub(amount Amount) (CardBalance, error) {
	next := b.value.Sub(amount.value)
	if next.IsNegative() {
		return CardBalance{}, apperror.ErrInsufficientFunds
	}
	return NewCardBalance(next)
}

func (b CardBalance) String() string {
	return b.value.StringFixed(MoneyScale)
}

// Amount limits
var (
	MinAmount = decimal.New(1, -MoneyScale)
	// amounts must stay below 10^10 (10 integer digits)
	amountUpperBound = decimal.New(1, 10)
)

// Amount is a transfer amount: at least 0.01, at most 2 fractional digits,
// at most 10 integer digits.
type Amount struct {
	value decimal.Decimal
}

// NewAmount validates a transfer amount.
func NewAmount(value decimal.Decimal) (Amount, error) {
	if scaleOf(value) > MoneyScale {
		return Amount{}, apperror.Validation("transfer amount cannot have more than %d decimal places", MoneyScale)
	}
	if value.LessThan(MinAmount) {
		return Amount{}, apperror.Validation("transfer amount cannot be < %s (actual: %s)", MinAmount.String(), value.String())
	}
	if !value.LessThan(amountUpperBound) {
		return Amount{}, apperror.Validation("transfer amount has too many integer digits (max 10)")
	}
	return Amount{value: value}, nil
}

// ParseAmount parses and validates a decimal string.
func ParseAmount(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, apperror.Validation("invalid transfer amount format")
	}
	return NewAmount(d)
}

// Decimal returns the amount value.
func (a Amount) Decimal() decimal.Decimal {
	return a.value
}

// IsZero reports whether a was never constructed.
func (a Amount) IsZero() bool {
	return a.value.IsZero()
}

// Equal compares amounts by numeric value.
func (a Amount) Equal(other Amount) bool {
	return a.value.Equal(other.value)
}

func (a Amount) String() string {
	return a.value.StringFixed(MoneyScale)
}
