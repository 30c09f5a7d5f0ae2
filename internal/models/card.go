package models

import (
	"errors"
	"fmt"

	"github.com/Dan9191/bankcards/internal/apperror"
)

// CardEncrypter turns a validated card number into its stored ciphertext.
type CardEncrypter interface {
	Encrypt(number CardNumber) (string, error)
}

// Card is the card aggregate. The PAN is kept only as ciphertext; the last 4
// digits are stored in clear for list views, which is an accepted disclosure.
// Balance and status change only through the methods below.
type Card struct {
	Record
	encryptedNumber string
	last4           string
	ownerID         int64
	expiry          CardExpiryDate
	status          CardStatus
	balance         CardBalance
}

// NewCard encrypts number and derives the last 4 digits once.
func NewCard(number CardNumber, ownerID int64, expiry CardExpiryDate, status CardStatus, balance CardBalance, enc CardEncrypter) (*Card, error) {
	if number.IsZero() {
		return nil, apperror.Validation("card number is required")
	}
	if ownerID <= 0 {
		return nil, apperror.Validation("card owner is required")
	}
	if expiry.IsZero() {
		return nil, apperror.Validation("card expiry date is required")
	}
	if !status.Valid() {
		return nil, apperror.Validation("card status is required")
	}
	if enc == nil {
		return nil, apperror.Validation("card encryption is required")
	}

	encrypted, err := enc.Encrypt(number)
	if err != nil {
		return nil, err
	}

	return &Card{
		encryptedNumber: encrypted,
		last4:           number.LastDigits(),
		ownerID:         ownerID,
		expiry:          expiry,
		status:          status,
		balance:         balance,
	}, nil
}

// RestoreCard rebuilds a persisted card. The stored values are re-validated so a
// corrupted row never yields a card that breaks the aggregate's invariants.
func RestoreCard(record Record, encryptedNumber, last4 string, ownerID int64, expiry CardExpiryDate, status CardStatus, balance CardBalance) (*Card, error) {
	if encryptedNumber == "" || len(last4) != cardNumberVisible {
		return nil, apperror.Validation("stored card %d has no card number", record.ID)
	}
	if ownerID <= 0 || expiry.IsZero() || !status.Valid() {
		return nil, apperror.Validation("stored card %d is incomplete", record.ID)
	}
	return &Card{
		Record:          record,
		encryptedNumber: encryptedNumber,
		last4:           last4,
		ownerID:         ownerID,
		expiry:          expiry,
		status:          status,
		balance:         balance,
	}, nil
}

// ChangeStatus sets the status. Transition rules are enforced by the caller
// through CardStatus.CanTransitionTo.
func (c *Card) ChangeStatus(next CardStatus) error {
	if !next.Valid() {
		return apperror.Validation("new card status is required")
	}
	c.status = next
	return nil
}

// Credit adds amount to the balance.
func (c *Card) Credit(amount Amount) error {
	if amount.IsZero() {
		return apperror.Validation("amount to credit is required")
	}
	next, err := c.balance.Add(amount)
	if err != nil {
		return err
	}
	c.balance = next
	return nil
}

// Debit subtracts amount; the balance never goes below zero and is left
// untouched on failure.
func (c *Card) Debit(amount Amount) error {
	if amount.IsZero() {
		return apperror.Validation("amount to debit is required")
	}
	next, err := c.balance.Sub(amount)
	if errors.Is(err, apperror.ErrInsufficientFunds) {
		return apperror.ErrInsufficientFunds.WithMessage("insufficient funds on card %d", c.ID)
	}
	if err != nil {
		return err
	}
	c.balance = next
	return nil
}

func (c *Card) IsActive() bool  { return c.status == CardStatusActive }
func (c *Card) IsBlocked() bool { return c.status == CardStatusBlocked }
func (c *Card) IsExpired() bool { return c.status == CardStatusExpired }

func (c *Card) EncryptedNumber() string    { return c.encryptedNumber }
func (c *Card) Last4() string              { return c.last4 }
func (c *Card) MaskedNumber() string       { return MaskLast4(c.last4) }
func (c *Card) OwnerID() int64             { return c.ownerID }
func (c *Card) ExpiryDate() CardExpiryDate { return c.expiry }
func (c *Card) Status() CardStatus         { return c.status }
func (c *Card) Balance() CardBalance       { return c.balance }

func (c *Card) String() string {
	return fmt.Sprintf("Card{id=%d, number=%s, owner=%d, expiry=%s, status=%s, balance=%s}",
		c.ID, c.MaskedNumber(), c.ownerID, c.expiry, c.status, c.balance)
}
