package models

import (
	"fmt"
	"time"

	"github.com/Dan9191/bankcards/internal/apperror"
)

// Transfer is the immutable record of one successful move of money between
// two cards of the same owner.
type Transfer struct {
	Record
	ownerID    int64
	fromCardID int64
	toCardID   int64
	amount     Amount
}

// NewTransfer re-checks that owner owns both cards, independent of how the
// cards were loaded.
func NewTransfer(ownerID int64, from, to *Card, amount Amount, createdAt time.Time) (*Transfer, error) {
	if ownerID <= 0 {
		return nil, apperror.Validation("transfer owner is required")
	}
	if from == nil || to == nil {
		return nil, apperror.Validation("transfer cards are required")
	}
	if amount.IsZero() {
		return nil, apperror.Validation("transfer amount is required")
	}
	if from.OwnerID() != ownerID || to.OwnerID() != ownerID {
		return nil, apperror.ErrForeignOwner
	}
	return &Transfer{
		Record:     Record{CreatedAt: createdAt, UpdatedAt: createdAt},
		ownerID:    ownerID,
		fromCardID: from.ID,
		toCardID:   to.ID,
		amount:     amount,
	}, nil
}

// RestoreTransfer rebuilds a persisted transfer.
func RestoreTransfer(record Record, ownerID, fromCardID, toCardID int64, amount Amount) *Transfer {
	return &Transfer{
		Record:     record,
		ownerID:    ownerID,
		fromCardID: fromCardID,
		toCardID:   toCardID,
		amount:     amount,
	}
}

func (t *Transfer) OwnerID() int64    { return t.ownerID }
func (t *Transfer) FromCardID() int64 { return t.fromCardID }
func (t *Transfer) ToCardID() int64   { return t.toCardID }
func (t *Transfer) Amount() Amount    { return t.amount }

func (t *Transfer) String() string {
	return fmt.Sprintf("Transfer{id=%d, owner=%d, from=%d, to=%d, amount=%s}",
		t.ID, t.ownerID, t.fromCardID, t.toCardID, t.amount)
}
