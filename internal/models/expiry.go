package models

import (
	"fmt"
	"time"

	"github.com/Dan9191/bankcards/internal/apperror"
)

// CardExpiryDate is a (year, month) pair. The day is fixed to the 1st; the card
// stays valid through the last day of that month.
type CardExpiryDate struct {
	date time.Time
}

// NewCardExpiryDate validates that year/month name a real calendar month.
func NewCardExpiryDate(year, month int) (CardExpiryDate, error) {
	if year < 1 || year > 9999 || month < 1 || month > 12 {
		return CardExpiryDate{}, apperror.Validation("invalid card expiry date: year=%d, month=%d", year, month)
	}
	return CardExpiryDate{date: time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)}, nil
}

// CardExpiryDateFromTime keeps only the year and month of t.
func CardExpiryDateFromTime(t time.Time) (CardExpiryDate, error) {
	return NewCardExpiryDate(t.Year(), int(t.Month()))
}

func (e CardExpiryDate) Year() int         { return e.date.Year() }
func (e CardExpiryDate) Month() time.Month { return e.date.Month() }
func (e CardExpiryDate) IsZero() bool      { return e.date.IsZero() }

// Time returns the first day of the expiry month at 00:00 UTC.
func (e CardExpiryDate) Time() time.Time {
	return e.date
}

// ExpiresAt is the first instant at which the card is no longer valid:
// the 1st of the following month, 00:00 UTC.
func (e CardExpiryDate) ExpiresAt() time.Time {
	return e.date.AddDate(0, 1, 0)
}

// IsExpiredAt reports whether the expiry month has ended at now.
func (e CardExpiryDate) IsExpiredAt(now time.Time) bool {
	return !now.UTC().Before(e.ExpiresAt())
}

func (e CardExpiryDate) Equal(other CardExpiryDate) bool {
	return e.date.Equal(other.date)
}

// String renders MM/YY.
func (e CardExpiryDate) String() string {
	return fmt.Sprintf("%02d/%02d", int(e.date.Month()), e.date.Year()%100)
}
