package models

import (
	"github.com/Dan9191/bankcards/internal/apperror"
	"github.com/shopspring/decimal"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

var cardSortColumns = map[string]bool{
	"id":          true,
	"balance":     true,
	"expiry_date": true,
	"created_at":  true,
}

var userSortColumns = map[string]bool{
	"id":         true,
	"email":      true,
	"created_at": true,
}

var transferSortColumns = map[string]bool{
	"id":         true,
	"amount":     true,
	"created_at": true,
}

// Page is a validated pagination request.
type Page struct {
	Number     int
	Size       int
	SortBy     string
	Descending bool
}

// NewPage validates page/size and the sort direction.
func NewPage(number, size int, sortBy, direction string) (Page, error) {
	if number < 0 {
		return Page{}, apperror.BusinessRule("pagination page must be positive or zero (actual: %d)", number)
	}
	if size <= 0 || size > MaxPageSize {
		return Page{}, apperror.BusinessRule("pagination size must be between 1 and %d (actual: %d)", MaxPageSize, size)
	}
	if sortBy == "" {
		sortBy = "id"
	}
	var desc bool
	switch direction {
	case "", "asc", "ASC":
	case "desc", "DESC":
		desc = true
	default:
		return Page{}, apperror.Validation("invalid sort direction %q", direction)
	}
	return Page{Number: number, Size: size, SortBy: sortBy, Descending: desc}, nil
}

func (p Page) Offset() int {
	return p.Number * p.Size
}

// validateSort checks SortBy against the columns allowed for a listing.
func (p Page) validateSort(allowed map[string]bool) error {
	if !allowed[p.SortBy] {
		return apperror.Validation("cannot sort by %q", p.SortBy)
	}
	return nil
}

func (p Page) ValidateCardSort() error     { return p.validateSort(cardSortColumns) }
func (p Page) ValidateTransferSort() error { return p.validateSort(transferSortColumns) }
func (p Page) ValidateUserSort() error     { return p.validateSort(userSortColumns) }

// CardFilter narrows card listings. Zero values mean "no filter".
type CardFilter struct {
	OwnerID  int64
	Status   CardStatus
	MoreThan *decimal.Decimal
	LessThan *decimal.Decimal
}

// TransferFilter narrows transfer listings.
type TransferFilter struct {
	OwnerID int64
}

// PageResult is one page of a listing.
type PageResult[T any] struct {
	Items []T
	Total int64
	Page  Page
}
