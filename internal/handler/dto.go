package handler

import (
	"time"

	"github.com/Dan9191/bankcards/internal/models"
	"github.com/shopspring/decimal"
)

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type tokenResponse struct {
	Token     string `json:"token"`
	TokenType string `json:"token_type"`
}

type createUserRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type updateEmailRequest struct {
	Email string `json:"email" validate:"required,email,max=255"`
}

type updatePasswordRequest struct {
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type createCardRequest struct {
	OwnerID     int64  `json:"owner_id" validate:"required,gt=0"`
	CardNumber  string `json:"card_number" validate:"omitempty,len=16,numeric"`
	ExpiryYear  int    `json:"expiry_year" validate:"required_with=ExpiryMonth"`
	ExpiryMonth int    `json:"expiry_month" validate:"required_with=ExpiryYear"`
}

type transferRequest struct {
	FromCardID int64            `json:"from_card_id" validate:"required,gt=0"`
	ToCardID   int64            `json:"to_card_id" validate:"required,gt=0"`
	Amount     *decimal.Decimal `json:"amount" validate:"required"`
}

type userResponse struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toUserResponse(u *models.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Email:     u.Email.String(),
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// cardResponse never carries the full number.
type cardResponse struct {
	ID         int64     `json:"id"`
	CardNumber string    `json:"card_number"`
	OwnerID    int64     `json:"owner_id"`
	ExpiryDate string    `json:"expiry_date"`
	Status     string    `json:"status"`
	Balance    string    `json:"balance"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func toCardResponse(c *models.Card) cardResponse {
	return cardResponse{
		ID:         c.ID,
		CardNumber: c.MaskedNumber(),
		OwnerID:    c.OwnerID(),
		ExpiryDate: c.ExpiryDate().String(),
		Status:     c.Status().String(),
		Balance:    c.Balance().Decimal().StringFixed(models.MoneyScale),
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
}

type transferResponse struct {
	ID         int64     `json:"id"`
	OwnerID    int64     `json:"owner_id"`
	FromCardID int64     `json:"from_card_id"`
	ToCardID   int64     `json:"to_card_id"`
	Amount     string    `json:"amount"`
	CreatedAt  time.Time `json:"created_at"`
}

func toTransferResponse(t *models.Transfer) transferResponse {
	return transferResponse{
		ID:         t.ID,
		OwnerID:    t.OwnerID(),
		FromCardID: t.FromCardID(),
		ToCardID:   t.ToCardID(),
		Amount:     t.Amount().Decimal().StringFixed(models.MoneyScale),
		CreatedAt:  t.CreatedAt,
	}
}

type integrityResponse struct {
	CardID int64  `json:"card_id"`
	Status string `json:"status"`
}
