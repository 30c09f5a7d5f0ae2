package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Dan9191/bankcards/internal/apperror"
	"github.com/Dan9191/bankcards/internal/models"
	"github.com/shopspring/decimal"
)

const cardColumns = `id, card_number_encrypted, card_number_last4, owner_id, expiry_date, status, balance, created_at, updated_at`

var cardSortColumns = map[string]string{
	"id":          "id",
	"balance":     "balance",
	"expiry_date": "expiry_date",
	"created_at":  "created_at",
}

func scanCard(row rowScanner) (*models.Card, error) {
	var (
		record           models.Record
		encrypted, last4 string
		ownerID          int64
		expiryDate       time.Time
		status           string
		balance          decimal.Decimal
	)
	err := row.Scan(&record.ID, &encrypted, &last4, &ownerID, &expiryDate, &status, &balance,
		&record.CreatedAt, &record.UpdatedAt)
	if err != nil {
		return nil, err
	}

	expiry, err := models.CardExpiryDateFromTime(expiryDate)
	if err != nil {
		return nil, err
	}
	cardBalance, err := models.NewCardBalance(balance)
	if err != nil {
		return nil, err
	}
	return models.RestoreCard(record, encrypted, last4, ownerID, expiry, models.CardStatus(status), cardBalance)
}

func notFoundCard(id int64) *apperror.Error {
	return apperror.ErrCardNotFound.WithMessage("card with id=%d not found", id)
}

// CreateCard creates a new card in the database
func (q *Queries) CreateCard(ctx context.Context, card *models.Card) error {
	query := `
		INSERT INTO cards (card_number_encrypted, card_number_last4, owner_id, expiry_date, status, balance, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING id, created_at, updated_at`
	err := q.db.QueryRowContext(ctx, query,
		card.EncryptedNumber(), card.Last4(), card.OwnerID(), card.ExpiryDate().Time(),
		string(card.Status()), card.Balance().Decimal(),
	).Scan(&card.ID, &card.CreatedAt, &card.UpdatedAt)
	if err != nil {
		return mapError(err, apperror.ErrCardNotFound, "create card")
	}
	return nil
}

// FindCardByID retrieves a card by id
func (q *Queries) FindCardByID(ctx context.Context, id int64) (*models.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards WHERE id = $1`
	card, err := scanCard(q.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapError(err, notFoundCard(id), "find card")
	}
	return card, nil
}

// FindCardByIDForUpdate retrieves a card and locks its row until the
// surrounding transaction ends.
func (q *Queries) FindCardByIDForUpdate(ctx context.Context, id int64) (*models.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards WHERE id = $1 FOR UPDATE`
	card, err := scanCard(q.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapError(err, notFoundCard(id), "lock card")
	}
	return card, nil
}

// cardWhere builds the WHERE clause of a filtered card listing.
func cardWhere(filter models.CardFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.OwnerID > 0 {
		add("owner_id = $%d", filter.OwnerID)
	}
	if filter.Status != "" {
		add("status = $%d", string(filter.Status))
	}
	if filter.MoreThan != nil {
		add("balance > $%d", *filter.MoreThan)
	}
	if filter.LessThan != nil {
		add("balance < $%d", *filter.LessThan)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// ListCards returns one page of cards matching filter.
func (q *Queries) ListCards(ctx context.Context, filter models.CardFilter, page models.Page) (models.PageResult[*models.Card], error) {
	result := models.PageResult[*models.Card]{Page: page}

	column, ok := cardSortColumns[page.SortBy]
	if !ok {
		return result, apperror.Validation("cannot sort cards by %q", page.SortBy)
	}

	where, args := cardWhere(filter)
	if err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cards`+where, args...).Scan(&result.Total); err != nil {
		return result, fmt.Errorf("failed to count cards: %w", err)
	}

	query := `SELECT ` + cardColumns + ` FROM cards` + where + pageClause(page, column, len(args)+1)
	rows, err := q.db.QueryContext(ctx, query, append(args, page.Size, page.Offset())...)
	if err != nil {
		return result, fmt.Errorf("failed to list cards: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return result, fmt.Errorf("failed to scan card: %w", err)
		}
		result.Items = append(result.Items, card)
	}
	if err := rows.Err(); err != nil {
		return result, fmt.Errorf("failed to list cards: %w", err)
	}
	return result, nil
}

// UpdateCardStatus stores the card's current status.
func (q *Queries) UpdateCardStatus(ctx context.Context, card *models.Card) error {
	query := `UPDATE cards SET status = $1, updated_at = NOW() WHERE id = $2 RETURNING updated_at`
	err := q.db.QueryRowContext(ctx, query, string(card.Status()), card.ID).Scan(&card.UpdatedAt)
	if err != nil {
		return mapError(err, notFoundCard(card.ID), "update card status")
	}
	return nil
}

// UpdateCardBalance stores the card's current balance.
func (q *Queries) UpdateCardBalance(ctx context.Context, card *models.Card) error {
	query := `UPDATE cards SET balance = $1, updated_at = NOW() WHERE id = $2 RETURNING updated_at`
	err := q.db.QueryRowContext(ctx, query, card.Balance().Decimal(), card.ID).Scan(&card.UpdatedAt)
	if err != nil {
		return mapError(err, notFoundCard(card.ID), "update card balance")
	}
	return nil
}

// DeleteCard removes a card. Cards referenced by transfers are protected by the
// foreign keys as well.
func (q *Queries) DeleteCard(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM cards WHERE id = $1`, id)
	if err != nil {
		return mapError(err, notFoundCard(id), "delete card")
	}
	return checkRowsAffected(res, notFoundCard(id))
}

// CardHasTransfers reports whether any transfer references the card.
func (q *Queries) CardHasTransfers(ctx context.Context, id int64) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM transfers WHERE from_card_id = $1 OR to_card_id = $1)`
	if err := q.db.QueryRowContext(ctx, query, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check card transfers: %w", err)
	}
	return exists, nil
}

// FindCardsExpiringBefore locks and returns every card that is not yet EXPIRED
// and whose expiry month starts before cutoff.
func (q *Queries) FindCardsExpiringBefore(ctx context.Context, cutoff time.Time) ([]*models.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards
		WHERE status <> $1 AND expiry_date < $2
		ORDER BY id
		FOR UPDATE`
	rows, err := q.db.QueryContext(ctx, query, string(models.CardStatusExpired), cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to find expiring cards: %w", err)
	}
	defer rows.Close()

	var cards []*models.Card
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan card: %w", err)
		}
		cards = append(cards, card)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to find expiring cards: %w", err)
	}
	return cards, nil
}
