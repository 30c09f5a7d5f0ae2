package repository

import (
	"context"
	"fmt"

	"github.com/Dan9191/bankcards/internal/apperror"
	"github.com/Dan9191/bankcards/internal/models"
	"github.com/shopspring/decimal"
)

const transferColumns = `id, owner_id, from_card_id, to_card_id, amount, created_at`

var transferSortColumns = map[string]string{
	"id":         "id",
	"amount":     "amount",
	"created_at": "created_at",
}

func scanTransfer(row rowScanner) (*models.Transfer, error) {
	var (
		record                models.Record
		ownerID, fromID, toID int64
		amount                decimal.Decimal
	)
	if err := row.Scan(&record.ID, &ownerID, &fromID, &toID, &amount, &record.CreatedAt); err != nil {
		return nil, err
	}
	record.UpdatedAt = record.CreatedAt

	a, err := models.NewAmount(amount)
	if err != nil {
		return nil, err
	}
	return models.RestoreTransfer(record, ownerID, fromID, toID, a), nil
}

// CreateTransfer records a completed transfer.
func (q *Queries) CreateTransfer(ctx context.Context, transfer *models.Transfer) error {
	query := `
		INSERT INTO transfers (owner_id, from_card_id, to_card_id, amount, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`
	err := q.db.QueryRowContext(ctx, query,
		transfer.OwnerID(), transfer.FromCardID(), transfer.ToCardID(),
		transfer.Amount().Decimal(), transfer.CreatedAt,
	).Scan(&transfer.ID)
	if err != nil {
		return mapError(err, apperror.ErrCardNotFound, "create transfer")
	}
	return nil
}

// FindTransferByID retrieves a transfer by id
func (q *Queries) FindTransferByID(ctx context.Context, id int64) (*models.Transfer, error) {
	query := `SELECT ` + transferColumns + ` FROM transfers WHERE id = $1`
	transfer, err := scanTransfer(q.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapError(err, apperror.ErrTransferNotFound.WithMessage("transfer with id=%d not found", id), "find transfer")
	}
	return transfer, nil
}

// ListTransfers returns one page of transfers, optionally of one owner.
func (q *Queries) ListTransfers(ctx context.Context, filter models.TransferFilter, page models.Page) (models.PageResult[*models.Transfer], error) {
	result := models.PageResult[*models.Transfer]{Page: page}

	column, ok := transferSortColumns[page.SortBy]
	if !ok {
		return result, apperror.Validation("cannot sort transfers by %q", page.SortBy)
	}

	var (
		where string
		args  []any
	)
	if filter.OwnerID > 0 {
		where = ` WHERE owner_id = $1`
		args = append(args, filter.OwnerID)
	}

	if err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transfers`+where, args...).Scan(&result.Total); err != nil {
		return result, fmt.Errorf("failed to count transfers: %w", err)
	}

	query := `SELECT ` + transferColumns + ` FROM transfers` + where + pageClause(page, column, len(args)+1)
	rows, err := q.db.QueryContext(ctx, query, append(args, page.Size, page.Offset())...)
	if err != nil {
		return result, fmt.Errorf("failed to list transfers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		transfer, err := scanTransfer(rows)
		if err != nil {
			return result, fmt.Errorf("failed to scan transfer: %w", err)
		}
		result.Items = append(result.Items, transfer)
	}
	if err := rows.Err(); err != nil {
		return result, fmt.Errorf("failed to list transfers: %w", err)
	}
	return result, nil
}
