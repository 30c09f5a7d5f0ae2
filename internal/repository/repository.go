package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Dan9191/bankcards/internal/models"
	"github.com/sirupsen/logrus"
)

// DBTX is the part of *sql.DB and *sql.Tx the queries need.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store is the set of persistence operations, available both on the pool and
// inside a transaction.
type Store interface {
	CreateUser(ctx context.Context, user *models.User) error
	FindUserByID(ctx context.Context, id int64) (*models.User, error)
	FindUserByEmail(ctx context.Context, email models.Email) (*models.User, error)
	ListUsers(ctx context.Context, page models.Page) (models.PageResult[*models.User], error)
	UpdateUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, id int64) error

	CreateCard(ctx context.Context, card *models.Card) error
	FindCardByID(ctx context.Context, id int64) (*models.Card, error)
	FindCardByIDForUpdate(ctx context.Context, id int64) (*models.Card, error)
	ListCards(ctx context.Context, filter models.CardFilter, page models.Page) (models.PageResult[*models.Card], error)
	UpdateCardStatus(ctx context.Context, card *models.Card) error
	UpdateCardBalance(ctx context.Context, card *models.Card) error
	DeleteCard(ctx context.Context, id int64) error
	CardHasTransfers(ctx context.Context, id int64) (bool, error)
	FindCardsExpiringBefore(ctx context.Context, cutoff time.Time) ([]*models.Card, error)

	CreateTransfer(ctx context.Context, transfer *models.Transfer) error
	FindTransferByID(ctx context.Context, id int64) (*models.Transfer, error)
	ListTransfers(ctx context.Context, filter models.TransferFilter, page models.Page) (models.PageResult[*models.Transfer], error)
}

// Queries implements Store on top of a DBTX.
type Queries struct {
	db DBTX
}

// Repository provides database operations
type Repository struct {
	*Queries
	db  *sql.DB
	log *logrus.Logger
}

// NewRepository initializes a new repository
func NewRepository(db *sql.DB, log *logrus.Logger) *Repository {
	return &Repository{Queries: &Queries{db: db}, db: db, log: log}
}

// RunInTx runs fn inside a database transaction. The transaction is committed
// when fn returns nil and rolled back otherwise, including on panic.
func (r *Repository) RunInTx(ctx context.Context, fn func(Store) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		r.log.WithError(err).Error("Failed to begin transaction")
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				r.log.WithError(rbErr).WithField("panic", p).Error("Failed to roll back transaction after panic")
			} else {
				r.log.WithField("panic", p).Error("Rolled back transaction after panic")
			}
			panic(p)
		}
	}()

	if err := fn(&Queries{db: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			r.log.WithError(rbErr).Error("Failed to roll back transaction")
			return fmt.Errorf("error rolling back transaction: %v (original error: %w)", rbErr, err)
		}
		r.log.WithError(err).Debug("Rolled back transaction")
		return err
	}

	if err := tx.Commit(); err != nil {
		r.log.WithError(err).Error("Failed to commit transaction")
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func pageClause(page models.Page, sortColumn string, argPos int) string {
	direction := "ASC"
	if page.Descending {
		direction = "DESC"
	}
	order := fmt.Sprintf("%s %s", sortColumn, direction)
	if sortColumn != "id" {
		order += ", id " + direction
	}
	return fmt.Sprintf(" ORDER BY %s LIMIT $%d OFFSET $%d", order, argPos, argPos+1)
}
