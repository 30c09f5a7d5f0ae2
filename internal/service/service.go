// Package service holds the business operations behind the HTTP API: user
// administration and authentication, card administration and transfers between
// an owner's cards.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/Dan9191/bankcards/internal/apperror"
	"github.com/Dan9191/bankcards/internal/config"
	"github.com/Dan9191/bankcards/internal/models"
	"github.com/Dan9191/bankcards/internal/repository"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// Database is the persistence the services run against.
type Database interface {
	repository.Store
	RunInTx(ctx context.Context, fn func(repository.Store) error) error
}

// CardCipher encrypts and decrypts stored card numbers.
type CardCipher interface {
	models.CardEncrypter
	Decrypt(encrypted string) (models.CardNumber, error)
}

// TransferNotifier tells an owner about a completed transfer.
type TransferNotifier interface {
	SendTransferNotification(to string, transfer *models.Transfer, from, dest *models.Card) error
}

// Service handles business logic
type Service struct {
	Users     *UserService
	Cards     *CardService
	Transfers *TransferService
}

// NewService initializes the services. notifier may be nil.
func NewService(db Database, cipher CardCipher, notifier TransferNotifier, log *logrus.Logger, cfg *config.Config) *Service {
	return &Service{
		Users: &UserService{
			db:         db,
			log:        log,
			jwtSecret:  []byte(cfg.JWTSecret),
			jwtTTL:     cfg.JWTTTL,
			bcryptCost: bcrypt.DefaultCost,
			now:        time.Now,
		},
		Cards: &CardService{
			db:     db,
			cipher: cipher,
			log:    log,
			now:    time.Now,
		},
		Transfers: &TransferService{
			db:       db,
			notifier: notifier,
			log:      log,
			now:      time.Now,
		},
	}
}

func validateID(id int64, name string) error {
	if id <= 0 {
		return apperror.BusinessRule("%s must be positive (actual: %d)", name, id)
	}
	return nil
}

// requireAdmin checks that adminID belongs to an existing administrator.
func requireAdmin(ctx context.Context, store repository.Store, adminID int64, operation string) error {
	if err := validateID(adminID, "admin id"); err != nil {
		return err
	}
	user, err := store.FindUserByID(ctx, adminID)
	if errors.Is(err, apperror.ErrUserNotFound) || (err == nil && !user.IsAdmin()) {
		return apperror.AccessDenied("permission to %s denied for id=%d", operation, adminID)
	}
	return err
}
