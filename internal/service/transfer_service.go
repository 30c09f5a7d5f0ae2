package service

import (
	"context"
	"time"

	"github.com/Dan9191/bankcards/internal/apperror"
	"github.com/Dan9191/bankcards/internal/models"
	"github.com/Dan9191/bankcards/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// TransferService moves money between cards of one owner.
type TransferService struct {
	db       Database
	notifier TransferNotifier
	log      *logrus.Logger
	now      func() time.Time
}

// lockCards locks both card rows in ascending id order so two concurrent
// transfers over the same pair cannot deadlock, and returns them as (from, to).
func lockCards(ctx context.Context, tx repository.Store, fromID, toID int64) (*models.Card, *models.Card, error) {
	firstID, secondID := fromID, toID
	if secondID < firstID {
		firstID, secondID = secondID, firstID
	}

	first, err := tx.FindCardByIDForUpdate(ctx, firstID)
	if err != nil {
		return nil, nil, err
	}
	second, err := tx.FindCardByIDForUpdate(ctx, secondID)
	if err != nil {
		return nil, nil, err
	}

	if first.ID == fromID {
		return first, second, nil
	}
	return second, first, nil
}

// TransferBetweenOwnCards debits fromID and credits toID in one transaction.
// Either both balances change and a transfer is recorded, or nothing changes.
func (s *TransferService) TransferBetweenOwnCards(ctx context.Context, ownerID, fromID, toID int64, value decimal.Decimal) (*models.Transfer, error) {
	if err := validateID(ownerID, "owner id"); err != nil {
		return nil, err
	}
	if err := validateID(fromID, "source card id"); err != nil {
		return nil, err
	}
	if err := validateID(toID, "destination card id"); err != nil {
		return nil, err
	}
	if fromID == toID {
		return nil, apperror.ErrSameCard
	}

	var (
		transfer *models.Transfer
		from, to *models.Card
	)
	err := s.db.RunInTx(ctx, func(tx repository.Store) error {
		var err error
		if from, to, err = lockCards(ctx, tx, fromID, toID); err != nil {
			return err
		}

		if from.OwnerID() != ownerID || to.OwnerID() != ownerID {
			return apperror.AccessDenied("cards %d and %d must both belong to user %d", fromID, toID, ownerID)
		}
		if !from.IsActive() || !to.IsActive() {
			return apperror.ErrCardsNotActive
		}
		now := s.now().UTC()
		if from.ExpiryDate().IsExpiredAt(now) || to.ExpiryDate().IsExpiredAt(now) {
			return apperror.ErrCardExpired.WithMessage("cannot transfer using an expired card")
		}

		amount, err := models.NewAmount(value)
		if err != nil {
			return err
		}
		if err := from.Debit(amount); err != nil {
			return err
		}
		if err := to.Credit(amount); err != nil {
			return err
		}
		if transfer, err = models.NewTransfer(ownerID, from, to, amount, now); err != nil {
			return err
		}

		if err := tx.UpdateCardBalance(ctx, from); err != nil {
			return err
		}
		if err := tx.UpdateCardBalance(ctx, to); err != nil {
			return err
		}
		return tx.CreateTransfer(ctx, transfer)
	})
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"owner_id":     ownerID,
			"from_card_id": fromID,
			"to_card_id":   toID,
			"kind":         apperror.KindOf(err).String(),
		}).Info("Transfer rejected")
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"transfer_id":  transfer.ID,
		"owner_id":     ownerID,
		"from_card_id": fromID,
		"to_card_id":   toID,
		"amount":       transfer.Amount().String(),
	}).Info("Transfer completed")

	s.notify(ctx, transfer, from, to)
	return transfer, nil
}

// notify emails the owner. The transfer is already committed, so failures are
// only logged.
func (s *TransferService) notify(ctx context.Context, transfer *models.Transfer, from, to *models.Card) {
	if s.notifier == nil {
		return
	}
	owner, err := s.db.FindUserByID(ctx, transfer.OwnerID())
	if err != nil {
		s.log.WithError(err).WithField("transfer_id", transfer.ID).Warn("Failed to load transfer owner for notification")
		return
	}
	if err := s.notifier.SendTransferNotification(owner.Email.String(), transfer, from, to); err != nil {
		s.log.WithError(err).WithField("transfer_id", transfer.ID).Warn("Transfer notification not sent")
	}
}

// GetTransferForOwner returns a transfer only to its owner.
func (s *TransferService) GetTransferForOwner(ctx context.Context, ownerID, transferID int64) (*models.Transfer, error) {
	if err := validateID(ownerID, "owner id"); err != nil {
		return nil, err
	}
	if err := validateID(transferID, "transfer id"); err != nil {
		return nil, err
	}
	transfer, err := s.db.FindTransferByID(ctx, transferID)
	if err != nil {
		return nil, err
	}
	if transfer.OwnerID() != ownerID {
		return nil, apperror.AccessDenied("transfer %d does not belong to user %d", transferID, ownerID)
	}
	return transfer, nil
}

// ListTransfersForOwner lists the owner's transfers.
func (s *TransferService) ListTransfersForOwner(ctx context.Context, ownerID int64, page models.Page) (models.PageResult[*models.Transfer], error) {
	if err := validateID(ownerID, "owner id"); err != nil {
		return models.PageResult[*models.Transfer]{}, err
	}
	if err := page.ValidateTransferSort(); err != nil {
		return models.PageResult[*models.Transfer]{}, err
	}
	return s.db.ListTransfers(ctx, models.TransferFilter{OwnerID: ownerID}, page)
}

// GetTransferForAdmin returns any transfer.
func (s *TransferService) GetTransferForAdmin(ctx context.Context, adminID, transferID int64) (*models.Transfer, error) {
	if err := validateID(transferID, "transfer id"); err != nil {
		return nil, err
	}
	if err := requireAdmin(ctx, s.db, adminID, "get transfer"); err != nil {
		return nil, err
	}
	return s.db.FindTransferByID(ctx, transferID)
}

// ListTransfersForAdmin lists all transfers, optionally of one owner.
func (s *TransferService) ListTransfersForAdmin(ctx context.Context, adminID int64, filter models.TransferFilter, page models.Page) (models.PageResult[*models.Transfer], error) {
	if err := page.ValidateTransferSort(); err != nil {
		return models.PageResult[*models.Transfer]{}, err
	}
	if err := requireAdmin(ctx, s.db, adminID, "get all transfers"); err != nil {
		return models.PageResult[*models.Transfer]{}, err
	}
	return s.db.ListTransfers(ctx, filter, page)
}
