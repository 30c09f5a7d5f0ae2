package service

import (
	"context"
	"time"

	"github.com/Dan9191/bankcards/internal/apperror"
	"github.com/Dan9191/bankcards/internal/models"
	"github.com/Dan9191/bankcards/internal/repository"
	"github.com/Dan9191/bankcards/internal/utils"
	"github.com/sirupsen/logrus"
)

// CreateCardInput describes a card to issue. Number is generated when empty;
// a zero expiry means the default validity period.
type CreateCardInput struct {
	OwnerID     int64
	Number      string
	ExpiryYear  int
	ExpiryMonth int
}

// CardService administers cards.
type CardService struct {
	db     Database
	cipher CardCipher
	log    *logrus.Logger
	now    func() time.Time
}

func (s *CardService) expiryFor(in CreateCardInput, now time.Time) (models.CardExpiryDate, error) {
	if in.ExpiryYear == 0 && in.ExpiryMonth == 0 {
		return utils.DefaultExpiry(now)
	}
	expiry, err := models.NewCardExpiryDate(in.ExpiryYear, in.ExpiryMonth)
	if err != nil {
		return models.CardExpiryDate{}, err
	}
	if expiry.IsExpiredAt(now) {
		return models.CardExpiryDate{}, apperror.ErrCardExpired.WithMessage("card expiry date %s is in the past", expiry)
	}
	return expiry, nil
}

// CreateCard issues a PENDING_ACTIVATION card with a zero balance.
func (s *CardService) CreateCard(ctx context.Context, adminID int64, in CreateCardInput) (*models.Card, error) {
	if err := validateID(in.OwnerID, "owner id"); err != nil {
		return nil, err
	}
	if err := requireAdmin(ctx, s.db, adminID, "create card"); err != nil {
		return nil, err
	}
	if _, err := s.db.FindUserByID(ctx, in.OwnerID); err != nil {
		return nil, err
	}

	var (
		number models.CardNumber
		err    error
	)
	if in.Number == "" {
		number, err = utils.GenerateCardNumber(utils.DefaultCardPrefix)
	} else {
		number, err = models.NewCardNumber(in.Number)
	}
	if err != nil {
		return nil, err
	}

	expiry, err := s.expiryFor(in, s.now())
	if err != nil {
		return nil, err
	}

	card, err := models.NewCard(number, in.OwnerID, expiry, models.CardStatusPendingActivation, models.ZeroBalance, s.cipher)
	if err != nil {
		return nil, err
	}
	if err := s.db.CreateCard(ctx, card); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"card_id": card.ID, "owner_id": card.OwnerID(), "admin_id": adminID}).Info("Card created")
	return card, nil
}

// ActivateCard moves a card to ACTIVE.
func (s *CardService) ActivateCard(ctx context.Context, adminID, cardID int64) (*models.Card, error) {
	return s.changeStatus(ctx, adminID, cardID, models.CardStatusActive, "activate card")
}

// BlockCard moves a card to BLOCKED.
func (s *CardService) BlockCard(ctx context.Context, adminID, cardID int64) (*models.Card, error) {
	return s.changeStatus(ctx, adminID, cardID, models.CardStatusBlocked, "block card")
}

func (s *CardService) changeStatus(ctx context.Context, adminID, cardID int64, next models.CardStatus, operation string) (*models.Card, error) {
	if err := validateID(cardID, "card id"); err != nil {
		return nil, err
	}
	if err := requireAdmin(ctx, s.db, adminID, operation); err != nil {
		return nil, err
	}

	var card *models.Card
	err := s.db.RunInTx(ctx, func(tx repository.Store) error {
		var err error
		if card, err = tx.FindCardByIDForUpdate(ctx, cardID); err != nil {
			return err
		}
		if card.IsExpired() {
			return apperror.ErrCardExpired.WithMessage("card %d is expired", cardID)
		}
		if card.Status() == next {
			return apperror.ErrStatusTransition.WithMessage("card %d is already %s", cardID, next)
		}
		if !card.Status().CanTransitionTo(next) {
			return apperror.ErrStatusTransition.WithMessage("card %d cannot change status from %s to %s", cardID, card.Status(), next)
		}
		if err := card.ChangeStatus(next); err != nil {
			return err
		}
		return tx.UpdateCardStatus(ctx, card)
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"card_id": cardID, "status": next, "admin_id": adminID}).Info("Card status changed")
	return card, nil
}

// DeleteCard removes a card that no transfer references.
func (s *CardService) DeleteCard(ctx context.Context, adminID, cardID int64) error {
	if err := validateID(cardID, "card id"); err != nil {
		return err
	}
	if err := requireAdmin(ctx, s.db, adminID, "delete card"); err != nil {
		return err
	}

	err := s.db.RunInTx(ctx, func(tx repository.Store) error {
		if _, err := tx.FindCardByIDForUpdate(ctx, cardID); err != nil {
			return err
		}
		used, err := tx.CardHasTransfers(ctx, cardID)
		if err != nil {
			return err
		}
		if used {
			return apperror.ErrCardInUse.WithMessage("card %d is referenced by transfers and cannot be deleted", cardID)
		}
		return tx.DeleteCard(ctx, cardID)
	})
	if err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{"card_id": cardID, "admin_id": adminID}).Info("Card deleted")
	return nil
}

// GetCardForAdmin returns any card.
func (s *CardService) GetCardForAdmin(ctx context.Context, adminID, cardID int64) (*models.Card, error) {
	if err := validateID(cardID, "card id"); err != nil {
		return nil, err
	}
	if err := requireAdmin(ctx, s.db, adminID, "get card"); err != nil {
		return nil, err
	}
	return s.db.FindCardByID(ctx, cardID)
}

// ListCardsForAdmin lists all cards matching filter.
func (s *CardService) ListCardsForAdmin(ctx context.Context, adminID int64, filter models.CardFilter, page models.Page) (models.PageResult[*models.Card], error) {
	if err := validateCardQuery(filter, page); err != nil {
		return models.PageResult[*models.Card]{}, err
	}
	if err := requireAdmin(ctx, s.db, adminID, "get all cards"); err != nil {
		return models.PageResult[*models.Card]{}, err
	}
	return s.db.ListCards(ctx, filter, page)
}

// GetCardForOwner returns a card only to its owner.
func (s *CardService) GetCardForOwner(ctx context.Context, ownerID, cardID int64) (*models.Card, error) {
	if err := validateID(ownerID, "owner id"); err != nil {
		return nil, err
	}
	if err := validateID(cardID, "card id"); err != nil {
		return nil, err
	}
	card, err := s.db.FindCardByID(ctx, cardID)
	if err != nil {
		return nil, err
	}
	if card.OwnerID() != ownerID {
		return nil, apperror.AccessDenied("card %d does not belong to user %d", cardID, ownerID)
	}
	return card, nil
}

// ListCardsForOwner lists the owner's cards; any owner in filter is replaced.
func (s *CardService) ListCardsForOwner(ctx context.Context, ownerID int64, filter models.CardFilter, page models.Page) (models.PageResult[*models.Card], error) {
	if err := validateID(ownerID, "owner id"); err != nil {
		return models.PageResult[*models.Card]{}, err
	}
	filter.OwnerID = ownerID
	if err := validateCardQuery(filter, page); err != nil {
		return models.PageResult[*models.Card]{}, err
	}
	return s.db.ListCards(ctx, filter, page)
}

func validateCardQuery(filter models.CardFilter, page models.Page) error {
	if filter.Status != "" && !filter.Status.Valid() {
		return apperror.Validation("invalid card status %q", filter.Status)
	}
	if filter.MoreThan != nil && filter.MoreThan.IsNegative() {
		return apperror.BusinessRule("balance filter cannot be negative")
	}
	if filter.LessThan != nil && filter.LessThan.IsNegative() {
		return apperror.BusinessRule("balance filter cannot be negative")
	}
	return page.ValidateCardSort()
}

// VerifyCardIntegrity decrypts the stored card number and checks it against
// the stored last 4 digits.
func (s *CardService) VerifyCardIntegrity(ctx context.Context, adminID, cardID int64) (*models.Card, error) {
	card, err := s.GetCardForAdmin(ctx, adminID, cardID)
	if err != nil {
		return nil, err
	}

	number, err := s.cipher.Decrypt(card.EncryptedNumber())
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"event":   "card_decryption_failed",
			"card_id": cardID,
			"code":    errorCode(err),
		}).Warn("Stored card number could not be decrypted")
		return nil, err
	}
	if number.LastDigits() != card.Last4() {
		s.log.WithFields(logrus.Fields{
			"event":   "card_integrity_mismatch",
			"card_id": cardID,
		}).Warn("Stored card number does not match its last digits")
		return nil, apperror.ErrIntegrity.WithMessage("stored data of card %d is inconsistent", cardID)
	}
	return card, nil
}

func errorCode(err error) string {
	if appErr, ok := apperror.As(err); ok {
		return appErr.Code
	}
	return apperror.ErrInternal.Code
}

// ExpireDueCards moves every card whose expiry month has ended at now to
// EXPIRED and returns how many changed.
func (s *CardService) ExpireDueCards(ctx context.Context, now time.Time) (int, error) {
	now = now.UTC()
	cutoff := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	var expired []int64
	err := s.db.RunInTx(ctx, func(tx repository.Store) error {
		expired = expired[:0]
		cards, err := tx.FindCardsExpiringBefore(ctx, cutoff)
		if err != nil {
			return err
		}
		for _, card := range cards {
			if !card.ExpiryDate().IsExpiredAt(now) || !card.Status().CanTransitionTo(models.CardStatusExpired) {
				continue
			}
			if err := card.ChangeStatus(models.CardStatusExpired); err != nil {
				return err
			}
			if err := tx.UpdateCardStatus(ctx, card); err != nil {
				return err
			}
			expired = append(expired, card.ID)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if len(expired) > 0 {
		s.log.WithFields(logrus.Fields{"count": len(expired), "card_ids": expired}).Info("Cards expired")
	}
	return len(expired), nil
}
