package service

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"github.com/Dan9191/bankcards/internal/apperror"
	"github.com/Dan9191/bankcards/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateCard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.addUser(t, "owner@bank.example", "owner-password", models.RoleUser)

	card, err := f.svc.Cards.CreateCard(ctx, f.admin.ID, CreateCardInput{
		OwnerID: owner.ID, Number: panA, ExpiryYear: 2028, ExpiryMonth: 3,
	})
	require.NoError(t, err)
	assert.Equal(t, models.CardStatusPendingActivation, card.Status())
	assert.Equal(t, "0.00", card.Balance().String())
	assert.Equal(t, "0366", card.Last4())
	assert.Equal(t, "03/28", card.ExpiryDate().String())
	assert.NotContains(t, card.EncryptedNumber(), panA)

	number, err := f.cipher.Decrypt(card.EncryptedNumber())
	require.NoError(t, err)
	assert.Equal(t, panA, number.Value())

	f.assertNoSecretsLogged(t, panA, card.EncryptedNumber())
}

func TestCreateCardGeneratesNumberAndExpiry(t *testing.T) {
	f := newFixture(t)
	owner := f.addUser(t, "owner@bank.example", "owner-password", models.RoleUser)

	card, err := f.svc.Cards.CreateCard(context.Background(), f.admin.ID, CreateCardInput{OwnerID: owner.ID})
	require.NoError(t, err)

	number, err := f.cipher.Decrypt(card.EncryptedNumber())
	require.NoError(t, err)
	assert.True(t, models.PassesLuhn(number.Value()))
	assert.Equal(t, 2029, card.ExpiryDate().Year())
	assert.Equal(t, time.October, card.ExpiryDate().Month())
}

func TestCreateCardRejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.addUser(t, "owner@bank.example", "owner-password", models.RoleUser)

	tests := []struct {
		name    string
		adminID int64
		in      CreateCardInput
		kind    apperror.Kind
	}{
		{"not admin", owner.ID, CreateCardInput{OwnerID: owner.ID}, apperror.KindAccessDenied},
		{"unknown owner", f.admin.ID, CreateCardInput{OwnerID: 9999}, apperror.KindNotFound},
		{"bad luhn", f.admin.ID, CreateCardInput{OwnerID: owner.ID, Number: "4532015112830367"}, apperror.KindValidation},
		{"past expiry", f.admin.ID, CreateCardInput{OwnerID: owner.ID, ExpiryYear: 2026, ExpiryMonth: 9}, apperror.KindBusinessRule},
		{"bad month", f.admin.ID, CreateCardInput{OwnerID: owner.ID, ExpiryYear: 2028, ExpiryMonth: 13}, apperror.KindValidation},
		{"no owner", f.admin.ID, CreateCardInput{}, apperror.KindBusinessRule},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Cards.CreateCard(ctx, tt.adminID, tt.in)
			assert.Equal(t, tt.kind, apperror.KindOf(err), "got %v", err)
		})
	}

	// the current month is still valid
	_, err := f.svc.Cards.CreateCard(ctx, f.admin.ID, CreateCardInput{OwnerID: owner.ID, ExpiryYear: 2026, ExpiryMonth: 10})
	assert.NoError(t, err)
}

func TestCardStatusChanges(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.addUser(t, "owner@bank.example", "owner-password", models.RoleUser)
	card := f.addCard(t, owner.ID, panA, models.CardStatusPendingActivation, "0")

	activated, err := f.svc.Cards.ActivateCard(ctx, f.admin.ID, card.ID)
	require.NoError(t, err)
	assert.True(t, activated.IsActive())

	_, err = f.svc.Cards.ActivateCard(ctx, f.admin.ID, card.ID)
	assert.True(t, errors.Is(err, apperror.ErrStatusTransition))

	blocked, err := f.svc.Cards.BlockCard(ctx, f.admin.ID, card.ID)
	require.NoError(t, err)
	assert.True(t, blocked.IsBlocked())

	_, err = f.svc.Cards.ActivateCard(ctx, f.admin.ID, card.ID)
	require.NoError(t, err)

	_, err = f.svc.Cards.BlockCard(ctx, owner.ID, card.ID)
	assert.Equal(t, apperror.KindAccessDenied, apperror.KindOf(err))

	expired := f.addCard(t, owner.ID, panB, models.CardStatusExpired, "0")
	_, err = f.svc.Cards.ActivateCard(ctx, f.admin.ID, expired.ID)
	assert.True(t, errors.Is(err, apperror.ErrCardExpired))

	_, err = f.svc.Cards.BlockCard(ctx, f.admin.ID, 9999)
	assert.True(t, errors.Is(err, apperror.ErrCardNotFound))
}

func TestDeleteCard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.addUser(t, "owner@bank.example", "owner-password", models.RoleUser)
	x := f.addCard(t, owner.ID, panA, models.CardStatusActive, "10")
	y := f.addCard(t, owner.ID, panB, models.CardStatusActive, "0")
	unused := f.addCard(t, owner.ID, panC, models.CardStatusActive, "0")

	f.svc.Transfers.notifier = nil
	_, err := f.svc.Transfers.TransferBetweenOwnCards(ctx, owner.ID, x.ID, y.ID, dec("1"))
	require.NoError(t, err)

	err = f.svc.Cards.DeleteCard(ctx, f.admin.ID, x.ID)
	assert.True(t, errors.Is(err, apperror.ErrCardInUse))

	require.NoError(t, f.svc.Cards.DeleteCard(ctx, f.admin.ID, unused.ID))
	_, err = f.svc.Cards.GetCardForAdmin(ctx, f.admin.ID, unused.ID)
	assert.True(t, errors.Is(err, apperror.ErrCardNotFound))
}

func TestOwnerCardAccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.addUser(t, "owner@bank.example", "owner-password", models.RoleUser)
	other := f.addUser(t, "other@bank.example", "other-password", models.RoleUser)
	mine := f.addCard(t, owner.ID, panA, models.CardStatusActive, "10")
	f.addCard(t, owner.ID, panB, models.CardStatusBlocked, "200")
	f.addCard(t, other.ID, panC, models.CardStatusActive, "300")

	_, err := f.svc.Cards.GetCardForOwner(ctx, owner.ID, mine.ID)
	require.NoError(t, err)

	_, err = f.svc.Cards.GetCardForOwner(ctx, other.ID, mine.ID)
	assert.Equal(t, apperror.KindAccessDenied, apperror.KindOf(err))

	page, _ := models.NewPage(0, 10, "balance", "asc")

	// an owner filter supplied by the caller is ignored
	list, err := f.svc.Cards.ListCardsForOwner(ctx, owner.ID, models.CardFilter{OwnerID: other.ID}, page)
	require.NoError(t, err)
	assert.EqualValues(t, 2, list.Total)

	more := dec("50")
	list, err = f.svc.Cards.ListCardsForOwner(ctx, owner.ID, models.CardFilter{MoreThan: &more}, page)
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, models.CardStatusBlocked, list.Items[0].Status())

	list, err = f.svc.Cards.ListCardsForAdmin(ctx, f.admin.ID, models.CardFilter{Status: models.CardStatusActive}, page)
	require.NoError(t, err)
	assert.EqualValues(t, 2, list.Total)

	negative := dec("-1")
	_, err = f.svc.Cards.ListCardsForOwner(ctx, owner.ID, models.CardFilter{LessThan: &negative}, page)
	assert.Equal(t, apperror.KindBusinessRule, apperror.KindOf(err))

	transferPage, _ := models.NewPage(0, 10, "amount", "asc")
	_, err = f.svc.Cards.ListCardsForAdmin(ctx, f.admin.ID, models.CardFilter{}, transferPage)
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
}

func TestVerifyCardIntegrity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.addUser(t, "owner@bank.example", "owner-password", models.RoleUser)
	card := f.addCard(t, owner.ID, panA, models.CardStatusActive, "10")

	_, err := f.svc.Cards.VerifyCardIntegrity(ctx, f.admin.ID, card.ID)
	require.NoError(t, err)

	// tamper with the stored ciphertext
	stored := f.store.card(card.ID)
	raw, err := base64.StdEncoding.DecodeString(stored.EncryptedNumber())
	require.NoError(t, err)
	raw[len(raw)-1] ^= 0x01
	tamperedText := base64.StdEncoding.EncodeToString(raw)
	tampered, err := models.RestoreCard(stored.Record, tamperedText, stored.Last4(), stored.OwnerID(), stored.ExpiryDate(), stored.Status(), stored.Balance())
	require.NoError(t, err)
	require.NoError(t, f.store.UpdateCardStatus(ctx, tampered))

	_, err = f.svc.Cards.VerifyCardIntegrity(ctx, f.admin.ID, card.ID)
	assert.True(t, errors.Is(err, apperror.ErrDecryptionFailed))
	assert.Equal(t, apperror.KindEncryption, apperror.KindOf(err))

	entry := f.hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, "card_decryption_failed", entry.Data["event"])
	assert.Equal(t, card.ID, entry.Data["card_id"])
	f.assertNoSecretsLogged(t, panA, tamperedText, stored.EncryptedNumber())

	// ciphertext of a different card under the right key
	otherCipher, err := f.cipher.Encrypt(mustNumber(t, panB))
	require.NoError(t, err)
	swapped, err := models.RestoreCard(stored.Record, otherCipher, stored.Last4(), stored.OwnerID(), stored.ExpiryDate(), stored.Status(), stored.Balance())
	require.NoError(t, err)
	require.NoError(t, f.store.UpdateCardStatus(ctx, swapped))

	_, err = f.svc.Cards.VerifyCardIntegrity(ctx, f.admin.ID, card.ID)
	assert.True(t, errors.Is(err, apperror.ErrIntegrity))
}

func TestExpireDueCards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.addUser(t, "owner@bank.example", "owner-password", models.RoleUser)
	live := f.addCard(t, owner.ID, panA, models.CardStatusActive, "10")

	withExpiry := func(card *models.Card, year, month int, status models.CardStatus) {
		expiry, err := models.NewCardExpiryDate(year, month)
		require.NoError(t, err)
		restored, err := models.RestoreCard(card.Record, card.EncryptedNumber(), card.Last4(), card.OwnerID(), expiry, status, card.Balance())
		require.NoError(t, err)
		require.NoError(t, f.store.UpdateCardStatus(ctx, restored))
	}

	lastMonth := f.addCard(t, owner.ID, panB, models.CardStatusActive, "10")
	withExpiry(lastMonth, 2026, 9, models.CardStatusActive)
	thisMonth := f.addCard(t, owner.ID, panC, models.CardStatusBlocked, "10")
	withExpiry(thisMonth, 2026, 10, models.CardStatusBlocked)

	n, err := f.svc.Cards.ExpireDueCards(ctx, testNow)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	lm, tm, lv := f.store.card(lastMonth.ID), f.store.card(thisMonth.ID), f.store.card(live.ID)
	assert.True(t, lm.IsExpired())
	assert.True(t, tm.IsBlocked())
	assert.True(t, lv.IsActive())

	// on the 1st of the next month the October card expires too
	n, err = f.svc.Cards.ExpireDueCards(ctx, time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	tm = f.store.card(thisMonth.ID)
	assert.True(t, tm.IsExpired())
}

func mustNumber(t *testing.T, s string) models.CardNumber {
	t.Helper()
	n, err := models.NewCardNumber(s)
	require.NoError(t, err)
	return n
}
