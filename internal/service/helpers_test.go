package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"testing"
	"time"

	"github.com/Dan9191/bankcards/internal/config"
	"github.com/Dan9191/bankcards/internal/models"
	"github.com/Dan9191/bankcards/internal/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var testNow = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) SendTransferNotification(to string, transfer *models.Transfer, from, dest *models.Card) error {
	args := m.Called(to, transfer, from, dest)
	return args.Error(0)
}

type fixture struct {
	svc      *Service
	store    *memStore
	cipher   *utils.CardEncryption
	notifier *mockNotifier
	hook     *test.Hook
	admin    *models.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)
	cipher, err := utils.NewCardEncryption(base64.StdEncoding.EncodeToString(key))
	require.NoError(t, err)

	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	store := newMemStore()
	notifier := &mockNotifier{}
	cfg := &config.Config{JWTSecret: "test-secret", JWTTTL: time.Hour}

	svc := NewService(store, cipher, notifier, logger, cfg)
	svc.Users.bcryptCost = bcrypt.MinCost
	clock := func() time.Time { return testNow }
	svc.Users.now = clock
	svc.Cards.now = clock
	svc.Transfers.now = clock

	f := &fixture{svc: svc, store: store, cipher: cipher, notifier: notifier, hook: hook}
	f.admin = f.addUser(t, "admin@bank.example", "admin-password", models.RoleAdmin)
	return f
}

func (f *fixture) addUser(t *testing.T, email, password string, role models.Role) *models.User {
	t.Helper()
	addr, err := models.NewEmail(email)
	require.NoError(t, err)
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	pw, err := models.NewPassword(string(hash))
	require.NoError(t, err)
	user, err := models.NewUser(addr, pw, role)
	require.NoError(t, err)
	require.NoError(t, f.store.CreateUser(context.Background(), user))
	return user
}

func (f *fixture) addCard(t *testing.T, ownerID int64, number string, status models.CardStatus, balance string) *models.Card {
	t.Helper()
	n, err := models.NewCardNumber(number)
	require.NoError(t, err)
	expiry, err := models.NewCardExpiryDate(2030, 12)
	require.NoError(t, err)
	b, err := models.NewCardBalance(decimal.RequireFromString(balance))
	require.NoError(t, err)
	card, err := models.NewCard(n, ownerID, expiry, status, b, f.cipher)
	require.NoError(t, err)
	require.NoError(t, f.store.CreateCard(context.Background(), card))
	return card
}

func (f *fixture) balance(id int64) string {
	return f.store.card(id).Balance().String()
}

// assertNoSecretsLogged fails if any log entry mentions one of the secrets.
func (f *fixture) assertNoSecretsLogged(t *testing.T, secrets ...string) {
	t.Helper()
	for _, entry := range f.hook.AllEntries() {
		line, err := entry.String()
		require.NoError(t, err)
		for _, s := range secrets {
			if s == "" {
				continue
			}
			require.NotContains(t, line, s, fmt.Sprintf("log entry %q leaks a secret", entry.Message))
		}
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
