package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Dan9191/bankcards/internal/apperror"
	"github.com/Dan9191/bankcards/internal/models"
	"github.com/Dan9191/bankcards/internal/repository"
)

// memStore is an in-memory Database. RunInTx serializes transactions and
// restores the previous state when fn fails.
type memStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	nextID    int64
	users     map[int64]models.User
	cards     map[int64]models.Card
	transfers map[int64]models.Transfer

	// failures injects errors by operation name
	failures map[string]error
}

var _ Database = (*memStore)(nil)

func newMemStore() *memStore {
	return &memStore{
		users:     make(map[int64]models.User),
		cards:     make(map[int64]models.Card),
		transfers: make(map[int64]models.Transfer),
		failures:  make(map[string]error),
	}
}

func (m *memStore) fail(op string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.failures[op]
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memStore) RunInTx(ctx context.Context, fn func(repository.Store) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.Lock()
	users := cloneMap(m.users)
	cards := cloneMap(m.cards)
	transfers := cloneMap(m.transfers)
	nextID := m.nextID
	m.mu.Unlock()

	if err := fn(m); err != nil {
		m.mu.Lock()
		m.users, m.cards, m.transfers, m.nextID = users, cards, transfers, nextID
		m.mu.Unlock()
		return err
	}
	return nil
}

func cloneMap[T any](src map[int64]T) map[int64]T {
	dst := make(map[int64]T, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func (m *memStore) CreateUser(_ context.Context, user *models.User) error {
	if err := m.fail("CreateUser"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return apperror.ErrEmailExists
		}
	}
	user.ID = m.id()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	m.users[user.ID] = *user
	return nil
}

func (m *memStore) FindUserByID(_ context.Context, id int64) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, apperror.ErrUserNotFound
	}
	return &u, nil
}

func (m *memStore) FindUserByEmail(_ context.Context, email models.Email) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, apperror.ErrUserNotFound
}

func (m *memStore) ListUsers(_ context.Context, page models.Page) (models.PageResult[*models.User], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var items []*models.User
	for _, u := range m.users {
		u := u
		items = append(items, &u)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return paginate(items, page), nil
}

func (m *memStore) UpdateUser(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.ID]; !ok {
		return apperror.ErrUserNotFound
	}
	m.users[user.ID] = *user
	return nil
}

func (m *memStore) DeleteUser(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return apperror.ErrUserNotFound
	}
	for _, c := range m.cards {
		if c.OwnerID() == id {
			return apperror.BusinessRule("delete user: resource is still referenced")
		}
	}
	delete(m.users, id)
	return nil
}

func (m *memStore) CreateCard(_ context.Context, card *models.Card) error {
	if err := m.fail("CreateCard"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	card.ID = m.id()
	card.CreatedAt = time.Now()
	card.UpdatedAt = card.CreatedAt
	m.cards[card.ID] = *card
	return nil
}

func (m *memStore) FindCardByID(_ context.Context, id int64) (*models.Card, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cards[id]
	if !ok {
		return nil, apperror.ErrCardNotFound
	}
	return &c, nil
}

func (m *memStore) FindCardByIDForUpdate(ctx context.Context, id int64) (*models.Card, error) {
	return m.FindCardByID(ctx, id)
}

func (m *memStore) ListCards(_ context.Context, filter models.CardFilter, page models.Page) (models.PageResult[*models.Card], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var items []*models.Card
	for _, c := range m.cards {
		c := c
		switch {
		case filter.OwnerID > 0 && c.OwnerID() != filter.OwnerID:
		case filter.Status != "" && c.Status() != filter.Status:
		case filter.MoreThan != nil && !c.Balance().Decimal().GreaterThan(*filter.MoreThan):
		case filter.LessThan != nil && !c.Balance().Decimal().LessThan(*filter.LessThan):
		default:
			items = append(items, &c)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return paginate(items, page), nil
}

func (m *memStore) UpdateCardStatus(_ context.Context, card *models.Card) error {
	return m.updateCard(card, "UpdateCardStatus")
}

func (m *memStore) UpdateCardBalance(_ context.Context, card *models.Card) error {
	return m.updateCard(card, "UpdateCardBalance")
}

func (m *memStore) updateCard(card *models.Card, op string) error {
	if err := m.fail(op); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.cards[card.ID]; !ok {
		return apperror.ErrCardNotFound
	}
	m.cards[card.ID] = *card
	return nil
}

func (m *memStore) DeleteCard(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.cards[id]; !ok {
		return apperror.ErrCardNotFound
	}
	delete(m.cards, id)
	return nil
}

func (m *memStore) CardHasTransfers(_ context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.transfers {
		if t.FromCardID() == id || t.ToCardID() == id {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) FindCardsExpiringBefore(_ context.Context, cutoff time.Time) ([]*models.Card, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var cards []*models.Card
	for _, c := range m.cards {
		c := c
		if !c.IsExpired() && c.ExpiryDate().Time().Before(cutoff) {
			cards = append(cards, &c)
		}
	}
	sort.Slice(cards, func(i, j int) bool { return cards[i].ID < cards[j].ID })
	return cards, nil
}

func (m *memStore) CreateTransfer(_ context.Context, transfer *models.Transfer) error {
	if err := m.fail("CreateTransfer"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	transfer.ID = m.id()
	m.transfers[transfer.ID] = *transfer
	return nil
}

func (m *memStore) FindTransferByID(_ context.Context, id int64) (*models.Transfer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.transfers[id]
	if !ok {
		return nil, apperror.ErrTransferNotFound
	}
	return &t, nil
}

func (m *memStore) ListTransfers(_ context.Context, filter models.TransferFilter, page models.Page) (models.PageResult[*models.Transfer], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var items []*models.Transfer
	for _, t := range m.transfers {
		t := t
		if filter.OwnerID > 0 && t.OwnerID() != filter.OwnerID {
			continue
		}
		items = append(items, &t)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return paginate(items, page), nil
}

func paginate[T any](items []T, page models.Page) models.PageResult[T] {
	result := models.PageResult[T]{Total: int64(len(items)), Page: page}
	start := page.Offset()
	if start >= len(items) {
		return result
	}
	end := start + page.Size
	if end > len(items) {
		end = len(items)
	}
	result.Items = items[start:end]
	return result
}

// transferCount returns how many transfers are stored.
func (m *memStore) transferCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.transfers)
}

func (m *memStore) card(id int64) *models.Card {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.cards[id]
	return &c
}
