package storage

import (
	"context"
	"sync"
	"time"

	"github.com/rl1809/shopy/internal/core/domain"
	"github.com/rl1809/shopy/internal/port"
)

type memorySession struct {
	account   domain.Account
	expiresAt time.Time
}

// MemoryAdapter keeps every repository in process memory. It is the default
// backend and is safe for concurrent use.
type MemoryAdapter struct {
	mu          sync.RWMutex
	accounts    map[string]domain.Credentials // by mobile
	accountIDs  map[string]string             // id -> mobile
	orders      map[string][]domain.Order     // by account, most recent first
	products    map[string][]domain.Product   // by vendor, creation order
	preferences map[string]domain.Preferences
	idempotency map[string]struct{}
	sessions    map[string]memorySession
	now         func() time.Time
}

func NewMemoryAdapter() *MemoryAdapter {
	return &MemoryAdapter{
		accounts:    make(map[string]domain.Credentials),
		accountIDs:  make(map[string]string),
		orders:      make(map[string][]domain.Order),
		products:    make(map[string][]domain.Product),
		preferences: make(map[string]domain.Preferences),
		idempotency: make(map[string]struct{}),
		sessions:    make(map[string]memorySession),
		now:         time.Now,
	}
}

func (m *MemoryAdapter) CreateAccount(ctx context.Context, creds domain.Credentials) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.accounts[creds.Mobile]; exists {
		return port.ErrAlreadyExists
	}
	m.accounts[creds.Mobile] = creds
	m.accountIDs[creds.ID] = creds.Mobile
	return nil
}

func (m *MemoryAdapter) FindByMobile(ctx context.Context, mobile string) (*domain.Credentials, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	creds, ok := m.accounts[mobile]
	if !ok {
		return nil, nil
	}
	return &creds, nil
}

func (m *MemoryAdapter) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	mobile, ok := m.accountIDs[id]
	if !ok {
		return nil, nil
	}
	account := m.accounts[mobile].Account
	return &account, nil
}

func (m *MemoryAdapter) UpdateAccount(ctx context.Context, account domain.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	mobile, ok := m.accountIDs[account.ID]
	if !ok {
		return port.ErrNotFound
	}
	creds := m.accounts[mobile]
	creds.Account = account
	m.accounts[mobile] = creds
	return nil
}

func (m *MemoryAdapter) AppendOrder(ctx context.Context, order domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.orders[order.AccountID] = append([]domain.Order{order}, m.orders[order.AccountID]...)
	return nil
}

func (m *MemoryAdapter) ListOrders(ctx context.Context, accountID string) ([]domain.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return append([]domain.Order{}, m.orders[accountID]...), nil
}

func (m *MemoryAdapter) CreateProduct(ctx context.Context, product domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range m.products[product.VendorID] {
		if p.ID == product.ID {
			return port.ErrAlreadyExists
		}
	}
	m.products[product.VendorID] = append(m.products[product.VendorID], product)
	return nil
}

func (m *MemoryAdapter) UpdateProduct(ctx context.Context, product domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	list := m.products[product.VendorID]
	for i := range list {
		if list[i].ID == product.ID {
			list[i] = product
			return nil
		}
	}
	return port.ErrNotFound
}

func (m *MemoryAdapter) DeleteProduct(ctx context.Context, vendorID, productID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	list := m.products[vendorID]
	for i := range list {
		if list[i].ID == productID {
			m.products[vendorID] = append(list[:i:i], list[i+1:]...)
			return nil
		}
	}
	return port.ErrNotFound
}

func (m *MemoryAdapter) GetProduct(ctx context.Context, vendorID, productID string) (*domain.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, p := range m.products[vendorID] {
		if p.ID == productID {
			return &p, nil
		}
	}
	return nil, nil
}

func (m *MemoryAdapter) ListProducts(ctx context.Context, vendorID string) ([]domain.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return append([]domain.Product{}, m.products[vendorID]...), nil
}

func (m *MemoryAdapter) GetPreferences(ctx context.Context, accountID string) (*domain.Preferences, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.preferences[accountID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *MemoryAdapter) SavePreferences(ctx context.Context, accountID string, prefs domain.Preferences) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.preferences[accountID] = prefs
	return nil
}

func (m *MemoryAdapter) SetIdempotency(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.idempotency[key]; exists {
		return false, nil
	}
	m.idempotency[key] = struct{}{}
	return true, nil
}

func (m *MemoryAdapter) SaveSession(ctx context.Context, token string, account domain.Account, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = m.now().Add(ttl)
	}
	m.sessions[token] = memorySession{account: account, expiresAt: expiresAt}
	return nil
}

func (m *MemoryAdapter) LoadSession(ctx context.Context, token string) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[token]
	if !ok {
		return nil, nil
	}
	if !s.expiresAt.IsZero() && !m.now().Before(s.expiresAt) {
		delete(m.sessions, token)
		return nil, nil
	}
	return &s.account, nil
}

func (m *MemoryAdapter) DeleteSession(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, token)
	return nil
}
