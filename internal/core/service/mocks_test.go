package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rl1809/shopy/internal/core/domain"
)

// Mock OrderRepository
type mockOrderRepo struct {
	mu     sync.Mutex
	orders []domain.Order
	err    error
}

func (m *mockOrderRepo) AppendOrder(ctx context.Context, order domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.orders = append([]domain.Order{order}, m.orders...)
	return nil
}

func (m *mockOrderRepo) ListOrders(ctx context.Context, accountID string) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Order
	for _, o := range m.orders {
		if o.AccountID == accountID {
			out = append(out, o)
		}
	}
	return out, nil
}

// Mock CacheRepository
type mockCacheRepo struct {
	mu             sync.Mutex
	idempotencySet map[string]bool
	sessions       map[string]domain.Account
	err            error
}

func newMockCacheRepo() *mockCacheRepo {
	return &mockCacheRepo{
		idempotencySet: make(map[string]bool),
		sessions:       make(map[string]domain.Account),
	}
}

func (m *mockCacheRepo) SetIdempotency(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	if m.idempotencySet[key] {
		return false, nil
	}
	m.idempotencySet[key] = true
	return true, nil
}

func (m *mockCacheRepo) SaveSession(ctx context.Context, token string, account domain.Account, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sessions[token] = account
	return nil
}

func (m *mockCacheRepo) LoadSession(ctx context.Context, token string) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.sessions[token]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (m *mockCacheRepo) DeleteSession(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
	return nil
}

var errStorageDown = errors.New("storage down")

func fixedClock() func() time.Time {
	t := time.Date(2024, 1, 20, 10, 30, 0, 0, time.UTC)
	return func() time.Time { return t }
}
