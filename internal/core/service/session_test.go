package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/shopy/internal/core/domain"
)

func newTestSessions() (*SessionManager, *mockCacheRepo) {
	cache := newMockCacheRepo()
	orders := NewOrderService(cache, &mockOrderRepo{}, 10, 0)
	return NewSessionManager(cache, orders, 0), cache
}

func TestSession_OpenGetClose(t *testing.T) {
	m, cache := newTestSessions()
	ctx := context.Background()
	account := domain.Account{ID: "a1", Name: "Asha", Role: domain.RoleCustomer}

	sess, err := m.Open(ctx, account)
	require.NoError(t, err)
	assert.NotEmpty(t, sess.Token)
	assert.Contains(t, cache.sessions, sess.Token)

	require.NoError(t, sess.Cart.AddLine(tomatoes))

	got, err := m.Get(ctx, sess.Token)
	require.NoError(t, err)
	assert.NotSame(t, sess, got)
	assert.Same(t, sess.Cart, got.Cart)
	assert.Len(t, got.Cart.Lines(), 1)

	require.NoError(t, m.Close(ctx, sess.Token))
	_, err = m.Get(ctx, sess.Token)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.NotContains(t, cache.sessions, sess.Token)
}

func TestSession_ResumesFromStore(t *testing.T) {
	m, cache := newTestSessions()
	ctx := context.Background()
	cache.sessions["persisted"] = domain.Account{ID: "a9", Role: domain.RoleVendor}

	sess, err := m.Get(ctx, "persisted")
	require.NoError(t, err)
	assert.Equal(t, "a9", sess.Account.ID)
	assert.NotNil(t, sess.Cart)
	assert.Empty(t, sess.Cart.Lines())
}

func TestSession_ExpiredInStoreIsDropped(t *testing.T) {
	m, cache := newTestSessions()
	ctx := context.Background()

	sess, err := m.Open(ctx, domain.Account{ID: "a1"})
	require.NoError(t, err)
	delete(cache.sessions, sess.Token)

	_, err = m.Get(ctx, sess.Token)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSession_Update(t *testing.T) {
	m, cache := newTestSessions()
	ctx := context.Background()

	sess, err := m.Open(ctx, domain.Account{ID: "a1", Name: "Asha"})
	require.NoError(t, err)

	require.NoError(t, m.Update(ctx, sess, domain.Account{ID: "a1", Name: "Asha K"}))
	assert.Equal(t, "Asha K", sess.Account.Name)
	assert.Equal(t, "Asha K", cache.sessions[sess.Token].Name)

	got, err := m.Get(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, "Asha K", got.Account.Name)
}

func TestSession_ConcurrentRequestsOnOneToken(t *testing.T) {
	m, _ := newTestSessions()
	ctx := context.Background()

	opened, err := m.Open(ctx, domain.Account{ID: "a1", Name: "Asha"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sess, err := m.Get(ctx, opened.Token)
			if !assert.NoError(t, err) {
				return
			}
			assert.Equal(t, "a1", sess.Account.ID)
			if i%2 == 0 {
				assert.NoError(t, m.Update(ctx, sess, domain.Account{ID: "a1", Name: "Asha K"}))
			}
			assert.NoError(t, sess.Cart.AddLine(tomatoes))
		}(i)
	}
	for i := 0; i < 100; i++ {
		assert.Equal(t, "a1", opened.Account.ID)
	}
	wg.Wait()

	got, err := m.Get(ctx, opened.Token)
	require.NoError(t, err)
	require.Len(t, got.Cart.Lines(), 1)
	assert.Equal(t, 20*tomatoes.Quantity, got.Cart.Lines()[0].Quantity)
}

func TestSession_OpenFailureLeavesNoSession(t *testing.T) {
	m, cache := newTestSessions()
	cache.err = errStorageDown

	_, err := m.Open(context.Background(), domain.Account{ID: "a1"})
	assert.ErrorIs(t, err, errStorageDown)
	assert.Empty(t, m.live)
}

func TestSessionContext(t *testing.T) {
	_, ok := SessionFrom(context.Background())
	assert.False(t, ok)

	sess := &Session{Token: "t"}
	got, ok := SessionFrom(WithSession(context.Background(), sess))
	require.True(t, ok)
	assert.Same(t, sess, got)
}

func TestSession_EmptyToken(t *testing.T) {
	m, _ := newTestSessions()
	_, err := m.Get(context.Background(), "")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
