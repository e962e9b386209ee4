package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rl1809/shopy/internal/core/domain"
	"github.com/rl1809/shopy/internal/port"
)

// Session is the signed-in state of one client as seen by one request: who
// is signed in and what is in their cart. Every Get returns a fresh Session;
// only the Cart is shared between requests on the same token.
type Session struct {
	Token   string
	Account domain.Account
	Cart    *CartOrderStore
}

type CartFactory interface {
	NewCart(accountID string) *CartOrderStore
}

// SessionManager persists the current account per session token and keeps
// the matching carts in memory.
type SessionManager struct {
	cache    port.CacheRepository
	carts    CartFactory
	ttl      time.Duration
	newToken func() string

	mu   sync.Mutex
	live map[string]*CartOrderStore
}

func NewSessionManager(cache port.CacheRepository, carts CartFactory, ttl time.Duration) *SessionManager {
	return &SessionManager{
		cache:    cache,
		carts:    carts,
		ttl:      ttl,
		newToken: uuid.NewString,
		live:     make(map[string]*CartOrderStore),
	}
}

func (m *SessionManager) Open(ctx context.Context, account domain.Account) (*Session, error) {
	token := m.newToken()
	if err := m.cache.SaveSession(ctx, token, account, m.ttl); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	cart := m.carts.NewCart(account.ID)

	m.mu.Lock()
	m.live[token] = cart
	m.mu.Unlock()
	return &Session{Token: token, Account: account, Cart: cart}, nil
}

// Get resumes the session for token. The stored current account is the
// source of truth; a session that expired there is dropped here too.
func (m *SessionManager) Get(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrSessionNotFound
	}

	account, err := m.cache.LoadSession(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if account == nil {
		delete(m.live, token)
		return nil, ErrSessionNotFound
	}

	cart, ok := m.live[token]
	if !ok {
		cart = m.carts.NewCart(account.ID)
		m.live[token] = cart
	}
	return &Session{Token: token, Account: *account, Cart: cart}, nil
}

// Update rewrites the stored current account, e.g. after a profile edit.
// Later Gets on the token see the new account.
func (m *SessionManager) Update(ctx context.Context, sess *Session, account domain.Account) error {
	if err := m.cache.SaveSession(ctx, sess.Token, account, m.ttl); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	sess.Account = account
	return nil
}

// Close signs the session out.
func (m *SessionManager) Close(ctx context.Context, token string) error {
	m.mu.Lock()
	delete(m.live, token)
	m.mu.Unlock()

	if err := m.cache.DeleteSession(ctx, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

type sessionKey struct{}

func WithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, sess)
}

func SessionFrom(ctx context.Context) (*Session, bool) {
	sess, ok := ctx.Value(sessionKey{}).(*Session)
	return sess, ok && sess != nil
}
