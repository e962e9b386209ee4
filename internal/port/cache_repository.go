package port

import (
	"context"
	"time"

	"github.com/rl1809/shopy/internal/core/domain"
)

type CacheRepository interface {
	// SetIdempotency sets a key for idempotency check, returns false if already exists
	SetIdempotency(ctx context.Context, key string) (bool, error)

	// SaveSession stores the current account for a session token
	SaveSession(ctx context.Context, token string, account domain.Account, ttl time.Duration) error

	// LoadSession returns nil if the token is unknown or expired
	LoadSession(ctx context.Context, token string) (*domain.Account, error)

	// DeleteSession removes the current account for a token
	DeleteSession(ctx context.Context, token string) error
}
