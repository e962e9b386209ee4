package port

import (
	"context"
	"errors"

	"github.com/rl1809/shopy/internal/core/domain"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
)

type AccountRepository interface {
	// CreateAccount registers a new account, returns ErrAlreadyExists if the mobile is taken
	CreateAccount(ctx context.Context, creds domain.Credentials) error

	// FindByMobile returns nil when no account is registered for the mobile
	FindByMobile(ctx context.Context, mobile string) (*domain.Credentials, error)

	// GetAccount retrieves an account by ID, nil when absent
	GetAccount(ctx context.Context, id string) (*domain.Account, error)

	// UpdateAccount replaces the profile fields, returns ErrNotFound if absent
	UpdateAccount(ctx context.Context, account domain.Account) error
}

type OrderRepository interface {
	// AppendOrder persists a placed order for its account
	AppendOrder(ctx context.Context, order domain.Order) error

	// ListOrders returns the account's orders, most recent first
	ListOrders(ctx context.Context, accountID string) ([]domain.Order, error)
}

type ProductRepository interface {
	CreateProduct(ctx context.Context, product domain.Product) error

	// UpdateProduct returns ErrNotFound when the vendor has no such product
	UpdateProduct(ctx context.Context, product domain.Product) error

	// DeleteProduct returns ErrNotFound when the vendor has no such product
	DeleteProduct(ctx context.Context, vendorID, productID string) error

	// GetProduct returns nil when the vendor has no such product
	GetProduct(ctx context.Context, vendorID, productID string) (*domain.Product, error)

	// ListProducts returns the vendor's catalog in creation order
	ListProducts(ctx context.Context, vendorID string) ([]domain.Product, error)
}

type PreferenceRepository interface {
	// GetPreferences returns nil when the account never saved any
	GetPreferences(ctx context.Context, accountID string) (*domain.Preferences, error)

	SavePreferences(ctx context.Context, accountID string, prefs domain.Preferences) error
}
