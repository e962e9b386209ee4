package domain

import "time"

type Role string

const (
	RoleCustomer Role = "customer"
	RoleVendor   Role = "vendor"
)

func (r Role) Valid() bool {
	return r == RoleCustomer || r == RoleVendor
}

type Account struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Mobile      string    `json:"mobile"`
	Role        Role      `json:"role"`
	ShopName    string    `json:"shop_name,omitempty"`
	ShopAddress string    `json:"shop_address,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func (a *Account) IsVendor() bool {
	return a != nil && a.Role == RoleVendor
}

// Credentials is the registry record for an account. PasswordHash never
// leaves the storage and service layers.
type Credentials struct {
	Account
	PasswordHash []byte `json:"password_hash"`
}
