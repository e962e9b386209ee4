package service

import "github.com/rl1809/shopy/internal/core/domain"

type NavItem struct {
	Label string `json:"label"`
	Path  string `json:"path"`
}

// NavigationFor returns the primary navigation for role. Any role other
// than vendor, including the empty role of a guest, gets the customer set.
func NavigationFor(role domain.Role) []NavItem {
	primary := NavItem{Label: "Orders", Path: "/orders"}
	if role == domain.RoleVendor {
		primary = NavItem{Label: "Products", Path: "/vendor/products"}
	}
	return []NavItem{
		{Label: "Home", Path: "/home"},
		{Label: "Category", Path: "/category"},
		primary,
		{Label: "Transactions", Path: "/transactions"},
	}
}

// Navigation is NavigationFor the account's role; a nil account is a guest.
func Navigation(account *domain.Account) []NavItem {
	if account == nil {
		return NavigationFor("")
	}
	return NavigationFor(account.Role)
}
