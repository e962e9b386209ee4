package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/shopy/internal/adapter/storage"
	"github.com/rl1809/shopy/internal/core/domain"
)

func labels(items []NavItem) []string {
	out := make([]string, 0, len(items))
	for _, i := range items {
		out = append(out, i.Label)
	}
	return out
}

func TestNavigation(t *testing.T) {
	vendor := labels(Navigation(&domain.Account{Role: domain.RoleVendor}))
	assert.Equal(t, []string{"Home", "Category", "Products", "Transactions"}, vendor)
	assert.NotContains(t, vendor, "Orders")

	customer := labels(Navigation(&domain.Account{Role: domain.RoleCustomer}))
	assert.Equal(t, []string{"Home", "Category", "Orders", "Transactions"}, customer)
	assert.NotContains(t, customer, "Products")

	assert.Equal(t, customer, labels(Navigation(nil)))
}

func TestLedger(t *testing.T) {
	when := time.Date(2024, 1, 20, 10, 30, 0, 0, time.UTC)
	txns := Ledger([]domain.Order{
		{ID: "ORD002", Total: 299, ShopName: "Style Hub Fashion", CreatedAt: when},
		{ID: "ORD001", Total: 100, CreatedAt: when.Add(-time.Hour)},
	})

	require.Len(t, txns, 2)
	assert.Equal(t, "TXN-ORD002", txns[0].ID)
	assert.Equal(t, "Order #ORD002 - Style Hub Fashion", txns[0].Description)
	assert.Equal(t, "Order #ORD001", txns[1].Description)
	assert.Equal(t, domain.TransactionPurchase, txns[1].Type)
	assert.Equal(t, "completed", txns[0].Status)

	txns = append(txns, domain.Transaction{Type: domain.TransactionRefund, Amount: 50})
	summary := Summarize(txns)
	assert.EqualValues(t, 399, summary.TotalSpent)
	assert.EqualValues(t, 50, summary.TotalRefunds)
	assert.Equal(t, 3, summary.Count)

	assert.Empty(t, Ledger(nil))
}

func TestPreferences(t *testing.T) {
	svc := NewPreferenceService(storage.NewMemoryAdapter())
	ctx := context.Background()

	p, err := svc.Get(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultPreferences(), p)

	p, err = svc.Save(ctx, "a1", domain.Preferences{Theme: domain.ThemeDark})
	require.NoError(t, err)
	assert.Equal(t, domain.Preferences{Theme: domain.ThemeDark, Language: "english"}, p)

	p, err = svc.Save(ctx, "a1", domain.Preferences{Language: "tamil"})
	require.NoError(t, err)
	assert.Equal(t, domain.ThemeDark, p.Theme)

	_, err = svc.Save(ctx, "a1", domain.Preferences{Theme: "sepia"})
	assert.ErrorIs(t, err, ErrInvalidPreference)
	_, err = svc.Save(ctx, "a1", domain.Preferences{Language: "klingon"})
	assert.ErrorIs(t, err, ErrInvalidPreference)

	p, err = svc.Get(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, domain.Preferences{Theme: domain.ThemeDark, Language: "tamil"}, p)
}
