package service

import (
	"fmt"

	"github.com/rl1809/shopy/internal/core/domain"
)

// Ledger turns placed orders into completed purchase transactions, keeping
// the orders' most-recent-first order.
func Ledger(orders []domain.Order) []domain.Transaction {
	txns := make([]domain.Transaction, 0, len(orders))
	for _, o := range orders {
		desc := "Order #" + o.ID
		if o.ShopName != "" {
			desc = fmt.Sprintf("%s - %s", desc, o.ShopName)
		}
		txns = append(txns, domain.Transaction{
			ID:          "TXN-" + o.ID,
			Type:        domain.TransactionPurchase,
			Amount:      o.Total,
			Description: desc,
			Date:        o.CreatedAt,
			Status:      "completed",
		})
	}
	return txns
}

func Summarize(txns []domain.Transaction) domain.TransactionSummary {
	summary := domain.TransactionSummary{Count: len(txns)}
	for _, t := range txns {
		switch t.Type {
		case domain.TransactionPurchase:
			summary.TotalSpent += t.Amount
		case domain.TransactionRefund:
			summary.TotalRefunds += t.Amount
		}
	}
	return summary
}
