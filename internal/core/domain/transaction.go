package domain

import "time"

type TransactionType string

const (
	TransactionPurchase TransactionType = "purchase"
	TransactionRefund   TransactionType = "refund"
)

type Transaction struct {
	ID          string          `json:"id"`
	Type        TransactionType `json:"type"`
	Amount      int64           `json:"amount"`
	Description string          `json:"description"`
	Date        time.Time       `json:"date"`
	Status      string          `json:"status"`
}

type TransactionSummary struct {
	TotalSpent   int64 `json:"total_spent"`
	TotalRefunds int64 `json:"total_refunds"`
	Count        int   `json:"count"`
}
