package domain

import "time"

type OrderStatus string

const (
	OrderStatusConfirmed      OrderStatus = "confirmed"
	OrderStatusOutForDelivery OrderStatus = "out_for_delivery"
	OrderStatusDelivered      OrderStatus = "delivered"
)

// Label is the human readable form shown in order history.
func (s OrderStatus) Label() string {
	switch s {
	case OrderStatusConfirmed:
		return "Order Confirmed"
	case OrderStatusOutForDelivery:
		return "Out for Delivery"
	case OrderStatusDelivered:
		return "Delivered"
	default:
		return string(s)
	}
}

type OrderLine struct {
	Name      string `json:"name"`
	UnitPrice int64  `json:"unit_price"`
	Quantity  int    `json:"quantity"`
}

type TimelineEntry struct {
	Status    OrderStatus `json:"status"`
	Timestamp time.Time   `json:"timestamp"`
	Completed bool        `json:"completed"`
}

type Order struct {
	ID        string          `json:"id"`
	AccountID string          `json:"account_id"`
	Lines     []OrderLine     `json:"lines"`
	Total     int64           `json:"total"`
	Status    OrderStatus     `json:"status"`
	Timeline  []TimelineEntry `json:"timeline"`
	ShopName  string          `json:"shop_name"`
	CreatedAt time.Time       `json:"created_at"`
}

// LinesTotal sums unit price times quantity over the order lines.
func (o Order) LinesTotal() int64 {
	var total int64
	for _, l := range o.Lines {
		total += l.UnitPrice * int64(l.Quantity)
	}
	return total
}

// Consistent reports whether the stored total matches the lines.
func (o Order) Consistent() bool {
	return o.Total == o.LinesTotal()
}

// OrderDate is the calendar date the order was placed on.
func (o Order) OrderDate() string {
	return o.CreatedAt.Format("2006-01-02")
}
