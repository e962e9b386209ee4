package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rl1809/shopy/internal/core/async"
	"github.com/rl1809/shopy/internal/core/domain"
	"github.com/rl1809/shopy/internal/port"
)

// CartOrderStore owns the cart of one session and places orders from it.
// It is safe for concurrent use.
type CartOrderStore struct {
	accountID string
	orders    port.OrderRepository
	now       func() time.Time
	newID     func() string
	onPlaced  func(domain.Order)

	mu    sync.Mutex
	lines []domain.CartLine
}

type StoreOption func(*CartOrderStore)

func WithClock(now func() time.Time) StoreOption {
	return func(s *CartOrderStore) { s.now = now }
}

func WithOrderIDs(gen func() string) StoreOption {
	return func(s *CartOrderStore) { s.newID = gen }
}

// WithPlacedHook registers fn to be called, outside the cart lock, after
// every successful order placement.
func WithPlacedHook(fn func(domain.Order)) StoreOption {
	return func(s *CartOrderStore) { s.onPlaced = fn }
}

func NewCartOrderStore(accountID string, orders port.OrderRepository, opts ...StoreOption) *CartOrderStore {
	s := &CartOrderStore{
		accountID: accountID,
		orders:    orders,
		now:       time.Now,
		newID:     func() string { return "ORD-" + strings.ToUpper(uuid.NewString()[:8]) },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LineFromProduct builds a cart line for quantity units of p sold by shopName.
func LineFromProduct(p domain.Product, shopName string, quantity int) domain.CartLine {
	return domain.CartLine{
		ProductID:   p.ID,
		ProductName: p.Name,
		UnitPrice:   p.Price,
		Quantity:    quantity,
		ShopName:    shopName,
		ImageRef:    p.ImageRef,
	}
}

// AddLine appends item to the cart, or adds its quantity to the existing
// line for the same product. A zero quantity means one unit.
func (s *CartOrderStore) AddLine(item domain.CartLine) error {
	return s.AddLines(item)
}

// AddLines adds every item as AddLine does. If any item is invalid the cart
// is left unchanged.
func (s *CartOrderStore) AddLines(items ...domain.CartLine) error {
	normalized := make([]domain.CartLine, len(items))
	for i, item := range items {
		if err := normalizeLine(&item); err != nil {
			return err
		}
		normalized[i] = item
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, item := range normalized {
		s.mergeLine(item)
	}
	return nil
}

func normalizeLine(item *domain.CartLine) error {
	if item.Quantity == 0 {
		item.Quantity = 1
	}
	if item.Quantity < 0 {
		return ErrInvalidQuantity
	}
	if item.ProductID == "" || item.UnitPrice < 0 {
		return ErrInvalidLine
	}
	return nil
}

func (s *CartOrderStore) mergeLine(item domain.CartLine) {
	for i := range s.lines {
		if s.lines[i].ProductID == item.ProductID {
			s.lines[i].Quantity += item.Quantity
			return
		}
	}
	s.lines = append(s.lines, item)
}

// RemoveLine deletes the line for productID. Removing an absent line is a no-op.
func (s *CartOrderStore) RemoveLine(productID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.lines {
		if s.lines[i].ProductID == productID {
			s.lines = append(s.lines[:i], s.lines[i+1:]...)
			return
		}
	}
}

func (s *CartOrderStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = nil
}

// Lines returns a copy of the current cart lines in insertion order.
func (s *CartOrderStore) Lines() []domain.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.CartLine(nil), s.lines...)
}

func (s *CartOrderStore) ComputeTotal() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return linesTotal(s.lines)
}

// PlaceOrder snapshots the cart into a confirmed order, persists it and
// empties the cart. On any error the cart is left as it was.
func (s *CartOrderStore) PlaceOrder(ctx context.Context) (domain.Order, error) {
	s.mu.Lock()
	if len(s.lines) == 0 {
		s.mu.Unlock()
		return domain.Order{}, ErrEmptyCart
	}

	order := s.snapshot()
	if err := s.orders.AppendOrder(ctx, order); err != nil {
		s.mu.Unlock()
		return domain.Order{}, fmt.Errorf("append order: %w", err)
	}
	s.lines = nil
	s.mu.Unlock()

	if s.onPlaced != nil {
		s.onPlaced(order)
	}
	return order, nil
}

// PlaceOrderAsync places the order after the confirmation delay. An empty
// cart fails immediately; cancelling the task before the delay elapses
// leaves the cart untouched.
func (s *CartOrderStore) PlaceOrderAsync(ctx context.Context, delay time.Duration) (*async.Task[domain.Order], error) {
	s.mu.Lock()
	empty := len(s.lines) == 0
	s.mu.Unlock()
	if empty {
		return nil, ErrEmptyCart
	}
	return async.After(ctx, delay, s.PlaceOrder), nil
}

// ListOrders returns the account's placed orders, most recent first.
func (s *CartOrderStore) ListOrders(ctx context.Context) ([]domain.Order, error) {
	orders, err := s.orders.ListOrders(ctx, s.accountID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

func (s *CartOrderStore) snapshot() domain.Order {
	now := s.now()
	lines := make([]domain.OrderLine, 0, len(s.lines))
	var shops []string
	for _, l := range s.lines {
		lines = append(lines, domain.OrderLine{
			Name:      l.ProductName,
			UnitPrice: l.UnitPrice,
			Quantity:  l.Quantity,
		})
		if l.ShopName != "" && !contains(shops, l.ShopName) {
			shops = append(shops, l.ShopName)
		}
	}

	return domain.Order{
		ID:        s.newID(),
		AccountID: s.accountID,
		Lines:     lines,
		Total:     linesTotal(s.lines),
		Status:    domain.OrderStatusConfirmed,
		Timeline: []domain.TimelineEntry{
			{Status: domain.OrderStatusConfirmed, Timestamp: now, Completed: true},
		},
		ShopName:  strings.Join(shops, ", "),
		CreatedAt: now,
	}
}

func linesTotal(lines []domain.CartLine) int64 {
	var total int64
	for _, l := range lines {
		total += l.Subtotal()
	}
	return total
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
