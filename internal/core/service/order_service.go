package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rl1809/shopy/internal/core/domain"
	"github.com/rl1809/shopy/internal/port"
)

// OrderService hands out carts, runs idempotent checkout and queues placed
// orders for event publication.
type OrderService struct {
	cache        port.CacheRepository
	orders       port.OrderRepository
	confirmDelay time.Duration
	storeOpts    []StoreOption
	logger       *zap.Logger

	mu         sync.RWMutex
	closed     bool
	orderQueue chan domain.Order
}

func NewOrderService(cache port.CacheRepository, orders port.OrderRepository, queueSize int, confirmDelay time.Duration, opts ...StoreOption) *OrderService {
	return &OrderService{
		cache:        cache,
		orders:       orders,
		confirmDelay: confirmDelay,
		storeOpts:    opts,
		logger:       zap.NewNop(),
		orderQueue:   make(chan domain.Order, queueSize),
	}
}

// WithLogger sets the logger used for dropped order events. Call it before
// the service is shared.
func (s *OrderService) WithLogger(logger *zap.Logger) *OrderService {
	s.logger = logger
	return s
}

// NewCart returns an empty cart for accountID whose placed orders are queued
// on this service.
func (s *OrderService) NewCart(accountID string) *CartOrderStore {
	opts := append([]StoreOption{WithPlacedHook(s.enqueue)}, s.storeOpts...)
	return NewCartOrderStore(accountID, s.orders, opts...)
}

// Checkout places the session's cart after the confirmation delay. A
// non-empty requestID makes the call idempotent per account. If ctx ends
// before the delay elapses nothing is placed.
func (s *OrderService) Checkout(ctx context.Context, sess *Session, requestID string) (domain.Order, error) {
	if err := s.Reserve(ctx, sess, requestID); err != nil {
		return domain.Order{}, err
	}
	return s.Place(ctx, sess)
}

// Reserve consumes requestID for the session's account. It fails with
// ErrDuplicateRequest when the id was already used. An empty requestID
// always succeeds.
func (s *OrderService) Reserve(ctx context.Context, sess *Session, requestID string) error {
	if requestID == "" {
		return nil
	}
	idempotencyKey := fmt.Sprintf("order:%s:%s", sess.Account.ID, requestID)

	ok, err := s.cache.SetIdempotency(ctx, idempotencyKey)
	if err != nil {
		return fmt.Errorf("idempotency check failed: %w", err)
	}
	if !ok {
		return ErrDuplicateRequest
	}
	return nil
}

// Place checks out the session's cart without an idempotency check. Once
// placement has started it is waited for even if ctx ends, so a placed
// order is never reported as failed.
func (s *OrderService) Place(ctx context.Context, sess *Session) (domain.Order, error) {
	task, err := sess.Cart.PlaceOrderAsync(ctx, s.confirmDelay)
	if err != nil {
		return domain.Order{}, err
	}

	order, err := task.Wait(ctx)
	if err == nil {
		return order, nil
	}
	if task.Cancel() {
		return domain.Order{}, err
	}
	<-task.Done()
	return task.Wait(context.Background())
}

// enqueue hands order to the publish workers. Publication is best effort:
// when the queue is full the event is dropped rather than stalling checkout.
func (s *OrderService) enqueue(order domain.Order) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return
	}
	select {
	case s.orderQueue <- order:
	default:
		s.logger.Warn("order queue full, dropping event",
			zap.String("order_id", order.ID),
			zap.String("account_id", order.AccountID))
	}
}

func (s *OrderService) GetOrderQueue() <-chan domain.Order {
	return s.orderQueue
}

func (s *OrderService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.orderQueue)
}

// PublishLoop drains queue into pub until the queue is closed. Failed
// publications are logged and dropped; the order itself is already stored.
func PublishLoop(id int, queue <-chan domain.Order, pub port.OrderEventPublisher, logger *zap.Logger) {
	for order := range queue {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)

		if err := pub.PublishOrderPlaced(ctx, order); err != nil {
			logger.Error("publish order failed",
				zap.Int("worker", id),
				zap.String("order_id", order.ID),
				zap.Error(err))
		} else {
			logger.Debug("published order",
				zap.Int("worker", id),
				zap.String("order_id", order.ID))
		}

		cancel()
	}
}

// IsUserError reports whether err is a recoverable condition to show the
// user rather than an internal failure.
func IsUserError(err error) bool {
	for _, target := range []error{
		ErrEmptyCart, ErrInvalidQuantity, ErrInvalidLine, ErrDuplicateRequest,
		ErrDuplicateAccount, ErrInvalidCredentials, ErrMissingField, ErrInvalidRole,
		ErrShopDetailsRequired, ErrOTPNotSent, ErrInvalidOTP, ErrNotVendor,
		ErrInvalidProduct, ErrInvalidPreference,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
