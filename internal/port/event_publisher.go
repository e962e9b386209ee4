package port

import (
	"context"

	"github.com/rl1809/shopy/internal/core/domain"
)

type OrderEventPublisher interface {
	// PublishOrderPlaced announces a confirmed order to downstream consumers
	PublishOrderPlaced(ctx context.Context, order domain.Order) error
}
