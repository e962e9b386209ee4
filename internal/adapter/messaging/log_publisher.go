package messaging

import (
	"context"

	"go.uber.org/zap"

	"github.com/rl1809/shopy/internal/core/domain"
)

// LogPublisher records order events in the log. It is used when no broker
// is configured.
type LogPublisher struct {
	logger *zap.Logger
}

func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) PublishOrderPlaced(ctx context.Context, order domain.Order) error {
	p.logger.Info("order placed",
		zap.String("order_id", order.ID),
		zap.String("account_id", order.AccountID),
		zap.Int64("total", order.Total),
		zap.Int("lines", len(order.Lines)))
	return nil
}
