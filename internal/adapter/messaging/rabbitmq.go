package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/rl1809/shopy/internal/core/domain"
)

const (
	OrderExchange         = "shopy.orders"
	OrderPlacedQueue      = "shopy.order_placed"
	OrderPlacedRoutingKey = "order.placed"
)

// OrderPlaced is the message body published for every confirmed order.
type OrderPlaced struct {
	OrderID   string             `json:"order_id"`
	AccountID string             `json:"account_id"`
	Items     []domain.OrderLine `json:"items"`
	Total     int64              `json:"total"`
	ShopName  string             `json:"shop_name"`
	CreatedAt string             `json:"created_at"`
}

func NewOrderPlaced(order domain.Order) OrderPlaced {
	return OrderPlaced{
		OrderID:   order.ID,
		AccountID: order.AccountID,
		Items:     order.Lines,
		Total:     order.Total,
		ShopName:  order.ShopName,
		CreatedAt: order.CreatedAt.UTC().Format(time.RFC3339),
	}
}

type publishChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// RabbitMQPublisher publishes order events to a durable topic exchange.
type RabbitMQPublisher struct {
	conn     *amqp.Connection
	exchange string
	logger   *zap.Logger

	mu      sync.Mutex
	channel publishChannel
}

// DialRabbitMQ connects to url, declares the exchange and binds the
// order-placed queue to it.
func DialRabbitMQ(url, exchange string, logger *zap.Logger) (*RabbitMQPublisher, error) {
	if exchange == "" {
		exchange = OrderExchange
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := declareTopology(ch, exchange); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	p := newPublisher(ch, exchange, logger)
	p.conn = conn
	return p, nil
}

func declareTopology(ch *amqp.Channel, exchange string) error {
	err := ch.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare exchange %s: %w", exchange, err)
	}

	q, err := ch.QueueDeclare(
		OrderPlacedQueue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare queue %s: %w", OrderPlacedQueue, err)
	}

	if err := ch.QueueBind(q.Name, OrderPlacedRoutingKey, exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue %s: %w", q.Name, err)
	}
	return nil
}

func newPublisher(ch publishChannel, exchange string, logger *zap.Logger) *RabbitMQPublisher {
	return &RabbitMQPublisher{
		channel:  ch,
		exchange: exchange,
		logger:   logger,
	}
}

func (p *RabbitMQPublisher) PublishOrderPlaced(ctx context.Context, order domain.Order) error {
	body, err := json.Marshal(NewOrderPlaced(order))
	if err != nil {
		return fmt.Errorf("marshal order event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.channel.PublishWithContext(
		ctx,
		p.exchange,
		OrderPlacedRoutingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    order.ID,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish to %s: %w", p.exchange, err)
	}
	return nil
}

func (p *RabbitMQPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.channel.Close(); err != nil {
		return err
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
