package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/rl1809/shopy/internal/core/domain"
)

type published struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

type fakeChannel struct {
	sent   []published
	err    error
	closed bool
}

func (f *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, published{exchange: exchange, key: key, msg: msg})
	return nil
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func testOrder() domain.Order {
	return domain.Order{
		ID:        "ORD-1",
		AccountID: "acct-1",
		Lines: []domain.OrderLine{
			{Name: "Fresh Tomatoes", UnitPrice: 50, Quantity: 2},
			{Name: "Cotton T-Shirt", UnitPrice: 299, Quantity: 1},
		},
		Total:     399,
		Status:    domain.OrderStatusConfirmed,
		ShopName:  "Fresh Mart Grocery, Style Hub Fashion",
		CreatedAt: time.Date(2024, 1, 20, 10, 30, 0, 0, time.UTC),
	}
}

func TestPublishOrderPlaced(t *testing.T) {
	ch := &fakeChannel{}
	p := newPublisher(ch, OrderExchange, zaptest.NewLogger(t))

	require.NoError(t, p.PublishOrderPlaced(context.Background(), testOrder()))
	require.Len(t, ch.sent, 1)

	sent := ch.sent[0]
	assert.Equal(t, OrderExchange, sent.exchange)
	assert.Equal(t, OrderPlacedRoutingKey, sent.key)
	assert.Equal(t, "application/json", sent.msg.ContentType)
	assert.Equal(t, amqp.Persistent, sent.msg.DeliveryMode)
	assert.Equal(t, "ORD-1", sent.msg.MessageId)

	var event OrderPlaced
	require.NoError(t, json.Unmarshal(sent.msg.Body, &event))
	assert.Equal(t, "acct-1", event.AccountID)
	assert.EqualValues(t, 399, event.Total)
	assert.Len(t, event.Items, 2)
	assert.Equal(t, "2024-01-20T10:30:00Z", event.CreatedAt)
}

func TestPublishOrderPlaced_ChannelError(t *testing.T) {
	ch := &fakeChannel{err: errors.New("channel closed")}
	p := newPublisher(ch, OrderExchange, zaptest.NewLogger(t))

	err := p.PublishOrderPlaced(context.Background(), testOrder())
	assert.ErrorContains(t, err, "channel closed")
}

func TestClose_WithoutConnection(t *testing.T) {
	ch := &fakeChannel{}
	p := newPublisher(ch, OrderExchange, zaptest.NewLogger(t))

	require.NoError(t, p.Close())
	assert.True(t, ch.closed)
}

func TestDialRabbitMQ(t *testing.T) {
	url := os.Getenv("RABBITMQ_URL")
	if url == "" {
		t.Skip("RABBITMQ_URL not set")
	}

	p, err := DialRabbitMQ(url, "", zaptest.NewLogger(t))
	require.NoError(t, err)
	defer p.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.NoError(t, p.PublishOrderPlaced(ctx, testOrder()))
}

func TestLogPublisher(t *testing.T) {
	p := NewLogPublisher(zaptest.NewLogger(t))
	assert.NoError(t, p.PublishOrderPlaced(context.Background(), testOrder()))
}
