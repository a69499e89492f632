package event

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type publishedMessage struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

type fakeChannel struct {
	declared   []string
	published  []publishedMessage
	declareErr error
	publishErr error
	closeErr   error
	closed     bool
}

func (f *fakeChannel) ExchangeDeclare(name, kind string, _, _, _, _ bool, _ amqp.Table) error {
	if f.declareErr != nil {
		return f.declareErr
	}
	f.declared = append(f.declared, name+":"+kind)
	return nil
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published = append(f.published, publishedMessage{exchange: exchange, key: key, msg: msg})
	return nil
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return f.closeErr
}

type fakeConn struct {
	closeErr error
	closed   bool
}

func (f *fakeConn) Close() error {
	f.closed = true
	return f.closeErr
}

var testMessaging = config.MessagingConfig{
	Exchange:   "storefront.events",
	RoutingKey: "order.submitted",
}

func testRecord() order.Record {
	price := valueobject.NewMoneyFromFloat(3)
	return order.Record{
		OrderID:   "ORDER-ABC-12345",
		Timestamp: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Email:     "buyer@example.com",
		Items:     []order.Item{{Name: "Lamp", Quantity: 1, Price: price, ItemTotal: price}},
		Total:     price,
	}
}

func TestNewRabbitMQPublisher(t *testing.T) {
	t.Run("declares a topic exchange", func(t *testing.T) {
		ch := &fakeChannel{}
		_, err := NewRabbitMQPublisher(ch, testMessaging, zaptest.NewLogger(t))
		require.NoError(t, err)
		assert.Equal(t, []string{"storefront.events:topic"}, ch.declared)
	})

	t.Run("declare failure", func(t *testing.T) {
		ch := &fakeChannel{declareErr: errors.New("access refused")}
		_, err := NewRabbitMQPublisher(ch, testMessaging, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "could not declare exchange")
	})
}

func TestRabbitMQPublisher_PublishOrderSubmitted(t *testing.T) {
	ch := &fakeChannel{}
	p, err := NewRabbitMQPublisher(ch, testMessaging, zaptest.NewLogger(t))
	require.NoError(t, err)
	p.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 6, 0, time.UTC) }

	require.NoError(t, p.PublishOrderSubmitted(context.Background(), testRecord()))
	require.Len(t, ch.published, 1)

	got := ch.published[0]
	assert.Equal(t, "storefront.events", got.exchange)
	assert.Equal(t, "order.submitted", got.key)
	assert.Equal(t, "application/json", got.msg.ContentType)
	assert.Equal(t, amqp.Persistent, got.msg.DeliveryMode)
	assert.Equal(t, OrderSubmittedType, got.msg.Type)

	var envelope Envelope
	require.NoError(t, json.Unmarshal(got.msg.Body, &envelope))
	assert.Equal(t, got.msg.MessageId, envelope.EventID.String())

	record, err := envelope.DecodeOrder()
	require.NoError(t, err)
	assert.Equal(t, "ORDER-ABC-12345", record.OrderID)
	assert.Equal(t, "3.00", record.Total.Fixed())
}

func TestRabbitMQPublisher_PublishError(t *testing.T) {
	ch := &fakeChannel{}
	p, err := NewRabbitMQPublisher(ch, testMessaging, nil)
	require.NoError(t, err)

	ch.publishErr = amqp.ErrClosed
	err = p.PublishOrderSubmitted(context.Background(), testRecord())
	assert.ErrorIs(t, err, amqp.ErrClosed)

	require.NoError(t, p.Close())
	assert.True(t, ch.closed)
}

func TestRabbitMQPublisher_Close(t *testing.T) {
	t.Run("closes channel and connection", func(t *testing.T) {
		ch, conn := &fakeChannel{}, &fakeConn{}
		p, err := NewRabbitMQPublisher(ch, testMessaging, nil)
		require.NoError(t, err)
		p.conn = conn

		require.NoError(t, p.Close())
		assert.True(t, ch.closed)
		assert.True(t, conn.closed)
	})

	t.Run("channel failure still closes the connection", func(t *testing.T) {
		chErr, connErr := errors.New("channel gone"), errors.New("socket reset")
		ch, conn := &fakeChannel{closeErr: chErr}, &fakeConn{closeErr: connErr}
		p, err := NewRabbitMQPublisher(ch, testMessaging, nil)
		require.NoError(t, err)
		p.conn = conn

		err = p.Close()
		assert.True(t, conn.closed)
		assert.ErrorIs(t, err, chErr)
		assert.ErrorIs(t, err, connErr)
	})
}

func TestEnvelope_DecodeOrderRejectsOtherTypes(t *testing.T) {
	_, err := Envelope{EventType: "catalog.loaded"}.DecodeOrder()
	assert.Error(t, err)
}
