package event

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

const exchangeType = "topic"

// Channel is the subset of an AMQP channel the publisher uses
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// RabbitMQPublisher publishes order events to a topic exchange
type RabbitMQPublisher struct {
	conn       io.Closer
	ch         Channel
	exchange   string
	routingKey string
	logger     *zap.Logger
	now        func() time.Time
}

// Dial connects to the broker, opens a channel and declares the exchange.
// Connection attempts are retried a few times while the broker starts.
func Dial(cfg config.MessagingConfig, logger *zap.Logger) (*RabbitMQPublisher, error) {
	var conn *amqp.Connection
	var err error
	for attempt := 1; attempt <= 3; attempt++ {
		conn, err = amqp.Dial(cfg.URL)
		if err == nil {
			break
		}
		logger.Warn("Failed to connect to RabbitMQ",
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		time.Sleep(time.Duration(attempt) * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("could not connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("could not open channel: %w", err)
	}

	p, err := NewRabbitMQPublisher(ch, cfg, logger)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	p.conn = conn
	return p, nil
}

// NewRabbitMQPublisher declares the exchange on ch and returns a publisher
func NewRabbitMQPublisher(ch Channel, cfg config.MessagingConfig, logger *zap.Logger) (*RabbitMQPublisher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	err := ch.ExchangeDeclare(
		cfg.Exchange,
		exchangeType,
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("could not declare exchange: %w", err)
	}
	return &RabbitMQPublisher{
		ch:         ch,
		exchange:   cfg.Exchange,
		routingKey: cfg.RoutingKey,
		logger:     logger,
		now:        time.Now,
	}, nil
}

// PublishOrderSubmitted sends the order.submitted event for record
func (p *RabbitMQPublisher) PublishOrderSubmitted(ctx context.Context, record order.Record) error {
	envelope, err := NewOrderSubmittedEnvelope(record, p.now())
	if err != nil {
		return err
	}
	body, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("could not marshal event: %w", err)
	}

	err = p.ch.PublishWithContext(ctx,
		p.exchange,
		p.routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    envelope.EventID.String(),
			Timestamp:    envelope.OccurredAt,
			Type:         envelope.EventType,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("could not publish %s: %w", envelope.EventType, err)
	}

	p.logger.Debug("Published order event",
		zap.String("order_id", record.OrderID),
		zap.String("event_id", envelope.EventID.String()),
		zap.String("exchange", p.exchange),
	)
	return nil
}

// Close releases the channel and connection. The connection is closed even
// when closing the channel fails.
func (p *RabbitMQPublisher) Close() error {
	err := p.ch.Close()
	if p.conn != nil {
		err = errors.Join(err, p.conn.Close())
	}
	return err
}

var _ order.EventPublisher = (*RabbitMQPublisher)(nil)
