package handoff

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Topology of the lead events exchange.
const (
	ExchangeName = "ex.brenda.leads"
	QueueName    = "q.brenda.handoffs"
	DLXName      = "ex.brenda.dlx"
	DLQName      = "q.brenda.handoffs.dlq"
	RoutingKey   = "k.handoff"
)

// channel is the subset of *amqp.Channel used for publishing.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// AMQPPublisher publishes hand-off events as persistent JSON messages so a
// CRM worker can pick them up.
type AMQPPublisher struct {
	conn   *amqp.Connection
	ch     channel
	logger *slog.Logger
}

// NewAMQPPublisher dials url and declares the exchange, queue and dead-letter topology.
func NewAMQPPublisher(url string, logger *slog.Logger) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	if err := setupTopology(ch); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to declare topology: %w", err)
	}
	p := newAMQPPublisher(ch, logger)
	p.conn = conn
	return p, nil
}

func newAMQPPublisher(ch channel, logger *slog.Logger) *AMQPPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &AMQPPublisher{ch: ch, logger: logger}
}

func setupTopology(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(DLXName, "direct", true, false, false, false, nil); err != nil {
		return err
	}
	if _, err := ch.QueueDeclare(DLQName, true, false, false, false, nil); err != nil {
		return err
	}
	if err := ch.QueueBind(DLQName, RoutingKey, DLXName, false, nil); err != nil {
		return err
	}

	args := amqp.Table{
		"x-dead-letter-exchange":    DLXName,
		"x-dead-letter-routing-key": RoutingKey,
	}
	if err := ch.ExchangeDeclare(ExchangeName, "direct", true, false, false, false, nil); err != nil {
		return err
	}
	if _, err := ch.QueueDeclare(QueueName, true, false, false, false, args); err != nil {
		return err
	}
	return ch.QueueBind(QueueName, RoutingKey, ExchangeName, false, nil)
}

// Notify publishes evt.
func (p *AMQPPublisher) Notify(ctx context.Context, evt Event) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to encode hand-off event: %w", err)
	}
	err = p.ch.PublishWithContext(ctx, ExchangeName, RoutingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		MessageId:    evt.ID,
		Type:         string(evt.Kind),
		Timestamp:    evt.CreatedAt,
		Body:         body,
		DeliveryMode: amqp.Persistent,
	})
	if err != nil {
		return fmt.Errorf("failed to publish hand-off event: %w", err)
	}
	p.logger.Debug("AMQPPublisher.Notify: published", "id", evt.ID, "kind", evt.Kind)
	return nil
}

// Close closes the connection, if any.
func (p *AMQPPublisher) Close() error {
	if p.conn == nil {
		return nil
	}
	return p.conn.Close()
}
