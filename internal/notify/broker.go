package notify

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/civicdesk/helpdesk/internal/events"
)

// Publisher forwards domain events to an external broker.
type Publisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// Channel is the part of an AMQP channel used for publishing.
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPPublisher writes events as JSON to a durable queue.
type AMQPPublisher struct {
	conn      *amqp.Connection
	ch        Channel
	queueName string
	cb        *gobreaker.CircuitBreaker
}

// NewAMQPPublisher dials the broker and declares the queue.
func NewAMQPPublisher(url, queueName string, logger *zap.Logger) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	_, err = ch.QueueDeclare(
		queueName,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	p := NewAMQPPublisherWithChannel(ch, queueName, logger)
	p.conn = conn
	return p, nil
}

// NewAMQPPublisherWithChannel wraps an already open channel.
func NewAMQPPublisherWithChannel(ch Channel, queueName string, logger *zap.Logger) *AMQPPublisher {
	return &AMQPPublisher{
		ch:        ch,
		queueName: queueName,
		cb:        NewCircuitBreaker("amqp-publisher", 30*time.Second, logger),
	}
}

// Publish sends event to the queue as a persistent message.
func (p *AMQPPublisher) Publish(ctx context.Context, event events.Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	_, err = p.cb.Execute(func() (interface{}, error) {
		return nil, p.ch.PublishWithContext(
			ctx,
			"",          // default exchange
			p.queueName, // routing key == queue name
			false,
			false,
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent,
				MessageId:    event.ID,
				Type:         string(event.Type),
				Timestamp:    event.Timestamp,
				Body:         body,
			},
		)
	})
	return err
}

// Close releases the channel and connection.
func (p *AMQPPublisher) Close() error {
	if p.ch != nil {
		if err := p.ch.Close(); err != nil {
			return err
		}
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
