// Package events publishes user lifecycle messages to the durable queue,
// with a bounded synchronous retry when the broker is unavailable.
package events

import (
	"context"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/compass-ms/usernotify/shared/events"
	"github.com/compass-ms/usernotify/shared/logger"
)

// Broker is the queue transport. The real implementation is AMQP; tests
// substitute a fake.
type Broker interface {
	Publish(queue string, body []byte) error
}

// AMQPBroker sends messages to RabbitMQ on a durable queue.
type AMQPBroker struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewAMQPBroker dials the broker and declares the queue as durable so
// messages survive a broker restart.
func NewAMQPBroker(url, queue string) (*AMQPBroker, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}
	return &AMQPBroker{conn: conn, ch: ch}, nil
}

func (b *AMQPBroker) Publish(queue string, body []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return b.ch.PublishWithContext(ctx, "", queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
}

func (b *AMQPBroker) Close() error {
	if err := b.ch.Close(); err != nil {
		b.conn.Close()
		return err
	}
	return b.conn.Close()
}

// Publisher wraps a Broker with the delivery policy: one send, then up to
// maxRetries more with a fixed pause. Failures are logged and absorbed; the
// triggering business operation always completes.
type Publisher struct {
	broker     Broker
	queue      string
	maxRetries int
	backoff    time.Duration
}

func NewPublisher(broker Broker, queue string) *Publisher {
	return &Publisher{
		broker:     broker,
		queue:      queue,
		maxRetries: 3,
		backoff:    time.Second,
	}
}

// Publish sends the event once and falls back to retryPublish on failure.
// It never returns an error: event delivery is best-effort, not transactional
// with the state change that triggered it.
func (p *Publisher) Publish(e events.UserEvent) {
	body, err := e.Marshal()
	if err != nil {
		logger.Log.Error("failed to marshal event", "username", e.Username, "operation", e.Operation, "error", err)
		return
	}

	if err := p.broker.Publish(p.queue, body); err != nil {
		logger.Log.Error("failed to publish event", "queue", p.queue, "error", err)
		p.retryPublish(body)
	}
}

// retryPublish blocks the caller for up to (maxRetries-1) backoff pauses.
func (p *Publisher) retryPublish(body []byte) {
	for attempt := 1; attempt <= p.maxRetries; attempt++ {
		if err := p.broker.Publish(p.queue, body); err == nil {
			logger.Log.Info("event published on retry", "queue", p.queue, "attempt", attempt)
			return
		} else {
			logger.Log.Warn("retry publish failed", "queue", p.queue, "attempt", attempt, "error", err)
		}
		if attempt < p.maxRetries {
			time.Sleep(p.backoff)
		}
	}
	logger.Log.Error("giving up publishing event", "queue", p.queue, "attempts", p.maxRetries)
}
