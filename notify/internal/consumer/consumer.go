// Package consumer drains the notify queue and persists every message.
// Acks are manual: a failed store requeues the delivery, so the pipeline
// is at-least-once and duplicates are accepted.
package consumer

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/compass-ms/usernotify/shared/domain"
	"github.com/compass-ms/usernotify/shared/events"
	"github.com/compass-ms/usernotify/shared/logger"
)

var messagesConsumed = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "notify_messages_consumed_total",
		Help: "Queue messages processed by the notify service",
	},
	[]string{"status"},
)

type Store interface {
	SaveMessage(n domain.Notification) error
}

type Consumer struct {
	store Store
}

func New(store Store) *Consumer {
	return &Consumer{store: store}
}

// Handle persists a single queue message. The raw payload is always kept;
// the parsed fields are best-effort, so a producer schema drift never loses
// a message.
func (c *Consumer) Handle(body []byte) error {
	n := domain.Notification{
		Id:         uuid.NewString(),
		Raw:        string(body),
		ReceivedAt: time.Now().UTC(),
	}

	e, err := events.Unmarshal(body)
	if err != nil {
		logger.Log.Warn("message is not a valid user event, storing raw", "error", err)
	} else {
		n.Username = e.Username
		n.Operation = e.Operation
		n.Timestamp = e.Timestamp
		n.PerformedBy = e.PerformedBy
	}

	return c.store.SaveMessage(n)
}

// Run processes deliveries until ctx is cancelled or the channel closes.
func (c *Consumer) Run(ctx context.Context, deliveries <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-deliveries:
			if !ok {
				logger.Log.Warn("delivery channel closed")
				return
			}
			if err := c.Handle(d.Body); err != nil {
				logger.Log.Error("failed to store message, requeueing", "error", err)
				messagesConsumed.WithLabelValues("requeued").Inc()
				if err := d.Nack(false, true); err != nil {
					logger.Log.Error("nack failed", "error", err)
				}
				continue
			}
			messagesConsumed.WithLabelValues("stored").Inc()
			if err := d.Ack(false); err != nil {
				logger.Log.Error("ack failed", "error", err)
			}
		}
	}
}

// Subscribe opens a channel on conn and starts consuming from the durable
// queue with manual acks and a prefetch of 1.
func Subscribe(conn *amqp.Connection, queue string) (*amqp.Channel, <-chan amqp.Delivery, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, nil, err
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		ch.Close()
		return nil, nil, err
	}
	if err := ch.Qos(1, 0, false); err != nil {
		ch.Close()
		return nil, nil, err
	}
	deliveries, err := ch.Consume(queue, "", false, false, false, false, nil)
	if err != nil {
		ch.Close()
		return nil, nil, err
	}
	return ch, deliveries, nil
}
