package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/askdocs/askdocs/pkg/logger"
)

// RabbitSink publishes audit events to durable RabbitMQ queues.
type RabbitSink struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewRabbitSink connects to the broker and declares the audit queues.
func NewRabbitSink(url string) (*RabbitSink, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	for _, q := range []string{QueueAuth, QueueSearch} {
		if _, err := ch.QueueDeclare(q, true, false, false, false, nil); err != nil {
			ch.Close()
			conn.Close()
			return nil, fmt.Errorf("amqp declare %s: %w", q, err)
		}
	}
	return &RabbitSink{conn: conn, ch: ch}, nil
}

// Publish sends the event to the named queue. Failures are logged and
// swallowed; auditing never breaks the request path.
func (s *RabbitSink) Publish(ctx context.Context, queue string, e Event) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	b, err := json.Marshal(e)
	if err != nil {
		logger.Warnf("audit: marshal event: %v", err)
		return
	}
	err = s.ch.PublishWithContext(ctx, "", queue, false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        b,
	})
	if err != nil {
		logger.Warnf("audit: publish to %s failed: %v", queue, err)
	}
}

// Close tears down the channel and connection.
func (s *RabbitSink) Close() error {
	if err := s.ch.Close(); err != nil {
		s.conn.Close()
		return err
	}
	return s.conn.Close()
}
