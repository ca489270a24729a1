package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"sync"

	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.opentelemetry.io/otel"

	"github.com/televi1/televi/internal/domain"
	"github.com/televi1/televi/internal/usecase"
)

var tracer = otel.Tracer("queue")

const (
	Exchange   = "televi.notifications"
	RoutingKey = "owner.notify"
	QueueName  = "televi.owner-notify"
)

// Deliverer sends one notification to its recipient.
type Deliverer interface {
	Deliver(ctx context.Context, n domain.OwnerNotification) error
}

// AMQP publishes and consumes owner notifications over RabbitMQ.
type AMQP struct {
	conn   *amqp.Connection
	mu     sync.Mutex
	ch     *amqp.Channel
	logger *slog.Logger
}

var _ usecase.Notifier = (*AMQP)(nil)

// Dial connects and declares the topic exchange.
func Dial(rawURL string, logger *slog.Logger) (*AMQP, error) {
	if rawURL == "" {
		return nil, fmt.Errorf("amqp URL is required")
	}
	if u, err := url.Parse(rawURL); err == nil {
		logger.Info("connecting to rabbitmq", slog.String("host", u.Host), slog.String("module", "queue"))
	}

	conn, err := amqp.Dial(rawURL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to RabbitMQ")
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, errors.Wrap(err, "open channel")
	}
	if err := ch.ExchangeDeclare(Exchange, "topic", true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, errors.Wrap(err, "declare exchange")
	}
	return &AMQP{conn: conn, ch: ch, logger: logger}, nil
}

func (q *AMQP) Publish(ctx context.Context, n domain.OwnerNotification) error {
	ctx, span := tracer.Start(ctx, "Queue.AMQP.Publish")
	defer span.End()

	env := NewEnvelope(TypeOwnerNotification, n)
	body, err := json.Marshal(env)
	if err != nil {
		return errors.Wrap(err, "marshal envelope")
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	err = q.ch.PublishWithContext(ctx, Exchange, RoutingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		MessageId:    env.Meta.ID,
		Type:         env.Meta.Type,
		Timestamp:    env.Meta.Time,
	})
	if err != nil {
		span.RecordError(err)
		return errors.Wrap(err, "AMQP.Publish")
	}
	return nil
}

// Consume binds the notification queue and runs workers until ctx is done.
// Undecodable messages are dropped; failed deliveries are retried once.
func (q *AMQP) Consume(ctx context.Context, workers int, d Deliverer) error {
	if workers <= 0 {
		workers = 1
	}
	ch, err := q.conn.Channel()
	if err != nil {
		return errors.Wrap(err, "open consumer channel")
	}
	defer ch.Close()

	if err := ch.Qos(workers, 0, false); err != nil {
		return errors.Wrap(err, "qos")
	}
	if _, err := ch.QueueDeclare(QueueName, true, false, false, false, nil); err != nil {
		return errors.Wrap(err, "declare queue")
	}
	if err := ch.QueueBind(QueueName, RoutingKey, Exchange, false, nil); err != nil {
		return errors.Wrap(err, "bind queue")
	}
	msgs, err := ch.Consume(QueueName, "", false, false, false, false, nil)
	if err != nil {
		return errors.Wrap(err, "consume")
	}

	var wg sync.WaitGroup
	for n := 0; n < workers; n++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case m, ok := <-msgs:
					if !ok {
						return
					}
					q.handle(ctx, m, d)
				}
			}
		}()
	}
	wg.Wait()
	return ctx.Err()
}

func (q *AMQP) handle(ctx context.Context, m amqp.Delivery, d Deliverer) {
	var env Envelope[domain.OwnerNotification]
	if err := json.Unmarshal(m.Body, &env); err != nil || env.Meta.Type != TypeOwnerNotification {
		q.logger.WarnContext(ctx, "dropping undecodable notification",
			slog.String("id", m.MessageId),
			slog.String("module", "queue"),
		)
		_ = m.Ack(false)
		return
	}

	if err := d.Deliver(ctx, env.Data); err != nil {
		q.logger.ErrorContext(ctx, "notification delivery failed",
			slog.String("id", env.Meta.ID),
			slog.Bool("redelivered", m.Redelivered),
			slog.String("error", err.Error()),
			slog.String("module", "queue"),
		)
		_ = m.Nack(false, !m.Redelivered)
		return
	}
	_ = m.Ack(false)
}

func (q *AMQP) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	_ = q.ch.Close()
	return q.conn.Close()
}
