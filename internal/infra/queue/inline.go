package queue

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/televi1/televi/internal/domain"
	"github.com/televi1/televi/internal/usecase"
)

const inlineDeliveryTimeout = 30 * time.Second

// Inline delivers notifications in-process on their own goroutine. It stands
// in for the broker when no AMQP URL is configured.
type Inline struct {
	deliverer Deliverer
	logger    *slog.Logger
	wg        sync.WaitGroup
}

var _ usecase.Notifier = (*Inline)(nil)

func NewInline(d Deliverer, logger *slog.Logger) *Inline {
	return &Inline{deliverer: d, logger: logger}
}

func (q *Inline) Publish(ctx context.Context, n domain.OwnerNotification) error {
	ctx = context.WithoutCancel(ctx)
	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		ctx, cancel := context.WithTimeout(ctx, inlineDeliveryTimeout)
		defer cancel()
		if err := q.deliverer.Deliver(ctx, n); err != nil {
			q.logger.ErrorContext(ctx, "inline notification delivery failed",
				slog.Int64("account", n.AccountID),
				slog.String("error", err.Error()),
				slog.String("module", "queue"),
			)
		}
	}()
	return nil
}

// Wait blocks until every published notification has been attempted.
func (q *Inline) Wait() {
	q.wg.Wait()
}
