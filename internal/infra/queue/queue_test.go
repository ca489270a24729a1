package queue

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/televi1/televi/internal/domain"
)

type recordingDeliverer struct {
	mu   sync.Mutex
	got  []domain.OwnerNotification
	fail bool
	done chan struct{}
}

func (r *recordingDeliverer) Deliver(ctx context.Context, n domain.OwnerNotification) error {
	r.mu.Lock()
	r.got = append(r.got, n)
	r.mu.Unlock()
	if r.done != nil {
		r.done <- struct{}{}
	}
	if r.fail {
		return errors.New("boom")
	}
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestEnvelopeWireFormat(t *testing.T) {
	env := NewEnvelope(TypeOwnerNotification, domain.OwnerNotification{AccountID: 7, Text: "revoked"})
	raw, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var wire struct {
		Meta map[string]any `json:"meta"`
		Data map[string]any `json:"data"`
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if wire.Meta["id"] == "" || wire.Meta["type"] != TypeOwnerNotification || wire.Meta["time"] == nil {
		t.Fatalf("unexpected meta %v", wire.Meta)
	}
	if wire.Data["user_id"] != float64(7) || wire.Data["text"] != "revoked" {
		t.Fatalf("unexpected data %v", wire.Data)
	}
	if NewEnvelope("x", 1).Meta.ID == env.Meta.ID {
		t.Fatalf("envelope ids must be unique")
	}
}

func TestInlineDeliversAfterCallerReturns(t *testing.T) {
	d := &recordingDeliverer{}
	q := NewInline(d, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	if err := q.Publish(ctx, domain.OwnerNotification{AccountID: 1, Text: "hi"}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	cancel()
	q.Wait()

	if len(d.got) != 1 || d.got[0].AccountID != 1 {
		t.Fatalf("expected one delivery, got %v", d.got)
	}
}

func TestInlineSwallowsDeliveryErrors(t *testing.T) {
	d := &recordingDeliverer{fail: true}
	q := NewInline(d, discardLogger())
	if err := q.Publish(context.Background(), domain.OwnerNotification{AccountID: 1}); err != nil {
		t.Fatalf("publish must not report delivery failures: %v", err)
	}
	q.Wait()
}

func TestAMQPRoundTrip(t *testing.T) {
	addr := os.Getenv("TELEVI_TEST_AMQP_URL")
	if addr == "" {
		t.Skip("TELEVI_TEST_AMQP_URL not set")
	}
	q, err := Dial(addr, discardLogger())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer q.Close()

	d := &recordingDeliverer{done: make(chan struct{}, 1)}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	go func() { _ = q.Consume(ctx, 1, d) }()

	// the consumer declares the queue; give it a moment before publishing
	time.Sleep(500 * time.Millisecond)
	if err := q.Publish(ctx, domain.OwnerNotification{AccountID: 9, Text: "hello"}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	select {
	case <-d.done:
	case <-ctx.Done():
		t.Fatalf("notification was not consumed")
	}
	if d.got[0].AccountID != 9 {
		t.Fatalf("unexpected notification %v", d.got[0])
	}
}
