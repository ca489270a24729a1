// Package queue carries owner notifications from the webhook processes to the
// delivery worker.
package queue

import (
	"time"

	"github.com/google/uuid"
)

const TypeOwnerNotification = "televi.owner_notification.v1"

type Meta struct {
	// Unique event ID
	ID string `json:"id"`
	// Event name and version
	Type string    `json:"type"`
	Time time.Time `json:"time"`
	// Trace / request correlation ID
	CorrelationID *string `json:"correlation_id,omitempty"`
}

type Envelope[T any] struct {
	Meta Meta `json:"meta"`
	Data T    `json:"data"`
}

func NewEnvelope[T any](typ string, data T) Envelope[T] {
	return Envelope[T]{
		Meta: Meta{
			ID:   uuid.NewString(),
			Type: typ,
			Time: time.Now().UTC(),
		},
		Data: data,
	}
}
