// Package dispatch routes platform updates through middlewares and an ordered
// rule table to conversation handlers.
package dispatch

import (
	"context"
	"log/slog"

	"github.com/televi1/televi/internal/dispatch/fsm"
	"github.com/televi1/televi/internal/domain"
)

// Caller executes outbound platform calls.
type Caller interface {
	Do(ctx context.Context, call *domain.Call) error
}

// Event carries one update through middlewares, filters and the handler.
type Event struct {
	Update *domain.Update
	Bot    domain.Bot
	API    Caller
	// Account is the resolved chat user; nil means anonymous.
	Account *domain.Account
	State   *fsm.Context
	// Values holds fields extracted by the filters of the matched rule.
	Values map[string]any
	Logger *slog.Logger
}

func (ev *Event) Message() *domain.Message {
	return ev.Update.Message
}

func (ev *Event) Callback() *domain.CallbackQuery {
	return ev.Update.CallbackQuery
}

func (ev *Event) From() *domain.Sender {
	return ev.Update.Sender()
}

// ChatID is the chat to answer in: the event chat, or the sender for
// updates without one.
func (ev *Event) ChatID() int64 {
	if chat := ev.Update.EventChat(); chat != nil {
		return chat.ID
	}
	if from := ev.From(); from != nil {
		return from.ID
	}
	return 0
}

// Send executes a call right away.
func (ev *Event) Send(ctx context.Context, call *domain.Call) error {
	return ev.API.Do(ctx, call)
}

// Value returns an extracted filter field.
func Value[T any](ev *Event, key string) (T, bool) {
	v, ok := ev.Values[key]
	if !ok {
		var zero T
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}
