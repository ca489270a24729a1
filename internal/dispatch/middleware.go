package dispatch

import (
	"context"

	"github.com/televi1/televi/internal/domain"
)

// Next continues the chain.
type Next func(ctx context.Context, ev *Event) (*domain.Call, error)

// Middleware wraps dispatch. It may short-circuit by not calling next, change
// the event before calling it, or act on the result.
type Middleware func(ctx context.Context, ev *Event, next Next) (*domain.Call, error)

func chain(middlewares []Middleware, final Next) Next {
	next := final
	for i := len(middlewares) - 1; i >= 0; i-- {
		mw, inner := middlewares[i], next
		next = func(ctx context.Context, ev *Event) (*domain.Call, error) {
			return mw(ctx, ev, inner)
		}
	}
	return next
}
