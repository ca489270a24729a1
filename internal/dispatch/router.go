package dispatch

import (
	"context"
	"log/slog"
	"slices"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/televi1/televi/internal/dispatch/fsm"
	"github.com/televi1/televi/internal/domain"
)

var tracer = otel.Tracer("dispatch")

// Trigger selects the update family a rule reacts to.
type Trigger int

const (
	OnMessage Trigger = iota + 1
	OnCallbackQuery
	OnMyChatMember
)

// Handler reacts to a matched event. It either performs its platform calls
// itself and returns nil, or returns one deferred call for the router's
// caller to deliver.
type Handler func(ctx context.Context, ev *Event) (*domain.Call, error)

// Rule is one row of the dispatch table.
type Rule struct {
	Name    string
	On      Trigger
	States  []fsm.State
	Filters []Filter
	Handler Handler
}

// Router matches updates against rules in registration order.
type Router struct {
	rules       []Rule
	middlewares []Middleware
	storage     fsm.Storage
	logger      *slog.Logger
}

func NewRouter(storage fsm.Storage, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		storage: storage,
		logger:  logger,
	}
}

// Use appends middlewares; they run in the order given.
func (r *Router) Use(middlewares ...Middleware) {
	r.middlewares = append(r.middlewares, middlewares...)
}

// Handle appends rules.
func (r *Router) Handle(rules ...Rule) {
	r.rules = append(r.rules, rules...)
}

func (r *Router) Rules() []Rule {
	return r.rules
}

// NewEvent prepares the event for an update delivered to bot.
func (r *Router) NewEvent(bot domain.Bot, api Caller, update *domain.Update) *Event {
	ev := &Event{
		Update: update,
		Bot:    bot,
		API:    api,
		Values: make(map[string]any),
		Logger: r.logger.With(slog.String("bot", bot.String()), slog.Int64("update", update.UpdateID)),
	}
	if from := update.Sender(); from != nil {
		ev.State = fsm.NewContext(r.storage, fsm.Key{BotID: bot.ID, ChatID: ev.ChatID(), UserID: from.ID})
	}
	return ev
}

// Dispatch runs the middlewares and the first matching rule. Unmatched
// updates return (nil, nil).
func (r *Router) Dispatch(ctx context.Context, bot domain.Bot, api Caller, update *domain.Update) (*domain.Call, error) {
	ctx, span := tracer.Start(ctx, "Dispatch.Router.Dispatch")
	defer span.End()

	ev := r.NewEvent(bot, api, update)
	call, err := chain(r.middlewares, r.route)(ctx, ev)
	if err != nil {
		span.RecordError(errors.Wrap(err, "Router.Dispatch"))
	}
	return call, err
}

func (r *Router) route(ctx context.Context, ev *Event) (*domain.Call, error) {
	trigger := triggerOf(ev.Update)
	if trigger == 0 {
		return nil, nil
	}

	var (
		current fsm.State
		loaded  bool
	)
	for _, rule := range r.rules {
		if rule.On != trigger {
			continue
		}

		if len(rule.States) > 0 {
			if ev.State == nil {
				continue
			}
			if !loaded {
				s, err := ev.State.State(ctx)
				if err != nil {
					return nil, errors.Wrap(err, "Router.route: load state")
				}
				current, loaded = s, true
			}
			if !slices.Contains(rule.States, current) {
				continue
			}
		}

		m, err := And(rule.Filters...)(ctx, ev)
		if err != nil {
			var rejection *RejectionError
			if errors.As(err, &rejection) {
				ev.Logger.DebugContext(ctx, "rule rejected update",
					slog.String("rule", rule.Name),
					slog.String("reason", rejection.Reason),
				)
				continue
			}
			return nil, errors.Wrapf(err, "Router.route: filters of %s", rule.Name)
		}
		if !m.OK {
			continue
		}

		for k, v := range m.Fields {
			ev.Values[k] = v
		}
		ev.Logger.DebugContext(ctx, "rule matched", slog.String("rule", rule.Name))
		trace.SpanFromContext(ctx).SetAttributes(attribute.String("rule", rule.Name))
		return rule.Handler(ctx, ev)
	}

	ev.Logger.DebugContext(ctx, "update dropped: no rule matched")
	return nil, nil
}

func triggerOf(u *domain.Update) Trigger {
	switch {
	case u.Message != nil:
		return OnMessage
	case u.CallbackQuery != nil:
		return OnCallbackQuery
	case u.MyChatMember != nil:
		return OnMyChatMember
	}
	return 0
}
