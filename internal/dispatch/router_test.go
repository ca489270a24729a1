package dispatch

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/televi1/televi/internal/dispatch/fsm"
	"github.com/televi1/televi/internal/domain"
)

type recordingCaller struct {
	calls []*domain.Call
}

func (c *recordingCaller) Do(ctx context.Context, call *domain.Call) error {
	c.calls = append(c.calls, call)
	return nil
}

func textUpdate(text string) *domain.Update {
	return &domain.Update{UpdateID: 1, Message: &domain.Message{
		MessageID: 1,
		Text:      text,
		Chat:      domain.Chat{ID: 10, Type: domain.ChatTypePrivate},
		From:      &domain.Sender{ID: 10},
	}}
}

func reply(text string) Handler {
	return func(ctx context.Context, ev *Event) (*domain.Call, error) {
		return domain.SendText(ev.ChatID(), text), nil
	}
}

func always(ok bool) Filter {
	return func(ctx context.Context, ev *Event) (Match, error) {
		return verdict(ok), nil
	}
}

func TestRouterFirstMatchWins(t *testing.T) {
	r := NewRouter(fsm.NewMemoryStorage(), nil)
	r.Handle(
		Rule{Name: "skip", On: OnMessage, Filters: []Filter{always(false)}, Handler: reply("skip")},
		Rule{Name: "first", On: OnMessage, Filters: []Filter{Text("hi")}, Handler: reply("first")},
		Rule{Name: "second", On: OnMessage, Handler: reply("second")},
	)

	call, err := r.Dispatch(context.Background(), domain.Bot{ID: 1}, &recordingCaller{}, textUpdate("hi"))
	if err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	if call == nil || call.Text != "first" {
		t.Fatalf("expected first rule, got %+v", call)
	}
}

func TestRouterRequiresState(t *testing.T) {
	storage := fsm.NewMemoryStorage()
	r := NewRouter(storage, nil)
	r.Handle(
		Rule{Name: "naming", On: OnMessage, States: []fsm.State{"wizard:name"}, Handler: reply("named")},
		Rule{Name: "fallback", On: OnMessage, Handler: reply("fallback")},
	)

	ctx := context.Background()
	bot := domain.Bot{ID: 1}
	call, _ := r.Dispatch(ctx, bot, &recordingCaller{}, textUpdate("x"))
	if call.Text != "fallback" {
		t.Fatalf("expected fallback without state, got %q", call.Text)
	}

	key := fsm.Key{BotID: 1, ChatID: 10, UserID: 10}
	if err := storage.SetState(ctx, key, "wizard:name"); err != nil {
		t.Fatalf("set state: %v", err)
	}
	call, _ = r.Dispatch(ctx, bot, &recordingCaller{}, textUpdate("x"))
	if call.Text != "named" {
		t.Fatalf("expected state rule, got %q", call.Text)
	}

	// state is per bot
	call, _ = r.Dispatch(ctx, domain.Bot{ID: 2}, &recordingCaller{}, textUpdate("x"))
	if call.Text != "fallback" {
		t.Fatalf("state leaked across bots, got %q", call.Text)
	}
}

func TestRouterSkipsRejectedRules(t *testing.T) {
	r := NewRouter(fsm.NewMemoryStorage(), nil)
	reject := func(ctx context.Context, ev *Event) (Match, error) {
		return Match{}, &RejectionError{Filter: "test", Reason: "no"}
	}
	r.Handle(
		Rule{Name: "rejecting", On: OnMessage, Filters: []Filter{reject}, Handler: reply("rejecting")},
		Rule{Name: "next", On: OnMessage, Handler: reply("next")},
	)

	call, err := r.Dispatch(context.Background(), domain.Bot{ID: 1}, &recordingCaller{}, textUpdate("x"))
	if err != nil || call.Text != "next" {
		t.Fatalf("expected next rule, got %+v %v", call, err)
	}
}

func TestRouterPropagatesFilterErrors(t *testing.T) {
	r := NewRouter(fsm.NewMemoryStorage(), nil)
	boom := errors.New("boom")
	r.Handle(Rule{Name: "broken", On: OnMessage, Filters: []Filter{func(ctx context.Context, ev *Event) (Match, error) {
		return Match{}, boom
	}}, Handler: reply("never")})

	_, err := r.Dispatch(context.Background(), domain.Bot{ID: 1}, &recordingCaller{}, textUpdate("x"))
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestRouterDropsUnmatched(t *testing.T) {
	r := NewRouter(fsm.NewMemoryStorage(), nil)
	r.Handle(Rule{Name: "callbacks", On: OnCallbackQuery, Handler: reply("cb")})

	call, err := r.Dispatch(context.Background(), domain.Bot{ID: 1}, &recordingCaller{}, textUpdate("x"))
	if err != nil || call != nil {
		t.Fatalf("expected drop, got %+v %v", call, err)
	}

	call, err = r.Dispatch(context.Background(), domain.Bot{ID: 1}, &recordingCaller{}, &domain.Update{UpdateID: 2})
	if err != nil || call != nil {
		t.Fatalf("expected drop of empty update, got %+v %v", call, err)
	}
}

func TestRouterExtractsFieldsForHandler(t *testing.T) {
	r := NewRouter(fsm.NewMemoryStorage(), nil)
	var args string
	r.Handle(Rule{Name: "start", On: OnMessage, Filters: []Filter{Command("start")}, Handler: func(ctx context.Context, ev *Event) (*domain.Call, error) {
		args, _ = Value[string](ev, "command_args")
		return nil, nil
	}})

	if _, err := r.Dispatch(context.Background(), domain.Bot{ID: 1}, &recordingCaller{}, textUpdate("/start abc")); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	if args != "abc" {
		t.Fatalf("expected extracted args, got %q", args)
	}
}

func TestMiddlewareOrderAndShortCircuit(t *testing.T) {
	r := NewRouter(fsm.NewMemoryStorage(), nil)
	var order []string
	trace := func(name string) Middleware {
		return func(ctx context.Context, ev *Event, next Next) (*domain.Call, error) {
			order = append(order, name+">")
			call, err := next(ctx, ev)
			order = append(order, "<"+name)
			return call, err
		}
	}
	r.Use(trace("auth"), trace("power"))
	r.Handle(Rule{Name: "all", On: OnMessage, Handler: func(ctx context.Context, ev *Event) (*domain.Call, error) {
		order = append(order, "handler")
		return nil, nil
	}})

	if _, err := r.Dispatch(context.Background(), domain.Bot{ID: 1}, &recordingCaller{}, textUpdate("x")); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	want := []string{"auth>", "power>", "handler", "<power", "<auth"}
	if !reflect.DeepEqual(order, want) {
		t.Fatalf("expected %v, got %v", want, order)
	}

	order = nil
	blocked := NewRouter(fsm.NewMemoryStorage(), nil)
	blocked.Use(func(ctx context.Context, ev *Event, next Next) (*domain.Call, error) {
		return domain.SendText(ev.ChatID(), "blocked"), nil
	})
	blocked.Handle(Rule{Name: "all", On: OnMessage, Handler: func(ctx context.Context, ev *Event) (*domain.Call, error) {
		order = append(order, "handler")
		return nil, nil
	}})
	call, _ := blocked.Dispatch(context.Background(), domain.Bot{ID: 1}, &recordingCaller{}, textUpdate("x"))
	if call == nil || call.Text != "blocked" || len(order) != 0 {
		t.Fatalf("middleware should have short-circuited, got %+v %v", call, order)
	}
}
