package dispatch

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/televi1/televi/internal/domain"
)

// Match is a filter verdict plus the fields it extracted.
type Match struct {
	OK     bool
	Fields map[string]any
}

func Matched(fields map[string]any) Match {
	return Match{OK: true, Fields: fields}
}

func verdict(ok bool) Match {
	return Match{OK: ok}
}

// Filter is a predicate over an event. Filters must not mutate the event.
type Filter func(ctx context.Context, ev *Event) (Match, error)

// RejectionError is returned by a filter that recognised the update but
// refused it. The router treats it as a non-match.
type RejectionError struct {
	Filter string
	Reason string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("%s: rejected: %s", e.Filter, e.Reason)
}

// And passes when every filter passes; fields are merged in order.
func And(filters ...Filter) Filter {
	return func(ctx context.Context, ev *Event) (Match, error) {
		var fields map[string]any
		for _, f := range filters {
			m, err := f(ctx, ev)
			if err != nil || !m.OK {
				return Match{}, err
			}
			for k, v := range m.Fields {
				if fields == nil {
					fields = make(map[string]any)
				}
				fields[k] = v
			}
		}
		return Matched(fields), nil
	}
}

// Not inverts a filter. Extracted fields are dropped.
func Not(f Filter) Filter {
	return func(ctx context.Context, ev *Event) (Match, error) {
		m, err := f(ctx, ev)
		if err != nil {
			return Match{}, err
		}
		return verdict(!m.OK), nil
	}
}

// Text matches messages whose text equals s.
func Text(s string) Filter {
	return func(ctx context.Context, ev *Event) (Match, error) {
		msg := ev.Message()
		return verdict(msg != nil && msg.Text == s), nil
	}
}

// AnyText matches messages with any of the given texts.
func AnyText(texts ...string) Filter {
	return func(ctx context.Context, ev *Event) (Match, error) {
		msg := ev.Message()
		if msg == nil {
			return verdict(false), nil
		}
		for _, s := range texts {
			if msg.Text == s {
				return verdict(true), nil
			}
		}
		return verdict(false), nil
	}
}

// Command matches "/name" with or without arguments. The arguments are
// extracted as "command_args".
func Command(name string) Filter {
	return func(ctx context.Context, ev *Event) (Match, error) {
		cmd, args, ok := ev.Message().Command()
		if !ok || cmd != name {
			return verdict(false), nil
		}
		return Matched(map[string]any{"command_args": args}), nil
	}
}

func CommandStart() Filter {
	return Command("start")
}

// CommandStartNoArgs matches a bare /start.
func CommandStartNoArgs() Filter {
	return func(ctx context.Context, ev *Event) (Match, error) {
		cmd, args, ok := ev.Message().Command()
		return verdict(ok && cmd == "start" && args == ""), nil
	}
}

// ContentType matches messages of one of the given kinds.
func ContentType(types ...domain.ContentType) Filter {
	return func(ctx context.Context, ev *Event) (Match, error) {
		msg := ev.Message()
		if msg == nil {
			return verdict(false), nil
		}
		ct := msg.ContentType()
		for _, t := range types {
			if ct == t {
				return verdict(true), nil
			}
		}
		return verdict(false), nil
	}
}

// PrivateChat matches events happening in a one-to-one chat.
func PrivateChat() Filter {
	return func(ctx context.Context, ev *Event) (Match, error) {
		chat := ev.Update.EventChat()
		return verdict(chat != nil && chat.Type == domain.ChatTypePrivate), nil
	}
}

// MasterBot matches updates delivered to the master bot.
func MasterBot() Filter {
	return func(ctx context.Context, ev *Event) (Match, error) {
		return verdict(ev.Bot.IsMaster), nil
	}
}

// BotOwner matches when the sender owns the bot the update arrived through.
func BotOwner() Filter {
	return func(ctx context.Context, ev *Event) (Match, error) {
		from := ev.From()
		if from == nil || ev.Account == nil {
			return verdict(false), nil
		}
		if !ev.Account.Is(from.ID) {
			return Match{}, fmt.Errorf("BotOwner: account %d does not belong to sender %d", ev.Account.ID, from.ID)
		}
		owner := ev.Bot.Owner
		if owner == nil {
			return Match{}, fmt.Errorf("BotOwner: owner of %s is not loaded", ev.Bot)
		}
		if !owner.IsChatUser() {
			if !ev.Bot.IsMaster {
				ev.logger().InfoContext(ctx, "bot owner is not a chat user",
					slog.String("bot", ev.Bot.String()),
					slog.String("module", "dispatch"),
				)
			}
			return verdict(false), nil
		}
		return verdict(owner.Is(from.ID)), nil
	}
}

func (ev *Event) logger() *slog.Logger {
	if ev.Logger != nil {
		return ev.Logger
	}
	return slog.Default()
}

// SharedChatKey is the Values key holding the chat id picked by ChatShared.
const SharedChatKey = "shared_chat_id"

// ChatShared matches a chat picked through a request-chat keyboard button
// carrying requestID.
func ChatShared(requestID int64) Filter {
	return func(ctx context.Context, ev *Event) (Match, error) {
		msg := ev.Message()
		if msg == nil || msg.ChatShared == nil || msg.ChatShared.RequestID != requestID {
			return verdict(false), nil
		}
		return Matched(map[string]any{SharedChatKey: msg.ChatShared.ChatID}), nil
	}
}
