// Package telegram holds the conversation handlers of the master bot and of
// owner bots, and the rule table that routes updates to them.
package telegram

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"

	"github.com/televi1/televi/internal/dispatch"
	"github.com/televi1/televi/internal/dispatch/fsm"
	"github.com/televi1/televi/internal/domain"
	"github.com/televi1/televi/internal/usecase"
)

var tracer = otel.Tracer("telegram")

type AccountResolver interface {
	Resolve(ctx context.Context, bot domain.Bot, sender *domain.Sender, chat *domain.Chat) (*domain.Account, error)
}

type BotService interface {
	Register(ctx context.Context, token string, from domain.Bot, owner domain.Account) (usecase.RegisterOutcome, error)
	ListOwned(ctx context.Context, owner domain.Account) ([]domain.Bot, error)
	GetOwned(ctx context.Context, owner domain.Account, id int64) (domain.Bot, error)
	ChangePower(ctx context.Context, bot domain.Bot, on bool) (domain.ChangePowerResult, domain.Bot, error)
}

type ContentService interface {
	CaptureMessage(ctx context.Context, bot domain.Bot, msg *domain.Message, sentBy *domain.Account) (domain.CapturedMessage, error)
	BuildBundle(ctx context.Context, bot domain.Bot, creator domain.Account, name string, messageIDs []int64, mustJoins []domain.MustJoin) (domain.Bundle, domain.ShareLink, error)
	LatestLink(ctx context.Context, bundle domain.Bundle) (domain.ShareLink, error)
	ListBundles(ctx context.Context, bot domain.Bot, creator domain.Account) ([]domain.Bundle, error)
	GetBundle(ctx context.Context, bot domain.Bot, creator domain.Account, id int64) (domain.Bundle, error)
	Replay(ctx context.Context, bot domain.Bot, queryID string, chatID int64, requester *domain.Account, requesterID int64) (usecase.ReplayResult, error)
}

type MembershipObserver interface {
	ObserveBot(ctx context.Context, bot domain.Bot, update *domain.ChatMemberUpdated) error
}

var (
	_ AccountResolver    = (*usecase.AccountUsecase)(nil)
	_ BotService         = (*usecase.BotUsecase)(nil)
	_ ContentService     = (*usecase.ContentUsecase)(nil)
	_ MembershipObserver = (*usecase.GateChecker)(nil)
)

// Wizard states.
const (
	StateNewBotToken        fsm.State = "new_bot:token"
	StateNewContentMessages fsm.State = "new_content:messages"
	StateNewContentMustJoin fsm.State = "new_content:must_joins"
	StateNewContentName     fsm.State = "new_content:name"
)

// Data bag keys.
const (
	dataMessages  = "messages"
	dataMustJoins = "must_joins"
)

type Handlers struct {
	accounts AccountResolver
	bots     BotService
	content  ContentService
	members  MembershipObserver
	logger   *slog.Logger
}

func NewHandlers(
	accounts AccountResolver,
	bots BotService,
	content ContentService,
	members MembershipObserver,
	logger *slog.Logger,
) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		accounts: accounts,
		bots:     bots,
		content:  content,
		members:  members,
		logger:   logger,
	}
}

// NewRouter builds the router serving every bot of the deployment.
func NewRouter(storage fsm.Storage, h *Handlers) *dispatch.Router {
	r := dispatch.NewRouter(storage, h.logger)
	r.Use(h.Authentication, h.PowerGate)
	r.Handle(h.Rules()...)
	return r
}

func simpleButton(name string) dispatch.Filter {
	return dispatch.CallbackDataFilter[SimpleButton](func(b *SimpleButton) bool {
		return b.Name == name
	})
}

func hasBundleKey(params map[string]string) bool {
	return params[dispatch.BundleKeyParam] != ""
}

// Rules is the dispatch table, in priority order.
func (h *Handlers) Rules() []dispatch.Rule {
	master := []dispatch.Filter{dispatch.MasterBot(), dispatch.PrivateChat()}
	owner := []dispatch.Filter{dispatch.Not(dispatch.MasterBot()), dispatch.PrivateChat(), dispatch.BotOwner()}
	with := func(base []dispatch.Filter, extra ...dispatch.Filter) []dispatch.Filter {
		return append(append([]dispatch.Filter{}, base...), extra...)
	}
	collecting := []fsm.State{StateNewContentMessages}
	mustJoins := []fsm.State{StateNewContentMustJoin}

	return []dispatch.Rule{
		{Name: "membership", On: dispatch.OnMyChatMember, Handler: h.membership},

		{Name: "master.start", On: dispatch.OnMessage, Filters: with(master, dispatch.CommandStart()), Handler: h.masterMenu},
		{Name: "master.cancel", On: dispatch.OnMessage, Filters: with(master, dispatch.Text(LabelCancel)), Handler: h.masterMenu},
		{Name: "master.register", On: dispatch.OnCallbackQuery, Filters: with(master, simpleButton(ButtonRegisterBot)), Handler: h.masterRegister},
		{Name: "master.token", On: dispatch.OnMessage, States: []fsm.State{StateNewBotToken}, Filters: with(master, dispatch.ContentType(domain.ContentTypeText)), Handler: h.masterToken},
		{Name: "master.bot_list", On: dispatch.OnCallbackQuery, Filters: with(master, simpleButton(ButtonBotList)), Handler: h.masterBotList},
		{Name: "master.bot_action", On: dispatch.OnCallbackQuery, Filters: with(master, dispatch.CallbackDataFilter[BotAction](nil)), Handler: h.masterBotAction},

		{Name: "link.bundle", On: dispatch.OnMessage, Filters: []dispatch.Filter{dispatch.Not(dispatch.MasterBot()), dispatch.StartQuery(dispatch.LinkBundle, hasBundleKey)}, Handler: h.bundleLink},

		{Name: "owner.start", On: dispatch.OnMessage, Filters: with(owner, dispatch.CommandStartNoArgs()), Handler: h.ownerMenu},
		{Name: "owner.cancel", On: dispatch.OnMessage, Filters: with(owner, dispatch.Text(LabelCancel)), Handler: h.ownerMenu},
		{Name: "owner.content_list", On: dispatch.OnCallbackQuery, Filters: with(owner, simpleButton(ButtonContentList)), Handler: h.ownerContentList},
		{Name: "owner.content_action", On: dispatch.OnCallbackQuery, Filters: with(owner, dispatch.CallbackDataFilter[ContentAction](nil)), Handler: h.ownerContentAction},
		{Name: "owner.new_content", On: dispatch.OnCallbackQuery, Filters: with(owner, simpleButton(ButtonNewContent)), Handler: h.wizardStart},

		{Name: "wizard.messages.reset", On: dispatch.OnMessage, States: collecting, Filters: with(owner, dispatch.Text(LabelReset)), Handler: h.wizardResetMessages},
		{Name: "wizard.messages.end", On: dispatch.OnMessage, States: collecting, Filters: with(owner, dispatch.Text(LabelEnd)), Handler: h.wizardEndMessages},
		{Name: "wizard.messages.capture", On: dispatch.OnMessage, States: collecting, Filters: owner, Handler: h.wizardCapture},
		{Name: "wizard.must_joins.reset", On: dispatch.OnMessage, States: mustJoins, Filters: with(owner, dispatch.Text(LabelReset)), Handler: h.wizardResetMustJoins},
		{Name: "wizard.must_joins.end", On: dispatch.OnMessage, States: mustJoins, Filters: with(owner, dispatch.Text(LabelEnd)), Handler: h.wizardEndMustJoins},
		{Name: "wizard.must_joins.channel", On: dispatch.OnMessage, States: mustJoins, Filters: with(owner, dispatch.ChatShared(RequestChannel)), Handler: h.wizardMustJoin},
		{Name: "wizard.must_joins.group", On: dispatch.OnMessage, States: mustJoins, Filters: with(owner, dispatch.ChatShared(RequestGroup)), Handler: h.wizardMustJoin},
		{Name: "wizard.name", On: dispatch.OnMessage, States: []fsm.State{StateNewContentName}, Filters: with(owner, dispatch.ContentType(domain.ContentTypeText)), Handler: h.wizardName},
	}
}

// replaceMessage shows text on the message carrying the pressed button and
// returns the callback answer.
func replaceMessage(ctx context.Context, ev *dispatch.Event, text string, markup domain.Markup) (*domain.Call, error) {
	cq := ev.Callback()
	var call *domain.Call
	if cq.Message != nil {
		call = domain.EditText(cq.Message.Chat.ID, cq.Message.MessageID, text)
	} else {
		call = domain.SendText(ev.ChatID(), text)
	}
	if err := ev.Send(ctx, call.WithMarkup(markup)); err != nil {
		return nil, errors.Wrap(err, "replaceMessage")
	}
	return domain.AnswerCallback(cq.ID, ""), nil
}

func notFound(ev *dispatch.Event) *domain.Call {
	return domain.AnswerCallback(ev.Callback().ID, textNotFound)
}

func (h *Handlers) membership(ctx context.Context, ev *dispatch.Event) (*domain.Call, error) {
	if err := h.members.ObserveBot(ctx, ev.Bot, ev.Update.MyChatMember); err != nil {
		return nil, errors.Wrap(err, "Handlers.membership")
	}
	return nil, nil
}
