package telegram

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/televi1/televi/internal/dispatch"
	"github.com/televi1/televi/internal/dispatch/fsm"
	"github.com/televi1/televi/internal/domain"
	"github.com/televi1/televi/internal/usecase"
)

const (
	ownerUserID    int64 = 100
	strangerUserID int64 = 300
)

type recordingCaller struct {
	mu    sync.Mutex
	calls []*domain.Call
}

func (c *recordingCaller) Do(ctx context.Context, call *domain.Call) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, call)
	return nil
}

type fakeAccounts struct {
	known map[int64]domain.Account
	next  int64
}

func (f *fakeAccounts) Resolve(ctx context.Context, bot domain.Bot, sender *domain.Sender, chat *domain.Chat) (*domain.Account, error) {
	if sender == nil {
		return nil, nil
	}
	if a, ok := f.known[sender.ID]; ok {
		return &a, nil
	}
	if chat == nil || chat.Type != domain.ChatTypePrivate {
		return nil, nil
	}
	f.next++
	uid, botID := sender.ID, bot.ID
	a := domain.Account{ID: 1000 + f.next, Kind: domain.AccountKindChat, PlatformUserID: &uid, BotID: &botID}
	f.known[sender.ID] = a
	return &a, nil
}

type fakeBots struct {
	owned    []domain.Bot
	outcomes map[string]usecase.RegisterOutcome
	power    []bool
}

func (f *fakeBots) Register(ctx context.Context, token string, from domain.Bot, owner domain.Account) (usecase.RegisterOutcome, error) {
	if o, ok := f.outcomes[token]; ok {
		return o, nil
	}
	return usecase.RegisterOutcome{Result: domain.RegisterNotAToken}, nil
}

func (f *fakeBots) ListOwned(ctx context.Context, owner domain.Account) ([]domain.Bot, error) {
	var out []domain.Bot
	for _, b := range f.owned {
		if b.OwnerID == owner.ID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeBots) GetOwned(ctx context.Context, owner domain.Account, id int64) (domain.Bot, error) {
	for _, b := range f.owned {
		if b.ID == id && b.OwnerID == owner.ID {
			return b, nil
		}
	}
	return domain.Bot{}, domain.NotFoundError{Resource: "bot"}
}

func (f *fakeBots) ChangePower(ctx context.Context, bot domain.Bot, on bool) (domain.ChangePowerResult, domain.Bot, error) {
	f.power = append(f.power, on)
	if bot.IsPoweredOff == !on {
		return domain.ChangePowerAlreadyThere, bot, nil
	}
	bot.IsPoweredOff = !on
	return domain.ChangePowerDone, bot, nil
}

type builtBundle struct {
	name      string
	ids       []int64
	mustJoins []domain.MustJoin
}

type fakeContent struct {
	built   []builtBundle
	bundles map[int64]domain.Bundle
	replay  usecase.ReplayResult
	queries []string
}

func (f *fakeContent) CaptureMessage(ctx context.Context, bot domain.Bot, msg *domain.Message, sentBy *domain.Account) (domain.CapturedMessage, error) {
	switch msg.ContentType() {
	case domain.ContentTypeUnknown, domain.ContentTypeChatShared:
		return domain.CapturedMessage{}, domain.ErrUnsupportedContent
	}
	return domain.CapturedMessage{ID: 1000 + msg.MessageID, BotID: bot.ID, PlatformID: msg.MessageID}, nil
}

func (f *fakeContent) BuildBundle(ctx context.Context, bot domain.Bot, creator domain.Account, name string, messageIDs []int64, mustJoins []domain.MustJoin) (domain.Bundle, domain.ShareLink, error) {
	f.built = append(f.built, builtBundle{name: name, ids: messageIDs, mustJoins: mustJoins})
	bundle := domain.Bundle{ID: int64(len(f.built)), Name: name, BotID: bot.ID, CreatedByID: creator.ID, MessageIDs: messageIDs, MustJoins: mustJoins}
	return bundle, domain.ShareLink{ID: 1, QueryID: "q1w2e3r4t5y6u7i8o9p0", BundleID: bundle.ID}, nil
}

func (f *fakeContent) LatestLink(ctx context.Context, bundle domain.Bundle) (domain.ShareLink, error) {
	return domain.ShareLink{ID: 2, QueryID: "latestlatestlatest00", BundleID: bundle.ID}, nil
}

func (f *fakeContent) ListBundles(ctx context.Context, bot domain.Bot, creator domain.Account) ([]domain.Bundle, error) {
	var out []domain.Bundle
	for _, b := range f.bundles {
		if b.BotID == bot.ID && b.CreatedByID == creator.ID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeContent) GetBundle(ctx context.Context, bot domain.Bot, creator domain.Account, id int64) (domain.Bundle, error) {
	b, ok := f.bundles[id]
	if !ok || b.BotID != bot.ID || b.CreatedByID != creator.ID {
		return domain.Bundle{}, domain.NotFoundError{Resource: "bundle"}
	}
	return b, nil
}

func (f *fakeContent) Replay(ctx context.Context, bot domain.Bot, queryID string, chatID int64, requester *domain.Account, requesterID int64) (usecase.ReplayResult, error) {
	f.queries = append(f.queries, queryID)
	return f.replay, nil
}

type fakeMembers struct {
	observed []*domain.ChatMemberUpdated
}

func (f *fakeMembers) ObserveBot(ctx context.Context, bot domain.Bot, update *domain.ChatMemberUpdated) error {
	f.observed = append(f.observed, update)
	return nil
}

type fixture struct {
	storage  *fsm.MemoryStorage
	router   *dispatch.Router
	caller   *recordingCaller
	accounts *fakeAccounts
	bots     *fakeBots
	content  *fakeContent
	members  *fakeMembers
	master   domain.Bot
	shop     domain.Bot
	owner    domain.Account
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	uid, masterID := ownerUserID, int64(1)
	staff := domain.Account{ID: 1, Kind: domain.AccountKindStaff, Username: "staff"}
	master := domain.Bot{ID: masterID, Username: "televi_bot", IsMaster: true, OwnerID: staff.ID, Owner: &staff}
	owner := domain.Account{ID: 5, Kind: domain.AccountKindChat, PlatformUserID: &uid, BotID: &masterID}
	shop := domain.Bot{ID: 2, Username: "shop_bot", OwnerID: owner.ID, Owner: &owner, RegisteredFromID: &masterID, RegisteredFrom: &master}

	f := &fixture{
		storage:  fsm.NewMemoryStorage(),
		caller:   &recordingCaller{},
		accounts: &fakeAccounts{known: map[int64]domain.Account{ownerUserID: owner}},
		bots:     &fakeBots{owned: []domain.Bot{shop}, outcomes: map[string]usecase.RegisterOutcome{}},
		content:  &fakeContent{bundles: map[int64]domain.Bundle{}},
		members:  &fakeMembers{},
		master:   master,
		shop:     shop,
		owner:    owner,
	}
	h := NewHandlers(f.accounts, f.bots, f.content, f.members, nil)
	f.router = NewRouter(f.storage, h)
	return f
}

func (f *fixture) dispatch(t *testing.T, bot domain.Bot, update *domain.Update) *domain.Call {
	t.Helper()
	call, err := f.router.Dispatch(context.Background(), bot, f.caller, update)
	if err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	return call
}

func (f *fixture) state(t *testing.T, bot domain.Bot, userID int64) (fsm.State, fsm.Data) {
	t.Helper()
	key := fsm.Key{BotID: bot.ID, ChatID: userID, UserID: userID}
	state, err := f.storage.State(context.Background(), key)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	data, err := f.storage.Data(context.Background(), key)
	if err != nil {
		t.Fatalf("data: %v", err)
	}
	return state, data
}

var nextMessageID int64 = 10

func message(userID int64, text string) *domain.Update {
	nextMessageID++
	return &domain.Update{UpdateID: nextMessageID, Message: &domain.Message{
		MessageID: nextMessageID,
		From:      &domain.Sender{ID: userID, FirstName: "user"},
		Chat:      domain.Chat{ID: userID, Type: domain.ChatTypePrivate},
		Text:      text,
	}}
}

func photo(userID int64) *domain.Update {
	u := message(userID, "")
	u.Message.Photo = []domain.FileAttachment{{FileID: "AgAD", FileUniqueID: "u1", Width: 90, Height: 90}}
	return u
}

func chatShared(userID, requestID, chatID int64) *domain.Update {
	u := message(userID, "")
	u.Message.ChatShared = &domain.ChatShared{RequestID: requestID, ChatID: chatID}
	return u
}

func callback(userID int64, cd dispatch.CallbackData) *domain.Update {
	nextMessageID++
	return &domain.Update{UpdateID: nextMessageID, CallbackQuery: &domain.CallbackQuery{
		ID:   "cb",
		From: domain.Sender{ID: userID},
		Message: &domain.Message{
			MessageID: 50,
			Chat:      domain.Chat{ID: userID, Type: domain.ChatTypePrivate},
		},
		Data: dispatch.MustPackCallback(cd),
	}}
}

func TestNewContentWizard(t *testing.T) {
	f := newFixture(t)

	f.dispatch(t, f.shop, callback(ownerUserID, &SimpleButton{Name: ButtonNewContent}))
	if state, _ := f.state(t, f.shop, ownerUserID); state != StateNewContentMessages {
		t.Fatalf("expected messages state, got %q", state)
	}

	call := f.dispatch(t, f.shop, message(ownerUserID, "End"))
	if call == nil || call.Text != textNothingAdded {
		t.Fatalf("expected empty list prompt, got %+v", call)
	}
	if state, _ := f.state(t, f.shop, ownerUserID); state != StateNewContentMessages {
		t.Fatalf("empty End must not leave the state, got %q", state)
	}

	text := message(ownerUserID, "hello")
	f.dispatch(t, f.shop, text)
	pic := photo(ownerUserID)
	f.dispatch(t, f.shop, pic)
	call = f.dispatch(t, f.shop, pic)
	if call == nil || call.Text != textKeepAdding(2) {
		t.Fatalf("redelivered message must not be added twice, got %+v", call)
	}

	f.dispatch(t, f.shop, message(ownerUserID, "End"))
	if state, _ := f.state(t, f.shop, ownerUserID); state != StateNewContentMustJoin {
		t.Fatalf("expected must-joins state, got %q", state)
	}

	call = f.dispatch(t, f.shop, chatShared(ownerUserID, RequestChannel, -1001))
	if call == nil || call.Text != textMustJoinAdded(1) {
		t.Fatalf("unexpected reply %+v", call)
	}

	f.dispatch(t, f.shop, message(ownerUserID, "End"))
	if state, _ := f.state(t, f.shop, ownerUserID); state != StateNewContentName {
		t.Fatalf("expected name state, got %q", state)
	}

	call = f.dispatch(t, f.shop, message(ownerUserID, "  Spring pack "))
	if len(f.content.built) != 1 {
		t.Fatalf("expected one bundle, got %d", len(f.content.built))
	}
	built := f.content.built[0]
	if built.name != "Spring pack" {
		t.Fatalf("unexpected name %q", built.name)
	}
	if len(built.ids) != 2 || built.ids[0] != 1000+text.Message.MessageID || built.ids[1] != 1000+pic.Message.MessageID {
		t.Fatalf("unexpected messages %v", built.ids)
	}
	if len(built.mustJoins) != 1 || built.mustJoins[0] != (domain.MustJoin{ChatID: -1001, IsChannel: true}) {
		t.Fatalf("unexpected must-joins %v", built.mustJoins)
	}
	if call == nil || !strings.Contains(call.Text, "https://t.me/shop_bot?start=") {
		t.Fatalf("expected share link in reply, got %+v", call)
	}

	state, data := f.state(t, f.shop, ownerUserID)
	if state != fsm.None || len(data) != 0 {
		t.Fatalf("expected cleared conversation, got %q %v", state, data)
	}
}

func TestWizardResetClearsList(t *testing.T) {
	f := newFixture(t)

	f.dispatch(t, f.shop, callback(ownerUserID, &SimpleButton{Name: ButtonNewContent}))
	f.dispatch(t, f.shop, message(ownerUserID, "first"))
	f.dispatch(t, f.shop, message(ownerUserID, "Reset"))

	_, data := f.state(t, f.shop, ownerUserID)
	if _, ok := data[dataMessages]; ok {
		t.Fatalf("expected messages to be cleared, got %v", data)
	}
	call := f.dispatch(t, f.shop, message(ownerUserID, "End"))
	if call.Text != textNothingAdded {
		t.Fatalf("expected empty list prompt after reset, got %q", call.Text)
	}
}

func TestWizardKeepsRepeatedMustJoins(t *testing.T) {
	f := newFixture(t)

	f.dispatch(t, f.shop, callback(ownerUserID, &SimpleButton{Name: ButtonNewContent}))
	f.dispatch(t, f.shop, message(ownerUserID, "hello"))
	f.dispatch(t, f.shop, message(ownerUserID, "End"))

	f.dispatch(t, f.shop, chatShared(ownerUserID, RequestChannel, -1001))
	call := f.dispatch(t, f.shop, chatShared(ownerUserID, RequestChannel, -1001))
	if call == nil || call.Text != textMustJoinAdded(2) {
		t.Fatalf("expected second share to be counted, got %+v", call)
	}

	f.dispatch(t, f.shop, message(ownerUserID, "End"))
	f.dispatch(t, f.shop, message(ownerUserID, "pack"))
	if len(f.content.built) != 1 {
		t.Fatalf("expected one bundle, got %d", len(f.content.built))
	}
	joins := f.content.built[0].mustJoins
	want := domain.MustJoin{ChatID: -1001, IsChannel: true}
	if len(joins) != 2 || joins[0] != want || joins[1] != want {
		t.Fatalf("expected the chat twice, got %v", joins)
	}
}

func TestWizardCancelClearsState(t *testing.T) {
	f := newFixture(t)

	f.dispatch(t, f.shop, callback(ownerUserID, &SimpleButton{Name: ButtonNewContent}))
	f.dispatch(t, f.shop, message(ownerUserID, "first"))
	call := f.dispatch(t, f.shop, message(ownerUserID, "Cancel"))
	if call == nil || call.Text != textOwnerMenu {
		t.Fatalf("expected owner menu, got %+v", call)
	}
	state, data := f.state(t, f.shop, ownerUserID)
	if state != fsm.None || len(data) != 0 {
		t.Fatalf("expected cleared conversation, got %q %v", state, data)
	}
}

func TestPowerGateNotifiesOnlyOwner(t *testing.T) {
	f := newFixture(t)
	off := f.shop
	off.IsPoweredOff = true

	call := f.dispatch(t, off, message(ownerUserID, "/start"))
	if call != nil {
		t.Fatalf("powered-off bot must not reply through the webhook, got %+v", call)
	}
	if len(f.caller.calls) != 1 {
		t.Fatalf("expected exactly one notice, got %d", len(f.caller.calls))
	}
	notice := f.caller.calls[0]
	if notice.ChatID != ownerUserID || !strings.Contains(notice.Text, "@televi_bot") {
		t.Fatalf("unexpected notice %+v", notice)
	}

	f.caller.calls = nil
	f.dispatch(t, off, message(strangerUserID, "/start"))
	if len(f.caller.calls) != 0 {
		t.Fatalf("strangers must be dropped silently, got %d calls", len(f.caller.calls))
	}
}

func TestMasterRegisterFlow(t *testing.T) {
	f := newFixture(t)
	const user int64 = 200
	f.bots.outcomes["123:abc"] = usecase.RegisterOutcome{Result: domain.RegisterDone, Bot: domain.Bot{ID: 9, Username: "new_bot"}}

	call := f.dispatch(t, f.master, message(user, "/start"))
	if call == nil || call.Text != textMasterMenu {
		t.Fatalf("expected master menu, got %+v", call)
	}
	menu := call.Markup.(domain.InlineKeyboard)
	if len(menu.InlineKeyboard) != 1 {
		t.Fatalf("user without bots must not see the bot list, got %v", menu)
	}

	f.dispatch(t, f.master, callback(user, &SimpleButton{Name: ButtonRegisterBot}))
	if state, _ := f.state(t, f.master, user); state != StateNewBotToken {
		t.Fatalf("expected token state, got %q", state)
	}

	call = f.dispatch(t, f.master, message(user, "not a token"))
	if call == nil || call.Text != textNotAToken {
		t.Fatalf("expected re-prompt, got %+v", call)
	}
	if state, _ := f.state(t, f.master, user); state != StateNewBotToken {
		t.Fatalf("bad token must keep the state, got %q", state)
	}

	call = f.dispatch(t, f.master, message(user, "123:abc"))
	if call == nil || !strings.Contains(call.Text, "@new_bot") {
		t.Fatalf("expected confirmation, got %+v", call)
	}
	if state, _ := f.state(t, f.master, user); state != fsm.None {
		t.Fatalf("expected cleared state, got %q", state)
	}
}

func TestMasterBotPowerToggle(t *testing.T) {
	f := newFixture(t)

	call := f.dispatch(t, f.master, callback(ownerUserID, &BotAction{PK: f.shop.ID, Action: BotPowerOff}))
	if call == nil || call.Method != domain.MethodAnswerCallbackQuery || call.Text != textPowerChanged("shop_bot", false) {
		t.Fatalf("unexpected answer %+v", call)
	}
	if len(f.bots.power) != 1 || f.bots.power[0] {
		t.Fatalf("expected one power-off request, got %v", f.bots.power)
	}
	if len(f.caller.calls) != 1 || f.caller.calls[0].Method != domain.MethodEditMessageText {
		t.Fatalf("expected detail edit, got %+v", f.caller.calls)
	}

	call = f.dispatch(t, f.master, callback(strangerUserID, &BotAction{PK: f.shop.ID, Action: BotGet}))
	if call == nil || call.Text != textNotFound {
		t.Fatalf("foreign bot must be not found, got %+v", call)
	}
}

func TestContentActionNotFound(t *testing.T) {
	f := newFixture(t)
	f.content.bundles[7] = domain.Bundle{ID: 7, Name: "other", BotID: f.shop.ID, CreatedByID: 99}

	call := f.dispatch(t, f.shop, callback(ownerUserID, &ContentAction{PK: 7, Action: ContentGet}))
	if call == nil || call.Text != textNotFound {
		t.Fatalf("expected not found answer, got %+v", call)
	}
}

func TestContentGetLink(t *testing.T) {
	f := newFixture(t)
	f.content.bundles[3] = domain.Bundle{ID: 3, Name: "mine", BotID: f.shop.ID, CreatedByID: f.owner.ID}

	f.dispatch(t, f.shop, callback(ownerUserID, &ContentAction{PK: 3, Action: ContentGetLink}))
	if len(f.caller.calls) != 1 {
		t.Fatalf("expected link message, got %d calls", len(f.caller.calls))
	}
	link := f.caller.calls[0].Text
	payload := strings.TrimPrefix(link, "https://t.me/shop_bot?start=")
	kind, params, err := dispatch.DecodeLink(payload)
	if err != nil || kind != dispatch.LinkBundle || params[dispatch.BundleKeyParam] != "latestlatestlatest00" {
		t.Fatalf("unexpected link %q: %v %v %v", link, kind, params, err)
	}
}

func TestBundleLinkJoinPrompt(t *testing.T) {
	f := newFixture(t)
	f.content.replay = usecase.ReplayResult{
		Found:   true,
		Missing: []domain.Chat{{ID: -1001, Title: "News", Username: "news"}},
	}
	payload, err := dispatch.EncodeLink(dispatch.LinkBundle, map[string]string{dispatch.BundleKeyParam: "abc"})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	call := f.dispatch(t, f.shop, message(strangerUserID, "/start "+payload))
	if len(f.content.queries) != 1 || f.content.queries[0] != "abc" {
		t.Fatalf("unexpected replay queries %v", f.content.queries)
	}
	if call == nil || !strings.Contains(call.Text, "@news") {
		t.Fatalf("expected join prompt, got %+v", call)
	}

	f.dispatch(t, f.master, message(strangerUserID, "/start "+payload))
	if len(f.content.queries) != 1 {
		t.Fatalf("master bot must not replay bundles")
	}
}

func TestMembershipIsRecorded(t *testing.T) {
	f := newFixture(t)
	update := &domain.Update{UpdateID: 1, MyChatMember: &domain.ChatMemberUpdated{
		Chat:          domain.Chat{ID: -1001, Type: domain.ChatTypeChannel},
		From:          domain.Sender{ID: ownerUserID},
		NewChatMember: domain.ChatMember{Status: domain.MemberStatusAdministrator},
	}}
	f.dispatch(t, f.shop, update)
	if len(f.members.observed) != 1 {
		t.Fatalf("expected membership to be observed")
	}
}

func TestCallbackDataRoundTrip(t *testing.T) {
	packed := dispatch.MustPackCallback(&BotAction{PK: 42, Action: BotPowerOn})
	if packed != "bot:42:power_on" {
		t.Fatalf("unexpected packing %q", packed)
	}
	var content ContentAction
	if err := dispatch.UnpackCallback(packed, &content); err == nil {
		t.Fatalf("bot action must not decode as content action")
	}
	var action BotAction
	if err := dispatch.UnpackCallback("bot:42:explode", &action); err == nil {
		t.Fatalf("unknown action must be rejected")
	}
}
