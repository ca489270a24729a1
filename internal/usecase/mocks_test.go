package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/televi1/televi/internal/domain"
)

// --- platform ---

type fakeAPI struct {
	mu         sync.Mutex
	me         domain.Sender
	meErr      error
	name       string
	webhookOK  bool
	webhookErr error
	webhookURL string
	members    map[int64]domain.ChatMember
	memberErr  map[int64]error
	sendErr    error
	counts     map[string]int
	sent       []*domain.Call
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		webhookOK: true,
		members:   map[int64]domain.ChatMember{},
		memberErr: map[int64]error{},
		counts:    map[string]int{},
	}
}

func (f *fakeAPI) count(method string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts[method]++
}

func (f *fakeAPI) calls(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counts[method]
}

func (f *fakeAPI) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.counts {
		n += c
	}
	return n
}

func (f *fakeAPI) GetMe(ctx context.Context) (domain.Sender, error) {
	f.count("getMe")
	return f.me, f.meErr
}

func (f *fakeAPI) GetMyName(ctx context.Context) (string, error) {
	f.count("getMyName")
	return f.name, nil
}

func (f *fakeAPI) SetWebhook(ctx context.Context, url, secret string) (bool, error) {
	f.count("setWebhook")
	f.mu.Lock()
	f.webhookURL = url
	f.mu.Unlock()
	return f.webhookOK, f.webhookErr
}

func (f *fakeAPI) DeleteWebhook(ctx context.Context, dropPending bool) (bool, error) {
	f.count("deleteWebhook")
	return true, nil
}

func (f *fakeAPI) GetWebhookInfo(ctx context.Context) (domain.WebhookInfo, error) {
	f.count("getWebhookInfo")
	return domain.WebhookInfo{URL: f.webhookURL}, nil
}

func (f *fakeAPI) GetChat(ctx context.Context, chatID int64) (domain.Chat, error) {
	f.count("getChat")
	return domain.Chat{ID: chatID, Title: fmt.Sprintf("chat %d", chatID)}, nil
}

func (f *fakeAPI) GetChatMember(ctx context.Context, chatID, userID int64) (domain.ChatMember, error) {
	f.count("getChatMember")
	if err := f.memberErr[chatID]; err != nil {
		return domain.ChatMember{}, err
	}
	m, ok := f.members[chatID]
	if !ok {
		return domain.ChatMember{Status: domain.MemberStatusLeft}, nil
	}
	return m, nil
}

func (f *fakeAPI) Do(ctx context.Context, call *domain.Call) error {
	f.count(string(call.Method))
	if f.sendErr != nil {
		return f.sendErr
	}
	f.mu.Lock()
	f.sent = append(f.sent, call)
	f.mu.Unlock()
	return nil
}

type fakeProvider struct {
	apis     map[string]*fakeAPI
	fallback *fakeAPI
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{apis: map[string]*fakeAPI{}, fallback: newFakeAPI()}
}

func (p *fakeProvider) ForToken(token string) BotAPI {
	if api, ok := p.apis[token]; ok {
		return api
	}
	return p.fallback
}

// --- credentials ---

type fakeCreds struct {
	mu         sync.Mutex
	n          int
	queries    []string
	specifiers []string
}

func (c *fakeCreds) next() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n++
	return c.n
}

func (c *fakeCreds) Secret() string { return fmt.Sprintf("secret-%d", c.next()) }

// URLSpecifier hands out the scripted specifiers first.
func (c *fakeCreds) URLSpecifier() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.specifiers) > 0 {
		p := c.specifiers[0]
		c.specifiers = c.specifiers[1:]
		return p
	}
	c.n++
	return fmt.Sprintf("path/%d", c.n)
}

func (c *fakeCreds) DomainName(pool []string) string {
	if len(pool) == 0 {
		return "example.com"
	}
	return "x." + pool[0]
}
func (c *fakeCreds) Username() string { return fmt.Sprintf("tg_%d", c.next()) }

// QueryID hands out the scripted queries first.
func (c *fakeCreds) QueryID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.queries) > 0 {
		q := c.queries[0]
		c.queries = c.queries[1:]
		return q
	}
	c.n++
	return fmt.Sprintf("query%020d", c.n)
}

// --- notifier ---

type recordingNotifier struct {
	mu   sync.Mutex
	sent []domain.OwnerNotification
}

func (n *recordingNotifier) Publish(ctx context.Context, notification domain.OwnerNotification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notification)
	return nil
}

// --- repositories ---

type mockBotRepo struct {
	mu     sync.Mutex
	nextID int64
	bots   map[int64]*domain.Bot
	synced map[int64]time.Time
}

func newMockBotRepo() *mockBotRepo {
	return &mockBotRepo{bots: map[int64]*domain.Bot{}, synced: map[int64]time.Time{}}
}

func (m *mockBotRepo) add(b domain.Bot) domain.Bot {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	if b.ID == 0 {
		b.ID = m.nextID
	}
	m.bots[b.ID] = &b
	return b
}

func (m *mockBotRepo) Get(ctx context.Context, id int64) (domain.Bot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bots[id]
	if !ok {
		return domain.Bot{}, domain.NotFoundError{Resource: "bot"}
	}
	return *b, nil
}

func (m *mockBotRepo) GetBySpecifier(ctx context.Context, specifier string) (domain.Bot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.bots {
		if b.URLSpecifier == specifier {
			return *b, nil
		}
	}
	return domain.Bot{}, domain.NotFoundError{Resource: "bot"}
}

func (m *mockBotRepo) GetMaster(ctx context.Context) (domain.Bot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.bots {
		if b.IsMaster {
			return *b, nil
		}
	}
	return domain.Bot{}, domain.NotFoundError{Resource: "bot"}
}

func (m *mockBotRepo) sorted(keep func(*domain.Bot) bool) []domain.Bot {
	var out []domain.Bot
	for _, b := range m.bots {
		if keep(b) {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *mockBotRepo) ListByOwner(ctx context.Context, ownerID int64) ([]domain.Bot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sorted(func(b *domain.Bot) bool { return b.OwnerID == ownerID && !b.IsRevoked }), nil
}

func (m *mockBotRepo) ListActive(ctx context.Context, limit int) ([]domain.Bot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.sorted(func(b *domain.Bot) bool { return !b.IsRevoked })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockBotRepo) FindClaims(ctx context.Context, platformID int64) ([]domain.Bot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sorted(func(b *domain.Bot) bool { return b.PlatformID == platformID && !b.IsRevoked }), nil
}

func (m *mockBotRepo) Create(ctx context.Context, bot domain.Bot) (domain.Bot, error) {
	m.mu.Lock()
	for _, b := range m.bots {
		if bot.URLSpecifier != "" && b.URLSpecifier == bot.URLSpecifier {
			m.mu.Unlock()
			return domain.Bot{}, domain.ErrConflict
		}
	}
	m.mu.Unlock()
	bot.ID = 0
	return m.add(bot), nil
}

func (m *mockBotRepo) SetPoweredOff(ctx context.Context, id int64, poweredOff bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bots[id].IsPoweredOff = poweredOff
	return nil
}

func (m *mockBotRepo) MarkSynced(ctx context.Context, id int64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.synced[id] = at
	m.bots[id].WebhookSyncedAt = &at
	return nil
}

func (m *mockBotRepo) Revoke(ctx context.Context, ids []int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		if _, ok := m.bots[id]; !ok {
			return domain.NotFoundError{Resource: "bot"}
		}
	}
	for _, id := range ids {
		m.bots[id].IsRevoked = true
	}
	return nil
}

func (m *mockBotRepo) revoked() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, b := range m.bots {
		if b.IsRevoked {
			n++
		}
	}
	return n
}

type mockAccountRepo struct {
	mu       sync.Mutex
	nextID   int64
	accounts map[int64]domain.Account
}

func newMockAccountRepo() *mockAccountRepo {
	return &mockAccountRepo{accounts: map[int64]domain.Account{}}
}

func (m *mockAccountRepo) Get(ctx context.Context, id int64) (domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return domain.Account{}, domain.NotFoundError{Resource: "account"}
	}
	return a, nil
}

func (m *mockAccountRepo) GetChatUser(ctx context.Context, botID, platformUserID int64) (domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.accounts {
		if a.IsChatUser() && *a.BotID == botID && *a.PlatformUserID == platformUserID {
			return a, nil
		}
	}
	return domain.Account{}, domain.NotFoundError{Resource: "account"}
}

func (m *mockAccountRepo) CreateChatUser(ctx context.Context, account domain.Account) (domain.Account, error) {
	if existing, err := m.GetChatUser(ctx, *account.BotID, *account.PlatformUserID); err == nil {
		return existing, nil
	}
	return m.CreateStaff(ctx, account)
}

func (m *mockAccountRepo) CreateStaff(ctx context.Context, account domain.Account) (domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	account.ID = m.nextID
	m.accounts[account.ID] = account
	return account, nil
}

func (m *mockAccountRepo) chatUser(botID, platformUserID int64) domain.Account {
	a, _ := m.CreateChatUser(context.Background(), domain.Account{
		Kind:           domain.AccountKindChat,
		PlatformUserID: &platformUserID,
		BotID:          &botID,
	})
	return a
}

type mockMessageRepo struct {
	mu       sync.Mutex
	nextID   int64
	messages map[int64]domain.CapturedMessage
}

func newMockMessageRepo() *mockMessageRepo {
	return &mockMessageRepo{messages: map[int64]domain.CapturedMessage{}}
}

func (m *mockMessageRepo) Capture(ctx context.Context, msg domain.CapturedMessage) (domain.CapturedMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.messages {
		if existing.BotID == msg.BotID && existing.ChatID == msg.ChatID && existing.PlatformID == msg.PlatformID {
			return existing, nil
		}
	}
	m.nextID++
	msg.ID = m.nextID
	m.messages[msg.ID] = msg
	return msg, nil
}

func (m *mockMessageRepo) GetMany(ctx context.Context, ids []int64) ([]domain.CapturedMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.CapturedMessage
	for _, id := range ids {
		if msg, ok := m.messages[id]; ok {
			out = append(out, msg)
		}
	}
	return out, nil
}

type mockBundleRepo struct {
	mu      sync.Mutex
	nextID  int64
	bundles map[int64]domain.Bundle
	links   []domain.ShareLink
}

func newMockBundleRepo() *mockBundleRepo {
	return &mockBundleRepo{bundles: map[int64]domain.Bundle{}}
}

func (m *mockBundleRepo) taken(q string) (bool, error) {
	for _, l := range m.links {
		if l.QueryID == q {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockBundleRepo) Create(ctx context.Context, bundle domain.Bundle, mint LinkMinter) (domain.Bundle, domain.ShareLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, err := mint(ctx, m.taken)
	if err != nil {
		return domain.Bundle{}, domain.ShareLink{}, err
	}
	m.nextID++
	bundle.ID = m.nextID
	m.bundles[bundle.ID] = bundle
	link := m.addLink(bundle.ID, q)
	return bundle, link, nil
}

func (m *mockBundleRepo) addLink(bundleID int64, q string) domain.ShareLink {
	link := domain.ShareLink{ID: int64(len(m.links) + 1), QueryID: q, BundleID: bundleID, CDate: time.Now()}
	m.links = append(m.links, link)
	return link
}

func (m *mockBundleRepo) Get(ctx context.Context, id int64) (domain.Bundle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bundles[id]
	if !ok {
		return domain.Bundle{}, domain.NotFoundError{Resource: "bundle"}
	}
	return b, nil
}

func (m *mockBundleRepo) ListByCreator(ctx context.Context, botID, creatorID int64) ([]domain.Bundle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Bundle
	for _, b := range m.bundles {
		if b.BotID == botID && b.CreatedByID == creatorID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *mockBundleRepo) CreateLink(ctx context.Context, bundleID int64, mint LinkMinter) (domain.ShareLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, err := mint(ctx, m.taken)
	if err != nil {
		return domain.ShareLink{}, err
	}
	return m.addLink(bundleID, q), nil
}

func (m *mockBundleRepo) LatestLink(ctx context.Context, bundleID int64) (domain.ShareLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.links) - 1; i >= 0; i-- {
		if m.links[i].BundleID == bundleID {
			return m.links[i], nil
		}
	}
	return domain.ShareLink{}, domain.NotFoundError{Resource: "share link"}
}

func (m *mockBundleRepo) GetLink(ctx context.Context, queryID string) (domain.ShareLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.links {
		if l.QueryID == queryID {
			b := m.bundles[l.BundleID]
			l.Bundle = &b
			return l, nil
		}
	}
	return domain.ShareLink{}, domain.NotFoundError{Resource: "share link"}
}

type mockMembershipRepo struct {
	mu      sync.Mutex
	records []domain.Membership
}

func (m *mockMembershipRepo) Upsert(ctx context.Context, membership domain.Membership) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, membership)
	return nil
}
