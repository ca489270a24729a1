package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"

	"github.com/televi1/televi/internal/domain"
)

// GateChecker enforces must-join conditions and keeps membership records
// current.
type GateChecker struct {
	memberships MembershipRepository
	logger      *slog.Logger
	now         func() time.Time
}

func NewGateChecker(memberships MembershipRepository, logger *slog.Logger) *GateChecker {
	if logger == nil {
		logger = slog.Default()
	}
	return &GateChecker{
		memberships: memberships,
		logger:      logger,
		now:         time.Now,
	}
}

// Check returns the must-join chats userID is not a member of. A chat the
// bot was removed from cannot be verified and is skipped. A chat listed more
// than once is checked once.
func (g *GateChecker) Check(ctx context.Context, api BotAPI, bot domain.Bot, mustJoins []domain.MustJoin, requester *domain.Account, userID int64) ([]domain.Chat, error) {
	var missing []domain.Chat
	checked := make(map[int64]bool, len(mustJoins))
	for _, mj := range mustJoins {
		if checked[mj.ChatID] {
			continue
		}
		checked[mj.ChatID] = true

		member, err := api.GetChatMember(ctx, mj.ChatID, userID)
		if errors.Is(err, domain.ErrForbidden) {
			g.logger.WarnContext(ctx, "bot cannot see must-join chat",
				slog.String("bot", bot.String()),
				slog.Int64("chat", mj.ChatID),
				slog.String("module", "gate"),
			)
			g.record(ctx, domain.Membership{ChatID: mj.ChatID, BotID: &bot.ID, Status: domain.MemberStatusKicked})
			continue
		}
		if err != nil {
			return nil, errors.Wrapf(err, "GateChecker.Check: chat %d", mj.ChatID)
		}

		if requester != nil {
			g.record(ctx, domain.Membership{ChatID: mj.ChatID, AccountID: &requester.ID, Status: member.Status})
		}
		if member.IsPresent() {
			continue
		}

		chat, err := api.GetChat(ctx, mj.ChatID)
		if err != nil {
			chat = domain.Chat{ID: mj.ChatID}
		}
		missing = append(missing, chat)
	}
	return missing, nil
}

// ObserveBot records a change of the bot's own status in a chat.
func (g *GateChecker) ObserveBot(ctx context.Context, bot domain.Bot, update *domain.ChatMemberUpdated) error {
	if update == nil {
		return nil
	}
	return g.memberships.Upsert(ctx, domain.Membership{
		ChatID: update.Chat.ID,
		BotID:  &bot.ID,
		Status: update.NewChatMember.Status,
		MDate:  g.now(),
	})
}

func (g *GateChecker) record(ctx context.Context, m domain.Membership) {
	m.MDate = g.now()
	if err := g.memberships.Upsert(ctx, m); err != nil {
		g.logger.ErrorContext(ctx, "failed to record membership",
			slog.Int64("chat", m.ChatID),
			slog.String("error", err.Error()),
			slog.String("module", "gate"),
		)
	}
}
