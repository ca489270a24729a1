package usecase

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/televi1/televi/internal/domain"
)

// maxMintAttempts bounds the search for an unused share-link query id.
const maxMintAttempts = 16

type ContentUsecase struct {
	messages MessageRepository
	bundles  BundleRepository
	api      BotAPIProvider
	gate     *GateChecker
	creds    CredentialGenerator
	logger   *slog.Logger
}

func NewContentUsecase(
	messages MessageRepository,
	bundles BundleRepository,
	api BotAPIProvider,
	gate *GateChecker,
	creds CredentialGenerator,
	logger *slog.Logger,
) *ContentUsecase {
	if logger == nil {
		logger = slog.Default()
	}
	return &ContentUsecase{
		messages: messages,
		bundles:  bundles,
		api:      api,
		gate:     gate,
		creds:    creds,
		logger:   logger,
	}
}

// CaptureMessage stores msg as received by bot. Capturing the same platform
// message twice returns the first record.
func (uc *ContentUsecase) CaptureMessage(ctx context.Context, bot domain.Bot, msg *domain.Message, sentBy *domain.Account) (domain.CapturedMessage, error) {
	if msg == nil {
		return domain.CapturedMessage{}, domain.ErrUnsupportedContent
	}
	captured, err := captureFromWire(bot, msg, sentBy)
	if err != nil {
		return domain.CapturedMessage{}, err
	}
	stored, err := uc.messages.Capture(ctx, captured)
	if err != nil {
		return domain.CapturedMessage{}, errors.Wrap(err, "ContentUsecase.CaptureMessage")
	}
	return stored, nil
}

// BuildBundle persists a bundle and mints its first share link atomically.
func (uc *ContentUsecase) BuildBundle(
	ctx context.Context,
	bot domain.Bot,
	creator domain.Account,
	name string,
	messageIDs []int64,
	mustJoins []domain.MustJoin,
) (domain.Bundle, domain.ShareLink, error) {
	bundle, link, err := uc.bundles.Create(ctx, domain.Bundle{
		Name:        name,
		BotID:       bot.ID,
		CreatedByID: creator.ID,
		MessageIDs:  messageIDs,
		MustJoins:   mustJoins,
	}, uc.mint)
	if err != nil {
		return domain.Bundle{}, domain.ShareLink{}, errors.Wrap(err, "ContentUsecase.BuildBundle")
	}
	return bundle, link, nil
}

func (uc *ContentUsecase) mint(ctx context.Context, taken func(string) (bool, error)) (string, error) {
	for attempt := 0; attempt < maxMintAttempts; attempt++ {
		candidate := uc.creds.QueryID()
		used, err := taken(candidate)
		if err != nil {
			return "", err
		}
		if !used {
			return candidate, nil
		}
	}
	return "", domain.ErrLinkExhausted
}

// MintLink adds a fresh share link to bundle.
func (uc *ContentUsecase) MintLink(ctx context.Context, bundle domain.Bundle) (domain.ShareLink, error) {
	return uc.bundles.CreateLink(ctx, bundle.ID, uc.mint)
}

// LatestLink returns the newest link of bundle, minting one if it has none.
func (uc *ContentUsecase) LatestLink(ctx context.Context, bundle domain.Bundle) (domain.ShareLink, error) {
	link, err := uc.bundles.LatestLink(ctx, bundle.ID)
	if errors.Is(err, domain.ErrNotFound) {
		return uc.MintLink(ctx, bundle)
	}
	return link, err
}

func (uc *ContentUsecase) ListBundles(ctx context.Context, bot domain.Bot, creator domain.Account) ([]domain.Bundle, error) {
	return uc.bundles.ListByCreator(ctx, bot.ID, creator.ID)
}

// GetBundle loads a bundle created by creator through bot.
func (uc *ContentUsecase) GetBundle(ctx context.Context, bot domain.Bot, creator domain.Account, id int64) (domain.Bundle, error) {
	bundle, err := uc.bundles.Get(ctx, id)
	if err != nil {
		return domain.Bundle{}, err
	}
	if bundle.BotID != bot.ID || bundle.CreatedByID != creator.ID {
		return domain.Bundle{}, domain.NotFoundError{Resource: "bundle"}
	}
	return bundle, nil
}

// ReplayResult reports what Replay did. Found is false for unknown or
// foreign links. Missing lists the must-join chats the requester is not in;
// nothing is sent while it is non-empty.
type ReplayResult struct {
	Found   bool
	Bundle  domain.Bundle
	Missing []domain.Chat
	Sent    int
}

// Replay sends the bundle behind queryID to chatID through bot.
func (uc *ContentUsecase) Replay(ctx context.Context, bot domain.Bot, queryID string, chatID int64, requester *domain.Account, requesterID int64) (ReplayResult, error) {
	ctx, span := tracer.Start(ctx, "Content.Usecase.Replay")
	defer span.End()

	link, err := uc.bundles.GetLink(ctx, queryID)
	if errors.Is(err, domain.ErrNotFound) {
		uc.logger.WarnContext(ctx, "share link not found",
			slog.String("query", queryID),
			slog.String("module", "content"),
		)
		return ReplayResult{}, nil
	}
	if err != nil {
		return ReplayResult{}, errors.Wrap(err, "ContentUsecase.Replay: get link")
	}
	if link.Bundle == nil || link.Bundle.BotID != bot.ID {
		uc.logger.WarnContext(ctx, "share link belongs to another bot",
			slog.String("query", queryID),
			slog.String("bot", bot.String()),
			slog.String("module", "content"),
		)
		return ReplayResult{}, nil
	}

	bundle := *link.Bundle
	result := ReplayResult{Found: true, Bundle: bundle}
	span.SetAttributes(attribute.Int64("bundle", bundle.ID))

	api := uc.api.ForToken(bot.Token)
	if uc.gate != nil && len(bundle.MustJoins) > 0 {
		missing, err := uc.gate.Check(ctx, api, bot, bundle.MustJoins, requester, requesterID)
		if err != nil {
			return result, errors.Wrap(err, "ContentUsecase.Replay: gate")
		}
		if len(missing) > 0 {
			result.Missing = missing
			return result, nil
		}
	}

	messages, err := uc.messages.GetMany(ctx, bundle.MessageIDs)
	if err != nil {
		return result, errors.Wrap(err, "ContentUsecase.Replay: messages")
	}

	var calls []*domain.Call
	if album, ok := mediaGroupCall(messages, chatID); ok {
		calls = []*domain.Call{album}
	} else {
		for _, m := range messages {
			call, err := ReplayCall(m, chatID)
			if err != nil {
				uc.logger.WarnContext(ctx, "skipping message on replay",
					slog.Int64("message", m.ID),
					slog.String("error", err.Error()),
					slog.String("module", "content"),
				)
				continue
			}
			calls = append(calls, call)
		}
	}

	var (
		g    errgroup.Group
		sent atomic.Int64
	)
	for _, call := range calls {
		call := call
		g.Go(func() error {
			if err := api.Do(ctx, call); err != nil {
				return err
			}
			sent.Add(1)
			return nil
		})
	}
	err = g.Wait()
	result.Sent = int(sent.Load())
	if err != nil {
		span.RecordError(err)
		return result, errors.Wrap(err, "ContentUsecase.Replay: send")
	}
	return result, nil
}
