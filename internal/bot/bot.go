package bot

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/raine/lootlook/internal/appraisal"
	"github.com/raine/lootlook/internal/metrics"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// BotAPI defines the interface for Telegram bot API operations.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
}

// Analyzer runs the appraisal pipeline for one image.
type Analyzer interface {
	Analyze(ctx context.Context, image []byte) (*appraisal.AnalysisReport, error)
}

// Bot answers photos sent to the Telegram bot with an appraisal.
type Bot struct {
	tg         BotAPI
	analyzer   Analyzer
	downloader *ImageDownloader
	metrics    *metrics.Metrics
}

// NewBot creates a new Bot instance. m may be nil.
func NewBot(tg BotAPI, analyzer Analyzer, m *metrics.Metrics) *Bot {
	return &Bot{
		tg:         tg,
		analyzer:   analyzer,
		downloader: NewImageDownloader(),
		metrics:    m,
	}
}

// Run handles updates concurrently until ctx is cancelled or updates is
// closed, then waits for in-flight handlers to finish.
func (b *Bot) Run(ctx context.Context, updates <-chan tgbotapi.Update) error {
	var wg sync.WaitGroup

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("stopping bot update loop")
			log.Info().Msg("waiting for active handlers to finish")
			wg.Wait()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				log.Warn().Msg("updates channel closed")
				wg.Wait()
				return nil
			}
			wg.Add(1)
			go func(u tgbotapi.Update) {
				defer wg.Done()
				b.HandleUpdate(ctx, u)
			}(update)
		}
	}
}

// HandleUpdate processes a single update synchronously.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	message := update.Message
	if message == nil || message.Chat == nil {
		return
	}

	logger := log.With().Int64("chatId", message.Chat.ID).Logger()
	ctx = logger.WithContext(ctx)
	logger.Info().Str("text", message.Text).Str("caption", message.Caption).Msg("got message")

	switch {
	case len(message.Photo) > 0:
		largest := message.Photo[len(message.Photo)-1]
		b.handleImage(ctx, message.Chat.ID, largest.FileID, int64(largest.FileSize))
	case message.Document != nil:
		if !appraisal.IsAllowedImageType(strings.ToLower(message.Document.MimeType)) {
			b.reply(ctx, message.Chat.ID, MsgUnsupportedFile)
			return
		}
		b.handleImage(ctx, message.Chat.ID, message.Document.FileID, int64(message.Document.FileSize))
	default:
		b.handleText(ctx, message)
	}
}

func (b *Bot) handleText(ctx context.Context, message *tgbotapi.Message) {
	command, _ := parseCommand(message.Text)
	switch command {
	case "start":
		b.reply(ctx, message.Chat.ID, MsgWelcome)
	case "help":
		b.reply(ctx, message.Chat.ID, MsgHelp)
	default:
		b.reply(ctx, message.Chat.ID, MsgSendPhoto)
	}
}

func (b *Bot) handleImage(ctx context.Context, chatID int64, fileID string, fileSize int64) {
	logger := zerolog.Ctx(ctx)

	if fileSize > DefaultMaxImageSize {
		b.reply(ctx, chatID, MsgImageTooLarge, DefaultMaxImageSize/(1024*1024))
		return
	}

	b.sendTypingAction(ctx, chatID)

	image, err := b.downloader.DownloadFromTelegramFileID(ctx, b.tg.GetFileDirectURL, fileID)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		logger.Error().Err(err).Str("fileID", fileID).Msg("failed to download photo")
		if errors.Is(err, ErrImageTooLarge) {
			b.reply(ctx, chatID, MsgImageTooLarge, DefaultMaxImageSize/(1024*1024))
		} else {
			b.reply(ctx, chatID, MsgDownloadFailed)
		}
		return
	}

	b.reply(ctx, chatID, MsgAnalyzing)

	report, err := b.analyzer.Analyze(ctx, image)
	b.metrics.ObserveAppraisal(err)
	if err != nil {
		b.replyWithError(ctx, chatID, err)
		return
	}

	logger.Info().
		Str("item", report.ItemName).
		Str("value", report.EstimatedValue).
		Msg("appraisal complete")
	b.reply(ctx, chatID, "%s", formatReport(report))
}

func (b *Bot) replyWithError(ctx context.Context, chatID int64, err error) {
	logger := zerolog.Ctx(ctx)
	var idErr *appraisal.IdentificationError
	var priceErr *appraisal.PricingError

	switch {
	case errors.As(err, &idErr):
		logger.Error().Err(err).Msg("identification failed")
		b.reply(ctx, chatID, MsgIdentifyFailed)
	case errors.As(err, &priceErr):
		logger.Error().Err(err).Msg("price lookup failed")
		b.reply(ctx, chatID, MsgPricingFailed)
	case errors.Is(err, context.Canceled):
		logger.Info().Err(err).Msg("appraisal cancelled")
	case errors.Is(err, context.DeadlineExceeded):
		logger.Warn().Err(err).Msg("appraisal timed out")
		b.reply(ctx, chatID, MsgAppraisalTimedOut)
	default:
		logger.Error().Err(err).Msg("appraisal failed")
		b.reply(ctx, chatID, MsgUnexpectedErr, err)
	}
}

func formatReport(r *appraisal.AnalysisReport) string {
	listings := "listings"
	if r.SourceCount == 1 {
		listings = "listing"
	}
	return formatReplyText(msgReport,
		r.ItemName,
		r.EstimatedValue,
		r.RarityTier,
		r.MarketDemand,
		r.Category,
		int(math.Round(r.ConfidenceScore*100)),
		r.SourceCount,
		listings,
		r.Description,
	)
}

func (b *Bot) reply(ctx context.Context, chatID int64, text string, a ...any) {
	msg := tgbotapi.NewMessage(chatID, formatReplyText(text, a...))
	if _, err := b.tg.Send(msg); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to send reply message")
	}
}

// sendTypingAction shows the user that the bot is processing.
// The typing indicator automatically expires after ~5 seconds in Telegram.
func (b *Bot) sendTypingAction(ctx context.Context, chatID int64) {
	action := tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)
	// Use Request instead of Send because sendChatAction returns a boolean, not a Message
	if _, err := b.tg.Request(action); err != nil {
		zerolog.Ctx(ctx).Debug().Err(err).Msg("failed to send typing action")
	}
}
