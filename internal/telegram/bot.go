package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"photobook-order-bot/internal/checkout"
	"photobook-order-bot/internal/delivery"
	"photobook-order-bot/internal/file"
	"photobook-order-bot/internal/order"
	"photobook-order-bot/internal/payment"
	"photobook-order-bot/internal/pdf"
	"photobook-order-bot/internal/photobook"
	"photobook-order-bot/internal/pkg"
	"photobook-order-bot/internal/pkg/config"
	"photobook-order-bot/internal/telegram/internal/fsm"
	"photobook-order-bot/internal/telegram/internal/media"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

type Deps struct {
	FileService  file.Service
	OrderService order.Service
	Cards        payment.CardAuthorizer
	Charger      payment.Charger
	PDF          pdf.Generator
	Addresses    delivery.Store
	Albums       photobook.Store
	Pricing      checkout.Pricing
	// LargeFiles fetches photos above the Bot API download limit. Optional.
	LargeFiles file.Downloader
}

type Bot struct {
	deps       Deps
	cfg        *config.Config
	api        *bot.Bot
	router     *fsm.Router
	collector  *media.Collector
	sessions   *Sessions
	sheet      *InvoiceSheet
	payments   *payment.Coordinator
	downloader file.Downloader

	ctx         context.Context
	wg          sync.WaitGroup
	authorizing sync.Map
}

func NewBot(deps Deps, cfg *config.Config) (*Bot, error) {
	router := fsm.NewRouter(fsm.NewFSM())
	b := &Bot{
		deps:      deps,
		cfg:       cfg,
		router:    router,
		collector: media.NewCollector(cfg.TelegramCfg.CollectWindow),
		sessions:  NewSessions(deps.Albums, deps.Pricing),
		ctx:       context.Background(),
	}

	botOpts := []bot.Option{
		bot.WithMiddlewares(router.Middleware),
		bot.WithDefaultHandler(b.handleDefault),
	}
	api, err := bot.New(cfg.TelegramCfg.Token, botOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot instance: %w", err)
	}

	b.api = api
	b.sheet = NewInvoiceSheet(api, cfg.TelegramCfg.ProviderToken, cfg.TelegramCfg.InvoiceTimeout)
	b.payments = payment.NewCoordinator(deps.Cards, b.sheet)
	b.downloader = file.NewFallbackDownloader(
		file.NewTelegramDownloader(api, pkg.HTTPClient, cfg.FileService.MaxFileSize),
		deps.LargeFiles,
	)
	return b, nil
}

// Sessions exposes the open receipts, the reconciler must not sweep their
// folders.
func (b *Bot) Sessions() *Sessions {
	return b.sessions
}

func (b *Bot) Start(ctx context.Context) {
	b.ctx = ctx

	b.api.RegisterHandler(bot.HandlerTypeMessageText, "start", bot.MatchTypeCommandStartOnly, b.handleHelpCmd)
	b.api.RegisterHandler(bot.HandlerTypeMessageText, "help", bot.MatchTypeCommandStartOnly, b.handleHelpCmd)
	b.api.RegisterHandler(bot.HandlerTypeMessageText, "album", bot.MatchTypeCommandStartOnly, b.handleAlbumCmd)
	b.api.RegisterHandler(bot.HandlerTypeMessageText, "title", bot.MatchTypeCommandStartOnly, b.handleTitleCmd)
	b.api.RegisterHandler(bot.HandlerTypeMessageText, "clear", bot.MatchTypeCommandStartOnly, b.handleClearCmd)
	b.api.RegisterHandler(bot.HandlerTypeMessageText, "card", bot.MatchTypeCommandStartOnly, b.handleCardCmd)
	b.api.RegisterHandler(bot.HandlerTypeMessageText, "checkout", bot.MatchTypeCommandStartOnly, b.handleCheckoutCmd)

	b.router.Bypass("address:", "shipping:", "paymethod:", "receipt:")
	b.api.RegisterHandler(bot.HandlerTypeCallbackQueryData, "address:", bot.MatchTypePrefix, b.handleAddressCallback)
	b.api.RegisterHandler(bot.HandlerTypeCallbackQueryData, "shipping:", bot.MatchTypePrefix, b.handleShippingCallback)
	b.api.RegisterHandler(bot.HandlerTypeCallbackQueryData, "paymethod:", bot.MatchTypePrefix, b.handlePaymentMethodCallback)
	b.api.RegisterHandler(bot.HandlerTypeCallbackQueryData, "receipt:", bot.MatchTypePrefix, b.handleReceiptCallback)

	b.api.RegisterHandlerMatchFunc(func(update *models.Update) bool {
		return update.PreCheckoutQuery != nil
	}, b.handlePreCheckout)
	b.api.RegisterHandlerMatchFunc(func(update *models.Update) bool {
		return update.Message != nil && update.Message.SuccessfulPayment != nil
	}, b.handleSuccessfulPayment)

	SetupTitleFlow(&TitleFlowDeps{Router: b.router, Sessions: b.sessions})
	SetupDeliveryFlow(&DeliveryFlowDeps{Router: b.router, Addresses: b.deps.Addresses, OnSaved: b.proceedToShipping})
	SetupCardFlow(&CardFlowDeps{Router: b.router, Sessions: b.sessions})

	slog.Info("Started Telegram Bot")
	go b.api.Start(ctx)
}

// Shutdown closes every open receipt and waits for payment authorizations
// started from checkout.
func (b *Bot) Shutdown(ctx context.Context) error {
	b.sessions.CloseAll()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

func (b *Bot) SendMessage(ctx context.Context, params *bot.SendMessageParams) int {
	if params.ParseMode == "" {
		params.ParseMode = models.ParseModeHTML
	}
	msg, err := b.api.SendMessage(ctx, params)
	if err != nil {
		slog.Error("Error sending message", "error", err, "chatID", params.ChatID)
		return 0
	}
	return msg.ID
}

func (b *Bot) sendText(ctx context.Context, userID int64, text string, kbd *models.InlineKeyboardMarkup) int {
	params := &bot.SendMessageParams{
		ChatID: userID,
		Text:   text,
	}
	if kbd != nil {
		params.ReplyMarkup = kbd
	}
	return b.SendMessage(ctx, params)
}

func (b *Bot) AnswerCallbackQuery(ctx context.Context, params *bot.AnswerCallbackQueryParams) {
	if _, err := b.api.AnswerCallbackQuery(ctx, params); err != nil {
		slog.Error("Error answering callback query", "error", err)
	}
}

func (b *Bot) DeleteMessage(ctx context.Context, chatID int64, messageID int) {
	if messageID == 0 {
		return
	}
	if _, err := b.api.DeleteMessage(ctx, &bot.DeleteMessageParams{
		ChatID:    chatID,
		MessageID: messageID,
	}); err != nil {
		slog.Warn("Error deleting message", "error", err, "chatID", chatID, "messageID", messageID)
	}
}

func callbackMessageID(update *models.Update) int {
	if update.CallbackQuery == nil || update.CallbackQuery.Message.Message == nil {
		return 0
	}
	return update.CallbackQuery.Message.Message.ID
}
