package telegram

import (
	"context"
	"log/slog"

	"photobook-order-bot/internal/file"
	"photobook-order-bot/internal/telegram/internal/fsm"
	"photobook-order-bot/internal/telegram/internal/presentation"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// handleDefault collects photos. Anything else gets the help text.
func (b *Bot) handleDefault(ctx context.Context, api *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	userID := update.Message.From.ID

	if b.collector.ProcessMessage(update.Message, b.addPhotos) {
		return
	}
	if update.Message.Text != "" {
		b.sendText(ctx, userID, presentation.HelpMsg(), nil)
	}
}

func (b *Bot) addPhotos(userID int64, photos []file.RequestFile) {
	ctx, cancel := context.WithTimeout(b.ctx, viewTimeout)
	defer cancel()

	if _, ok := b.sessions.Screen(userID); ok {
		b.sendText(ctx, userID, presentation.OrderInProgressMsg(), nil)
		return
	}

	total, err := b.sessions.Products(userID).AddPhotos(ctx, photos...)
	if err != nil {
		slog.Error("Failed to add photos", "error", err, "userID", userID)
		b.sendText(ctx, userID, presentation.GenericErrorMsg(), nil)
		return
	}
	b.sendText(ctx, userID, presentation.PhotosAddedMsg(len(photos), total), nil)
}

func (b *Bot) handleAlbumCmd(ctx context.Context, api *bot.Bot, update *models.Update) {
	userID := update.Message.From.ID

	album, err := b.sessions.Products(userID).Album(ctx)
	if err != nil {
		slog.Error("Failed to load photobook", "error", err, "userID", userID)
		b.sendText(ctx, userID, presentation.GenericErrorMsg(), nil)
		return
	}
	if len(album.Photos) == 0 {
		b.sendText(ctx, userID, presentation.EmptyAlbumMsg(), nil)
		return
	}

	cost := b.deps.Pricing.Quote(album.Title, len(album.Photos))
	b.sendText(ctx, userID, presentation.AlbumMsg(album.Title, len(album.Photos), cost), nil)
}

func (b *Bot) handleTitleCmd(ctx context.Context, api *bot.Bot, update *models.Update) {
	userID := update.Message.From.ID
	b.router.Transition(userID, fsm.StepAwaitingTitle, &fsm.TitleData{})
	b.sendText(ctx, userID, presentation.AskTitleMsg(), nil)
}

func (b *Bot) handleClearCmd(ctx context.Context, api *bot.Bot, update *models.Update) {
	userID := update.Message.From.ID

	if _, ok := b.sessions.Screen(userID); ok {
		b.sendText(ctx, userID, presentation.OrderInProgressMsg(), nil)
		return
	}
	b.sessions.Products(userID).Reset()
	b.sessions.Checkout(userID).Reset()
	b.sendText(ctx, userID, presentation.AlbumClearedMsg(), nil)
}

type TitleFlowDeps struct {
	Router   *fsm.Router
	Sessions *Sessions
}

func SetupTitleFlow(deps *TitleFlowDeps) {
	fsm.Chain[*fsm.TitleData](deps.Router, fsm.StepAwaitingTitle).
		OnText(func(ctx *fsm.ConversationContext[*fsm.TitleData], text string) error {
			if err := deps.Sessions.Products(ctx.UserID).SetTitle(ctx.Ctx, text); err != nil {
				slog.Error("Failed to save title", "error", err, "userID", ctx.UserID)
				return ctx.Complete(presentation.GenericErrorMsg())
			}
			return ctx.Complete(presentation.TitleSavedMsg(text))
		})
}
