package telegram

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"photobook-order-bot/internal/payment"
	"photobook-order-bot/internal/receipt"
	"photobook-order-bot/internal/telegram/internal/presentation"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

const viewTimeout = 10 * time.Second

// receiptView draws a receipt as one message that is edited in place, with
// separate messages for overlays and prompts.
type receiptView struct {
	api     *bot.Bot
	userID  int64
	hasCard func() bool

	mu        sync.Mutex
	messageID int
	overlayID int
}

func newReceiptView(api *bot.Bot, userID int64, hasCard func() bool) *receiptView {
	return &receiptView{api: api, userID: userID, hasCard: hasCard}
}

func (v *receiptView) Render(vm receipt.ViewModel) {
	ctx, cancel := context.WithTimeout(context.Background(), viewTimeout)
	defer cancel()

	text := presentation.ReceiptMsg(vm)
	var markup models.ReplyMarkup
	if kbd := presentation.ReceiptKbd(vm); kbd != nil {
		markup = kbd
	} else {
		markup = &models.InlineKeyboardMarkup{InlineKeyboard: [][]models.InlineKeyboardButton{}}
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if v.messageID == 0 {
		msg, err := v.api.SendMessage(ctx, &bot.SendMessageParams{
			ChatID:      v.userID,
			Text:        text,
			ParseMode:   models.ParseModeHTML,
			ReplyMarkup: markup,
		})
		if err != nil {
			slog.Error("Failed to send receipt", "error", err, "userID", v.userID)
			return
		}
		v.messageID = msg.ID
		return
	}

	_, err := v.api.EditMessageText(ctx, &bot.EditMessageTextParams{
		ChatID:      v.userID,
		MessageID:   v.messageID,
		Text:        text,
		ParseMode:   models.ParseModeHTML,
		ReplyMarkup: markup,
	})
	if err != nil && !notModified(err) {
		slog.Error("Failed to update receipt", "error", err, "userID", v.userID)
		return
	}
}

func (v *receiptView) ShowOverlay(text string) {
	ctx, cancel := context.WithTimeout(context.Background(), viewTimeout)
	defer cancel()

	v.mu.Lock()
	defer v.mu.Unlock()

	if v.overlayID != 0 {
		v.deleteMessage(ctx, v.overlayID)
	}
	msg, err := v.api.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    v.userID,
		Text:      presentation.PreparingPaymentMsg(text),
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		slog.Error("Failed to show overlay", "error", err, "userID", v.userID)
		return
	}
	v.overlayID = msg.ID
}

func (v *receiptView) HideOverlay() {
	ctx, cancel := context.WithTimeout(context.Background(), viewTimeout)
	defer cancel()

	v.mu.Lock()
	defer v.mu.Unlock()

	if v.overlayID == 0 {
		return
	}
	v.deleteMessage(ctx, v.overlayID)
	v.overlayID = 0
}

func (v *receiptView) ConfirmCancel(title, message string) {
	v.send(presentation.CancelConfirmMsg(title, message), presentation.CancelConfirmKbd())
}

func (v *receiptView) ShowPaymentMethods() {
	v.send(presentation.PaymentMethodMsg(), presentation.PaymentMethodKbd(v.hasCard()))
}

func (v *receiptView) ShowError(msg payment.Message) {
	v.send(presentation.PaymentMessageMsg(msg), nil)
}

// Close leaves the last receipt text in the chat but drops its buttons.
func (v *receiptView) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), viewTimeout)
	defer cancel()

	v.mu.Lock()
	defer v.mu.Unlock()

	if v.overlayID != 0 {
		v.deleteMessage(ctx, v.overlayID)
		v.overlayID = 0
	}
	if v.messageID == 0 {
		return
	}
	_, err := v.api.EditMessageReplyMarkup(ctx, &bot.EditMessageReplyMarkupParams{
		ChatID:      v.userID,
		MessageID:   v.messageID,
		ReplyMarkup: &models.InlineKeyboardMarkup{InlineKeyboard: [][]models.InlineKeyboardButton{}},
	})
	if err != nil && !notModified(err) {
		slog.Error("Failed to close receipt", "error", err, "userID", v.userID)
	}
}

func (v *receiptView) send(text string, kbd *models.InlineKeyboardMarkup) {
	ctx, cancel := context.WithTimeout(context.Background(), viewTimeout)
	defer cancel()

	params := &bot.SendMessageParams{
		ChatID:    v.userID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	}
	if kbd != nil {
		params.ReplyMarkup = kbd
	}
	if _, err := v.api.SendMessage(ctx, params); err != nil {
		slog.Error("Failed to send message", "error", err, "userID", v.userID)
	}
}

func (v *receiptView) deleteMessage(ctx context.Context, messageID int) {
	if _, err := v.api.DeleteMessage(ctx, &bot.DeleteMessageParams{
		ChatID:    v.userID,
		MessageID: messageID,
	}); err != nil {
		slog.Warn("Failed to delete message", "error", err, "userID", v.userID, "messageID", messageID)
	}
}

func notModified(err error) bool {
	return strings.Contains(err.Error(), "message is not modified")
}
