package telegram

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"photobook-order-bot/internal/payment"
	"photobook-order-bot/internal/processing"
	"photobook-order-bot/internal/receipt"
	"photobook-order-bot/internal/telegram/internal/presentation"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

func (b *Bot) handleShippingCallback(ctx context.Context, api *bot.Bot, update *models.Update) {
	b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: update.CallbackQuery.ID,
	})
	userID := update.CallbackQuery.From.ID

	if _, ok := b.sessions.Screen(userID); ok {
		b.sendText(ctx, userID, presentation.OrderInProgressMsg(), nil)
		return
	}

	id, err := strconv.Atoi(strings.TrimPrefix(update.CallbackQuery.Data, "shipping:"))
	if err != nil {
		return
	}
	session := b.sessions.Checkout(userID)
	if err := session.SelectShippingMethod(id); err != nil {
		slog.Warn("Failed to select shipping method", "error", err, "userID", userID)
		b.sendText(ctx, userID, presentation.GenericErrorMsg(), nil)
		return
	}

	b.DeleteMessage(ctx, userID, callbackMessageID(update))
	_, hasCard := session.SavedCard()
	b.sendText(ctx, userID, presentation.PaymentMethodMsg(), presentation.PaymentMethodKbd(hasCard))
}

// handlePaymentMethodCallback either resumes an open receipt with the new
// method or authorizes the first payment and opens the receipt.
func (b *Bot) handlePaymentMethodCallback(ctx context.Context, api *bot.Bot, update *models.Update) {
	b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: update.CallbackQuery.ID,
	})
	userID := update.CallbackQuery.From.ID

	method, err := payment.ParseMethod(strings.TrimPrefix(update.CallbackQuery.Data, "paymethod:"))
	if err != nil {
		return
	}
	b.DeleteMessage(ctx, userID, callbackMessageID(update))

	screen, open := b.sessions.Screen(userID)
	if open && !acceptsPaymentMethod(screen) {
		slog.Info("Ignoring payment method for a finished receipt", "userID", userID, "method", method)
		return
	}

	session := b.sessions.Checkout(userID)
	session.SetPaymentMethod(method)

	if open {
		if err := screen.Appear(); err != nil {
			slog.Warn("Failed to resume receipt", "error", err, "userID", userID)
		}
		return
	}

	b.authorizeAndOpen(ctx, userID)
}

func (b *Bot) authorizeAndOpen(ctx context.Context, userID int64) {
	session := b.sessions.Checkout(userID)
	_, hasCard := session.SavedCard()

	req, err := session.PaymentRequest()
	if err != nil {
		b.sendText(ctx, userID, presentation.PaymentErrorMsg(err), presentation.PaymentMethodKbd(hasCard))
		return
	}
	if _, busy := b.authorizing.LoadOrStore(userID, struct{}{}); busy {
		b.sendText(ctx, userID, presentation.PaymentErrorMsg(payment.ErrSheetBusy), nil)
		return
	}

	overlayID := b.sendText(ctx, userID, presentation.PreparingPaymentMsg(receipt.PreparingPaymentText), nil)

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer b.authorizing.Delete(userID)

		auth, err := b.payments.AuthorizePayment(b.ctx, req, &overlayDelegate{bot: b, userID: userID, overlayID: overlayID})
		b.DeleteMessage(b.ctx, userID, overlayID)
		if err != nil {
			slog.Warn("Payment authorization failed", "error", err, "userID", userID, "method", req.Method)
			b.sendText(b.ctx, userID, presentation.PaymentErrorMsg(err), presentation.PaymentMethodKbd(hasCard))
			return
		}

		session.SetAuthorization(auth)
		b.openReceipt(userID)
	}()
}

func (b *Bot) openReceipt(userID int64) {
	session := b.sessions.Checkout(userID)

	engine := processing.NewDefaultEngine(b.ctx, processing.Deps{
		Files:      b.deps.FileService,
		Downloader: b.downloader,
		PDF:        b.deps.PDF,
		Orders:     b.deps.OrderService,
		Charger:    b.deps.Charger,
		Source:     session,
	})
	view := newReceiptView(b.api, userID, func() bool {
		_, ok := session.SavedCard()
		return ok
	})

	screen := receipt.NewScreen(receipt.Deps{
		UserID:   userID,
		Engine:   engine,
		Payments: b.payments,
		View:     view,
		Checkout: session,
		Products: b.sessions.Products(userID),
		Notifier: b.sessions,
		OnDismiss: func() {
			b.sendText(b.ctx, userID, presentation.HelpMsg(), nil)
		},
	})

	b.sessions.setScreen(userID, screen)
	screen.Start(b.ctx)
	if err := screen.Appear(); err != nil {
		slog.Error("Failed to open receipt", "error", err, "userID", userID)
	}
}

func (b *Bot) handleReceiptCallback(ctx context.Context, api *bot.Bot, update *models.Update) {
	userID := update.CallbackQuery.From.ID

	screen, ok := b.sessions.Screen(userID)
	if !ok {
		b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
			CallbackQueryID: update.CallbackQuery.ID,
			Text:            "This order is closed",
		})
		return
	}
	b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: update.CallbackQuery.ID,
	})

	var err error
	switch update.CallbackQuery.Data {
	case "receipt:primary":
		err = screen.TapPrimary()
	case "receipt:secondary":
		err = screen.TapSecondary()
	case "receipt:dismiss":
		err = screen.TapDismiss()
	case "receipt:cancel:yes":
		b.DeleteMessage(ctx, userID, callbackMessageID(update))
		err = screen.ConfirmCancel()
	case "receipt:cancel:no":
		b.DeleteMessage(ctx, userID, callbackMessageID(update))
		err = screen.DeclineCancel()
	}
	if err != nil {
		slog.Warn("Receipt action dropped", "error", err, "userID", userID, "action", update.CallbackQuery.Data)
	}
}

func (b *Bot) handlePreCheckout(ctx context.Context, api *bot.Bot, update *models.Update) {
	query := update.PreCheckoutQuery
	ok := b.sheet.Validate(query.From.ID, query.InvoicePayload, query.Currency, query.TotalAmount)

	params := &bot.AnswerPreCheckoutQueryParams{
		PreCheckoutQueryID: query.ID,
		OK:                 ok,
	}
	if !ok {
		params.ErrorMessage = "This invoice has expired. Please start the payment again."
	}
	if _, err := api.AnswerPreCheckoutQuery(ctx, params); err != nil {
		slog.Error("Error answering pre-checkout query", "error", err, "userID", query.From.ID)
	}
}

func (b *Bot) handleSuccessfulPayment(ctx context.Context, api *bot.Bot, update *models.Update) {
	if update.Message.From == nil {
		return
	}
	b.sheet.Paid(update.Message.From.ID, update.Message.SuccessfulPayment)
}

// overlayDelegate drops the "preparing payment" message once the invoice is
// on screen.
type overlayDelegate struct {
	bot       *Bot
	userID    int64
	overlayID int
}

func (d *overlayDelegate) ModalPresentationWillBegin() {
	d.bot.DeleteMessage(d.bot.ctx, d.userID, d.overlayID)
	d.overlayID = 0
}

func (d *overlayDelegate) ModalPresentationDidFinish() {}

type receiptState interface {
	State() (receipt.State, error)
}

// acceptsPaymentMethod reports whether a newly picked payment method may
// still resume the receipt. Finished and cancelled receipts only dismiss.
func acceptsPaymentMethod(screen receiptState) bool {
	state, err := screen.State()
	return err == nil && !state.Terminal()
}
