package telegram

import (
	"context"
	"strings"

	"photobook-order-bot/internal/payment"
	"photobook-order-bot/internal/telegram/internal/fsm"
	"photobook-order-bot/internal/telegram/internal/presentation"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

func (b *Bot) handleCardCmd(ctx context.Context, api *bot.Bot, update *models.Update) {
	userID := update.Message.From.ID
	b.router.Transition(userID, fsm.StepAwaitingCardCustomer, &fsm.CardData{})
	b.sendText(ctx, userID, presentation.AskCardCustomerMsg(), nil)
}

type CardFlowDeps struct {
	Router   *fsm.Router
	Sessions *Sessions
}

// SetupCardFlow stores a Stripe customer and payment method pair that card
// payments are charged against.
func SetupCardFlow(deps *CardFlowDeps) {
	fsm.Chain[*fsm.CardData](deps.Router, fsm.StepAwaitingCardCustomer).
		OnText(func(ctx *fsm.ConversationContext[*fsm.CardData], text string) error {
			if !strings.HasPrefix(text, "cus_") {
				return ctx.SendMessage(presentation.CardValidationErrorMsg(), nil)
			}
			ctx.Data.CustomerID = text
			ctx.Transition(fsm.StepAwaitingCardPaymentMethod, ctx.Data)
			return ctx.SendMessage(presentation.AskCardPaymentMethodMsg(), nil)
		}).
		Then(fsm.StepAwaitingCardPaymentMethod).
		OnText(func(ctx *fsm.ConversationContext[*fsm.CardData], text string) error {
			if !strings.HasPrefix(text, "pm_") {
				return ctx.SendMessage(presentation.CardValidationErrorMsg(), nil)
			}
			deps.Sessions.Checkout(ctx.UserID).SetSavedCard(payment.SavedCard{
				CustomerID:      ctx.Data.CustomerID,
				PaymentMethodID: text,
			})
			return ctx.Complete(presentation.CardSavedMsg())
		})
}
