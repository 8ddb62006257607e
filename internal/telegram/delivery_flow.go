package telegram

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"photobook-order-bot/internal/delivery"
	"photobook-order-bot/internal/photobook"
	"photobook-order-bot/internal/telegram/internal/fsm"
	"photobook-order-bot/internal/telegram/internal/presentation"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

func (b *Bot) handleCheckoutCmd(ctx context.Context, api *bot.Bot, update *models.Update) {
	userID := update.Message.From.ID

	if screen, ok := b.sessions.Screen(userID); ok {
		b.sendText(ctx, userID, presentation.OrderInProgressMsg(), nil)
		if err := screen.Appear(); err != nil {
			slog.Warn("Failed to show receipt", "error", err, "userID", userID)
		}
		return
	}

	if err := b.sessions.Products(userID).LoadUserPhotobook(); err != nil {
		if errors.Is(err, photobook.ErrEmptyAlbum) {
			b.sendText(ctx, userID, presentation.EmptyAlbumMsg(), nil)
			return
		}
		slog.Error("Failed to load photobook", "error", err, "userID", userID)
		b.sendText(ctx, userID, presentation.GenericErrorMsg(), nil)
		return
	}

	b.showAddressBook(ctx, userID)
}

func (b *Bot) showAddressBook(ctx context.Context, userID int64) {
	book, err := delivery.LoadBook(ctx, b.deps.Addresses, userID)
	if err != nil {
		slog.Error("Failed to load address book", "error", err, "userID", userID)
		b.sendText(ctx, userID, presentation.GenericErrorMsg(), nil)
		return
	}

	entries := book.All()
	if len(entries) == 0 {
		startDeliveryEntry(ctx, b.router, b.api, userID, delivery.Details{}, -1)
		return
	}
	b.sendText(ctx, userID, presentation.AddressBookMsg(entries), presentation.AddressBookKbd(entries))
}

func (b *Bot) handleAddressCallback(ctx context.Context, api *bot.Bot, update *models.Update) {
	b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: update.CallbackQuery.ID,
	})
	userID := update.CallbackQuery.From.ID

	parts := strings.Split(update.CallbackQuery.Data, ":")
	if len(parts) < 2 {
		return
	}
	if parts[1] == "new" {
		startDeliveryEntry(ctx, b.router, api, userID, delivery.Details{}, -1)
		return
	}
	if len(parts) != 3 {
		return
	}
	idx, err := strconv.Atoi(parts[2])
	if err != nil {
		return
	}

	book, err := delivery.LoadBook(ctx, b.deps.Addresses, userID)
	if err != nil {
		slog.Error("Failed to load address book", "error", err, "userID", userID)
		b.sendText(ctx, userID, presentation.GenericErrorMsg(), nil)
		return
	}
	entries := book.All()
	if idx < 0 || idx >= len(entries) {
		b.showAddressBook(ctx, userID)
		return
	}
	entry := entries[idx]

	switch parts[1] {
	case "select":
		if err := book.Select(ctx, entry); err != nil {
			slog.Error("Failed to select address", "error", err, "userID", userID)
		}
		b.DeleteMessage(ctx, userID, callbackMessageID(update))
		b.proceedToShipping(ctx, userID, entry)
	case "edit":
		startDeliveryEntry(ctx, b.router, api, userID, entry, idx)
	case "remove":
		if err := book.Remove(ctx, entry); err != nil {
			slog.Error("Failed to remove address", "error", err, "userID", userID)
		}
		b.DeleteMessage(ctx, userID, callbackMessageID(update))
		b.showAddressBook(ctx, userID)
	}
}

func (b *Bot) proceedToShipping(ctx context.Context, userID int64, details delivery.Details) {
	if _, ok := b.sessions.Screen(userID); ok {
		b.sendText(ctx, userID, presentation.OrderInProgressMsg(), nil)
		return
	}

	session := b.sessions.Checkout(userID)
	session.SetDelivery(details)

	cost, ok := session.Cost()
	if !ok {
		b.sendText(ctx, userID, presentation.EmptyAlbumMsg(), nil)
		return
	}
	b.sendText(ctx, userID, presentation.ShippingMsg(cost), presentation.ShippingKbd(cost, session.ShippingMethodID()))
}

type deliveryField struct {
	step     fsm.ConversationStep
	ask      func() string
	optional bool
	get      func(d *delivery.Details) *string
	validate func(value string) string
}

var deliveryFields = []deliveryField{
	{
		step: fsm.StepAwaitingFirstName,
		ask:  presentation.AskFirstNameMsg,
		get:  func(d *delivery.Details) *string { return &d.FirstName },
	},
	{
		step: fsm.StepAwaitingLastName,
		ask:  presentation.AskLastNameMsg,
		get:  func(d *delivery.Details) *string { return &d.LastName },
	},
	{
		step: fsm.StepAwaitingEmail,
		ask:  presentation.AskEmailMsg,
		get:  func(d *delivery.Details) *string { return &d.Email },
		validate: func(value string) string {
			if !delivery.IsValidEmail(value) {
				return presentation.EmailValidationErrorMsg()
			}
			return ""
		},
	},
	{
		step: fsm.StepAwaitingPhone,
		ask:  presentation.AskPhoneMsg,
		get:  func(d *delivery.Details) *string { return &d.Phone },
		validate: func(value string) string {
			if utf8.RuneCountInString(value) < delivery.MinPhoneNumberLength {
				return presentation.PhoneValidationErrorMsg()
			}
			return ""
		},
	},
	{
		step: fsm.StepAwaitingLine1,
		ask:  presentation.AskLine1Msg,
		get:  func(d *delivery.Details) *string { return &d.Line1 },
	},
	{
		step:     fsm.StepAwaitingLine2,
		ask:      presentation.AskLine2Msg,
		optional: true,
		get:      func(d *delivery.Details) *string { return &d.Line2 },
	},
	{
		step: fsm.StepAwaitingCity,
		ask:  presentation.AskCityMsg,
		get:  func(d *delivery.Details) *string { return &d.City },
	},
	{
		step: fsm.StepAwaitingPostcode,
		ask:  presentation.AskPostcodeMsg,
		get:  func(d *delivery.Details) *string { return &d.ZipOrPostcode },
	},
	{
		step: fsm.StepAwaitingState,
		ask:  presentation.AskStateMsg,
		get:  func(d *delivery.Details) *string { return &d.StateOrCounty },
	},
	{
		step: fsm.StepAwaitingCountry,
		ask:  presentation.AskCountryMsg,
		get:  func(d *delivery.Details) *string { return &d.CountryCode },
		validate: func(value string) string {
			if !isCountryCode(value) {
				return presentation.CountryValidationErrorMsg()
			}
			return ""
		},
	},
}

func startDeliveryEntry(ctx context.Context, router *fsm.Router, api *bot.Bot, userID int64, details delivery.Details, editIndex int) {
	data := &fsm.DeliveryData{Details: details, EditIndex: editIndex}
	router.Transition(userID, deliveryFields[0].step, data)

	params := &bot.SendMessageParams{
		ChatID:    userID,
		Text:      deliveryFields[0].ask(),
		ParseMode: models.ParseModeHTML,
	}
	if editIndex >= 0 {
		params.ReplyMarkup = presentation.SkipKbd()
	}
	if _, err := api.SendMessage(ctx, params); err != nil {
		slog.Error("Error sending message", "error", err, "userID", userID)
	}
}

type DeliveryFlowDeps struct {
	Router    *fsm.Router
	Addresses delivery.Store
	OnSaved   func(ctx context.Context, userID int64, details delivery.Details)
}

// SetupDeliveryFlow asks for an address one field at a time. While editing
// an entry every field can be skipped to keep its current value.
func SetupDeliveryFlow(deps *DeliveryFlowDeps) {
	chain := fsm.Chain[*fsm.DeliveryData](deps.Router, deliveryFields[0].step)

	for i, field := range deliveryFields {
		next := i + 1
		chain = chain.Then(field.step).
			OnText(func(ctx *fsm.ConversationContext[*fsm.DeliveryData], text string) error {
				if field.validate != nil {
					if msg := field.validate(text); msg != "" {
						return ctx.SendMessage(msg, nil)
					}
				}
				*field.get(&ctx.Data.Details) = text
				return advanceDelivery(ctx, deps, next)
			}).
			OnCallback(func(ctx *fsm.ConversationContext[*fsm.DeliveryData], data string) error {
				if data != "skip" || (!field.optional && ctx.Data.EditIndex < 0) {
					return nil
				}
				return advanceDelivery(ctx, deps, next)
			})
	}
}

func advanceDelivery(ctx *fsm.ConversationContext[*fsm.DeliveryData], deps *DeliveryFlowDeps, next int) error {
	if next < len(deliveryFields) {
		field := deliveryFields[next]
		ctx.Transition(field.step, ctx.Data)
		if field.optional || ctx.Data.EditIndex >= 0 {
			return ctx.SendMessage(field.ask(), presentation.SkipKbd())
		}
		return ctx.SendMessage(field.ask(), nil)
	}
	return finalizeDelivery(ctx, deps)
}

func finalizeDelivery(ctx *fsm.ConversationContext[*fsm.DeliveryData], deps *DeliveryFlowDeps) error {
	details := ctx.Data.Details
	details.CountryCode = strings.ToUpper(details.CountryCode)
	if !details.IsValid() {
		return ctx.Complete(presentation.DeliveryInvalidMsg())
	}

	book, err := delivery.LoadBook(ctx.Ctx, deps.Addresses, ctx.UserID)
	if err != nil {
		slog.Error("Failed to load address book", "error", err, "userID", ctx.UserID)
		return ctx.Complete(presentation.GenericErrorMsg())
	}

	if ctx.Data.EditIndex >= 0 {
		err = book.Edit(ctx.Ctx, ctx.Data.EditIndex, details)
		if err == nil {
			err = book.Select(ctx.Ctx, details)
		}
	} else {
		err = book.Add(ctx.Ctx, details)
	}
	if err != nil {
		slog.Error("Failed to save address", "error", err, "userID", ctx.UserID)
		return ctx.Complete(presentation.GenericErrorMsg())
	}

	if err := ctx.Complete(presentation.DeliverySavedMsg(details)); err != nil {
		return err
	}
	if deps.OnSaved != nil {
		deps.OnSaved(ctx.Ctx, ctx.UserID, details)
	}
	return nil
}

func isCountryCode(value string) bool {
	if utf8.RuneCountInString(value) != 2 {
		return false
	}
	for _, r := range value {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
