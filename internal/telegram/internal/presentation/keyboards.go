package presentation

import (
	"fmt"

	"photobook-order-bot/internal/checkout"
	"photobook-order-bot/internal/delivery"

	"github.com/go-telegram/bot/models"
)

func SkipKbd() *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{{Text: "⏩ Skip", CallbackData: "skip"}},
		},
	}
}

func AddressBookKbd(entries []delivery.Details) *models.InlineKeyboardMarkup {
	keyboard := &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{},
	}
	for i, entry := range entries {
		label := fmt.Sprintf("%d. %s", i+1, entry.Line1)
		if entry.Selected {
			label = "✔️ " + label
		}
		keyboard.InlineKeyboard = append(keyboard.InlineKeyboard, []models.InlineKeyboardButton{
			{Text: label, CallbackData: fmt.Sprintf("address:select:%d", i)},
			{Text: "✏️", CallbackData: fmt.Sprintf("address:edit:%d", i)},
			{Text: "🗑", CallbackData: fmt.Sprintf("address:remove:%d", i)},
		})
	}
	keyboard.InlineKeyboard = append(keyboard.InlineKeyboard, []models.InlineKeyboardButton{
		{Text: "➕ New address", CallbackData: "address:new"},
	})
	return keyboard
}

func ShippingKbd(cost checkout.Cost, selected int) *models.InlineKeyboardMarkup {
	keyboard := &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{},
	}
	for _, method := range cost.ShippingMethods {
		label := fmt.Sprintf("%s · %s", method.Name, checkout.FormatCost(method.TotalCost, cost.Currency))
		if method.ID == selected {
			label = "✔️ " + label
		}
		keyboard.InlineKeyboard = append(keyboard.InlineKeyboard, []models.InlineKeyboardButton{
			{Text: label, CallbackData: fmt.Sprintf("shipping:%d", method.ID)},
		})
	}
	return keyboard
}

func PaymentMethodKbd(hasCard bool) *models.InlineKeyboardMarkup {
	keyboard := &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{},
	}
	if hasCard {
		keyboard.InlineKeyboard = append(keyboard.InlineKeyboard, []models.InlineKeyboardButton{
			{Text: "💳 Saved card", CallbackData: "paymethod:card"},
		})
	}
	keyboard.InlineKeyboard = append(keyboard.InlineKeyboard, []models.InlineKeyboardButton{
		{Text: "🧾 Pay in Telegram", CallbackData: "paymethod:sheet"},
	})
	return keyboard
}

func CancelConfirmKbd() *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{{Text: "✔️ Yes", CallbackData: "receipt:cancel:yes"}},
			{{Text: "❌ No", CallbackData: "receipt:cancel:no"}},
		},
	}
}
