package presentation

import (
	"fmt"
	"strings"

	"photobook-order-bot/internal/receipt"

	"github.com/go-telegram/bot/models"
)

const progressBarWidth = 10

func ReceiptMsg(vm receipt.ViewModel) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("<b>🧾 %s</b>", esc(vm.Title)))

	if vm.Progress != nil {
		sb.WriteString(breakLine(2))
		sb.WriteString(fmt.Sprintf("<b>⏳ Uploading photos %d/%d</b>", vm.Progress.Uploaded(), vm.Progress.Total))
		sb.WriteString(breakLine(1))
		sb.WriteString(progressBar(vm.Progress.Uploaded(), vm.Progress.Total))
	}

	if vm.Info != nil {
		sb.WriteString(breakLine(2))
		sb.WriteString(fmt.Sprintf("%s <b>%s</b>", vm.Info.Icon, esc(vm.Info.Title)))
		sb.WriteString(breakLine(1))
		sb.WriteString(esc(vm.Info.Description))
	}

	if vm.Details != nil {
		sb.WriteString(breakLine(2))
		orderNumber := esc(vm.Details.OrderNumber)
		if vm.Details.OrderNumberDimmed {
			orderNumber = "<i>" + orderNumber + "</i>"
		}
		sb.WriteString(fmt.Sprintf("<b>Order number:</b> %s", orderNumber))
		if vm.Details.ShippingMethod != "" {
			sb.WriteString(breakLine(1))
			sb.WriteString(fmt.Sprintf("<b>Shipping:</b> %s", esc(vm.Details.ShippingMethod)))
		}
		if len(vm.Details.Address) > 0 {
			sb.WriteString(breakLine(1))
			sb.WriteString("<b>Deliver to:</b>")
			for _, line := range vm.Details.Address {
				sb.WriteString(breakLine(1))
				sb.WriteString(esc(line))
			}
		}
	}

	if len(vm.LineItems) > 0 {
		sb.WriteString(breakLine(2))
		for i, item := range vm.LineItems {
			if i > 0 {
				sb.WriteString(breakLine(1))
			}
			sb.WriteString(fmt.Sprintf("%s: %s", esc(item.Name), esc(item.Cost)))
		}
	}

	if vm.Footer != nil {
		sb.WriteString(breakLine(2))
		sb.WriteString(fmt.Sprintf("<b>Total: %s</b>", esc(vm.Footer.Total)))
	}

	return sb.String()
}

// ReceiptKbd returns nil when the receipt has nothing to tap.
func ReceiptKbd(vm receipt.ViewModel) *models.InlineKeyboardMarkup {
	var rows [][]models.InlineKeyboardButton

	if vm.Info != nil {
		var row []models.InlineKeyboardButton
		if vm.Info.Primary != "" {
			row = append(row, models.InlineKeyboardButton{Text: vm.Info.Primary, CallbackData: "receipt:primary"})
		}
		if vm.Info.Secondary != "" {
			row = append(row, models.InlineKeyboardButton{Text: vm.Info.Secondary, CallbackData: "receipt:secondary"})
		}
		if len(row) > 0 {
			rows = append(rows, row)
		}
	}

	if vm.Dismiss.Enabled && vm.Dismiss.Label != "" {
		rows = append(rows, []models.InlineKeyboardButton{
			{Text: vm.Dismiss.Label, CallbackData: "receipt:dismiss"},
		})
	}

	if len(rows) == 0 {
		return nil
	}
	return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}

func progressBar(done, total int) string {
	if total <= 0 {
		return strings.Repeat("░", progressBarWidth)
	}
	filled := min(max(done*progressBarWidth/total, 0), progressBarWidth)
	return strings.Repeat("▓", filled) + strings.Repeat("░", progressBarWidth-filled)
}
