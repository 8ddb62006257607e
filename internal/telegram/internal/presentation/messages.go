package presentation

import (
	"errors"
	"fmt"
	"strings"

	"photobook-order-bot/internal/checkout"
	"photobook-order-bot/internal/delivery"
	"photobook-order-bot/internal/payment"
)

func GenericErrorMsg() string {
	return "<b>❌ Something went wrong, please try again later</b>"
}

func StateConversionErrorMsg() string {
	return "<b>❌ Could not restore your previous answer. Please start over</b>"
}

func HelpMsg() string {
	var sb strings.Builder
	sb.WriteString("<b>📷 Send or forward photos to add them to your photobook</b>")
	sb.WriteString(breakLine(2))
	sb.WriteString("<b>🖼 Compressed photos and JPEG or PNG files are supported. Every photo becomes a page</b>")
	sb.WriteString(breakLine(2))
	sb.WriteString("<b>⚙️ Commands:</b>")
	sb.WriteString(breakLine(2))
	sb.WriteString("<b>/album — show your photobook</b>")
	sb.WriteString(breakLine(1))
	sb.WriteString("<b>/title — name your photobook</b>")
	sb.WriteString(breakLine(1))
	sb.WriteString("<b>/clear — start a new photobook</b>")
	sb.WriteString(breakLine(1))
	sb.WriteString("<b>/card — save a card for payments</b>")
	sb.WriteString(breakLine(1))
	sb.WriteString("<b>/checkout — order the printed book</b>")
	return sb.String()
}

func PhotosAddedMsg(added, total int) string {
	return fmt.Sprintf("<b>✔️ Added %d photos. Your photobook has %d pages</b>", added, total)
}

func AlbumMsg(title string, pages int, cost checkout.Cost) string {
	var sb strings.Builder
	if title == "" {
		title = "Untitled photobook"
	}
	sb.WriteString(fmt.Sprintf("<b>📖 %s</b>", esc(title)))
	sb.WriteString(breakLine(2))
	sb.WriteString(fmt.Sprintf("<b>📄 Pages: %d</b>", pages))
	sb.WriteString(breakLine(2))
	for _, item := range cost.LineItems {
		sb.WriteString(fmt.Sprintf("%s: %s", esc(item.Name), checkout.FormatCost(item.Cost, cost.Currency)))
		sb.WriteString(breakLine(1))
	}
	return sb.String()
}

func EmptyAlbumMsg() string {
	return "<b>🔍 Your photobook is empty. Send some photos first</b>"
}

func AlbumClearedMsg() string {
	return "<b>🗑 Photobook cleared</b>"
}

func AskTitleMsg() string {
	return "<b>✏️ Enter a title for your photobook</b>"
}

func TitleSavedMsg(title string) string {
	return fmt.Sprintf("<b>✔️ Title set to %s</b>", esc(title))
}

func OrderInProgressMsg() string {
	return "<b>⏳ You already have an order in progress</b>"
}

func AddressBookMsg(entries []delivery.Details) string {
	if len(entries) == 0 {
		return "<b>🏠 Where should we deliver your photobook?</b>"
	}
	var sb strings.Builder
	sb.WriteString("<b>🏠 Choose a delivery address</b>")
	for i, entry := range entries {
		sb.WriteString(breakLine(2))
		sb.WriteString(fmt.Sprintf("<b>%d. %s</b>", i+1, esc(entry.FullName())))
		sb.WriteString(breakLine(1))
		sb.WriteString(esc(entry.Line1))
		if desc := entry.DescriptionWithoutLine1(); desc != "" {
			sb.WriteString(breakLine(1))
			sb.WriteString(esc(desc))
		}
	}
	return sb.String()
}

func AskFirstNameMsg() string {
	return "<b>👤 Enter the recipient's first name</b>"
}

func AskLastNameMsg() string {
	return "<b>👤 Enter the recipient's last name</b>"
}

func AskEmailMsg() string {
	return "<b>📧 Enter an email address</b>"
}

func EmailValidationErrorMsg() string {
	return "❌ That does not look like an email address"
}

func AskPhoneMsg() string {
	return "<b>📞 Enter a phone number</b>"
}

func PhoneValidationErrorMsg() string {
	return fmt.Sprintf("❌ The phone number must have at least %d characters", delivery.MinPhoneNumberLength)
}

func AskLine1Msg() string {
	return "<b>🏠 Enter the first address line</b>"
}

func AskLine2Msg() string {
	return "<b>🏠 Enter the second address line</b>"
}

func AskCityMsg() string {
	return "<b>🏙 Enter the city</b>"
}

func AskPostcodeMsg() string {
	return "<b>📮 Enter the postcode</b>"
}

func AskStateMsg() string {
	return "<b>🗺 Enter the state or county</b>"
}

func AskCountryMsg() string {
	return "<b>🌍 Enter the two letter country code</b>"
}

func CountryValidationErrorMsg() string {
	return "❌ The country code must have two letters, like GB"
}

func DeliveryInvalidMsg() string {
	return "<b>❌ The address is incomplete. Please enter it again</b>"
}

func DeliverySavedMsg(details delivery.Details) string {
	var sb strings.Builder
	sb.WriteString("<b>✔️ Address saved</b>")
	for _, line := range details.AddressLines() {
		sb.WriteString(breakLine(1))
		sb.WriteString(esc(line))
	}
	return sb.String()
}

func ShippingMsg(cost checkout.Cost) string {
	var sb strings.Builder
	sb.WriteString("<b>🚚 Choose a shipping method</b>")
	for _, method := range cost.ShippingMethods {
		sb.WriteString(breakLine(2))
		sb.WriteString(fmt.Sprintf("<b>%s</b> — %s", esc(method.Name), checkout.FormatCost(method.ShippingCost, cost.Currency)))
		if method.MaxDeliveryDays > 0 {
			sb.WriteString(breakLine(1))
			sb.WriteString(fmt.Sprintf("Arrives within %d days", method.MaxDeliveryDays))
		}
		sb.WriteString(breakLine(1))
		sb.WriteString(fmt.Sprintf("Total: %s", checkout.FormatCost(method.TotalCost, cost.Currency)))
	}
	return sb.String()
}

func PaymentMethodMsg() string {
	return "<b>💳 How would you like to pay?</b>"
}

func PreparingPaymentMsg(text string) string {
	return fmt.Sprintf("<b>⏳ %s...</b>", esc(text))
}

func PaymentErrorMsg(err error) string {
	if errors.Is(err, payment.ErrNoSavedCard) {
		return "<b>💳 No saved card</b>" + breakLine(1) + "Save one with /card or choose another payment method."
	}
	return PaymentMessageMsg(*payment.NewMessage(err))
}

func PaymentMessageMsg(msg payment.Message) string {
	icon := "❌"
	if msg.Type == payment.MessageInfo {
		icon = "ℹ️"
	}
	return fmt.Sprintf("<b>%s %s</b>%s%s", icon, esc(msg.Title), breakLine(1), esc(msg.Text))
}

func AskCardCustomerMsg() string {
	return "<b>💳 Enter your Stripe customer ID</b>"
}

func AskCardPaymentMethodMsg() string {
	return "<b>💳 Enter the payment method ID of the card</b>"
}

func CardValidationErrorMsg() string {
	return "❌ That ID does not look right"
}

func CardSavedMsg() string {
	return "<b>✔️ Card saved. It will be charged when you pay by card</b>"
}

func CancelConfirmMsg(title, message string) string {
	return fmt.Sprintf("<b>%s</b>%s%s", esc(title), breakLine(2), esc(message))
}

// InvoiceTitle fits a description into the 32 characters an invoice title
// allows.
func InvoiceTitle(description string) string {
	runes := []rune(description)
	switch {
	case len(runes) == 0:
		return "Photobook"
	case len(runes) > 32:
		return string(runes[:31]) + "…"
	default:
		return description
	}
}
