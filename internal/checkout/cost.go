package checkout

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var currencySymbols = map[string]string{
	"GBP": "£",
	"USD": "$",
	"EUR": "€",
	"RUB": "₽",
}

type LineItem struct {
	Name string
	Cost decimal.Decimal
}

type ShippingMethod struct {
	ID              int
	Name            string
	MaxDeliveryDays int
	ShippingCost    decimal.Decimal
	TotalCost       decimal.Decimal
}

// Cost is a priced snapshot of the order. It is read-only once quoted.
type Cost struct {
	Currency        string
	LineItems       []LineItem
	ShippingMethods []ShippingMethod
}

func (c Cost) ShippingMethod(id int) (ShippingMethod, bool) {
	for _, m := range c.ShippingMethods {
		if m.ID == id {
			return m, true
		}
	}
	return ShippingMethod{}, false
}

func (c Cost) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.LineItems {
		total = total.Add(item.Cost)
	}
	return total
}

func FormatCost(amount decimal.Decimal, currency string) string {
	currency = strings.ToUpper(currency)
	if symbol, ok := currencySymbols[currency]; ok {
		if amount.IsNegative() {
			return "-" + symbol + amount.Abs().StringFixed(2)
		}
		return symbol + amount.StringFixed(2)
	}
	return fmt.Sprintf("%s %s", amount.StringFixed(2), currency)
}
