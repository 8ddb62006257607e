package payment

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

type Method int

const (
	MethodCard Method = iota
	MethodPaySheet
)

func (m Method) String() string {
	switch m {
	case MethodCard:
		return "card"
	case MethodPaySheet:
		return "sheet"
	default:
		return "unknown"
	}
}

func ParseMethod(s string) (Method, error) {
	switch s {
	case "card":
		return MethodCard, nil
	case "sheet":
		return MethodPaySheet, nil
	}
	return 0, fmt.Errorf("unknown payment method %q", s)
}

// SavedCard points at a Stripe customer with an attached payment method.
type SavedCard struct {
	CustomerID      string
	PaymentMethodID string
}

type Request struct {
	UserID      int64
	Amount      decimal.Decimal
	Currency    string
	Description string
	Method      Method
	Card        *SavedCard
}

// MinorUnits converts the amount to the smallest unit of Currency, using its
// standard fraction digits (JPY has none, GBP has two). Unknown codes use two.
func (r Request) MinorUnits() int64 {
	return r.Amount.Shift(int32(minorUnitScale(r.Currency))).Round(0).IntPart()
}

func minorUnitScale(code string) int {
	unit, err := currency.ParseISO(strings.ToUpper(code))
	if err != nil {
		return 2
	}
	scale, _ := currency.Standard.Rounding(unit)
	return scale
}

type Authorization struct {
	Method Method
	Token  string
}

// Delegate brackets the visible lifetime of a pay sheet.
type Delegate interface {
	ModalPresentationWillBegin()
	ModalPresentationDidFinish()
}
