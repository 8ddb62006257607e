package fsm

import "photobook-order-bot/internal/delivery"

type ConversationStep int

const (
	StepIdle ConversationStep = iota
	StepAwaitingTitle
	StepAwaitingFirstName
	StepAwaitingLastName
	StepAwaitingEmail
	StepAwaitingPhone
	StepAwaitingLine1
	StepAwaitingLine2
	StepAwaitingCity
	StepAwaitingPostcode
	StepAwaitingState
	StepAwaitingCountry
	StepAwaitingCardCustomer
	StepAwaitingCardPaymentMethod
)

func (s ConversationStep) String() string {
	switch s {
	case StepIdle:
		return "idle"
	case StepAwaitingTitle:
		return "title"
	case StepAwaitingFirstName, StepAwaitingLastName, StepAwaitingEmail, StepAwaitingPhone,
		StepAwaitingLine1, StepAwaitingLine2, StepAwaitingCity, StepAwaitingPostcode,
		StepAwaitingState, StepAwaitingCountry:
		return "delivery"
	case StepAwaitingCardCustomer, StepAwaitingCardPaymentMethod:
		return "card"
	default:
		return "unknown"
	}
}

type StateData interface {
	StateData()
}

type IdleData struct{}

func (data *IdleData) StateData() {}

type TitleData struct{}

func (data *TitleData) StateData() {}

// DeliveryData is an address being typed in. EditIndex is -1 for a new
// address book entry.
type DeliveryData struct {
	Details   delivery.Details
	EditIndex int
}

func (data *DeliveryData) StateData() {}

type CardData struct {
	CustomerID string
}

func (data *CardData) StateData() {}
