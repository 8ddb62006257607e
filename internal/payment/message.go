package payment

import (
	"errors"
	"net"
	"net/http"

	"github.com/stripe/stripe-go/v74"
)

const (
	somethingWentWrong = "Something went wrong"
	checkConnection    = "Please check your internet connectivity and try again."
)

type MessageType int

const (
	MessageError MessageType = iota
	MessageInfo
)

// Message is an error as the user gets to see it.
type Message struct {
	Title string
	Text  string
	Type  MessageType
}

// NewMessage returns nil for a nil error.
func NewMessage(err error) *Message {
	if err == nil {
		return nil
	}

	var connErr *ErrConnection
	var netErr net.Error
	if errors.As(err, &connErr) || errors.As(err, &netErr) {
		return &Message{
			Title: "You Appear to be Offline",
			Text:  checkConnection,
			Type:  MessageInfo,
		}
	}

	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		return serverMessage(stripeErr.HTTPStatusCode, stripeErr.Msg)
	}

	var serverErr *ErrServer
	if errors.As(err, &serverErr) {
		return serverMessage(serverErr.Code, serverErr.Message)
	}

	switch {
	case errors.Is(err, ErrDeclined):
		return &Message{Title: "Payment Declined", Text: "The charge for your book was declined.", Type: MessageError}
	case errors.Is(err, ErrSheetTimeout):
		return &Message{Text: "The payment was not completed in time.", Type: MessageError}
	}

	return &Message{Text: somethingWentWrong, Type: MessageError}
}

func serverMessage(code int, message string) *Message {
	switch {
	case code == http.StatusInternalServerError && message == "":
		return &Message{
			Title: "Server Maintenance",
			Text:  "We'll be back and running as soon as possible!",
			Type:  MessageError,
		}
	case message != "":
		return &Message{Text: message, Type: MessageError}
	default:
		return &Message{Text: somethingWentWrong, Type: MessageError}
	}
}
