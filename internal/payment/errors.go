package payment

import (
	"errors"
	"fmt"
)

var (
	ErrNoPaymentMethod = errors.New("no payment method selected")
	ErrNoSavedCard     = errors.New("no saved card for card payment")
	ErrDeclined        = errors.New("payment declined")
	ErrSheetTimeout    = errors.New("payment sheet timed out")
	ErrSheetBusy       = errors.New("payment sheet already presented")
	ErrEmptyToken      = errors.New("authorization has no token")
)

type ErrConnection struct {
	Err error
}

func (e *ErrConnection) Error() string {
	return fmt.Errorf("payment provider unreachable: %w", e.Err).Error()
}

func (e *ErrConnection) Unwrap() error {
	return e.Err
}

// ErrServer is a non-2xx answer from the payment provider.
type ErrServer struct {
	Code    int
	Message string
}

func (e *ErrServer) Error() string {
	return fmt.Sprintf("payment provider returned %d: %s", e.Code, e.Message)
}
