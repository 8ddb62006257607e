package processing

import (
	"errors"
	"fmt"
)

type ErrorKind int

const (
	ErrorUpload ErrorKind = iota
	ErrorPDF
	ErrorSubmission
	ErrorPayment
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorUpload:
		return "upload"
	case ErrorPDF:
		return "pdf"
	case ErrorSubmission:
		return "submission"
	case ErrorPayment:
		return "payment"
	default:
		return "unknown"
	}
}

var (
	ErrNothingToUpload = errors.New("order has no photos to upload")
	ErrNoOrderInFlight = errors.New("no order in flight")
	ErrMissingToken    = errors.New("order has no payment token")
)

// Error is the failure reported to subscribers.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Errorf("%s stage failed: %w", e.Kind, e.Err).Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}
