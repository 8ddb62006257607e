package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/paymentintent"
)

// StripeCards authorizes saved cards with manual-capture payment intents.
// The package-level stripe.Key must be set before use.
type StripeCards struct{}

func NewStripeCards() *StripeCards {
	return &StripeCards{}
}

func (s *StripeCards) Authorize(ctx context.Context, req Request) (string, error) {
	if req.Card == nil {
		return "", ErrNoSavedCard
	}

	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(req.MinorUnits()),
		Currency:      stripe.String(strings.ToLower(req.Currency)),
		Customer:      stripe.String(req.Card.CustomerID),
		PaymentMethod: stripe.String(req.Card.PaymentMethodID),
		CaptureMethod: stripe.String(string(stripe.PaymentIntentCaptureMethodManual)),
		Confirm:       stripe.Bool(true),
		OffSession:    stripe.Bool(true),
		Description:   stripe.String(req.Description),
	}
	params.Context = ctx
	params.SetIdempotencyKey(uuid.NewString())
	params.AddMetadata("telegram_user_id", fmt.Sprint(req.UserID))

	intent, err := paymentintent.New(params)
	if err != nil {
		return "", stripeError(err)
	}
	if intent.Status != stripe.PaymentIntentStatusRequiresCapture {
		return "", fmt.Errorf("%w: intent %s is %s", ErrDeclined, intent.ID, intent.Status)
	}

	return intent.ID, nil
}

// Charger settles an authorization when the order is submitted.
type Charger interface {
	Capture(ctx context.Context, auth Authorization) error
}

type DefaultCharger struct{}

func NewDefaultCharger() *DefaultCharger {
	return &DefaultCharger{}
}

func (c *DefaultCharger) Capture(ctx context.Context, auth Authorization) error {
	if auth.Token == "" {
		return ErrEmptyToken
	}

	// Sheet payments are settled by the provider before we see the token.
	if auth.Method == MethodPaySheet {
		return nil
	}

	params := &stripe.PaymentIntentCaptureParams{}
	params.Context = ctx
	params.SetIdempotencyKey("capture-" + auth.Token)

	intent, err := paymentintent.Capture(auth.Token, params)
	if err != nil {
		return stripeError(err)
	}
	if intent.Status != stripe.PaymentIntentStatusSucceeded {
		return fmt.Errorf("%w: intent %s is %s", ErrDeclined, intent.ID, intent.Status)
	}
	return nil
}

func stripeError(err error) error {
	var stripeErr *stripe.Error
	if !errors.As(err, &stripeErr) {
		return &ErrConnection{Err: err}
	}
	if stripeErr.Type == stripe.ErrorTypeCard {
		return fmt.Errorf("%w: %s", ErrDeclined, stripeErr.Msg)
	}
	return err
}
