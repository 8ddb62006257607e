package payment

import (
	"context"
	"log/slog"

	"photobook-order-bot/internal/pkg/metrics"
)

type CardAuthorizer interface {
	Authorize(ctx context.Context, req Request) (string, error)
}

// Sheet presents a provider-hosted payment form and blocks until the user
// pays, gives up or ctx ends.
type Sheet interface {
	Present(ctx context.Context, req Request) (string, error)
}

type Coordinator struct {
	cards CardAuthorizer
	sheet Sheet
}

func NewCoordinator(cards CardAuthorizer, sheet Sheet) *Coordinator {
	return &Coordinator{
		cards: cards,
		sheet: sheet,
	}
}

func (c *Coordinator) AuthorizePayment(ctx context.Context, req Request, delegate Delegate) (Authorization, error) {
	var (
		token string
		err   error
	)

	switch req.Method {
	case MethodCard:
		token, err = c.cards.Authorize(ctx, req)
	case MethodPaySheet:
		token, err = c.presentSheet(ctx, req, delegate)
	default:
		err = ErrNoPaymentMethod
	}
	if err == nil && token == "" {
		err = ErrEmptyToken
	}

	metrics.RecordPaymentAuthorization(req.Method.String(), err)
	if err != nil {
		slog.Error("Payment authorization failed", "error", err, "userID", req.UserID, "method", req.Method)
		return Authorization{}, err
	}

	return Authorization{Method: req.Method, Token: token}, nil
}

func (c *Coordinator) presentSheet(ctx context.Context, req Request, delegate Delegate) (string, error) {
	if delegate != nil {
		delegate.ModalPresentationWillBegin()
		defer delegate.ModalPresentationDidFinish()
	}
	return c.sheet.Present(ctx, req)
}
