package telegram

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"photobook-order-bot/internal/payment"
	"photobook-order-bot/internal/telegram/internal/presentation"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/google/uuid"
)

// invoiceSettleTimeout is how long an invoice approved at pre-checkout keeps
// waiting for its successful payment after the sheet timed out.
const invoiceSettleTimeout = time.Minute

type invoice struct {
	payload   string
	amount    int
	currency  string
	confirmed bool
	result    chan string
}

// InvoiceSheet presents a payment request as a Telegram invoice and waits
// for the successful payment message.
type InvoiceSheet struct {
	api           *bot.Bot
	providerToken string
	timeout       time.Duration
	settle        time.Duration
	pending       map[int64]*invoice
	mu            sync.Mutex
}

func NewInvoiceSheet(api *bot.Bot, providerToken string, timeout time.Duration) *InvoiceSheet {
	return &InvoiceSheet{
		api:           api,
		providerToken: providerToken,
		timeout:       timeout,
		settle:        invoiceSettleTimeout,
		pending:       make(map[int64]*invoice),
	}
}

func (s *InvoiceSheet) Present(ctx context.Context, req payment.Request) (string, error) {
	inv, err := s.register(req.UserID, int(req.MinorUnits()), req.Currency)
	if err != nil {
		return "", err
	}
	defer s.release(req.UserID, inv)

	_, err = s.api.SendInvoice(ctx, &bot.SendInvoiceParams{
		ChatID:        req.UserID,
		Title:         presentation.InvoiceTitle(req.Description),
		Description:   req.Description,
		Payload:       inv.payload,
		ProviderToken: s.providerToken,
		Currency:      req.Currency,
		Prices: []models.LabeledPrice{
			{Label: req.Description, Amount: inv.amount},
		},
	})
	if err != nil {
		return "", &payment.ErrConnection{Err: err}
	}

	return s.await(ctx, req.UserID, inv)
}

func (s *InvoiceSheet) register(userID int64, amount int, currency string) (*invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, busy := s.pending[userID]; busy {
		return nil, payment.ErrSheetBusy
	}
	inv := &invoice{
		payload:  uuid.NewString(),
		amount:   amount,
		currency: currency,
		result:   make(chan string, 1),
	}
	s.pending[userID] = inv
	return inv, nil
}

func (s *InvoiceSheet) release(userID int64, inv *invoice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending[userID] == inv {
		delete(s.pending, userID)
	}
}

// await waits for the payment. Once the pre-checkout query was approved the
// user may already be charged, so neither the timeout nor ctx drop the
// invoice before the settle window ends.
func (s *InvoiceSheet) await(ctx context.Context, userID int64, inv *invoice) (string, error) {
	timer := time.NewTimer(s.timeout)
	defer timer.Stop()

	select {
	case token := <-inv.result:
		return token, nil
	case <-timer.C:
		if !s.confirmed(inv) {
			return "", payment.ErrSheetTimeout
		}
	case <-ctx.Done():
		if !s.confirmed(inv) {
			return "", ctx.Err()
		}
	}

	settle := time.NewTimer(s.settle)
	defer settle.Stop()

	select {
	case token := <-inv.result:
		if ctx.Err() != nil {
			slog.Warn("Invoice paid after the receipt stopped waiting", "userID", userID, "chargeID", token)
		}
		return token, nil
	case <-settle.C:
		return "", payment.ErrSheetTimeout
	}
}

func (s *InvoiceSheet) confirmed(inv *invoice) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return inv.confirmed
}

// Validate checks a pre-checkout query against the invoice the user was sent.
func (s *InvoiceSheet) Validate(userID int64, payload, currency string, amount int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	inv, ok := s.pending[userID]
	if !ok || inv.payload != payload || inv.currency != currency || inv.amount != amount {
		return false
	}
	inv.confirmed = true
	return true
}

// Paid resolves the pending invoice. It reports false for unknown payloads,
// which are logged with their charge ids for a refund.
func (s *InvoiceSheet) Paid(userID int64, sp *models.SuccessfulPayment) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	inv, ok := s.pending[userID]
	if !ok || inv.payload != sp.InvoicePayload {
		slog.Error("Payment for unknown invoice",
			"userID", userID,
			"payload", sp.InvoicePayload,
			"chargeID", sp.TelegramPaymentChargeID,
			"providerChargeID", sp.ProviderPaymentChargeID,
			"amount", sp.TotalAmount,
			"currency", sp.Currency,
		)
		return false
	}
	select {
	case inv.result <- sp.TelegramPaymentChargeID:
	default:
	}
	return true
}
