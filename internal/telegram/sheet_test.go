package telegram

import (
	"context"
	"testing"
	"time"

	"photobook-order-bot/internal/payment"

	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSheet(timeout, settle time.Duration) *InvoiceSheet {
	s := NewInvoiceSheet(nil, "", timeout)
	s.settle = settle
	return s
}

func payLater(s *InvoiceSheet, userID int64, payload string, after time.Duration) {
	go func() {
		time.Sleep(after)
		s.Paid(userID, &models.SuccessfulPayment{InvoicePayload: payload, TelegramPaymentChargeID: "ch_1"})
	}()
}

func TestInvoiceSheet_Paid(t *testing.T) {
	s := newTestSheet(time.Second, time.Second)
	inv, err := s.register(7, 2498, "GBP")
	require.NoError(t, err)

	require.True(t, s.Validate(7, inv.payload, "GBP", 2498))
	payLater(s, 7, inv.payload, 0)

	token, err := s.await(context.Background(), 7, inv)
	require.NoError(t, err)
	assert.Equal(t, "ch_1", token)
}

func TestInvoiceSheet_Busy(t *testing.T) {
	s := newTestSheet(time.Second, time.Second)
	inv, err := s.register(7, 100, "GBP")
	require.NoError(t, err)

	_, err = s.register(7, 100, "GBP")
	assert.ErrorIs(t, err, payment.ErrSheetBusy)

	s.release(7, inv)
	_, err = s.register(7, 100, "GBP")
	assert.NoError(t, err)
}

func TestInvoiceSheet_ValidateRejectsMismatch(t *testing.T) {
	s := newTestSheet(time.Second, time.Second)
	inv, err := s.register(7, 2498, "GBP")
	require.NoError(t, err)

	assert.False(t, s.Validate(7, inv.payload, "GBP", 2500))
	assert.False(t, s.Validate(7, inv.payload, "EUR", 2498))
	assert.False(t, s.Validate(7, "other", "GBP", 2498))
	assert.False(t, s.Validate(8, inv.payload, "GBP", 2498))
	assert.False(t, s.confirmed(inv))
}

func TestInvoiceSheet_UnconfirmedTimesOut(t *testing.T) {
	s := newTestSheet(20*time.Millisecond, time.Second)
	inv, err := s.register(7, 100, "GBP")
	require.NoError(t, err)

	start := time.Now()
	_, err = s.await(context.Background(), 7, inv)
	assert.ErrorIs(t, err, payment.ErrSheetTimeout)
	assert.Less(t, time.Since(start), time.Second)
}

func TestInvoiceSheet_ConfirmedPaymentSurvivesTimeout(t *testing.T) {
	s := newTestSheet(20*time.Millisecond, time.Second)
	inv, err := s.register(7, 100, "GBP")
	require.NoError(t, err)

	require.True(t, s.Validate(7, inv.payload, "GBP", 100))
	payLater(s, 7, inv.payload, 80*time.Millisecond)

	token, err := s.await(context.Background(), 7, inv)
	require.NoError(t, err)
	assert.Equal(t, "ch_1", token)
}

func TestInvoiceSheet_ConfirmedPaymentSurvivesCancel(t *testing.T) {
	s := newTestSheet(time.Second, time.Second)
	inv, err := s.register(7, 100, "GBP")
	require.NoError(t, err)
	require.True(t, s.Validate(7, inv.payload, "GBP", 100))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	payLater(s, 7, inv.payload, 30*time.Millisecond)

	token, err := s.await(ctx, 7, inv)
	require.NoError(t, err)
	assert.Equal(t, "ch_1", token)
}

func TestInvoiceSheet_ConfirmedGivesUpAfterSettle(t *testing.T) {
	s := newTestSheet(10*time.Millisecond, 20*time.Millisecond)
	inv, err := s.register(7, 100, "GBP")
	require.NoError(t, err)
	require.True(t, s.Validate(7, inv.payload, "GBP", 100))

	_, err = s.await(context.Background(), 7, inv)
	assert.ErrorIs(t, err, payment.ErrSheetTimeout)

	s.release(7, inv)
	assert.False(t, s.Paid(7, &models.SuccessfulPayment{InvoicePayload: inv.payload, TelegramPaymentChargeID: "ch_late"}))
}
