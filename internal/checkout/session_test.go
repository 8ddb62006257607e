package checkout

import (
	"strings"
	"testing"

	"photobook-order-bot/internal/delivery"
	"photobook-order-bot/internal/file"
	"photobook-order-bot/internal/payment"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readySession(t *testing.T) *Session {
	t.Helper()
	s := NewSession(42)
	s.SetTitle("Summer")
	s.SetAssets([]file.RequestFile{{Name: "a.jpg", TGFileID: "a"}, {Name: "b.jpg", TGFileID: "b"}})
	s.SetCost(testPricing(t).Quote("Summer", 24))
	s.SetDelivery(delivery.Details{FirstName: "Ada", LastName: "Lovelace", Line1: "1 Main St", City: "London"})
	return s
}

func TestSession_SetCostSelectsFirstShippingMethod(t *testing.T) {
	s := readySession(t)
	assert.Equal(t, 1, s.ShippingMethodID())

	require.NoError(t, s.SelectShippingMethod(2))
	s.SetCost(testPricing(t).Quote("Summer", 30))
	assert.Equal(t, 2, s.ShippingMethodID())
}

func TestSession_SelectShippingMethod(t *testing.T) {
	s := NewSession(1)
	assert.ErrorIs(t, s.SelectShippingMethod(1), ErrNoCost)

	s.SetCost(testPricing(t).Quote("", 10))
	assert.ErrorIs(t, s.SelectShippingMethod(9), ErrNoShippingMethod)
	assert.Equal(t, 1, s.ShippingMethodID())
}

func TestSession_PaymentRequest(t *testing.T) {
	s := readySession(t)

	_, err := s.PaymentRequest()
	assert.ErrorIs(t, err, payment.ErrNoPaymentMethod)

	s.SetPaymentMethod(payment.MethodPaySheet)
	req, err := s.PaymentRequest()
	require.NoError(t, err)
	assert.Equal(t, int64(42), req.UserID)
	assert.Equal(t, "GBP", req.Currency)
	assert.True(t, req.Amount.Equal(decimal.RequireFromString("30.98")))
	assert.Equal(t, "Photobook \"Summer\"", req.Description)
	assert.Nil(t, req.Card)

	s.SetPaymentMethod(payment.MethodCard)
	_, err = s.PaymentRequest()
	assert.ErrorIs(t, err, payment.ErrNoSavedCard)

	s.SetSavedCard(payment.SavedCard{CustomerID: "cus_1", PaymentMethodID: "pm_1"})
	req, err = s.PaymentRequest()
	require.NoError(t, err)
	require.NotNil(t, req.Card)
	assert.Equal(t, "pm_1", req.Card.PaymentMethodID)
}

func TestSession_Job(t *testing.T) {
	s := readySession(t)
	s.SetAuthorization(payment.Authorization{Method: payment.MethodCard, Token: "pi_1"})

	job, err := s.Job()
	require.NoError(t, err)

	assert.Equal(t, int64(42), job.UserID)
	assert.True(t, strings.HasPrefix(job.Folder, "42"))
	assert.Contains(t, job.Folder, "summer")
	assert.Equal(t, job.Folder, s.Folder())
	assert.Len(t, job.Assets, 2)
	assert.Equal(t, "Standard", job.ShippingMethod)
	require.Len(t, job.LineItems, 3)
	assert.Equal(t, "Shipping: Standard", job.LineItems[2].Name)
	assert.True(t, job.Total.Equal(decimal.RequireFromString("30.98")))
	assert.Equal(t, "pi_1", job.Authorization.Token)

	again, err := s.Job()
	require.NoError(t, err)
	assert.Equal(t, job.Folder, again.Folder)
}

func TestSession_JobMissingParts(t *testing.T) {
	s := NewSession(1)
	_, err := s.Job()
	assert.ErrorIs(t, err, ErrNoAssets)

	s.AddAssets(file.RequestFile{Name: "a.jpg"})
	_, err = s.Job()
	assert.ErrorIs(t, err, ErrNoCost)

	s.SetCost(testPricing(t).Quote("", 1))
	_, err = s.Job()
	assert.ErrorIs(t, err, ErrNoDelivery)
	assert.Empty(t, s.Folder())
}

func TestSession_Reset(t *testing.T) {
	s := readySession(t)
	s.SetPaymentMethod(payment.MethodCard)
	s.SetSavedCard(payment.SavedCard{CustomerID: "cus_1", PaymentMethodID: "pm_1"})
	s.SetOrderID(7)
	_, err := s.Job()
	require.NoError(t, err)

	s.Reset()

	_, ok := s.Cost()
	assert.False(t, ok)
	_, ok = s.OrderID()
	assert.False(t, ok)
	_, ok = s.PaymentMethod()
	assert.False(t, ok)
	_, ok = s.Delivery()
	assert.False(t, ok)
	assert.Empty(t, s.Assets())
	assert.Empty(t, s.Folder())
	assert.Empty(t, s.Title())

	card, ok := s.SavedCard()
	assert.True(t, ok)
	assert.Equal(t, "cus_1", card.CustomerID)
}
