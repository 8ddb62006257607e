package checkout

import (
	"testing"

	"photobook-order-bot/internal/pkg/config"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPricing(t *testing.T) Pricing {
	t.Helper()
	p, err := NewPricing(config.PricingCfg{
		Currency:       "GBP",
		BasePrice:      "24.99",
		IncludedPages:  20,
		ExtraPagePrice: "0.50",
		Shipping: []config.ShippingCfg{
			{Name: "Standard", Price: "3.99", MaxDeliveryDays: 7},
			{Name: "Express", Price: "9.99", MaxDeliveryDays: 2},
		},
	})
	require.NoError(t, err)
	return p
}

func TestNewPricing(t *testing.T) {
	p := testPricing(t)

	assert.True(t, p.BasePrice.Equal(decimal.RequireFromString("24.99")))
	require.Len(t, p.Shipping, 2)
	assert.Equal(t, 1, p.Shipping[0].ID)
	assert.Equal(t, 2, p.Shipping[1].ID)
	assert.Equal(t, "Express", p.Shipping[1].Name)
}

func TestNewPricing_Invalid(t *testing.T) {
	shipping := []config.ShippingCfg{{Name: "Standard", Price: "3.99"}}

	_, err := NewPricing(config.PricingCfg{BasePrice: "abc", ExtraPagePrice: "1", Shipping: shipping})
	assert.ErrorContains(t, err, "base price")

	_, err = NewPricing(config.PricingCfg{BasePrice: "1", ExtraPagePrice: "x", Shipping: shipping})
	assert.ErrorContains(t, err, "extra page price")

	_, err = NewPricing(config.PricingCfg{BasePrice: "1", ExtraPagePrice: "1"})
	assert.ErrorIs(t, err, ErrNoShippingMethods)

	_, err = NewPricing(config.PricingCfg{BasePrice: "1", ExtraPagePrice: "1", Shipping: []config.ShippingCfg{{Name: "Post", Price: "free"}}})
	assert.ErrorContains(t, err, "shipping price")
}

func TestPricing_Quote(t *testing.T) {
	p := testPricing(t)

	cost := p.Quote("Summer", 24)

	require.Len(t, cost.LineItems, 2)
	assert.Equal(t, "Photobook \"Summer\"", cost.LineItems[0].Name)
	assert.Equal(t, "Extra pages (4)", cost.LineItems[1].Name)
	assert.True(t, cost.LineItems[1].Cost.Equal(decimal.NewFromInt(2)))
	assert.True(t, cost.Subtotal().Equal(decimal.RequireFromString("26.99")))

	require.Len(t, cost.ShippingMethods, 2)
	assert.True(t, cost.ShippingMethods[0].TotalCost.Equal(decimal.RequireFromString("30.98")))
	assert.True(t, cost.ShippingMethods[1].TotalCost.Equal(decimal.RequireFromString("36.98")))
	assert.Equal(t, 2, cost.ShippingMethods[1].MaxDeliveryDays)
}

func TestPricing_QuoteWithinIncludedPages(t *testing.T) {
	cost := testPricing(t).Quote("", 20)

	require.Len(t, cost.LineItems, 1)
	assert.Equal(t, "Photobook", cost.LineItems[0].Name)
	assert.Equal(t, "GBP", cost.Currency)
}
