package checkout

import (
	"errors"
	"fmt"

	"photobook-order-bot/internal/pkg/config"

	"github.com/shopspring/decimal"
)

var ErrNoShippingMethods = errors.New("pricing has no shipping methods")

type Pricing struct {
	Currency       string
	BasePrice      decimal.Decimal
	IncludedPages  int
	ExtraPagePrice decimal.Decimal
	Shipping       []ShippingOption
}

type ShippingOption struct {
	ID              int
	Name            string
	Price           decimal.Decimal
	MaxDeliveryDays int
}

func NewPricing(cfg config.PricingCfg) (Pricing, error) {
	base, err := decimal.NewFromString(cfg.BasePrice)
	if err != nil {
		return Pricing{}, fmt.Errorf("invalid base price %q: %w", cfg.BasePrice, err)
	}
	extra, err := decimal.NewFromString(cfg.ExtraPagePrice)
	if err != nil {
		return Pricing{}, fmt.Errorf("invalid extra page price %q: %w", cfg.ExtraPagePrice, err)
	}
	if len(cfg.Shipping) == 0 {
		return Pricing{}, ErrNoShippingMethods
	}

	options := make([]ShippingOption, len(cfg.Shipping))
	for i, s := range cfg.Shipping {
		price, err := decimal.NewFromString(s.Price)
		if err != nil {
			return Pricing{}, fmt.Errorf("invalid shipping price %q: %w", s.Price, err)
		}
		options[i] = ShippingOption{
			ID:              i + 1,
			Name:            s.Name,
			Price:           price,
			MaxDeliveryDays: s.MaxDeliveryDays,
		}
	}

	return Pricing{
		Currency:       cfg.Currency,
		BasePrice:      base,
		IncludedPages:  cfg.IncludedPages,
		ExtraPagePrice: extra,
		Shipping:       options,
	}, nil
}

// Quote prices a photobook with one photo per page.
func (p Pricing) Quote(title string, pages int) Cost {
	name := "Photobook"
	if title != "" {
		name = fmt.Sprintf("Photobook \"%s\"", title)
	}
	items := []LineItem{{Name: name, Cost: p.BasePrice}}
	if extra := pages - p.IncludedPages; extra > 0 {
		items = append(items, LineItem{
			Name: fmt.Sprintf("Extra pages (%d)", extra),
			Cost: p.ExtraPagePrice.Mul(decimal.NewFromInt(int64(extra))),
		})
	}

	cost := Cost{Currency: p.Currency, LineItems: items}
	subtotal := cost.Subtotal()
	for _, option := range p.Shipping {
		cost.ShippingMethods = append(cost.ShippingMethods, ShippingMethod{
			ID:              option.ID,
			Name:            option.Name,
			MaxDeliveryDays: option.MaxDeliveryDays,
			ShippingCost:    option.Price,
			TotalCost:       subtotal.Add(option.Price),
		})
	}
	return cost
}
