package service

import (
	"ecoshopy/internal/config"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Pricing derives the shipping and tax charged on a cart subtotal.
type Pricing struct {
	ShippingFee    decimal.Decimal
	TaxRatePercent decimal.Decimal
}

// NewPricing builds Pricing from checkout configuration.
func NewPricing(cfg config.CheckoutConfig) Pricing {
	return Pricing{
		ShippingFee:    cfg.ShippingFee,
		TaxRatePercent: cfg.TaxRatePercent,
	}
}

// Charges returns the shipping and tax for subtotal. An empty cart is not
// charged either.
func (p Pricing) Charges(subtotal decimal.Decimal) (shipping, tax decimal.Decimal) {
	if !subtotal.IsPositive() {
		return decimal.Zero, decimal.Zero
	}
	tax = subtotal.Mul(p.TaxRatePercent).Div(hundred).Round(2)
	return p.ShippingFee, tax
}
