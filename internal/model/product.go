package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents an item in the storefront catalogue.
type Product struct {
	ID        string          `json:"id" db:"id"`
	Name      string          `json:"name" db:"name"`
	Price     decimal.Decimal `json:"price" db:"price"`
	MRP       decimal.Decimal `json:"mrp" db:"mrp"`
	Image     string          `json:"image" db:"image"`
	Category  string          `json:"category" db:"category"`
	Stock     int             `json:"stock" db:"stock"`
	Variants  []Variant       `json:"variants,omitempty"`
	CreatedAt time.Time       `json:"createdAt" db:"created_at"`
}

// Variant is a named sub-SKU of a product (for example a pack size) with its
// own price and stock.
type Variant struct {
	Name  string          `json:"name" db:"name"`
	Price decimal.Decimal `json:"price" db:"price"`
	MRP   decimal.Decimal `json:"mrp" db:"mrp"`
	Stock int             `json:"stock" db:"stock"`
}

// Variant returns the variant with the given name.
func (p *Product) Variant(name string) (Variant, bool) {
	for _, v := range p.Variants {
		if v.Name == name {
			return v, true
		}
	}
	return Variant{}, false
}

// DiscountPercent returns the whole-number discount of price against mrp.
func (p *Product) DiscountPercent() int {
	return discountPercent(p.MRP, p.Price)
}

// DiscountPercent returns the whole-number discount of price against mrp.
func (v Variant) DiscountPercent() int {
	return discountPercent(v.MRP, v.Price)
}

// DealPrice computes the selling price for a deal of discountPercent off mrp,
// rounded to two decimal places.
func DealPrice(mrp decimal.Decimal, discountPercent int) decimal.Decimal {
	off := mrp.Mul(decimal.NewFromInt(int64(discountPercent))).Div(decimal.NewFromInt(100))
	return mrp.Sub(off).Round(2)
}

func discountPercent(mrp, price decimal.Decimal) int {
	if !mrp.IsPositive() || price.GreaterThanOrEqual(mrp) {
		return 0
	}
	return int(mrp.Sub(price).Div(mrp).Mul(decimal.NewFromInt(100)).Round(0).IntPart())
}
