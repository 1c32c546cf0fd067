// Package cart holds the shopping cart model: lines, quantities and the
// totals derived from them. The model performs no I/O; persistence goes
// through a Store.
package cart

import (
	"context"

	"ecoshopy/internal/model"

	"github.com/shopspring/decimal"
)

// Store persists cart snapshots between requests.
type Store interface {
	// Load returns the cart saved under id, or an empty cart if none exists.
	Load(ctx context.Context, id string) (*Cart, error)

	// Save replaces the snapshot stored under id.
	Save(ctx context.Context, id string, c *Cart) error

	// Delete removes the snapshot stored under id. Deleting a missing cart is not an error.
	Delete(ctx context.Context, id string) error
}

// Key identifies a cart line.
type Key struct {
	ProductID string `json:"productId"`
	Variant   string `json:"variant,omitempty"`
}

// Item is what gets added to the cart: a product, optionally narrowed to one
// of its variants.
type Item struct {
	Product         model.Product
	SelectedVariant *model.Variant
}

// NewItem builds an Item for product p and the named variant. An empty
// variant name selects the base product.
func NewItem(p model.Product, variant string) (Item, error) {
	item := Item{Product: p}
	if variant == "" {
		return item, nil
	}
	v, ok := p.Variant(variant)
	if !ok {
		return Item{}, model.ErrVariantNotFound
	}
	item.SelectedVariant = &v
	return item, nil
}

// Key returns the line key the item merges into.
func (i Item) Key() Key {
	k := Key{ProductID: i.Product.ID}
	if i.SelectedVariant != nil {
		k.Variant = i.SelectedVariant.Name
	}
	return k
}

// Stock is the variant stock when a variant is selected, else the product
// stock.
func (i Item) Stock() int {
	if i.SelectedVariant != nil {
		return i.SelectedVariant.Stock
	}
	return i.Product.Stock
}

// Line is one entry of a cart.
type Line struct {
	ProductID       string          `json:"productId"`
	Name            string          `json:"name"`
	Image           string          `json:"image"`
	Category        string          `json:"category"`
	Price           decimal.Decimal `json:"price"`
	Stock           int             `json:"stock"`
	SelectedVariant *model.Variant  `json:"selectedVariant,omitempty"`
	Quantity        int             `json:"quantity"`
}

// Key returns the line's identity within the cart.
func (l Line) Key() Key {
	k := Key{ProductID: l.ProductID}
	if l.SelectedVariant != nil {
		k.Variant = l.SelectedVariant.Name
	}
	return k
}

// EffectivePrice is the variant price when a variant is selected, else the
// product price.
func (l Line) EffectivePrice() decimal.Decimal {
	if l.SelectedVariant != nil {
		return l.SelectedVariant.Price
	}
	return l.Price
}

// EffectiveStock is the variant stock when a variant is selected, else the
// product stock.
func (l Line) EffectiveStock() int {
	if l.SelectedVariant != nil {
		return l.SelectedVariant.Stock
	}
	return l.Stock
}

// Total returns quantity × effective price.
func (l Line) Total() decimal.Decimal {
	return l.EffectivePrice().Mul(decimal.NewFromInt(int64(l.Quantity)))
}

func (l *Line) overwrite(item Item) {
	l.Name = item.Product.Name
	l.Image = item.Product.Image
	l.Category = item.Product.Category
	l.Price = item.Product.Price
	l.Stock = item.Product.Stock
	if item.SelectedVariant != nil {
		v := *item.SelectedVariant
		l.SelectedVariant = &v
	} else {
		l.SelectedVariant = nil
	}
}

// Cart is an ordered collection of lines; insertion order is add order.
type Cart struct {
	Items []Line `json:"items"`
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{Items: []Line{}}
}

// Add merges quantity units of item into the cart. An existing line for the
// same key has its quantity increased and its product details replaced by
// the incoming item's. A quantity below one is ignored.
func (c *Cart) Add(item Item, quantity int) {
	if quantity < 1 {
		return
	}
	if i := c.index(item.Key()); i >= 0 {
		c.Items[i].Quantity += quantity
		c.Items[i].overwrite(item)
		return
	}
	line := Line{ProductID: item.Product.ID, Quantity: quantity}
	line.overwrite(item)
	c.Items = append(c.Items, line)
}

// UpdateQuantity sets the quantity of the line with key k. A quantity below
// one is ignored: lines are only removed through Remove. The stock ceiling
// is not enforced here.
func (c *Cart) UpdateQuantity(k Key, quantity int) {
	if quantity < 1 {
		return
	}
	if i := c.index(k); i >= 0 {
		c.Items[i].Quantity = quantity
	}
}

// Refresh replaces the product details of the line with key k, keeping its
// quantity. It reports whether the line exists.
func (c *Cart) Refresh(k Key, item Item) bool {
	i := c.index(k)
	if i < 0 {
		return false
	}
	c.Items[i].overwrite(item)
	return true
}

// Remove deletes the line with key k if present.
func (c *Cart) Remove(k Key) {
	if i := c.index(k); i >= 0 {
		c.Items = append(c.Items[:i], c.Items[i+1:]...)
	}
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.Items = []Line{}
}

// Line returns the line with key k.
func (c *Cart) Line(k Key) (Line, bool) {
	if i := c.index(k); i >= 0 {
		return c.Items[i], true
	}
	return Line{}, false
}

// Lines returns a copy of the cart lines in insertion order.
func (c *Cart) Lines() []Line {
	out := make([]Line, len(c.Items))
	copy(out, c.Items)
	return out
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// ItemCount returns the number of units across all lines.
func (c *Cart) ItemCount() int {
	n := 0
	for _, l := range c.Items {
		n += l.Quantity
	}
	return n
}

// Subtotal returns Σ(quantity × effective price), computed on every call.
func (c *Cart) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range c.Items {
		sum = sum.Add(l.Total())
	}
	return sum
}

// Total returns the subtotal plus shipping and tax.
func (c *Cart) Total(shipping, tax decimal.Decimal) decimal.Decimal {
	return c.Subtotal().Add(shipping).Add(tax)
}

// Summary is the priced view of a cart returned to clients.
type Summary struct {
	Items     []Line          `json:"items"`
	ItemCount int             `json:"itemCount"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Shipping  decimal.Decimal `json:"shipping"`
	Tax       decimal.Decimal `json:"tax"`
	Total     decimal.Decimal `json:"total"`
}

// Summary prices the cart with the given shipping and tax amounts.
func (c *Cart) Summary(shipping, tax decimal.Decimal) Summary {
	return Summary{
		Items:     c.Lines(),
		ItemCount: c.ItemCount(),
		Subtotal:  c.Subtotal(),
		Shipping:  shipping,
		Tax:       tax,
		Total:     c.Total(shipping, tax),
	}
}

func (c *Cart) index(k Key) int {
	for i, l := range c.Items {
		if l.Key() == k {
			return i
		}
	}
	return -1
}
