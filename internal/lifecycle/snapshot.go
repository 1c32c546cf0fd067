package lifecycle

import (
	"strings"
	"time"

	"ecoshopy/internal/cart"
	"ecoshopy/internal/model"

	"github.com/shopspring/decimal"
)

// Snapshot copies the cart and checkout form into a new order in
// INITIATED / AWAITING_PAYMENT. The order total is the cart total at this
// moment; later cart changes do not affect it.
func Snapshot(c *cart.Cart, req model.CheckoutRequest, shipping, tax decimal.Decimal, at time.Time) (*model.Order, error) {
	if c == nil || c.IsEmpty() {
		return nil, model.ErrEmptyCart
	}

	lines := c.Lines()
	items := make([]model.OrderItem, len(lines))
	for i, l := range lines {
		items[i] = model.OrderItem{
			ProductID: l.ProductID,
			Name:      l.Name,
			Variant:   l.Key().Variant,
			Price:     l.EffectivePrice(),
			Quantity:  l.Quantity,
			Image:     l.Image,
		}
	}

	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		userID = model.GuestUserID
	}

	o := &model.Order{
		Items:          items,
		Subtotal:       c.Subtotal(),
		ShippingAmount: shipping,
		TaxAmount:      tax,
		TotalAmount:    c.Total(shipping, tax),
		Status:         model.OrderStatusInitiated,
		PaymentStatus:  model.PaymentStatusAwaiting,
		CustomerName:   strings.TrimSpace(req.CustomerName),
		Email:          strings.TrimSpace(req.Email),
		Phone:          strings.TrimSpace(req.Phone),
		Address:        req.Address,
		UserID:         userID,
		CartID:         strings.TrimSpace(req.CartID),
		Timeline:       model.OrderTimeline{CreatedAt: at},
		UpdatedAt:      at,
	}

	if err := ValidateNew(o); err != nil {
		return nil, err
	}
	return o, nil
}
