package service

import (
	"context"

	"ecoshopy/internal/cart"
	"ecoshopy/internal/model"

	"github.com/google/uuid"
)

// ProductService defines operations for product management.
type ProductService interface {
	// GetAll retrieves all products with pagination.
	GetAll(ctx context.Context, limit, offset int) ([]model.Product, error)

	// GetByID retrieves a single product by ID.
	GetByID(ctx context.Context, id string) (*model.Product, error)

	// GetByIDs retrieves multiple products by their IDs.
	GetByIDs(ctx context.Context, ids []string) ([]model.Product, error)

	// SetDeal prices a product, or one of its variants, at a discount off MRP.
	SetDeal(ctx context.Context, id string, req model.DealRequest) (*model.Product, error)
}

// CartService defines operations on persisted shopping carts.
type CartService interface {
	// Get returns the priced view of a cart.
	Get(ctx context.Context, cartID string) (*cart.Summary, error)

	// AddItem merges a product into the cart.
	AddItem(ctx context.Context, cartID string, req model.CartItemRequest) (*cart.Summary, error)

	// UpdateItem sets the quantity of an existing line.
	UpdateItem(ctx context.Context, cartID, productID string, req model.CartItemRequest) (*cart.Summary, error)

	// RemoveItem deletes a line from the cart.
	RemoveItem(ctx context.Context, cartID, productID, variant string) (*cart.Summary, error)

	// Clear empties the cart.
	Clear(ctx context.Context, cartID string) error

	// PrepareCheckout refreshes every line against the catalogue and checks
	// stock, returning the cart to snapshot into an order.
	PrepareCheckout(ctx context.Context, cartID string) (*cart.Cart, error)
}

// OrderService defines operations for order management.
type OrderService interface {
	// Checkout turns a cart into an order and opens a payment with the provider.
	Checkout(ctx context.Context, req *model.CheckoutRequest) (*model.CheckoutResponse, error)

	// GetByID retrieves an order by its ID with items and admin actions.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)

	// HandlePaymentSuccess applies a provider success callback.
	HandlePaymentSuccess(ctx context.Context, id uuid.UUID, req model.PaymentSuccess) (*model.PaymentConfirmation, error)

	// HandlePaymentFailure applies a provider failure callback.
	HandlePaymentFailure(ctx context.Context, id uuid.UUID, req model.PaymentFailure) (*model.Order, error)

	// HandlePaymentDismiss records the customer closing the payment widget.
	HandlePaymentDismiss(ctx context.Context, id uuid.UUID) (*model.Order, error)

	// RetryPayment reopens payment for a failed order.
	RetryPayment(ctx context.Context, id uuid.UUID) (*model.CheckoutResponse, error)

	// UpdateStatus applies an admin fulfilment transition.
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus) (*model.Order, error)

	// MarkPaid forces an unpaid order to paid and records the admin action.
	MarkPaid(ctx context.Context, id uuid.UUID, adminID, reason string) (*model.Order, error)

	// List returns orders matching the filter, newest first.
	List(ctx context.Context, filter model.OrderFilter) ([]model.Order, error)

	// ReconcilePayment asks the provider whether an awaiting order was paid and
	// applies the success transition if so. It reports whether the order changed.
	ReconcilePayment(ctx context.Context, order *model.Order) (bool, error)
}
