package repository

import (
	"context"

	"ecoshopy/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductRepository defines the interface for product data access operations.
type ProductRepository interface {
	// GetAll retrieves all products with their variants, with pagination support.
	GetAll(ctx context.Context, limit, offset int) ([]model.Product, error)

	// GetByID retrieves a single product by its ID. Returns nil if absent.
	GetByID(ctx context.Context, id string) (*model.Product, error)

	// GetByIDs retrieves multiple products by their IDs.
	GetByIDs(ctx context.Context, ids []string) ([]model.Product, error)

	// UpdatePricing sets the selling price of a product, or of one of its
	// variants when variant is non-empty.
	UpdatePricing(ctx context.Context, id, variant string, price decimal.Decimal) error

	// Upsert inserts or replaces a product and its variants.
	Upsert(ctx context.Context, product *model.Product) error
}

// OrderRepository defines the interface for order data access operations.
type OrderRepository interface {
	// CreateOrder assigns the order an ID, inserts it with its items and
	// reserves stock for every item, all in one transaction. Returns
	// model.ErrInsufficientStock, with nothing written, if any item cannot be
	// reserved.
	CreateOrder(ctx context.Context, order *model.Order) error

	// GetByID retrieves an order with its items and admin actions. Returns nil
	// if absent.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)

	// UpdateOrder applies a partial update if the order is still in the
	// expected state, otherwise returns model.ErrConcurrentUpdate.
	UpdateOrder(ctx context.Context, id uuid.UUID, expect model.OrderState, update model.OrderUpdate) error

	// List retrieves orders matching the filter, newest first.
	List(ctx context.Context, filter model.OrderFilter) ([]model.Order, error)
}
