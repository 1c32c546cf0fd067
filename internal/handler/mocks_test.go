package handler

import (
	"context"

	"ecoshopy/internal/cart"
	"ecoshopy/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockProductService is a mock implementation of ProductService.
type MockProductService struct {
	mock.Mock
}

func (m *MockProductService) GetAll(ctx context.Context, limit, offset int) ([]model.Product, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *MockProductService) GetByID(ctx context.Context, id string) (*model.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductService) GetByIDs(ctx context.Context, ids []string) ([]model.Product, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *MockProductService) SetDeal(ctx context.Context, id string, req model.DealRequest) (*model.Product, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

// MockCartService is a mock implementation of CartService.
type MockCartService struct {
	mock.Mock
}

func (m *MockCartService) summary(args mock.Arguments) (*cart.Summary, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cart.Summary), args.Error(1)
}

func (m *MockCartService) Get(ctx context.Context, cartID string) (*cart.Summary, error) {
	return m.summary(m.Called(ctx, cartID))
}

func (m *MockCartService) AddItem(ctx context.Context, cartID string, req model.CartItemRequest) (*cart.Summary, error) {
	return m.summary(m.Called(ctx, cartID, req))
}

func (m *MockCartService) UpdateItem(ctx context.Context, cartID, productID string, req model.CartItemRequest) (*cart.Summary, error) {
	return m.summary(m.Called(ctx, cartID, productID, req))
}

func (m *MockCartService) RemoveItem(ctx context.Context, cartID, productID, variant string) (*cart.Summary, error) {
	return m.summary(m.Called(ctx, cartID, productID, variant))
}

func (m *MockCartService) Clear(ctx context.Context, cartID string) error {
	return m.Called(ctx, cartID).Error(0)
}

func (m *MockCartService) PrepareCheckout(ctx context.Context, cartID string) (*cart.Cart, error) {
	args := m.Called(ctx, cartID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cart.Cart), args.Error(1)
}

// MockOrderService is a mock implementation of OrderService.
type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) order(args mock.Arguments) (*model.Order, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderService) checkout(args mock.Arguments) (*model.CheckoutResponse, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CheckoutResponse), args.Error(1)
}

func (m *MockOrderService) Checkout(ctx context.Context, req *model.CheckoutRequest) (*model.CheckoutResponse, error) {
	return m.checkout(m.Called(ctx, req))
}

func (m *MockOrderService) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	return m.order(m.Called(ctx, id))
}

func (m *MockOrderService) HandlePaymentSuccess(ctx context.Context, id uuid.UUID, req model.PaymentSuccess) (*model.PaymentConfirmation, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PaymentConfirmation), args.Error(1)
}

func (m *MockOrderService) HandlePaymentFailure(ctx context.Context, id uuid.UUID, req model.PaymentFailure) (*model.Order, error) {
	return m.order(m.Called(ctx, id, req))
}

func (m *MockOrderService) HandlePaymentDismiss(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	return m.order(m.Called(ctx, id))
}

func (m *MockOrderService) RetryPayment(ctx context.Context, id uuid.UUID) (*model.CheckoutResponse, error) {
	return m.checkout(m.Called(ctx, id))
}

func (m *MockOrderService) UpdateStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus) (*model.Order, error) {
	return m.order(m.Called(ctx, id, status))
}

func (m *MockOrderService) MarkPaid(ctx context.Context, id uuid.UUID, adminID, reason string) (*model.Order, error) {
	return m.order(m.Called(ctx, id, adminID, reason))
}

func (m *MockOrderService) List(ctx context.Context, filter model.OrderFilter) ([]model.Order, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Order), args.Error(1)
}

func (m *MockOrderService) ReconcilePayment(ctx context.Context, order *model.Order) (bool, error) {
	args := m.Called(ctx, order)
	return args.Bool(0), args.Error(1)
}
