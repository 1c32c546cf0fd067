package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ecoshopy/internal/config"
	"ecoshopy/internal/lifecycle"
	"ecoshopy/internal/model"
	"ecoshopy/internal/payment"
	"ecoshopy/internal/repository"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	defaultOrderListLimit = 50
	maxOrderListLimit     = 200
)

// orderService implements OrderService.
type orderService struct {
	orderRepo        repository.OrderRepository
	carts            CartService
	provider         payment.Provider
	pricing          Pricing
	currency         string
	verifySignatures bool
	validate         *validator.Validate
	now              func() time.Time
	logger           zerolog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(
	orderRepo repository.OrderRepository,
	carts CartService,
	provider payment.Provider,
	pricing Pricing,
	cfg config.PaymentConfig,
	logger zerolog.Logger,
) OrderService {
	return &orderService{
		orderRepo:        orderRepo,
		carts:            carts,
		provider:         provider,
		pricing:          pricing,
		currency:         cfg.Currency,
		verifySignatures: cfg.VerifySignatures,
		validate:         newValidator(),
		now:              time.Now,
		logger:           logger.With().Str("service", "order").Logger(),
	}
}

// Checkout validates the form, snapshots the refreshed cart into an order
// and opens a payment with the provider. The order is persisted before the
// provider is contacted; if that fails nothing is charged. When the provider
// cannot be reached the order is kept as FAILED and returned alongside
// model.ErrPaymentUnavailable so the client can retry it.
func (s *orderService) Checkout(ctx context.Context, req *model.CheckoutRequest) (*model.CheckoutResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("checkout request is nil")
	}

	normalizeCheckout(req)
	if err := s.validate.Struct(req); err != nil {
		verr := toValidationError(err)
		s.logger.Debug().Err(verr).Str("cart_id", req.CartID).Msg("invalid checkout form")
		return nil, verr
	}

	c, err := s.carts.PrepareCheckout(ctx, req.CartID)
	if err != nil {
		return nil, err
	}

	shipping, tax := s.pricing.Charges(c.Subtotal())
	order, err := lifecycle.Snapshot(c, *req, shipping, tax, s.now())
	if err != nil {
		return nil, err
	}

	if err := s.orderRepo.CreateOrder(ctx, order); err != nil {
		if isDomainError(err) {
			s.logger.Info().Err(err).Str("cart_id", req.CartID).Msg("order rejected")
			return nil, err
		}
		s.logger.Error().Err(err).Str("cart_id", req.CartID).Msg("failed to create order")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	s.logger.Info().
		Str("order_id", order.ID.String()).
		Str("cart_id", req.CartID).
		Int("item_count", len(order.Items)).
		Str("total", order.TotalAmount.StringFixed(2)).
		Msg("order created")

	intent, err := s.initiatePayment(ctx, order)
	if err != nil {
		return &model.CheckoutResponse{Order: order}, err
	}

	return &model.CheckoutResponse{Order: order, Payment: intent}, nil
}

// GetByID retrieves an order by its ID with items and admin actions.
func (s *orderService) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to get order")
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	if order == nil {
		s.logger.Debug().Str("order_id", id.String()).Msg("order not found")
		return nil, model.ErrOrderNotFound
	}

	return order, nil
}

// HandlePaymentSuccess verifies the provider signature (when enabled), marks
// the order PAID and PROCESSING and clears the cart the order was placed
// from. Orders without a recorded cart fall back to the callback's cartId.
// A repeated
// callback for the recorded payment returns the same confirmation.
func (s *orderService) HandlePaymentSuccess(ctx context.Context, id uuid.UUID, req model.PaymentSuccess) (*model.PaymentConfirmation, error) {
	req.RazorpayPaymentID = strings.TrimSpace(req.RazorpayPaymentID)
	if req.RazorpayPaymentID == "" {
		return nil, model.NewValidationError("razorpay_payment_id", "is required")
	}

	order, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.verifySignatures {
		if err := s.verifyPayment(order, req); err != nil {
			return nil, err
		}
	}

	expect := order.State()
	update, err := lifecycle.PaymentSucceeded(order, req.RazorpayPaymentID, req.RazorpayOrderID, req.RazorpaySignature, s.now())
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("order_id", id.String()).
			Str("razorpay_payment_id", req.RazorpayPaymentID).
			Msg("payment success rejected")
		return nil, err
	}

	if !update.IsEmpty() {
		if err := s.orderRepo.UpdateOrder(ctx, id, expect, update); err != nil {
			order, err = s.resolveSuccessConflict(ctx, id, req.RazorpayPaymentID, err)
			if err != nil {
				return nil, err
			}
		} else {
			s.logger.Info().
				Str("order_id", id.String()).
				Str("razorpay_payment_id", req.RazorpayPaymentID).
				Msg("payment succeeded")
		}
	}

	cartID := order.CartID
	if cartID == "" {
		cartID = strings.TrimSpace(req.CartID)
	}
	if cartID != "" {
		if err := s.carts.Clear(ctx, cartID); err != nil {
			s.logger.Warn().Err(err).Str("order_id", id.String()).Str("cart_id", cartID).Msg("failed to clear cart after payment")
		}
	}

	return &model.PaymentConfirmation{
		Order:       order,
		RedirectURL: "/order-confirmation/" + order.ID.String(),
	}, nil
}

// HandlePaymentFailure records a provider failure. The order stays INITIATED
// with payment FAILED so it can be retried; the cart is left untouched.
func (s *orderService) HandlePaymentFailure(ctx context.Context, id uuid.UUID, req model.PaymentFailure) (*model.Order, error) {
	order, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	expect := order.State()
	update, err := lifecycle.PaymentFailed(order, req.Reason, strings.TrimSpace(req.PaymentID))
	if err != nil {
		s.logger.Warn().Err(err).Str("order_id", id.String()).Str("status", order.Status.String()).Msg("payment failure rejected")
		return nil, err
	}

	if err := s.persist(ctx, order, expect, update); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("order_id", id.String()).
		Str("reason", order.FailureReason).
		Msg("payment failed")

	return order, nil
}

// HandlePaymentDismiss records the customer closing the payment widget.
func (s *orderService) HandlePaymentDismiss(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	order, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	expect := order.State()
	update, err := lifecycle.PaymentDismissed(order)
	if err != nil {
		return nil, err
	}
	if update.IsEmpty() {
		return order, nil
	}

	if err := s.persist(ctx, order, expect, update); err != nil {
		return nil, err
	}

	s.logger.Info().Str("order_id", id.String()).Msg("payment dismissed")
	return order, nil
}

// RetryPayment reopens payment for a FAILED order. The order id is reused;
// a fresh provider order is created.
func (s *orderService) RetryPayment(ctx context.Context, id uuid.UUID) (*model.CheckoutResponse, error) {
	order, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	expect := order.State()
	update, err := lifecycle.RetryPayment(order)
	if err != nil {
		return nil, err
	}

	intent, err := s.provider.Initiate(ctx, s.paymentRequest(order))
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", id.String()).Msg("payment retry initiation failed")
		return nil, model.ErrPaymentUnavailable
	}

	order.RazorpayOrderID = intent.ProviderOrderID
	update.RazorpayOrderID = &order.RazorpayOrderID
	if err := s.persist(ctx, order, expect, update); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("order_id", id.String()).
		Str("razorpay_order_id", intent.ProviderOrderID).
		Msg("payment retry initiated")

	return &model.CheckoutResponse{Order: order, Payment: intent}, nil
}

// UpdateStatus applies an admin fulfilment transition and returns the
// reloaded order.
func (s *orderService) UpdateStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus) (*model.Order, error) {
	if !status.Valid() {
		return nil, model.NewValidationError("status", "is not a known order status")
	}

	order, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	expect := order.State()
	update, err := lifecycle.ChangeStatus(order, status, s.now())
	if err != nil {
		s.logger.Warn().
			Str("order_id", id.String()).
			Str("from", expect.Status.String()).
			Str("to", status.String()).
			Msg("invalid status transition")
		return nil, err
	}

	if err := s.persist(ctx, order, expect, update); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("order_id", id.String()).
		Str("from", expect.Status.String()).
		Str("to", status.String()).
		Msg("order status updated")

	return s.GetByID(ctx, id)
}

// MarkPaid forces an unpaid order to PAID and PROCESSING and appends the
// audit entry in the same write.
func (s *orderService) MarkPaid(ctx context.Context, id uuid.UUID, adminID, reason string) (*model.Order, error) {
	order, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	expect := order.State()
	update, err := lifecycle.MarkPaidByAdmin(order, adminID, reason, s.now())
	if err != nil {
		return nil, err
	}

	if err := s.persist(ctx, order, expect, update); err != nil {
		return nil, err
	}

	s.logger.Warn().
		Str("order_id", id.String()).
		Str("admin_id", update.AdminAction.AdminID).
		Str("reason", update.AdminAction.Reason).
		Msg("order marked as paid by admin")

	return order, nil
}

// List returns orders matching the filter, newest first.
func (s *orderService) List(ctx context.Context, filter model.OrderFilter) ([]model.Order, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, model.NewValidationError("status", "is not a known order status")
	}
	if filter.PaymentStatus != "" && !filter.PaymentStatus.Valid() {
		return nil, model.NewValidationError("paymentStatus", "is not a known payment status")
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultOrderListLimit
	}
	if filter.Limit > maxOrderListLimit {
		filter.Limit = maxOrderListLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	orders, err := s.orderRepo.List(ctx, filter)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list orders")
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	return orders, nil
}

// ReconcilePayment polls the provider for an order stuck awaiting payment.
// If a captured or authorized payment exists the success transition is
// applied without a signature.
func (s *orderService) ReconcilePayment(ctx context.Context, order *model.Order) (bool, error) {
	if order.PaymentStatus != model.PaymentStatusAwaiting ||
		order.Status != model.OrderStatusInitiated ||
		order.RazorpayOrderID == "" {
		return false, nil
	}

	payments, err := s.provider.FetchPayments(ctx, order.RazorpayOrderID)
	if err != nil {
		return false, fmt.Errorf("failed to fetch payments for order %s: %w", order.ID, err)
	}

	for _, p := range payments {
		if !p.Succeeded() {
			continue
		}

		expect := order.State()
		update, err := lifecycle.PaymentSucceeded(order, p.ID, order.RazorpayOrderID, "", s.now())
		if err != nil {
			return false, err
		}
		if err := s.orderRepo.UpdateOrder(ctx, order.ID, expect, update); err != nil {
			if errors.Is(err, model.ErrConcurrentUpdate) {
				return false, nil
			}
			return false, fmt.Errorf("failed to reconcile order %s: %w", order.ID, err)
		}

		s.logger.Warn().
			Str("order_id", order.ID.String()).
			Str("razorpay_order_id", order.RazorpayOrderID).
			Str("razorpay_payment_id", p.ID).
			Msg("order reconciled from provider payments")
		return true, nil
	}

	return false, nil
}

// initiatePayment opens a provider order for a freshly created order and
// records its id. Provider errors leave the order FAILED with a reason.
func (s *orderService) initiatePayment(ctx context.Context, order *model.Order) (*model.PaymentIntent, error) {
	expect := order.State()

	intent, err := s.provider.Initiate(ctx, s.paymentRequest(order))
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("payment initiation failed")

		update, terr := lifecycle.PaymentFailed(order, "Payment initiation failed", "")
		if terr == nil {
			if uerr := s.orderRepo.UpdateOrder(ctx, order.ID, expect, update); uerr != nil {
				s.logger.Error().Err(uerr).Str("order_id", order.ID.String()).Msg("failed to record payment initiation failure")
			}
		}
		return nil, model.ErrPaymentUnavailable
	}

	order.RazorpayOrderID = intent.ProviderOrderID
	update := model.OrderUpdate{RazorpayOrderID: &order.RazorpayOrderID}
	if err := s.orderRepo.UpdateOrder(ctx, order.ID, expect, update); err != nil {
		s.logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Str("razorpay_order_id", intent.ProviderOrderID).
			Msg("failed to record provider order")
		return nil, fmt.Errorf("failed to record provider order: %w", err)
	}

	return intent, nil
}

func (s *orderService) paymentRequest(order *model.Order) payment.Request {
	return payment.Request{
		OrderID:  order.ID.String(),
		Amount:   order.TotalAmount,
		Currency: s.currency,
		Customer: payment.Customer{
			Name:    order.CustomerName,
			Email:   order.Email,
			Contact: order.Phone,
		},
	}
}

// verifyPayment checks that a success callback belongs to the order's
// provider order and carries a valid signature.
func (s *orderService) verifyPayment(order *model.Order, req model.PaymentSuccess) error {
	providerOrderID := order.RazorpayOrderID
	if providerOrderID == "" {
		providerOrderID = req.RazorpayOrderID
	}
	if req.RazorpayOrderID != "" && req.RazorpayOrderID != providerOrderID {
		s.logger.Warn().
			Str("order_id", order.ID.String()).
			Str("razorpay_order_id", req.RazorpayOrderID).
			Msg("payment callback for a different provider order")
		return model.ErrPaymentMismatch
	}

	if err := s.provider.VerifySignature(providerOrderID, req.RazorpayPaymentID, req.RazorpaySignature); err != nil {
		s.logger.Warn().
			Err(err).
			Str("order_id", order.ID.String()).
			Str("razorpay_payment_id", req.RazorpayPaymentID).
			Msg("payment signature rejected")
		return err
	}
	return nil
}

// resolveSuccessConflict handles a failed success write. If a concurrent
// callback already recorded the same payment the stored order is returned.
// Any other failure is a reconciliation gap: money may have moved without
// the order reflecting it.
func (s *orderService) resolveSuccessConflict(ctx context.Context, id uuid.UUID, paymentID string, writeErr error) (*model.Order, error) {
	if errors.Is(writeErr, model.ErrConcurrentUpdate) {
		current, err := s.orderRepo.GetByID(ctx, id)
		if err == nil && current != nil &&
			current.PaymentStatus == model.PaymentStatusPaid &&
			current.RazorpayPaymentID == paymentID {
			return current, nil
		}
	}

	s.logger.Error().
		Err(writeErr).
		Str("order_id", id.String()).
		Str("razorpay_payment_id", paymentID).
		Msg("payment captured but order update failed")

	if isDomainError(writeErr) {
		return nil, writeErr
	}
	return nil, fmt.Errorf("failed to record payment: %w", writeErr)
}

// persist writes an update computed against expect.
func (s *orderService) persist(ctx context.Context, order *model.Order, expect model.OrderState, update model.OrderUpdate) error {
	if err := s.orderRepo.UpdateOrder(ctx, order.ID, expect, update); err != nil {
		if isDomainError(err) {
			s.logger.Info().Err(err).Str("order_id", order.ID.String()).Msg("order update rejected")
			return err
		}
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to update order")
		return fmt.Errorf("failed to update order: %w", err)
	}
	return nil
}

func isDomainError(err error) bool {
	var domainErr *model.DomainError
	return errors.As(err, &domainErr)
}
