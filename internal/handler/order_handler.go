package handler

import (
	"errors"
	"net/http"

	"ecoshopy/internal/model"
	"ecoshopy/internal/service"

	"github.com/rs/zerolog"
)

// OrderHandler handles checkout, order lookup and payment callbacks.
type OrderHandler struct {
	service service.OrderService
	logger  zerolog.Logger
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(service service.OrderService, logger zerolog.Logger) *OrderHandler {
	return &OrderHandler{
		service: service,
		logger:  logger.With().Str("handler", "order").Logger(),
	}
}

// Checkout handles POST /api/checkout requests.
func (h *OrderHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req model.CheckoutRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	resp, err := h.service.Checkout(r.Context(), &req)
	if err != nil {
		h.writePaymentError(w, resp, err, "failed to place order")
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

// GetByID handles GET /api/orders/{id} requests.
func (h *OrderHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	orderID, ok := orderIDParam(w, r, h.logger)
	if !ok {
		return
	}

	order, err := h.service.GetByID(r.Context(), orderID)
	if err != nil {
		writeServiceError(w, err, "failed to retrieve order", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// PaymentSuccess handles POST /api/orders/{id}/payment/success.
func (h *OrderHandler) PaymentSuccess(w http.ResponseWriter, r *http.Request) {
	orderID, ok := orderIDParam(w, r, h.logger)
	if !ok {
		return
	}

	var req model.PaymentSuccess
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	confirmation, err := h.service.HandlePaymentSuccess(r.Context(), orderID, req)
	if err != nil {
		writeServiceError(w, err, "failed to confirm payment", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, confirmation)
}

// PaymentFailure handles POST /api/orders/{id}/payment/failure.
func (h *OrderHandler) PaymentFailure(w http.ResponseWriter, r *http.Request) {
	orderID, ok := orderIDParam(w, r, h.logger)
	if !ok {
		return
	}

	var req model.PaymentFailure
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	order, err := h.service.HandlePaymentFailure(r.Context(), orderID, req)
	if err != nil {
		writeServiceError(w, err, "failed to record payment failure", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// PaymentDismiss handles POST /api/orders/{id}/payment/dismiss.
func (h *OrderHandler) PaymentDismiss(w http.ResponseWriter, r *http.Request) {
	orderID, ok := orderIDParam(w, r, h.logger)
	if !ok {
		return
	}

	order, err := h.service.HandlePaymentDismiss(r.Context(), orderID)
	if err != nil {
		writeServiceError(w, err, "failed to record payment dismissal", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// RetryPayment handles POST /api/orders/{id}/payment/retry.
func (h *OrderHandler) RetryPayment(w http.ResponseWriter, r *http.Request) {
	orderID, ok := orderIDParam(w, r, h.logger)
	if !ok {
		return
	}

	resp, err := h.service.RetryPayment(r.Context(), orderID)
	if err != nil {
		h.writePaymentError(w, resp, err, "failed to retry payment")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// writePaymentError reports a checkout or retry failure. When the order was
// persisted but the provider could not be reached, its id is returned so the
// client can retry payment.
func (h *OrderHandler) writePaymentError(w http.ResponseWriter, resp *model.CheckoutResponse, err error, fallback string) {
	if errors.Is(err, model.ErrPaymentUnavailable) && resp != nil && resp.Order != nil {
		h.logger.Warn().Str("order_id", resp.Order.ID.String()).Msg("order placed without payment")
		writeJSON(w, http.StatusBadGateway, model.ErrorResponse{
			Error:   model.ErrCodePaymentUnavailable,
			Message: model.ErrPaymentUnavailable.Message,
			OrderID: resp.Order.ID.String(),
		})
		return
	}

	writeServiceError(w, err, fallback, h.logger)
}
