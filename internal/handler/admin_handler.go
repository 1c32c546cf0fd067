package handler

import (
	"net/http"

	"ecoshopy/internal/middleware"
	"ecoshopy/internal/model"
	"ecoshopy/internal/service"

	"github.com/rs/zerolog"
)

// AdminHandler handles back-office order requests.
type AdminHandler struct {
	service service.OrderService
	logger  zerolog.Logger
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(service service.OrderService, logger zerolog.Logger) *AdminHandler {
	return &AdminHandler{
		service: service,
		logger:  logger.With().Str("handler", "admin").Logger(),
	}
}

// ListOrders handles GET /api/admin/orders?status=&paymentStatus=&limit=&offset=.
func (h *AdminHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(w, r, "limit", 0, h.logger)
	if !ok {
		return
	}
	offset, ok := queryInt(w, r, "offset", 0, h.logger)
	if !ok {
		return
	}

	q := r.URL.Query()
	filter := model.OrderFilter{
		Status:        model.OrderStatus(q.Get("status")),
		PaymentStatus: model.PaymentStatus(q.Get("paymentStatus")),
		Limit:         limit,
		Offset:        offset,
	}

	orders, err := h.service.List(r.Context(), filter)
	if err != nil {
		writeServiceError(w, err, "failed to list orders", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, orders)
}

// UpdateStatus handles PUT /api/admin/orders/{id}/status.
func (h *AdminHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	orderID, ok := orderIDParam(w, r, h.logger)
	if !ok {
		return
	}

	var req model.StatusUpdateRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	order, err := h.service.UpdateStatus(r.Context(), orderID, req.Status)
	if err != nil {
		writeServiceError(w, err, "failed to update order status", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// MarkPaid handles POST /api/admin/orders/{id}/mark-paid.
func (h *AdminHandler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	orderID, ok := orderIDParam(w, r, h.logger)
	if !ok {
		return
	}

	var req model.MarkPaidRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	order, err := h.service.MarkPaid(r.Context(), orderID, middleware.AdminID(r.Context()), req.Reason)
	if err != nil {
		writeServiceError(w, err, "failed to mark order as paid", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, order)
}
