package handler

import (
	"net/http"

	"ecoshopy/internal/model"
	"ecoshopy/internal/service"

	"github.com/rs/zerolog"
)

// CartHandler handles cart HTTP requests.
type CartHandler struct {
	service service.CartService
	logger  zerolog.Logger
}

// NewCartHandler creates a new cart handler.
func NewCartHandler(service service.CartService, logger zerolog.Logger) *CartHandler {
	return &CartHandler{
		service: service,
		logger:  logger.With().Str("handler", "cart").Logger(),
	}
}

// Get handles GET /api/carts/{cartId}.
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Get(r.Context(), r.PathValue("cartId"))
	if err != nil {
		writeServiceError(w, err, "failed to load cart", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// AddItem handles POST /api/carts/{cartId}/items.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req model.CartItemRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	summary, err := h.service.AddItem(r.Context(), r.PathValue("cartId"), req)
	if err != nil {
		writeServiceError(w, err, "failed to add item", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// UpdateItem handles PUT /api/carts/{cartId}/items/{productId}.
func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var req model.CartItemRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	summary, err := h.service.UpdateItem(r.Context(), r.PathValue("cartId"), r.PathValue("productId"), req)
	if err != nil {
		writeServiceError(w, err, "failed to update item", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// RemoveItem handles DELETE /api/carts/{cartId}/items/{productId}?variant=.
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	variant := r.URL.Query().Get("variant")

	summary, err := h.service.RemoveItem(r.Context(), r.PathValue("cartId"), r.PathValue("productId"), variant)
	if err != nil {
		writeServiceError(w, err, "failed to remove item", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// Clear handles DELETE /api/carts/{cartId}.
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Clear(r.Context(), r.PathValue("cartId")); err != nil {
		writeServiceError(w, err, "failed to clear cart", h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
