package router

import (
	"net/http"

	"ecoshopy/internal/handler"
	"ecoshopy/internal/middleware"

	"github.com/rs/zerolog"
)

// Handlers groups the HTTP handlers the router dispatches to.
type Handlers struct {
	Product *handler.ProductHandler
	Cart    *handler.CartHandler
	Order   *handler.OrderHandler
	Admin   *handler.AdminHandler
}

// New creates a new HTTP router with all routes and middleware configured.
func New(h Handlers, apiKey, adminKey string, logger zerolog.Logger) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint (no authentication required)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})

	mux.HandleFunc("GET /api/products", h.Product.GetAll)
	mux.HandleFunc("GET /api/products/{id}", h.Product.GetByID)

	mux.HandleFunc("GET /api/carts/{cartId}", h.Cart.Get)
	mux.HandleFunc("DELETE /api/carts/{cartId}", h.Cart.Clear)
	mux.HandleFunc("POST /api/carts/{cartId}/items", h.Cart.AddItem)
	mux.HandleFunc("PUT /api/carts/{cartId}/items/{productId}", h.Cart.UpdateItem)
	mux.HandleFunc("DELETE /api/carts/{cartId}/items/{productId}", h.Cart.RemoveItem)

	mux.HandleFunc("POST /api/checkout", h.Order.Checkout)
	mux.HandleFunc("GET /api/orders/{id}", h.Order.GetByID)
	mux.HandleFunc("POST /api/orders/{id}/payment/success", h.Order.PaymentSuccess)
	mux.HandleFunc("POST /api/orders/{id}/payment/failure", h.Order.PaymentFailure)
	mux.HandleFunc("POST /api/orders/{id}/payment/dismiss", h.Order.PaymentDismiss)
	mux.HandleFunc("POST /api/orders/{id}/payment/retry", h.Order.RetryPayment)

	mux.HandleFunc("GET /api/admin/orders", h.Admin.ListOrders)
	mux.HandleFunc("PUT /api/admin/orders/{id}/status", h.Admin.UpdateStatus)
	mux.HandleFunc("POST /api/admin/orders/{id}/mark-paid", h.Admin.MarkPaid)
	mux.HandleFunc("PUT /api/admin/products/{id}/deal", h.Product.SetDeal)

	// Apply middleware in order: Recovery -> Logging -> CORS -> APIKeyAuth -> AdminAuth
	var handler http.Handler = mux
	handler = middleware.AdminAuth(adminKey, logger)(handler)
	handler = middleware.APIKeyAuth(apiKey, logger)(handler)
	handler = middleware.CORS(handler)
	handler = middleware.Logging(logger)(handler)
	handler = middleware.Recovery(logger)(handler)

	return handler
}
