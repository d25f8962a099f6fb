package router

import (
	"net/http"

	"nepkart/internal/handler"
	"nepkart/internal/middleware"

	"github.com/rs/zerolog"
)

// New creates a new HTTP router with all routes and middleware configured.
func New(
	productHandler *handler.ProductHandler,
	cartHandler *handler.CartHandler,
	orderHandler *handler.OrderHandler,
	apiKey string,
	logger zerolog.Logger,
) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint (no authentication required)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})

	// Product handler function
	productRouteHandler := func(w http.ResponseWriter, r *http.Request) {
		// A path beyond /api/products addresses one product by its
		// category and product slugs.
		if r.URL.Path != "/api/products" && r.URL.Path != "/api/products/" {
			productHandler.Detail(w, r)
			return
		}
		productHandler.List(w, r)
	}

	// Register product routes (both with and without trailing slash)
	mux.HandleFunc("/api/products", productRouteHandler)
	mux.HandleFunc("/api/products/", productRouteHandler)

	mux.HandleFunc("/api/reviews/", productHandler.SubmitReview)

	// Cart handler function
	cartRouteHandler := func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/cart/recommendations" {
			cartHandler.Recommendations(w, r)
			return
		}

		switch {
		case r.Method == http.MethodGet && (r.URL.Path == "/api/cart" || r.URL.Path == "/api/cart/"):
			cartHandler.Get(w, r)
		case r.Method == http.MethodPost && (r.URL.Path == "/api/cart" || r.URL.Path == "/api/cart/"):
			cartHandler.AddItem(w, r)
		case r.Method == http.MethodDelete && r.URL.Path != "/api/cart/":
			cartHandler.RemoveItem(w, r)
		default:
			http.Error(w, "not found", http.StatusNotFound)
		}
	}

	// Register cart routes (both with and without trailing slash)
	mux.HandleFunc("/api/cart", cartRouteHandler)
	mux.HandleFunc("/api/cart/", cartRouteHandler)

	mux.HandleFunc("/api/checkout", orderHandler.Checkout)
	mux.HandleFunc("/api/payments", orderHandler.InitiatePayment)
	mux.HandleFunc("/api/orders/complete", orderHandler.Complete)

	// Apply middleware in order: Recovery -> Logging -> CORS -> APIKeyAuth
	var h http.Handler = mux
	h = middleware.APIKeyAuth(apiKey, logger)(h)
	h = middleware.CORS(h)
	h = middleware.Logging(logger)(h)
	h = middleware.Recovery(logger)(h)

	return h
}
