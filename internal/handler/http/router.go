package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ameliazsabrina/sericlo-app/internal/gateway"
	"github.com/ameliazsabrina/sericlo-app/internal/identity"
	"github.com/ameliazsabrina/sericlo-app/internal/service"
	"github.com/ameliazsabrina/sericlo-app/pkg/health"
	"github.com/ameliazsabrina/sericlo-app/pkg/middleware"
)

// NewRouter creates a chi router with all API routes registered. The webhook
// endpoint sits outside the bearer-auth group; the gateway authenticates
// with its notification signature instead.
func NewRouter(
	cartService *service.CartService,
	checkoutService *service.CheckoutService,
	provider gateway.Provider,
	verifier identity.Verifier,
	healthHandler *health.Handler,
	logger *slog.Logger,
	frontendOrigin string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("checkout"))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins:   []string{frontendOrigin},
		AllowCredentials: true,
	}))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	cartHandler := NewCartHandler(cartService, logger)
	checkoutHandler := NewCheckoutHandler(checkoutService, provider, logger)

	r.Route("/api/v1", func(r chi.Router) {
		// Gateway notifications carry their own signature auth.
		r.Post("/checkout/webhook", checkoutHandler.Webhook)

		r.Group(func(r chi.Router) {
			r.Use(ContentTypeJSON)
			r.Use(Authenticate(verifier, logger))

			r.Get("/cart", cartHandler.GetCart)
			r.Post("/cart/add", cartHandler.AddItem)
			r.Delete("/cart/{lineID}", cartHandler.RemoveItem)

			r.Post("/checkout", checkoutHandler.Checkout)
			r.Post("/checkout/confirm", checkoutHandler.Confirm)
			r.Get("/checkout/{orderNumber}", checkoutHandler.GetOrder)
		})
	})

	return r
}
