package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/printhaus/printhaus-backend/api/controllers"
	webhookcontrollers "github.com/printhaus/printhaus-backend/api/controllers/webhooks"
	"github.com/printhaus/printhaus-backend/api/middleware"
	"github.com/printhaus/printhaus-backend/internal/cart"
	"github.com/printhaus/printhaus-backend/internal/loyalty"
	"github.com/printhaus/printhaus-backend/internal/orders"
	stripewebhook "github.com/printhaus/printhaus-backend/internal/webhooks/stripe"
	"github.com/printhaus/printhaus-backend/pkg/config"
	"github.com/printhaus/printhaus-backend/pkg/db"
	"github.com/printhaus/printhaus-backend/pkg/logger"
	"github.com/printhaus/printhaus-backend/pkg/redis"
	"github.com/printhaus/printhaus-backend/pkg/stripe"
)

// Deps carries everything the router mounts.
type Deps struct {
	Config       *config.Config
	Logger       *logger.Logger
	DB           db.Pinger
	Redis        redis.Pinger
	Orders       orders.Service
	Loyalty      loyalty.Service
	Cart         *cart.Repository
	StripeClient *stripe.Client
	Webhooks     stripewebhook.Service
	WebhookGuard *stripewebhook.IdempotencyGuard
	Metrics      prometheus.Gatherer
}

func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(deps.Logger),
		middleware.RequestID(deps.Logger),
		middleware.Logging(deps.Logger),
	)

	r.Get("/health/live", controllers.HealthLive(deps.Config))
	r.Get("/health/ready", controllers.HealthReady(deps.Config, deps.DB, deps.Redis, deps.Logger))

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/orders", func(r chi.Router) {
			r.Post("/", controllers.CreateOrder(deps.Orders, deps.Logger))
			r.Get("/shared/{token}", controllers.GetSharedOrder(deps.Orders, deps.Logger))
			r.Get("/{orderID}", controllers.GetOrder(deps.Orders, deps.Logger))
		})

		r.Route("/customers/{customerID}", func(r chi.Router) {
			r.Get("/orders", controllers.ListCustomerOrders(deps.Orders, deps.Logger))
			r.Get("/loyalty", controllers.GetLoyaltyBalance(deps.Loyalty, deps.Logger))
			r.Get("/cart", controllers.GetCart(deps.Cart, deps.Logger))
			r.Put("/cart", controllers.PutCart(deps.Cart, deps.Logger))
		})

		r.Post("/webhooks/stripe", webhookcontrollers.StripeWebhook(deps.Webhooks, deps.StripeClient, deps.WebhookGuard, deps.Logger))
	})

	return r
}
