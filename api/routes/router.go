package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/merchstorehq/merchstore-backend/api/controllers"
	"github.com/merchstorehq/merchstore-backend/api/middleware"
	cartsvc "github.com/merchstorehq/merchstore-backend/internal/cart"
	catalogsvc "github.com/merchstorehq/merchstore-backend/internal/catalog"
	checkoutsvc "github.com/merchstorehq/merchstore-backend/internal/checkout"
	ordersvc "github.com/merchstorehq/merchstore-backend/internal/orders"
	"github.com/merchstorehq/merchstore-backend/pkg/config"
	"github.com/merchstorehq/merchstore-backend/pkg/db"
	"github.com/merchstorehq/merchstore-backend/pkg/logger"
	"github.com/merchstorehq/merchstore-backend/pkg/redis"
)

// NewRouter wires the storefront API. Every /api/v1 route runs behind the
// session middleware, so handlers can assume a session id is present.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisP redis.Pinger,
	registry *prometheus.Registry,
	catalogService catalogsvc.Service,
	cartService cartsvc.Service,
	checkoutService checkoutsvc.Service,
	ordersService ordersvc.Service,
) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Session(logg))

		r.Route("/catalog", func(r chi.Router) {
			r.Get("/", controllers.ListCatalog(catalogService, logg))
			r.Get("/{productId}", controllers.GetCatalogProduct(catalogService, logg))
			r.Get("/{productId}/options", controllers.CatalogVariantOptions(catalogService, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.GetCart(cartService, logg))
			r.Delete("/", controllers.CartClear(cartService, logg))
			r.Post("/items", controllers.CartAddItem(cartService, logg))
			r.Patch("/items/{index}", controllers.CartUpdateQuantity(cartService, logg))
			r.Delete("/items/{index}", controllers.CartRemoveItem(cartService, logg))
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Get("/", controllers.GetCheckout(checkoutService, logg))
			r.Delete("/", controllers.CheckoutAbandon(checkoutService, logg))
			r.Post("/information", controllers.CheckoutInformation(checkoutService, logg))
			r.Post("/shipping", controllers.CheckoutShipping(checkoutService, logg))
			r.Post("/back", controllers.CheckoutBack(checkoutService, logg))
			r.Post("/payment", controllers.CheckoutPayment(checkoutService, logg))
		})

		r.Route("/orders/{orderId}", func(r chi.Router) {
			r.Get("/receipt", controllers.OrderReceipt(ordersService, logg))
			r.Get("/items", controllers.OrderLineItems(ordersService, logg))
		})
	})

	return r
}
