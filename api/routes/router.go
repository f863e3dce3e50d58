package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tripworks/booking-backend/api/controllers"
	"github.com/tripworks/booking-backend/api/middleware"
	addrsvc "github.com/tripworks/booking-backend/internal/addresses"
	cartsvc "github.com/tripworks/booking-backend/internal/cart"
	checkoutsvc "github.com/tripworks/booking-backend/internal/checkout"
	currencysvc "github.com/tripworks/booking-backend/internal/currency"
	promosvc "github.com/tripworks/booking-backend/internal/promo"
	"github.com/tripworks/booking-backend/pkg/config"
	"github.com/tripworks/booking-backend/pkg/db"
	"github.com/tripworks/booking-backend/pkg/logger"
	"github.com/tripworks/booking-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	registry *prometheus.Registry,
	currencyService currencysvc.Service,
	promoService promosvc.Service,
	cartService cartsvc.Service,
	addressService addrsvc.Service,
	checkoutService checkoutsvc.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/rates", controllers.Rates(currencyService, logg))
		r.Get("/currencies/{id}", controllers.CurrencyByID(currencyService, logg))
		r.Get("/delivery-options", controllers.DeliveryOptions(logg))

		// The processor redirects here; identity rides in the resume token.
		r.Get("/checkout/payment/return", controllers.CheckoutPaymentReturn(checkoutService, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))

			r.Post("/promo-codes/lookup", controllers.PromoLookup(promoService, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartGet(cartService, logg))
				r.Delete("/", controllers.CartEmpty(cartService, logg))
				r.Post("/items", controllers.CartAddItem(cartService, logg))
				r.Patch("/items/{itemId}", controllers.CartUpdateItem(cartService, logg))
				r.Delete("/items/{itemId}", controllers.CartRemoveItem(cartService, logg))
			})

			r.Route("/addresses", func(r chi.Router) {
				r.Get("/", controllers.AddressList(addressService, logg))
				r.Post("/", controllers.AddressCreate(addressService, logg))
				r.Put("/{id}", controllers.AddressUpdate(addressService, logg))
				r.Delete("/{id}", controllers.AddressDelete(addressService, logg))
				r.Put("/{id}/default", controllers.AddressSetDefault(addressService, logg))
			})

			r.Route("/checkout/sessions", func(r chi.Router) {
				r.Post("/", controllers.CheckoutStart(checkoutService, logg))
				r.Get("/{id}", controllers.CheckoutGet(checkoutService, logg))
				r.Post("/{id}/advance", controllers.CheckoutAdvance(checkoutService, logg))
				r.Post("/{id}/back", controllers.CheckoutBack(checkoutService, logg))
				r.Post("/{id}/payment-session", controllers.CheckoutPaymentSession(checkoutService, logg))
				r.Post("/{id}/purchase", controllers.CheckoutPurchase(checkoutService, logg))
			})
		})
	})

	return r
}
