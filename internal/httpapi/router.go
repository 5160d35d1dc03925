package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Services bundles the engine services the router exposes. Sales is
// optional; without a journal the sales listing is simply not served.
type Services struct {
	Catalog       CatalogService
	Cart          CartService
	Config        ConfigProvider
	Checkout      CheckoutService
	Sales         SalesReader
	Notifications NotificationDrainer
}

func NewRouter(s Services, requestTimeout time.Duration) http.Handler {
	catalogHandler := NewCatalogHandler(s.Catalog, requestTimeout)
	cartHandler := NewCartHandler(s.Cart, s.Catalog, s.Config, requestTimeout)
	checkoutHandler := NewCheckoutHandler(s.Checkout, requestTimeout)
	notificationsHandler := NewNotificationsHandler(s.Notifications)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(SellerAuth)

		r.Route("/catalog", func(r chi.Router) {
			r.Get("/", catalogHandler.GetCatalog)
			r.Post("/refresh", catalogHandler.Refresh)
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.GetCart)
			r.Delete("/", cartHandler.ClearCart)
			r.Post("/items", cartHandler.AddItem)
			r.Patch("/items/{product_id}", cartHandler.UpdateQuantity)
			r.Delete("/items/{product_id}", cartHandler.RemoveItem)
		})

		r.Post("/checkout", checkoutHandler.Submit)

		if s.Sales != nil {
			salesHandler := NewSalesHandler(s.Sales, requestTimeout)
			r.Get("/sales", salesHandler.ListSales)
			r.Get("/sales/{sale_id}", salesHandler.GetSale)
		}

		r.Get("/notifications", notificationsHandler.DrainNotifications)
	})

	return otelhttp.NewHandler(r, "pos-api")
}
