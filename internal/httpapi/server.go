// Package httpapi exposes the kiosk backend as JSON over HTTP.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/LoctusTM/oskiosk-client/internal/cartstore"
	"github.com/LoctusTM/oskiosk-client/internal/metrics"
)

type Config struct {
	APIToken       string
	RequestTimeout time.Duration
}

// NewHandler assembles the kioskd router.
func NewHandler(cfg Config, catalogSvc CatalogService, carts cartstore.CartRepository, payments PaymentService, m *metrics.ServerMetrics) http.Handler {
	identifierHandler := NewIdentifierHandler(catalogSvc)
	productHandler := NewProductHandler(catalogSvc)
	userHandler := NewUserHandler(catalogSvc)
	cartHandler := NewCartHandler(carts, payments)

	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))
	if m != nil {
		r.Use(MetricsMiddleware(m))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(BearerAuthMiddleware(cfg.APIToken))

		r.Get("/identifiers/{identifier}.json", identifierHandler.Resolve)

		r.Get("/products.json", productHandler.List)
		r.Get("/products/{id}.json", productHandler.Get)
		r.Patch("/products/{id}.json", productHandler.Update)

		r.Get("/users.json", userHandler.List)
		r.Post("/users.json", userHandler.Create)
		r.Get("/users/{id}.json", userHandler.Get)
		r.Patch("/users/{id}.json", userHandler.Update)

		r.Post("/carts.json", cartHandler.Create)
		r.Get("/carts/{id}.json", cartHandler.Get)
		r.Patch("/carts/{id}.json", cartHandler.Update)
		r.Post("/carts/{id}/pay.json", cartHandler.Pay)
	})

	return otelhttp.NewHandler(r, "kioskd")
}
