package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/domeo/domeo-backend/api/controllers"
	cartcontrollers "github.com/domeo/domeo-backend/api/controllers/carts"
	documentcontrollers "github.com/domeo/domeo-backend/api/controllers/documents"
	"github.com/domeo/domeo-backend/api/middleware"
	"github.com/domeo/domeo-backend/internal/documents"
	"github.com/domeo/domeo-backend/pkg/config"
	"github.com/domeo/domeo-backend/pkg/logger"
)

// Roles allowed to place factory orders.
var supplierOrderRoles = []string{"admin", "executor"}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP controllers.Pinger,
	redisP controllers.Pinger,
	gatherer prometheus.Gatherer,
	cartStore cartcontrollers.CartStore,
	documentService documents.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"db":    dbP,
			"redis": redisP,
		}))
	})

	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Actor(logg))

		r.Route("/carts", func(r chi.Router) {
			r.Post("/", cartcontrollers.CartCreate(cartStore, logg))

			r.Route("/{cartID}", func(r chi.Router) {
				r.Get("/", cartcontrollers.CartFetch(cartStore, logg))
				r.Delete("/", cartcontrollers.CartDelete(cartStore, logg))

				r.Post("/items", cartcontrollers.ItemAdd(cartStore, logg))
				r.Delete("/items/{itemID}", cartcontrollers.ItemRemove(cartStore, logg))
				r.Post("/items/{itemID}/edit", cartcontrollers.ItemEdit(cartStore, logg))
				r.Post("/items/{itemID}/commit", cartcontrollers.ItemCommit(cartStore, logg))
				r.Post("/items/{itemID}/cancel", cartcontrollers.ItemCancel(cartStore, logg))

				r.Get("/revisions", cartcontrollers.RevisionsList(cartStore, logg))
				r.Post("/revisions/rollback", cartcontrollers.RollbackAll(cartStore, logg))
				r.Post("/revisions/{index}/rollback", cartcontrollers.RollbackTo(cartStore, logg))

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireActor(logg))
					r.Post("/orders", documentcontrollers.OrderFromCart(cartStore, documentService, logg))
					r.Post("/quotes", documentcontrollers.QuoteFromCart(cartStore, documentService, logg))
					r.Post("/invoices", documentcontrollers.InvoiceFromCart(cartStore, documentService, logg))
				})
			})
		})

		r.Get("/orders", documentcontrollers.OrdersList(documentService, logg))
		r.Get("/documents/{kind}/{id}", documentcontrollers.DocumentFetch(documentService, logg))
		r.Get("/documents/{kind}/{id}/history", documentcontrollers.DocumentHistory(documentService, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireActor(logg))
			r.Put("/documents/{kind}/{id}/status", documentcontrollers.StatusUpdate(documentService, logg))
			r.Patch("/orders/{id}", documentcontrollers.OrderDetailsUpdate(documentService, logg))
			r.With(middleware.RequireRole(logg, supplierOrderRoles...)).
				Post("/orders/{id}/supplier-orders", documentcontrollers.SupplierOrderCreate(documentService, logg))
		})
	})

	return r
}
