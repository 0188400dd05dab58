package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/linemk/nirvana-shop/internal/app/handlers"
	"github.com/linemk/nirvana-shop/internal/identity"
	"github.com/linemk/nirvana-shop/internal/lib/api/response"
	"github.com/linemk/nirvana-shop/internal/lib/logger"
	"github.com/linemk/nirvana-shop/internal/lib/logger/handlers/urllog"
	"github.com/linemk/nirvana-shop/internal/lib/metrics"
	"github.com/linemk/nirvana-shop/internal/service"
)

// Services: всё, что нужно обработчикам
type Services struct {
	Catalog service.CatalogService
	Cart    service.CartService
	Orders  service.OrderService
	Admin   service.AdminService
}

// RouterOptions: настройки HTTP-слоя
type RouterOptions struct {
	Env           string
	SessionSecret string
	Roles         identity.RoleResolver
}

// NewRouter собирает таблицу маршрутов. Всё, что не совпало ни по пути, ни по методу,
// получает 404 с конвертом "Route not found".
func NewRouter(log *slog.Logger, svc Services, opts RouterOptions) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(urllog.CustomLoggerMiddleware(log))
	// флаг стека ставится до Recoverer, чтобы 500 от паники тоже его видели
	if opts.Env != logger.EnvProd {
		router.Use(response.WithStackTraces)
	}
	router.Use(response.Recoverer(log))
	router.Use(middleware.URLFormat)
	router.Use(metrics.InstrumentHandler)

	notFound := func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotFound, "Route not found")
	}
	router.NotFound(notFound)
	router.MethodNotAllowed(notFound)

	router.Handle("/metrics", metrics.Handler())

	requireUser := identity.RequireUser(log, opts.SessionSecret)
	requireAdmin := identity.RequireAdmin(log, opts.Roles)

	router.Route("/api", func(r chi.Router) {
		// каталог публичный
		r.Get("/products", handlers.ListProductsHandler(log, svc.Catalog))
		r.Get("/products/{id}", handlers.GetProductHandler(log, svc.Catalog))

		r.Group(func(r chi.Router) {
			r.Use(requireUser)

			r.Get("/cart", handlers.GetCartHandler(log, svc.Cart))
			r.Post("/cart", handlers.AddToCartHandler(log, svc.Cart))
			r.Patch("/cart/{id}", handlers.UpdateCartItemHandler(log, svc.Cart))
			r.Delete("/cart/{id}", handlers.RemoveCartItemHandler(log, svc.Cart))

			r.Get("/orders", handlers.ListMyOrdersHandler(log, svc.Orders))
			r.Post("/orders", handlers.PlaceOrderHandler(log, svc.Orders))

			r.Group(func(r chi.Router) {
				r.Use(requireAdmin)

				r.Post("/products", handlers.CreateProductHandler(log, svc.Catalog))
				r.Get("/admin/orders", handlers.AdminOrdersHandler(log, svc.Admin))
				r.Get("/admin/customers", handlers.AdminCustomersHandler(log, svc.Admin))
				r.Get("/admin/stats", handlers.AdminStatsHandler(log, svc.Admin))
			})
		})
	})

	return router
}
