package handlers

import (
	"log/slog"
	"net/http"

	"github.com/linemk/nirvana-shop/internal/domain/models"
	"github.com/linemk/nirvana-shop/internal/lib/api/response"
	"github.com/linemk/nirvana-shop/internal/service"
)

type CustomersResponse struct {
	response.Response
	Customers []*models.Customer `json:"customers"`
}

type StatsResponse struct {
	response.Response
	Stats *models.Stats `json:"stats"`
}

// AdminOrdersHandler обрабатывает GET /api/admin/orders.
func AdminOrdersHandler(log *slog.Logger, admin service.AdminService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(slog.String("op", "handlers.AdminOrdersHandler"))

		orders, err := admin.ListAllOrders(r.Context())
		if err != nil {
			renderServiceError(w, r, logger, err, "")
			return
		}
		response.JSON(w, http.StatusOK, OrdersResponse{Response: response.OK(), Orders: orders})
	}
}

// AdminCustomersHandler обрабатывает GET /api/admin/customers.
func AdminCustomersHandler(log *slog.Logger, admin service.AdminService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(slog.String("op", "handlers.AdminCustomersHandler"))

		customers, err := admin.ListCustomers(r.Context())
		if err != nil {
			renderServiceError(w, r, logger, err, "")
			return
		}
		response.JSON(w, http.StatusOK, CustomersResponse{Response: response.OK(), Customers: customers})
	}
}

func AdminStatsHandler(log *slog.Logger, admin service.AdminService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(slog.String("op", "handlers.AdminStatsHandler"))

		stats, err := admin.Stats(r.Context())
		if err != nil {
			renderServiceError(w, r, logger, err, "")
			return
		}
		response.JSON(w, http.StatusOK, StatsResponse{Response: response.OK(), Stats: stats})
	}
}
