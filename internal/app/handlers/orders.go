package handlers

import (
	"log/slog"
	"net/http"

	"github.com/linemk/nirvana-shop/internal/domain/models"
	"github.com/linemk/nirvana-shop/internal/lib/api/response"
	"github.com/linemk/nirvana-shop/internal/service"
)

// PlaceOrderRequest: тело POST /api/orders. items: строки корзины вместе с products.
type PlaceOrderRequest struct {
	Items           []*models.CartItem `json:"items"`
	ShippingAddress string             `json:"shippingAddress"`
	Phone           string             `json:"phone"`
	UserName        string             `json:"userName"`
	UserEmail       string             `json:"userEmail" validate:"omitempty,email"`
}

type OrdersResponse struct {
	response.Response
	Orders []*models.Order `json:"orders"`
}

type OrderResponse struct {
	response.Response
	Order *models.Order `json:"order"`
}

// ListMyOrdersHandler обрабатывает GET /api/orders.
func ListMyOrdersHandler(log *slog.Logger, orders service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ListMyOrdersHandler"
		logger := log.With(slog.String("op", op))

		userID, ok := callerID(w, r, logger)
		if !ok {
			return
		}

		list, err := orders.ListMyOrders(r.Context(), userID)
		if err != nil {
			renderServiceError(w, r, logger, err, "")
			return
		}
		response.JSON(w, http.StatusOK, OrdersResponse{Response: response.OK(), Orders: list})
	}
}

// PlaceOrderHandler обрабатывает POST /api/orders.
func PlaceOrderHandler(log *slog.Logger, orders service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.PlaceOrderHandler"
		logger := log.With(slog.String("op", op))

		userID, ok := callerID(w, r, logger)
		if !ok {
			return
		}

		var req PlaceOrderRequest
		if !decodeAndValidate(w, r, logger, &req) {
			return
		}

		order, err := orders.PlaceOrder(r.Context(), userID, service.PlaceOrderInput{
			Items:           req.Items,
			ShippingAddress: req.ShippingAddress,
			Phone:           req.Phone,
			UserName:        req.UserName,
			UserEmail:       req.UserEmail,
		})
		if err != nil {
			renderServiceError(w, r, logger, err, "")
			return
		}
		response.JSON(w, http.StatusOK, OrderResponse{Response: response.OK(), Order: order})
	}
}
