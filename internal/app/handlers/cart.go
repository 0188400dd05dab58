package handlers

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/linemk/nirvana-shop/internal/domain/models"
	"github.com/linemk/nirvana-shop/internal/lib/api/response"
	"github.com/linemk/nirvana-shop/internal/service"
)

// AddToCartRequest: тело POST /api/cart. quantity можно не передавать, тогда 1.
type AddToCartRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity"`
}

// UpdateCartItemRequest: тело PATCH /api/cart/{id}. quantity <= 0 удаляет строку.
type UpdateCartItemRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}

type CartResponse struct {
	response.Response
	Items []*models.CartItem `json:"items"`
}

type CartItemResponse struct {
	response.Response
	Item *models.CartItem `json:"item,omitempty"`
}

// GetCartHandler обрабатывает GET /api/cart.
func GetCartHandler(log *slog.Logger, cart service.CartService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.GetCartHandler"
		logger := log.With(slog.String("op", op))

		userID, ok := callerID(w, r, logger)
		if !ok {
			return
		}

		items, err := cart.ListCart(r.Context(), userID)
		if err != nil {
			renderServiceError(w, r, logger, err, "")
			return
		}
		response.JSON(w, http.StatusOK, CartResponse{Response: response.OK(), Items: items})
	}
}

// AddToCartHandler обрабатывает POST /api/cart.
func AddToCartHandler(log *slog.Logger, cart service.CartService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.AddToCartHandler"
		logger := log.With(slog.String("op", op))

		userID, ok := callerID(w, r, logger)
		if !ok {
			return
		}

		var req AddToCartRequest
		if !decodeAndValidate(w, r, logger, &req) {
			return
		}
		productID, err := uuid.Parse(req.ProductID)
		if err != nil {
			logger.Warn("productId is not a uuid", slog.String("productId", req.ProductID))
			response.Error(w, http.StatusBadRequest, "Invalid productId")
			return
		}

		item, err := cart.AddToCart(r.Context(), userID, productID, req.Quantity)
		if err != nil {
			renderServiceError(w, r, logger, err, "Product not found")
			return
		}
		response.JSON(w, http.StatusOK, CartItemResponse{Response: response.OK(), Item: item})
	}
}

// UpdateCartItemHandler обрабатывает PATCH /api/cart/{id}.
func UpdateCartItemHandler(log *slog.Logger, cart service.CartService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.UpdateCartItemHandler"
		logger := log.With(slog.String("op", op))

		userID, ok := callerID(w, r, logger)
		if !ok {
			return
		}
		itemID, ok := pathID(w, r, logger)
		if !ok {
			return
		}

		var req UpdateCartItemRequest
		if !decodeAndValidate(w, r, logger, &req) {
			return
		}

		item, err := cart.UpdateQuantity(r.Context(), userID, itemID, *req.Quantity)
		if err != nil {
			renderServiceError(w, r, logger, err, "Cart item not found")
			return
		}
		response.JSON(w, http.StatusOK, CartItemResponse{Response: response.OK(), Item: item})
	}
}

// RemoveCartItemHandler обрабатывает DELETE /api/cart/{id}. Повторное удаление тоже успешно.
func RemoveCartItemHandler(log *slog.Logger, cart service.CartService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.RemoveCartItemHandler"
		logger := log.With(slog.String("op", op))

		userID, ok := callerID(w, r, logger)
		if !ok {
			return
		}
		itemID, ok := pathID(w, r, logger)
		if !ok {
			return
		}

		if err := cart.RemoveItem(r.Context(), userID, itemID); err != nil {
			renderServiceError(w, r, logger, err, "")
			return
		}
		response.JSON(w, http.StatusOK, response.OK())
	}
}
