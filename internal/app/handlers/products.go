package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/linemk/nirvana-shop/internal/domain/models"
	"github.com/linemk/nirvana-shop/internal/lib/api/response"
	"github.com/linemk/nirvana-shop/internal/service"
	"github.com/shopspring/decimal"
)

// CreateProductRequest: тело POST /api/products
type CreateProductRequest struct {
	Name        string          `json:"name" validate:"required"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    string          `json:"image_url"`
	Category    string          `json:"category"`
	Stock       int             `json:"stock" validate:"gte=0"`
}

type ProductsResponse struct {
	response.Response
	Products []*models.Product `json:"products"`
}

// ProductResponse: product равен null, если товар не найден
type ProductResponse struct {
	response.Response
	Product *models.Product `json:"product"`
}

// ListProductsHandler обрабатывает GET /api/products.
func ListProductsHandler(log *slog.Logger, catalog service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ListProductsHandler"
		logger := log.With(slog.String("op", op))

		products, err := catalog.ListProducts(r.Context())
		if err != nil {
			renderServiceError(w, r, logger, err, "")
			return
		}
		response.JSON(w, http.StatusOK, ProductsResponse{Response: response.OK(), Products: products})
	}
}

// GetProductHandler обрабатывает GET /api/products/{id}.
// Отсутствующий товар не ошибка: отдаём success с product = null.
// Id, который не разбирается как UUID, тоже ни одному товару не соответствует.
func GetProductHandler(log *slog.Logger, catalog service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.GetProductHandler"
		logger := log.With(slog.String("op", op))

		raw := chi.URLParam(r, "id")
		id, err := uuid.Parse(raw)
		if err != nil {
			logger.Debug("malformed product id", slog.String("id", raw))
			response.JSON(w, http.StatusOK, ProductResponse{Response: response.OK()})
			return
		}

		product, err := catalog.GetProduct(r.Context(), id)
		if err != nil && !errors.Is(err, service.ErrNotFound) {
			renderServiceError(w, r, logger, err, "")
			return
		}
		response.JSON(w, http.StatusOK, ProductResponse{Response: response.OK(), Product: product})
	}
}

// CreateProductHandler обрабатывает POST /api/products (только админ).
func CreateProductHandler(log *slog.Logger, catalog service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.CreateProductHandler"
		logger := log.With(slog.String("op", op))

		var req CreateProductRequest
		if !decodeAndValidate(w, r, logger, &req) {
			return
		}

		product, err := catalog.CreateProduct(r.Context(), service.CreateProductInput{
			Name:        req.Name,
			Description: req.Description,
			Price:       req.Price,
			ImageURL:    req.ImageURL,
			Category:    req.Category,
			Stock:       req.Stock,
		})
		if err != nil {
			renderServiceError(w, r, logger, err, "")
			return
		}
		response.JSON(w, http.StatusOK, ProductResponse{Response: response.OK(), Product: product})
	}
}
