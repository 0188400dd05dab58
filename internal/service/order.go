package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/linemk/nirvana-shop/internal/domain/models"
	"github.com/linemk/nirvana-shop/internal/lib/metrics"
	"github.com/linemk/nirvana-shop/internal/storage"
	"github.com/shopspring/decimal"
)

// OrderService оформляет заказ из снимка корзины и отдаёт историю заказов.
type OrderService interface {
	PlaceOrder(ctx context.Context, userID string, in PlaceOrderInput) (*models.Order, error)
	ListMyOrders(ctx context.Context, userID string) ([]*models.Order, error)
}

// PlaceOrderInput: снимок корзины и контактные данные из формы оформления.
// Цены берутся из снимка, каталог повторно не читается.
type PlaceOrderInput struct {
	Items           []*models.CartItem
	ShippingAddress string
	Phone           string
	UserName        string
	UserEmail       string
}

// CartClearer очищает корзину после оформления заказа
type CartClearer interface {
	ClearCart(ctx context.Context, userID string) error
}

type orderService struct {
	log       *slog.Logger
	db        *sql.DB
	orderRepo storage.OrderStorage
	cart      CartClearer
}

func NewOrderService(log *slog.Logger, db *sql.DB, orderRepo storage.OrderStorage, cart CartClearer) OrderService {
	return &orderService{
		log:       log,
		db:        db,
		orderRepo: orderRepo,
		cart:      cart,
	}
}

// PlaceOrder создаёт заказ и его позиции в одной транзакции.
// Очистка корзины выполняется после коммита и на результат не влияет: ошибка только логируется.
func (s *orderService) PlaceOrder(ctx context.Context, userID string, in PlaceOrderInput) (*models.Order, error) {
	const op = "service.OrderService.PlaceOrder"
	logger := s.log.With(slog.String("op", op), slog.String("userID", userID))

	if len(in.Items) == 0 {
		return nil, invalidRequest("Cart is empty")
	}

	items, total, err := snapshotItems(in.Items)
	if err != nil {
		logger.Warn("invalid cart snapshot", slog.Any("error", err))
		return nil, err
	}

	logger.Info("starting order transaction", slog.Int("items", len(items)), slog.String("total", total.String()))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("failed to begin transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}

	order, err := s.orderRepo.CreateOrderTx(ctx, tx, &models.Order{
		UserID:          userID,
		UserEmail:       in.UserEmail,
		UserName:        in.UserName,
		TotalAmount:     total,
		ShippingAddress: in.ShippingAddress,
		Phone:           in.Phone,
		Status:          models.OrderStatusPending,
	})
	if err != nil {
		rollback(logger, tx)
		logger.Error("failed to create order", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to create order: %w", op, err)
	}

	if err := s.orderRepo.CreateOrderItemsTx(ctx, tx, order.ID, items); err != nil {
		rollback(logger, tx)
		logger.Error("failed to create order items", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to create order items: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		logger.Error("failed to commit transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}
	order.Items = items
	metrics.OrderPlaced()

	if err := s.cart.ClearCart(ctx, userID); err != nil {
		logger.Warn("failed to clear cart after order", slog.String("orderID", order.ID.String()), slog.Any("error", err))
	}

	logger.Info("order placed", slog.String("orderID", order.ID.String()))
	return order, nil
}

// snapshotItems превращает строки корзины в позиции заказа и считает сумму
func snapshotItems(lines []*models.CartItem) ([]*models.OrderItem, decimal.Decimal, error) {
	items := make([]*models.OrderItem, 0, len(lines))
	total := decimal.Zero
	for i, line := range lines {
		if line == nil || line.Product == nil {
			return nil, decimal.Zero, invalidRequest(fmt.Sprintf("item %d has no product snapshot", i))
		}
		if line.Quantity <= 0 {
			return nil, decimal.Zero, invalidRequest(fmt.Sprintf("item %d has non-positive quantity", i))
		}
		price := line.Product.Price
		if price.IsNegative() {
			return nil, decimal.Zero, invalidRequest(fmt.Sprintf("item %d has negative price", i))
		}
		// цены хранятся как NUMERIC(12,2): лишние знаки разъехались бы с суммой заказа после округления
		if !price.Equal(price.Round(2)) {
			return nil, decimal.Zero, invalidRequest(fmt.Sprintf("item %d has price with more than two decimal places", i))
		}
		productID := line.ProductID
		if productID == uuid.Nil {
			productID = line.Product.ID
		}
		if productID == uuid.Nil {
			return nil, decimal.Zero, invalidRequest(fmt.Sprintf("item %d has no product id", i))
		}

		item := &models.OrderItem{
			ProductID:   productID,
			ProductName: line.Product.Name,
			Quantity:    line.Quantity,
			Price:       price,
		}
		total = total.Add(item.Subtotal())
		items = append(items, item)
	}
	return items, total, nil
}

func (s *orderService) ListMyOrders(ctx context.Context, userID string) ([]*models.Order, error) {
	const op = "service.OrderService.ListMyOrders"

	orders, err := s.orderRepo.GetOrdersByUserID(ctx, userID)
	if err != nil {
		s.log.Error("failed to get orders", slog.String("op", op), slog.String("userID", userID), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return orders, nil
}
