package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/linemk/nirvana-shop/internal/domain/models"
	"github.com/linemk/nirvana-shop/internal/lib/metrics"
	"github.com/linemk/nirvana-shop/internal/storage"
)

// CartService управляет корзиной одного пользователя.
type CartService interface {
	ListCart(ctx context.Context, userID string) ([]*models.CartItem, error)
	AddToCart(ctx context.Context, userID string, productID uuid.UUID, quantity int) (*models.CartItem, error)
	// UpdateQuantity при quantity <= 0 удаляет строку и возвращает nil.
	UpdateQuantity(ctx context.Context, userID string, itemID uuid.UUID, quantity int) (*models.CartItem, error)
	RemoveItem(ctx context.Context, userID string, itemID uuid.UUID) error
	ClearCart(ctx context.Context, userID string) error
}

type cartService struct {
	log      *slog.Logger
	db       *sql.DB
	cartRepo storage.CartStorage
}

// NewCartService принимает админское подключение: транзакции корзины идут в обход RLS.
func NewCartService(log *slog.Logger, db *sql.DB, cartRepo storage.CartStorage) CartService {
	return &cartService{
		log:      log,
		db:       db,
		cartRepo: cartRepo,
	}
}

func (s *cartService) ListCart(ctx context.Context, userID string) ([]*models.CartItem, error) {
	const op = "service.CartService.ListCart"

	items, err := s.cartRepo.GetCartByUserID(ctx, userID)
	if err != nil {
		s.log.Error("failed to get cart", slog.String("op", op), slog.String("userID", userID), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return items, nil
}

// AddToCart добавляет товар или увеличивает количество уже лежащего в корзине.
// Поиск строки и запись выполняются в одной транзакции с блокировкой строки,
// поэтому параллельные добавления одного товара не теряют инкременты.
func (s *cartService) AddToCart(ctx context.Context, userID string, productID uuid.UUID, quantity int) (*models.CartItem, error) {
	const op = "service.CartService.AddToCart"
	logger := s.log.With(slog.String("op", op), slog.String("userID", userID), slog.String("productID", productID.String()))

	if quantity < 0 {
		return nil, invalidRequest("quantity must be positive")
	}
	if quantity == 0 {
		quantity = 1
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("failed to begin transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}

	var item *models.CartItem
	existing, err := s.cartRepo.LockCartItemTx(ctx, tx, userID, productID)
	switch {
	case err == nil:
		item, err = s.cartRepo.UpdateCartItemQuantityTx(ctx, tx, existing.ID, existing.Quantity+quantity)
		if err != nil {
			rollback(logger, tx)
			logger.Error("failed to update cart item", slog.Any("error", err))
			return nil, fmt.Errorf("%s: failed to update cart item: %w", op, err)
		}
	case errors.Is(err, storage.ErrCartItemNotFound):
		item, err = s.cartRepo.InsertCartItemTx(ctx, tx, userID, productID, quantity)
		if err != nil {
			rollback(logger, tx)
			if errors.Is(err, storage.ErrProductNotFound) {
				logger.Warn("product does not exist")
				return nil, fmt.Errorf("%s: product %s: %w", op, productID, ErrNotFound)
			}
			logger.Error("failed to insert cart item", slog.Any("error", err))
			return nil, fmt.Errorf("%s: failed to insert cart item: %w", op, err)
		}
	default:
		rollback(logger, tx)
		logger.Error("failed to look up cart item", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to look up cart item: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		logger.Error("failed to commit transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}

	metrics.CartMutation("add")
	logger.Info("cart item saved", slog.Int("quantity", item.Quantity))
	return item, nil
}

func (s *cartService) UpdateQuantity(ctx context.Context, userID string, itemID uuid.UUID, quantity int) (*models.CartItem, error) {
	const op = "service.CartService.UpdateQuantity"
	logger := s.log.With(slog.String("op", op), slog.String("userID", userID), slog.String("itemID", itemID.String()))

	// количество в корзине всегда положительное: ноль и меньше означают удаление
	if quantity <= 0 {
		if err := s.cartRepo.DeleteCartItem(ctx, userID, itemID); err != nil {
			logger.Error("failed to delete cart item", slog.Any("error", err))
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		metrics.CartMutation("delete")
		return nil, nil
	}

	item, err := s.cartRepo.UpdateCartItemQuantity(ctx, userID, itemID, quantity)
	if err != nil {
		if errors.Is(err, storage.ErrCartItemNotFound) {
			return nil, fmt.Errorf("%s: cart item %s: %w", op, itemID, ErrNotFound)
		}
		logger.Error("failed to update cart item", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	metrics.CartMutation("update")
	return item, nil
}

func (s *cartService) RemoveItem(ctx context.Context, userID string, itemID uuid.UUID) error {
	const op = "service.CartService.RemoveItem"

	if err := s.cartRepo.DeleteCartItem(ctx, userID, itemID); err != nil {
		s.log.Error("failed to delete cart item", slog.String("op", op), slog.Any("error", err))
		return fmt.Errorf("%s: %w", op, err)
	}
	metrics.CartMutation("delete")
	return nil
}

func (s *cartService) ClearCart(ctx context.Context, userID string) error {
	const op = "service.CartService.ClearCart"

	removed, err := s.cartRepo.ClearCart(ctx, userID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	metrics.CartMutation("clear")
	s.log.Debug("cart cleared", slog.String("op", op), slog.String("userID", userID), slog.Int64("removed", removed))
	return nil
}
