package storage

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/linemk/nirvana-shop/internal/domain/models"
	"github.com/pkg/errors"
)

var ErrCartItemNotFound = errors.New("cart item not found")

// код ошибки postgres: нарушение внешнего ключа
const pqForeignKeyViolation = "23503"

// CartStorage описывает методы для работы с корзиной.
// Все операции идут через админское подключение и ограничены user_id вызывающего.
type CartStorage interface {
	// GetCartByUserID возвращает строки корзины вместе с товаром.
	GetCartByUserID(ctx context.Context, userID string) ([]*models.CartItem, error)
	// LockCartItemTx блокирует строку (пользователь, товар) до конца транзакции.
	LockCartItemTx(ctx context.Context, tx *sql.Tx, userID string, productID uuid.UUID) (*models.CartItem, error)
	UpdateCartItemQuantityTx(ctx context.Context, tx *sql.Tx, id uuid.UUID, quantity int) (*models.CartItem, error)
	// InsertCartItemTx вставляет строку; при гонке с параллельной вставкой количество складывается.
	InsertCartItemTx(ctx context.Context, tx *sql.Tx, userID string, productID uuid.UUID, quantity int) (*models.CartItem, error)
	UpdateCartItemQuantity(ctx context.Context, userID string, id uuid.UUID, quantity int) (*models.CartItem, error)
	// DeleteCartItem идемпотентна: отсутствие строки не ошибка.
	DeleteCartItem(ctx context.Context, userID string, id uuid.UUID) error
	ClearCart(ctx context.Context, userID string) (int64, error)
}

type cartRepository struct {
	db *sql.DB
}

// NewCartRepository создаёт репозиторий корзины.
func NewCartRepository(gw *Gateway) CartStorage {
	return &cartRepository{db: gw.Admin}
}

func scanCartItem(row rowScanner, item *models.CartItem) error {
	return row.Scan(&item.ID, &item.UserID, &item.ProductID, &item.Quantity, &item.CreatedAt)
}

func (r *cartRepository) GetCartByUserID(ctx context.Context, userID string) ([]*models.CartItem, error) {
	query := `
		SELECT c.id, c.user_id, c.product_id, c.quantity, c.created_at,
		       p.id, p.name, p.description, p.price, p.image_url, p.category, p.stock, p.created_at
		FROM cart_items c
		JOIN products p ON c.product_id = p.id
		WHERE c.user_id = $1
		ORDER BY c.created_at`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, errors.Wrap(err, "query cart items")
	}
	defer rows.Close()

	items := []*models.CartItem{}
	for rows.Next() {
		item := &models.CartItem{Product: &models.Product{}}
		p := item.Product
		if err := rows.Scan(
			&item.ID, &item.UserID, &item.ProductID, &item.Quantity, &item.CreatedAt,
			&p.ID, &p.Name, &p.Description, &p.Price, &p.ImageURL, &p.Category, &p.Stock, &p.CreatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "scan cart item")
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate cart items")
	}
	return items, nil
}

func (r *cartRepository) LockCartItemTx(ctx context.Context, tx *sql.Tx, userID string, productID uuid.UUID) (*models.CartItem, error) {
	query := `
		SELECT id, user_id, product_id, quantity, created_at
		FROM cart_items
		WHERE user_id = $1 AND product_id = $2
		FOR UPDATE`
	item := &models.CartItem{}
	if err := scanCartItem(tx.QueryRowContext(ctx, query, userID, productID), item); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCartItemNotFound
		}
		return nil, errors.Wrap(err, "lock cart item")
	}
	return item, nil
}

func (r *cartRepository) UpdateCartItemQuantityTx(ctx context.Context, tx *sql.Tx, id uuid.UUID, quantity int) (*models.CartItem, error) {
	query := `
		UPDATE cart_items SET quantity = $1
		WHERE id = $2
		RETURNING id, user_id, product_id, quantity, created_at`
	item := &models.CartItem{}
	if err := scanCartItem(tx.QueryRowContext(ctx, query, quantity, id), item); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCartItemNotFound
		}
		return nil, errors.Wrap(err, "update cart item")
	}
	return item, nil
}

func (r *cartRepository) InsertCartItemTx(ctx context.Context, tx *sql.Tx, userID string, productID uuid.UUID, quantity int) (*models.CartItem, error) {
	query := `
		INSERT INTO cart_items (user_id, product_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, product_id) DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
		RETURNING id, user_id, product_id, quantity, created_at`
	item := &models.CartItem{}
	if err := scanCartItem(tx.QueryRowContext(ctx, query, userID, productID, quantity), item); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqForeignKeyViolation {
			return nil, ErrProductNotFound
		}
		return nil, errors.Wrap(err, "insert cart item")
	}
	return item, nil
}

func (r *cartRepository) UpdateCartItemQuantity(ctx context.Context, userID string, id uuid.UUID, quantity int) (*models.CartItem, error) {
	query := `
		UPDATE cart_items SET quantity = $1
		WHERE id = $2 AND user_id = $3
		RETURNING id, user_id, product_id, quantity, created_at`
	item := &models.CartItem{}
	if err := scanCartItem(r.db.QueryRowContext(ctx, query, quantity, id, userID), item); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCartItemNotFound
		}
		return nil, errors.Wrap(err, "update cart item")
	}
	return item, nil
}

func (r *cartRepository) DeleteCartItem(ctx context.Context, userID string, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM cart_items WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		return errors.Wrap(err, "delete cart item")
	}
	return nil
}

func (r *cartRepository) ClearCart(ctx context.Context, userID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM cart_items WHERE user_id = $1", userID)
	if err != nil {
		return 0, errors.Wrap(err, "clear cart")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "clear cart")
	}
	return affected, nil
}
