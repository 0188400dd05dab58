package storage

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/linemk/nirvana-shop/internal/domain/models"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// OrderStorage описывает методы для работы с заказами.
type OrderStorage interface {
	// CreateOrderTx вставляет заказ в таблицу orders, заполняет ID и CreatedAt.
	CreateOrderTx(ctx context.Context, tx *sql.Tx, order *models.Order) (*models.Order, error)
	// CreateOrderItemsTx вставляет позиции заказа в рамках той же транзакции.
	CreateOrderItemsTx(ctx context.Context, tx *sql.Tx, orderID uuid.UUID, items []*models.OrderItem) error
	// GetOrdersByUserID возвращает заказы пользователя вместе с позициями, новые первыми.
	GetOrdersByUserID(ctx context.Context, userID string) ([]*models.Order, error)
	// GetAllOrders возвращает все заказы магазина вместе с позициями, новые первыми.
	GetAllOrders(ctx context.Context) ([]*models.Order, error)
	// GetOrderContacts возвращает контакты из всех заказов, новые первыми.
	GetOrderContacts(ctx context.Context) ([]*models.OrderContact, error)
	// GetOrderStats считает число заказов, уникальных покупателей и выручку.
	GetOrderStats(ctx context.Context) (*models.Stats, error)
}

type orderRepository struct {
	gw *Gateway
}

// NewOrderRepository создаёт новый репозиторий заказов.
func NewOrderRepository(gw *Gateway) OrderStorage {
	return &orderRepository{gw: gw}
}

func (r *orderRepository) CreateOrderTx(ctx context.Context, tx *sql.Tx, order *models.Order) (*models.Order, error) {
	query := `INSERT INTO orders (user_id, user_email, user_name, total_amount, shipping_address, phone, status)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING id, created_at`
	err := tx.QueryRowContext(ctx, query,
		order.UserID, order.UserEmail, order.UserName, order.TotalAmount, order.ShippingAddress, order.Phone, order.Status,
	).Scan(&order.ID, &order.CreatedAt)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create order")
	}
	return order, nil
}

func (r *orderRepository) CreateOrderItemsTx(ctx context.Context, tx *sql.Tx, orderID uuid.UUID, items []*models.OrderItem) error {
	query := `INSERT INTO order_items (order_id, line_no, product_id, product_name, quantity, price)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING id`
	for i, item := range items {
		item.OrderID = orderID
		err := tx.QueryRowContext(ctx, query, orderID, i+1, item.ProductID, item.ProductName, item.Quantity, item.Price).Scan(&item.ID)
		if err != nil {
			return errors.Wrapf(err, "failed to create order item for product %s", item.ProductID)
		}
	}
	return nil
}

const orderColumns = `id, user_id, user_email, user_name, total_amount, shipping_address, phone, status, created_at`

// queryer: общее у *sql.DB и *sql.Tx
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// GetOrdersByUserID читает через ограниченное подключение под политикой RLS.
// app.user_id выставляется только на время транзакции, поэтому соединение из пула
// не уносит чужой идентификатор в следующий запрос.
func (r *orderRepository) GetOrdersByUserID(ctx context.Context, userID string) ([]*models.Order, error) {
	tx, err := r.gw.Restricted.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, errors.Wrap(err, "begin orders read")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `SELECT set_config('app.user_id', $1, true)`, userID); err != nil {
		return nil, errors.Wrap(err, "set app.user_id")
	}

	query := `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`
	orders, err := r.queryOrders(ctx, tx, query, userID)
	if err != nil {
		return nil, err
	}
	if err := r.attachItems(ctx, tx, orders, true); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "commit orders read")
	}
	return orders, nil
}

func (r *orderRepository) GetAllOrders(ctx context.Context) ([]*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at DESC`
	orders, err := r.queryOrders(ctx, r.gw.Admin, query)
	if err != nil {
		return nil, err
	}
	if err := r.attachItems(ctx, r.gw.Admin, orders, false); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *orderRepository) queryOrders(ctx context.Context, q queryer, query string, args ...any) ([]*models.Order, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query orders")
	}
	defer rows.Close()

	orders := []*models.Order{}
	for rows.Next() {
		o := &models.Order{Items: []*models.OrderItem{}}
		if err := rows.Scan(&o.ID, &o.UserID, &o.UserEmail, &o.UserName, &o.TotalAmount,
			&o.ShippingAddress, &o.Phone, &o.Status, &o.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scan order")
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate orders")
	}
	return orders, nil
}

const (
	orderItemsQuery = `
		SELECT oi.id, oi.order_id, oi.product_id, oi.product_name, oi.quantity, oi.price
		FROM order_items oi
		WHERE oi.order_id = ANY($1::uuid[])
		ORDER BY oi.order_id, oi.line_no`

	// товар мог быть удалён из каталога, поэтому LEFT JOIN
	orderItemsWithProductQuery = `
		SELECT oi.id, oi.order_id, oi.product_id, oi.product_name, oi.quantity, oi.price,
		       p.id, p.name, p.description, p.price, p.image_url, p.category, p.stock, p.created_at
		FROM order_items oi
		LEFT JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = ANY($1::uuid[])
		ORDER BY oi.order_id, oi.line_no`
)

// attachItems подтягивает позиции одним запросом на все заказы.
// withProduct добавляет к позиции текущую карточку товара из каталога.
func (r *orderRepository) attachItems(ctx context.Context, q queryer, orders []*models.Order, withProduct bool) error {
	if len(orders) == 0 {
		return nil
	}

	byID := make(map[uuid.UUID]*models.Order, len(orders))
	ids := make([]string, 0, len(orders))
	for _, o := range orders {
		byID[o.ID] = o
		ids = append(ids, o.ID.String())
	}

	query := orderItemsQuery
	if withProduct {
		query = orderItemsWithProductQuery
	}
	rows, err := q.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return errors.Wrap(err, "query order items")
	}
	defer rows.Close()

	for rows.Next() {
		item := &models.OrderItem{}
		dest := []any{&item.ID, &item.OrderID, &item.ProductID, &item.ProductName, &item.Quantity, &item.Price}
		var p nullProduct
		if withProduct {
			dest = append(dest, p.dest()...)
		}
		if err := rows.Scan(dest...); err != nil {
			return errors.Wrap(err, "scan order item")
		}
		if withProduct {
			item.Product = p.product()
		}
		if o, ok := byID[item.OrderID]; ok {
			o.Items = append(o.Items, item)
		}
	}
	return errors.Wrap(rows.Err(), "iterate order items")
}

// nullProduct: колонки товара из LEFT JOIN
type nullProduct struct {
	id          uuid.NullUUID
	name        sql.NullString
	description sql.NullString
	price       decimal.NullDecimal
	imageURL    sql.NullString
	category    sql.NullString
	stock       sql.NullInt64
	createdAt   sql.NullTime
}

func (p *nullProduct) dest() []any {
	return []any{&p.id, &p.name, &p.description, &p.price, &p.imageURL, &p.category, &p.stock, &p.createdAt}
}

func (p *nullProduct) product() *models.Product {
	if !p.id.Valid {
		return nil
	}
	return &models.Product{
		ID:          p.id.UUID,
		Name:        p.name.String,
		Description: p.description.String,
		Price:       p.price.Decimal,
		ImageURL:    p.imageURL.String,
		Category:    p.category.String,
		Stock:       int(p.stock.Int64),
		CreatedAt:   p.createdAt.Time,
	}
}

func (r *orderRepository) GetOrderContacts(ctx context.Context) ([]*models.OrderContact, error) {
	query := `
		SELECT user_id, user_email, user_name, created_at
		FROM orders
		ORDER BY created_at DESC`
	rows, err := r.gw.Admin.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "query order contacts")
	}
	defer rows.Close()

	var contacts []*models.OrderContact
	for rows.Next() {
		c := &models.OrderContact{}
		if err := rows.Scan(&c.UserID, &c.UserEmail, &c.UserName, &c.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scan order contact")
		}
		contacts = append(contacts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate order contacts")
	}
	return contacts, nil
}

func (r *orderRepository) GetOrderStats(ctx context.Context) (*models.Stats, error) {
	query := `SELECT COUNT(*), COUNT(DISTINCT user_email), COALESCE(SUM(total_amount), 0) FROM orders`
	stats := &models.Stats{}
	if err := r.gw.Admin.QueryRowContext(ctx, query).Scan(&stats.TotalOrders, &stats.TotalCustomers, &stats.TotalRevenue); err != nil {
		return nil, errors.Wrap(err, "order stats")
	}
	return stats, nil
}
