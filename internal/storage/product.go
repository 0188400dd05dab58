package storage

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/linemk/nirvana-shop/internal/domain/models"
	"github.com/pkg/errors"
)

var ErrProductNotFound = errors.New("product not found")

// ProductStorage описывает методы для работы с таблицей товаров.
type ProductStorage interface {
	// ListProducts возвращает весь каталог, новые товары первыми.
	ListProducts(ctx context.Context) ([]*models.Product, error)
	// GetProductByID ищет товар по идентификатору.
	GetProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	// CreateProduct добавляет товар (только через админское подключение).
	CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error)
	CountProducts(ctx context.Context) (int, error)
}

type productRepository struct {
	gw *Gateway
}

// NewProductRepository создаёт репозиторий товаров.
func NewProductRepository(gw *Gateway) ProductStorage {
	return &productRepository{gw: gw}
}

func scanProduct(row rowScanner, p *models.Product) error {
	return row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.ImageURL, &p.Category, &p.Stock, &p.CreatedAt)
}

// ListProducts читает каталог через ограниченное подключение: каталог публичный.
func (r *productRepository) ListProducts(ctx context.Context) ([]*models.Product, error) {
	query := `
		SELECT id, name, description, price, image_url, category, stock, created_at
		FROM products
		ORDER BY created_at DESC`
	rows, err := r.gw.Restricted.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "query products")
	}
	defer rows.Close()

	products := []*models.Product{}
	for rows.Next() {
		p := &models.Product{}
		if err := scanProduct(rows, p); err != nil {
			return nil, errors.Wrap(err, "scan product")
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate products")
	}
	return products, nil
}

func (r *productRepository) GetProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	query := `SELECT id, name, description, price, image_url, category, stock, created_at FROM products WHERE id = $1`
	p := &models.Product{}
	if err := scanProduct(r.gw.Restricted.QueryRowContext(ctx, query, id), p); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, errors.Wrap(err, "get product")
	}
	return p, nil
}

func (r *productRepository) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	query := `
		INSERT INTO products (name, description, price, image_url, category, stock)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`
	err := r.gw.Admin.QueryRowContext(ctx, query,
		product.Name, product.Description, product.Price, product.ImageURL, product.Category, product.Stock,
	).Scan(&product.ID, &product.CreatedAt)
	if err != nil {
		return nil, errors.Wrap(err, "insert product")
	}
	return product, nil
}

func (r *productRepository) CountProducts(ctx context.Context) (int, error) {
	var count int
	if err := r.gw.Admin.QueryRowContext(ctx, "SELECT COUNT(*) FROM products").Scan(&count); err != nil {
		return 0, errors.Wrap(err, "count products")
	}
	return count, nil
}
