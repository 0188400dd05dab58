package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/linemk/nirvana-shop/internal/domain/models"
	"github.com/linemk/nirvana-shop/internal/storage"
)

// AdminService: данные для админской панели, только чтение.
type AdminService interface {
	ListAllOrders(ctx context.Context) ([]*models.Order, error)
	ListCustomers(ctx context.Context) ([]*models.Customer, error)
	Stats(ctx context.Context) (*models.Stats, error)
}

type adminService struct {
	log         *slog.Logger
	orderRepo   storage.OrderStorage
	productRepo storage.ProductStorage
}

func NewAdminService(log *slog.Logger, orderRepo storage.OrderStorage, productRepo storage.ProductStorage) AdminService {
	return &adminService{
		log:         log,
		orderRepo:   orderRepo,
		productRepo: productRepo,
	}
}

func (s *adminService) ListAllOrders(ctx context.Context) ([]*models.Order, error) {
	const op = "service.AdminService.ListAllOrders"

	orders, err := s.orderRepo.GetAllOrders(ctx)
	if err != nil {
		s.log.Error("failed to get orders", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return orders, nil
}

// ListCustomers строит список покупателей по таблице заказов.
// Заказы идут от новых к старым, и для каждого email остаётся первая встреченная строка.
// Поэтому FirstOrder фактически содержит дату самого свежего заказа покупателя.
// Поведение сохранено намеренно до решения владельца системы, см. тест TestListCustomers_KeepsNewestOrderPerEmail.
func (s *adminService) ListCustomers(ctx context.Context) ([]*models.Customer, error) {
	const op = "service.AdminService.ListCustomers"

	contacts, err := s.orderRepo.GetOrderContacts(ctx)
	if err != nil {
		s.log.Error("failed to get order contacts", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	seen := make(map[string]struct{}, len(contacts))
	customers := []*models.Customer{}
	for _, c := range contacts {
		if _, ok := seen[c.UserEmail]; ok {
			continue
		}
		seen[c.UserEmail] = struct{}{}
		customers = append(customers, &models.Customer{
			UserID:     c.UserID,
			Email:      c.UserEmail,
			Name:       c.UserName,
			FirstOrder: c.CreatedAt,
		})
	}
	return customers, nil
}

func (s *adminService) Stats(ctx context.Context) (*models.Stats, error) {
	const op = "service.AdminService.Stats"

	stats, err := s.orderRepo.GetOrderStats(ctx)
	if err != nil {
		s.log.Error("failed to get order stats", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	products, err := s.productRepo.CountProducts(ctx)
	if err != nil {
		s.log.Error("failed to count products", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	stats.TotalProducts = products
	return stats, nil
}
