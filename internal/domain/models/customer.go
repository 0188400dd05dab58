package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderContact: контактные данные покупателя из строки заказа
type OrderContact struct {
	UserID    string
	UserEmail string
	UserName  string
	CreatedAt time.Time
}

// Customer не хранится в БД, а вычисляется по таблице orders на каждый запрос
type Customer struct {
	UserID     string    `json:"user_id"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	FirstOrder time.Time `json:"first_order"`
}

// Stats: сводка для админской панели
type Stats struct {
	TotalProducts  int             `json:"total_products"`
	TotalOrders    int             `json:"total_orders"`
	TotalCustomers int             `json:"total_customers"`
	TotalRevenue   decimal.Decimal `json:"total_revenue"`
}
