package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const OrderStatusPending = "pending"

// Order представляет оформленный заказ.
// TotalAmount считается один раз при создании из снимка корзины и больше не пересчитывается.
type Order struct {
	ID              uuid.UUID       `json:"id"`
	UserID          string          `json:"user_id"`
	UserEmail       string          `json:"user_email"`
	UserName        string          `json:"user_name"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	ShippingAddress string          `json:"shipping_address"`
	Phone           string          `json:"phone"`
	Status          string          `json:"status"`
	CreatedAt       time.Time       `json:"created_at"`
	Items           []*OrderItem    `json:"order_items"`
}

// OrderItem: позиция заказа, снимок товара на момент покупки
type OrderItem struct {
	ID          uuid.UUID       `json:"id"`
	OrderID     uuid.UUID       `json:"order_id"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	// Product: текущая карточка товара, только в истории заказов покупателя
	Product *Product `json:"products,omitempty"`
}

// Subtotal возвращает стоимость позиции
func (i *OrderItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
