package models

import (
	"time"

	"github.com/google/uuid"
)

// CartItem: строка корзины. На пару (пользователь, товар) приходится ровно одна строка.
type CartItem struct {
	ID        uuid.UUID `json:"id"`
	UserID    string    `json:"user_id"`
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	// Product заполняется через JOIN с таблицей products; в запросе на оформление заказа
	// клиент присылает сюда снимок товара (имя и цену)
	Product *Product `json:"products,omitempty"`
}
