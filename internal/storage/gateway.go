package storage

import (
	"database/sql"

	"github.com/pkg/errors"
)

// Gateway объединяет два подключения к БД:
// Restricted работает под ролью с политиками RLS и действует от имени вызывающего,
// Admin: служебная роль для серверных операций, которым нужен обход RLS.
type Gateway struct {
	Restricted *sql.DB
	Admin      *sql.DB
}

// NewGateway создаёт шлюз поверх уже открытых подключений
func NewGateway(restricted, admin *sql.DB) *Gateway {
	return &Gateway{Restricted: restricted, Admin: admin}
}

// Close закрывает оба пула
func (g *Gateway) Close() error {
	var firstErr error
	if err := g.Restricted.Close(); err != nil {
		firstErr = errors.Wrap(err, "close restricted pool")
	}
	if err := g.Admin.Close(); err != nil && firstErr == nil {
		firstErr = errors.Wrap(err, "close admin pool")
	}
	return firstErr
}

// rowScanner покрывает *sql.Row и *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}
