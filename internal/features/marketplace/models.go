// Package marketplace — магазин семьи: родители добавляют товары с ценой в валюте,
// дети просят купить их за искры, родители одобряют или отклоняют заявку.
package marketplace

import (
	"math"
	"time"

	"github.com/google/uuid"

	"stepbank.ru/sparks-bot/internal/balance"
)

// MaxDollarValue — верхний предел цены товара.
const MaxDollarValue = 10_000

// Product — товар магазина.
type Product struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	DollarValue float64   `json:"dollarValue"`
	Active      bool      `json:"active"`
	CreatedBy   *int64    `json:"createdBy,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Cost — цена товара в искрах.
func (p *Product) Cost() int64 {
	return balance.CostInSparks(p.DollarValue)
}

// RoundPrice округляет цену вверх до цента. Поправка 1e-9 гасит ошибку
// представления: 4.99*100 в float64 чуть больше 499.
func RoundPrice(v float64) float64 {
	return math.Ceil(v*100-1e-9) / 100
}
