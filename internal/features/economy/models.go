// Package economy ведёт журнал трат искр: покупки в магазине и экранное время.
// Баланс нигде не хранится, он каждый раз считается по активности минус журнал.
// models.go описывает заявку на трату.
package economy

import (
	"time"

	"github.com/google/uuid"

	"stepbank.ru/sparks-bot/internal/balance"
)

// SpendRequest — запись журнала трат. Покупка создаётся в статусе pending
// (резерв до решения родителя), экранное время сразу approved.
type SpendRequest struct {
	ID        uuid.UUID            `json:"id"`
	UserID    int64                `json:"userId"`
	Kind      balance.SpendKind    `json:"kind"`
	ItemID    string               `json:"itemId,omitempty"`
	ItemName  string               `json:"itemName,omitempty"`
	Amount    int64                `json:"amount"`
	Status    balance.LedgerStatus `json:"status"`
	CreatedAt time.Time            `json:"createdAt"`
	DecidedAt *time.Time           `json:"decidedAt,omitempty"`
	DecidedBy *int64               `json:"decidedBy,omitempty"`
}

// Entry переводит заявку в запись журнала для агрегатора.
func (r *SpendRequest) Entry() balance.LedgerEntry {
	return balance.LedgerEntry{
		ID:        r.ID.String(),
		Amount:    r.Amount,
		Status:    r.Status,
		Kind:      r.Kind,
		CreatedAt: r.CreatedAt,
	}
}

// ShortID — первые 8 символов ID, для показа в чате.
func (r *SpendRequest) ShortID() string {
	return r.ID.String()[:8]
}

// Spend — параметры новой траты.
type Spend struct {
	UserID   int64
	Kind     balance.SpendKind
	ItemID   string
	ItemName string
	Amount   int64
}
