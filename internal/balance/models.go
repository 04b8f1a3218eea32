// Package balance считает доступный баланс искр: заработанное за окно
// минус потраченное (и, в режиме проверки покупки, зарезервированное).
// models.go описывает входные данные и режимы расчёта.
package balance

import (
	"context"
	"time"
)

// ActivityRecord — одна запись активности (обычно за день).
type ActivityRecord struct {
	Steps         int64
	ActiveMinutes float64
	AvgHeartRate  float64
	Timestamp     time.Time
}

// LedgerStatus — состояние записи о трате.
type LedgerStatus string

const (
	StatusPending  LedgerStatus = "pending"  // Резерв под заявку, ждёт решения родителя
	StatusApproved LedgerStatus = "approved" // Искры потрачены
	StatusRejected LedgerStatus = "rejected" // Заявка отклонена, резерв снят
)

// SpendKind — на что тратятся искры.
type SpendKind string

const (
	KindPurchase   SpendKind = "purchase"    // Покупка в магазине
	KindScreenTime SpendKind = "screen_time" // Минуты экранного времени
)

// LedgerEntry — запись о трате или резерве.
type LedgerEntry struct {
	ID        string
	Amount    int64
	Status    LedgerStatus
	Kind      SpendKind
	CreatedAt time.Time
}

// Mode определяет, какие записи журнала вычитаются из заработанного.
type Mode string

const (
	// ModeDisplay — баланс для показа: вычитаются только одобренные траты.
	ModeDisplay Mode = "display"
	// ModeAffordability — баланс для новой заявки: вычитаются и одобренные траты,
	// и резервы по заявкам, ждущим решения. Не даёт потратить искры дважды.
	ModeAffordability Mode = "affordability"
)

// ParseMode разбирает режим из строки; пустая строка — ModeDisplay.
func ParseMode(s string) (Mode, bool) {
	switch Mode(s) {
	case "", ModeDisplay:
		return ModeDisplay, true
	case ModeAffordability:
		return ModeAffordability, true
	}
	return "", false
}

// ActivityHistorySource отдаёт историю активности пользователя начиная с since.
// Нулевой since — вся история.
type ActivityHistorySource interface {
	ActivityHistory(ctx context.Context, userID int64, since time.Time) ([]ActivityRecord, error)
}

// SpendLedgerSource отдаёт журнал трат и резервов пользователя.
type SpendLedgerSource interface {
	SpendLedger(ctx context.Context, userID int64) ([]LedgerEntry, error)
}
