// Package balance — aggregator.go суммирует искры по истории активности
// и вычитает траты из журнала.
package balance

import (
	"context"
	"fmt"
	"time"

	"stepbank.ru/sparks-bot/internal/sparks"
)

// Scorer переводит метрики активности в искры.
type Scorer interface {
	Calculate(steps, activeMinutes, avgHeartRate float64) sparks.Result
}

// Snapshot — итог по одному согласованному срезу истории и журнала.
// Display() и Affordable() считаются по одним и тем же данным, поэтому
// сравнивать их между собой безопасно.
type Snapshot struct {
	UserID  int64
	TakenAt time.Time
	Records int   // Сколько записей активности попало в окно
	Earned  int64 // Заработано за окно
	Spent   int64 // Одобренные траты
	Held    int64 // Резервы по заявкам, ждущим решения

	empty bool // История пуста — баланс 0 при любом журнале
}

// Available возвращает баланс в указанном режиме. Результат не ограничивается снизу:
// если траты превышают заработанное, баланс отрицательный.
func (s *Snapshot) Available(mode Mode) int64 {
	if s.empty {
		return 0
	}
	total := s.Earned - s.Spent
	if mode == ModeAffordability {
		total -= s.Held
	}
	return total
}

// Display — баланс для показа на главном экране.
func (s *Snapshot) Display() int64 { return s.Available(ModeDisplay) }

// Affordable — баланс для проверки новой заявки с учётом резервов.
func (s *Snapshot) Affordable() int64 { return s.Available(ModeAffordability) }

// TotalAvailable считает доступный баланс по готовым данным.
//
//  1. Оставляет записи с Timestamp >= now - windowDays (windowDays <= 0 — вся история).
//  2. Суммирует искры по каждой записи.
//  3. Вычитает записи журнала, которые учитываются в режиме mode.
//
// Пустой список записей даёт 0 независимо от журнала. Входные срезы не меняются.
func TotalAvailable(scorer Scorer, records []ActivityRecord, windowDays int, ledger []LedgerEntry, mode Mode, now time.Time) int64 {
	s := summarize(scorer, records, ledger, windowStart(now, windowDays))
	return s.Available(mode)
}

func summarize(scorer Scorer, records []ActivityRecord, ledger []LedgerEntry, since time.Time) Snapshot {
	s := Snapshot{empty: len(records) == 0}
	if s.empty {
		return s
	}

	for _, r := range records {
		if !since.IsZero() && r.Timestamp.Before(since) {
			continue
		}
		res := scorer.Calculate(float64(r.Steps), r.ActiveMinutes, r.AvgHeartRate)
		s.Earned += res.SparkPoints
		s.Records++
	}

	for _, e := range ledger {
		switch e.Status {
		case StatusApproved:
			s.Spent += e.Amount
		case StatusPending:
			s.Held += e.Amount
		}
	}
	return s
}

func windowStart(now time.Time, windowDays int) time.Time {
	if windowDays <= 0 {
		return time.Time{}
	}
	return now.AddDate(0, 0, -windowDays)
}

// Aggregator читает историю и журнал через внедрённые источники.
// Собственного изменяемого состояния нет.
type Aggregator struct {
	scorer     Scorer
	history    ActivityHistorySource
	ledger     SpendLedgerSource
	windowDays int
	now        func() time.Time
}

// Option настраивает Aggregator.
type Option func(*Aggregator)

// WithClock подменяет источник текущего времени.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) { a.now = now }
}

// NewAggregator создаёт агрегатор с окном windowDays дней.
func NewAggregator(scorer Scorer, history ActivityHistorySource, ledger SpendLedgerSource, windowDays int, opts ...Option) *Aggregator {
	a := &Aggregator{
		scorer:     scorer,
		history:    history,
		ledger:     ledger,
		windowDays: windowDays,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Snapshot читает историю и журнал один раз, копирует их и считает итог.
func (a *Aggregator) Snapshot(ctx context.Context, userID int64) (*Snapshot, error) {
	now := a.now()
	since := windowStart(now, a.windowDays)

	// История читается целиком: пустота определяется по всей истории,
	// окно применяется в summarize, как и в TotalAvailable.
	records, err := a.history.ActivityHistory(ctx, userID, time.Time{})
	if err != nil {
		return nil, fmt.Errorf("история активности: %w", err)
	}
	entries, err := a.ledger.SpendLedger(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("журнал трат: %w", err)
	}

	s := summarize(a.scorer, append([]ActivityRecord(nil), records...), append([]LedgerEntry(nil), entries...), since)
	s.UserID = userID
	s.TakenAt = now
	return &s, nil
}

// Available возвращает баланс пользователя в указанном режиме.
func (a *Aggregator) Available(ctx context.Context, userID int64, mode Mode) (int64, error) {
	s, err := a.Snapshot(ctx, userID)
	if err != nil {
		return 0, err
	}
	return s.Available(mode), nil
}
