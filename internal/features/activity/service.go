// Package activity — service.go: запись активности и расчёт искр за день.
package activity

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	log "github.com/sirupsen/logrus"

	"stepbank.ru/sparks-bot/internal/balance"
	"stepbank.ru/sparks-bot/internal/common"
)

// Store — хранилище активности (реализуется Repository).
type Store interface {
	Upsert(ctx context.Context, rec *Record) error
	GetDay(ctx context.Context, userID int64, day time.Time) (*Record, error)
	History(ctx context.Context, userID int64, since time.Time) ([]*Record, error)
}

// Service записывает активность и считает по ней искры.
type Service struct {
	store  Store
	scorer balance.Scorer
	gen    *Generator
	loc    *time.Location
	now    func() time.Time
}

// NewService создаёт сервис активности. loc — часовой пояс семьи, по нему режутся дни.
func NewService(store Store, scorer balance.Scorer, gen *Generator, loc *time.Location) *Service {
	if gen == nil {
		gen = NewGenerator(nil)
	}
	return &Service{store: store, scorer: scorer, gen: gen, loc: loc, now: time.Now}
}

// Today возвращает полночь текущего дня семьи.
func (s *Service) Today() time.Time {
	return common.DayStart(s.now(), s.loc)
}

// ValidateActivity проверяет, что метрики неотрицательны и правдоподобны.
func ValidateActivity(steps int64, activeMinutes, avgHeartRate float64) error {
	switch {
	case steps < 0 || steps > MaxSteps:
		return fmt.Errorf("%w: шаги должны быть от 0 до %d", common.ErrInvalidActivity, MaxSteps)
	case math.IsNaN(activeMinutes) || activeMinutes < 0 || activeMinutes > MaxActiveMinutes:
		return fmt.Errorf("%w: активные минуты должны быть от 0 до %d", common.ErrInvalidActivity, MaxActiveMinutes)
	case math.IsNaN(avgHeartRate) || avgHeartRate < 0 || avgHeartRate > MaxHeartRate:
		return fmt.Errorf("%w: пульс должен быть от 0 до %d", common.ErrInvalidActivity, MaxHeartRate)
	}
	return nil
}

// LogActivity сохраняет активность за сегодня (повторный вызов перезаписывает день)
// и возвращает расчёт искр.
func (s *Service) LogActivity(ctx context.Context, userID, steps int64, activeMinutes, avgHeartRate float64, source string) (*DayReport, error) {
	return s.LogActivityFor(ctx, userID, s.Today(), steps, activeMinutes, avgHeartRate, source)
}

// LogActivityFor сохраняет активность за указанный день. Будущие дни не принимаются.
func (s *Service) LogActivityFor(ctx context.Context, userID int64, day time.Time, steps int64, activeMinutes, avgHeartRate float64, source string) (*DayReport, error) {
	if err := ValidateActivity(steps, activeMinutes, avgHeartRate); err != nil {
		return nil, err
	}
	day = common.DayStart(day, s.loc)
	if day.After(s.Today()) {
		return nil, fmt.Errorf("%w: день ещё не наступил", common.ErrInvalidActivity)
	}

	rec := &Record{
		UserID:        userID,
		Day:           day,
		Steps:         steps,
		ActiveMinutes: activeMinutes,
		AvgHeartRate:  avgHeartRate,
		Source:        source,
	}
	if err := s.store.Upsert(ctx, rec); err != nil {
		return nil, err
	}

	report := s.report(rec)
	log.WithFields(log.Fields{
		"user_id": userID,
		"day":     day.Format("2006-01-02"),
		"steps":   steps,
		"sparks":  report.Result.SparkPoints,
		"source":  source,
	}).Info("Активность записана")
	return report, nil
}

// DaySparks возвращает отчёт за день или common.ErrNoActivity.
func (s *Service) DaySparks(ctx context.Context, userID int64, day time.Time) (*DayReport, error) {
	rec, err := s.store.GetDay(ctx, userID, common.DayStart(day, s.loc))
	if err != nil {
		return nil, err
	}
	return s.report(rec), nil
}

// Recent возвращает отчёты за последние days дней (включая сегодня), от новых к старым.
func (s *Service) Recent(ctx context.Context, userID int64, days int) ([]*DayReport, error) {
	if days <= 0 {
		days = 1
	}
	since := s.Today().AddDate(0, 0, -(days - 1))
	recs, err := s.store.History(ctx, userID, since)
	if err != nil {
		return nil, err
	}
	out := make([]*DayReport, 0, len(recs))
	for _, rec := range recs {
		out = append(out, s.report(rec))
	}
	return out, nil
}

// SeedDemo заполняет days дней демо-истории, если у пользователя нет ни одной записи.
// Возвращает число созданных записей.
func (s *Service) SeedDemo(ctx context.Context, userID int64, days int) (int, error) {
	existing, err := s.store.History(ctx, userID, time.Time{})
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}

	today := s.Today()
	created := 0
	for i := days - 1; i >= 0; i-- {
		steps, minutes, hr := s.gen.Day()
		rec := &Record{
			UserID:        userID,
			Day:           today.AddDate(0, 0, -i),
			Steps:         steps,
			ActiveMinutes: minutes,
			AvgHeartRate:  hr,
			Source:        SourceDemo,
		}
		if err := s.store.Upsert(ctx, rec); err != nil {
			return created, fmt.Errorf("демо-история, день %d: %w", i, err)
		}
		created++
	}

	log.WithFields(log.Fields{"user_id": userID, "days": created}).Info("Демо-история активности создана")
	return created, nil
}

// SyncDemoDay создаёт демо-запись за сегодня, если её ещё нет.
// Возвращает true, если запись создана.
func (s *Service) SyncDemoDay(ctx context.Context, userID int64) (bool, error) {
	today := s.Today()
	_, err := s.store.GetDay(ctx, userID, today)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, common.ErrNoActivity) {
		return false, err
	}

	steps, minutes, hr := s.gen.Day()
	rec := &Record{
		UserID:        userID,
		Day:           today,
		Steps:         steps,
		ActiveMinutes: minutes,
		AvgHeartRate:  hr,
		Source:        SourceDemo,
	}
	if err := s.store.Upsert(ctx, rec); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Service) report(rec *Record) *DayReport {
	return &DayReport{
		Record: rec,
		Result: s.scorer.Calculate(float64(rec.Steps), rec.ActiveMinutes, rec.AvgHeartRate),
	}
}
