// Package jobs управляет фоновыми задачами (cron).
// scheduler.go настраивает расписание: вечерняя сводка искр в семейный чат
// и ночная синхронизация демо-активности.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"stepbank.ru/sparks-bot/internal/balance"
	"stepbank.ru/sparks-bot/internal/common"
	"stepbank.ru/sparks-bot/internal/features/activity"
	"stepbank.ru/sparks-bot/internal/features/members"
)

// Расписание (в часовом поясе семьи)
const (
	EveningSummarySpec = "0 20 * * *" // Сводка в 20:00
	DemoSyncSpec       = "5 0 * * *"  // Демо-активность в 00:05
)

// Children — список детей (реализуется members.Service).
type Children interface {
	ListChildren(ctx context.Context) ([]*members.Member, error)
}

// Activities — активность за день (реализуется activity.Service).
type Activities interface {
	Today() time.Time
	DaySparks(ctx context.Context, userID int64, day time.Time) (*activity.DayReport, error)
	SyncDemoDay(ctx context.Context, userID int64) (bool, error)
}

// Balances — срез баланса (реализуется economy.Service).
type Balances interface {
	Snapshot(ctx context.Context, userID int64) (*balance.Snapshot, error)
}

// Scheduler управляет фоновыми задачами.
type Scheduler struct {
	cron         *cron.Cron
	children     Children
	activities   Activities
	balances     Balances
	sendFunc     func(chatID int64, text string)
	familyChatID int64
	demo         bool
}

// NewScheduler создаёт планировщик в часовом поясе семьи.
// demo включает ночную генерацию активности вместо трекера.
func NewScheduler(children Children, activities Activities, balances Balances,
	sendFunc func(chatID int64, text string), familyChatID int64, demo bool, loc *time.Location,
) *Scheduler {
	return &Scheduler{
		cron:         cron.New(cron.WithLocation(loc)),
		children:     children,
		activities:   activities,
		balances:     balances,
		sendFunc:     sendFunc,
		familyChatID: familyChatID,
		demo:         demo,
	}
}

// Start регистрирует задачи и запускает cron.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(EveningSummarySpec, func() {
		log.Info("[CRON] Вечерняя сводка искр")
		if err := s.EveningSummary(ctx); err != nil {
			log.WithError(err).Error("[CRON] Ошибка вечерней сводки")
		}
	}); err != nil {
		return fmt.Errorf("расписание сводки: %w", err)
	}

	if s.demo {
		if _, err := s.cron.AddFunc(DemoSyncSpec, func() {
			log.Info("[CRON] Синхронизация демо-активности")
			if err := s.SyncDemo(ctx); err != nil {
				log.WithError(err).Error("[CRON] Ошибка демо-синхронизации")
			}
		}); err != nil {
			return fmt.Errorf("расписание демо-синхронизации: %w", err)
		}
	}

	s.cron.Start()
	log.WithField("demo", s.demo).Info("Планировщик задач запущен")
	return nil
}

// Stop останавливает планировщик и ждёт завершения запущенных задач.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("Планировщик задач остановлен")
}

// EveningSummary отправляет в семейный чат искры каждого ребёнка за сегодня и баланс.
func (s *Scheduler) EveningSummary(ctx context.Context) error {
	children, err := s.children.ListChildren(ctx)
	if err != nil {
		return err
	}
	if len(children) == 0 {
		return nil
	}

	today := s.activities.Today()
	var sb strings.Builder
	sb.WriteString("🌙 Итоги дня:\n")
	for _, child := range children {
		var earned int64
		report, err := s.activities.DaySparks(ctx, child.UserID, today)
		switch {
		case err == nil:
			earned = report.Result.SparkPoints
		case errors.Is(err, common.ErrNoActivity):
		default:
			log.WithError(err).WithField("user_id", child.UserID).Warn("Нет данных активности для сводки")
			continue
		}

		snap, err := s.balances.Snapshot(ctx, child.UserID)
		if err != nil {
			log.WithError(err).WithField("user_id", child.UserID).Warn("Нет баланса для сводки")
			continue
		}
		fmt.Fprintf(&sb, "\n%s: +%s за сегодня, баланс %s",
			child.DisplayName(), common.FormatBalance(earned), common.FormatBalance(snap.Display()))
	}

	s.sendFunc(s.familyChatID, sb.String())
	return nil
}

// SyncDemo создаёт демо-запись за сегодня каждому ребёнку, у кого её ещё нет.
func (s *Scheduler) SyncDemo(ctx context.Context) error {
	children, err := s.children.ListChildren(ctx)
	if err != nil {
		return err
	}
	var errs []error
	created := 0
	for _, child := range children {
		ok, err := s.activities.SyncDemoDay(ctx, child.UserID)
		if err != nil {
			errs = append(errs, fmt.Errorf("user %d: %w", child.UserID, err))
			continue
		}
		if ok {
			created++
		}
	}
	log.WithField("created", created).Info("Демо-активность синхронизирована")
	return errors.Join(errs...)
}
