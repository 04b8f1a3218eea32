// Package activity — handlers.go обрабатывает команды:
// !шаги (записать активность), !искры (отчёт за сегодня), !неделя (последние 7 дней).
package activity

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"stepbank.ru/sparks-bot/internal/common"
)

// Handler обрабатывает команды активности.
type Handler struct {
	service *Service
	bot     common.Sender
	loc     *time.Location
}

// NewHandler создаёт обработчик команд активности.
func NewHandler(service *Service, bot common.Sender, loc *time.Location) *Handler {
	return &Handler{service: service, bot: bot, loc: loc}
}

// HandleLog обрабатывает !шаги <шаги> <минуты> <пульс>.
//
//	!шаги 8000 60 90
func (h *Handler) HandleLog(ctx context.Context, chatID, userID int64, args []string) {
	steps, minutes, hr, err := ParseLogArgs(args)
	if err != nil {
		common.SendText(h.bot, chatID, "❌ Формат: !шаги <шаги> <активные минуты> <средний пульс>\nНапример: !шаги 8000 60 90")
		return
	}

	report, err := h.service.LogActivity(ctx, userID, steps, minutes, hr, SourceManual)
	if err != nil {
		if errors.Is(err, common.ErrInvalidActivity) {
			common.SendText(h.bot, chatID, "❌ "+strings.TrimPrefix(err.Error(), common.ErrInvalidActivity.Error()+": "))
			return
		}
		log.WithError(err).WithField("user_id", userID).Error("Ошибка записи активности")
		common.SendText(h.bot, chatID, "❌ Не удалось записать активность")
		return
	}

	common.SendText(h.bot, chatID, "✅ Активность записана\n\n"+FormatReport(report, h.loc))
}

// HandleToday обрабатывает !искры — отчёт за сегодня.
func (h *Handler) HandleToday(ctx context.Context, chatID, userID int64) {
	report, err := h.service.DaySparks(ctx, userID, h.service.Today())
	if err != nil {
		if errors.Is(err, common.ErrNoActivity) {
			common.SendText(h.bot, chatID, "🏃 Сегодня активности ещё нет. Запиши её командой !шаги")
			return
		}
		log.WithError(err).WithField("user_id", userID).Error("Ошибка получения активности")
		common.SendText(h.bot, chatID, "❌ Ошибка получения активности")
		return
	}
	common.SendText(h.bot, chatID, FormatReport(report, h.loc))
}

// HandleWeek обрабатывает !неделя — искры за последние 7 дней.
func (h *Handler) HandleWeek(ctx context.Context, chatID, userID int64) {
	reports, err := h.service.Recent(ctx, userID, 7)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Error("Ошибка получения истории активности")
		common.SendText(h.bot, chatID, "❌ Ошибка получения истории")
		return
	}
	common.SendText(h.bot, chatID, FormatWeek(reports, h.loc))
}

// ParseLogArgs разбирает аргументы !шаги. Минуты и пульс можно писать дробными.
func ParseLogArgs(args []string) (steps int64, minutes, hr float64, err error) {
	if len(args) != 3 {
		return 0, 0, 0, fmt.Errorf("нужно три числа, получено %d", len(args))
	}
	if steps, err = strconv.ParseInt(args[0], 10, 64); err != nil {
		return 0, 0, 0, err
	}
	if minutes, err = strconv.ParseFloat(strings.ReplaceAll(args[1], ",", "."), 64); err != nil {
		return 0, 0, 0, err
	}
	if hr, err = strconv.ParseFloat(strings.ReplaceAll(args[2], ",", "."), 64); err != nil {
		return 0, 0, 0, err
	}
	return steps, minutes, hr, nil
}

// FormatReport форматирует отчёт за день.
//
//	📅 15.03.2026
//	👟 12 000 шагов × 1.5
//	⏱ 150 мин × 2
//	❤️ 85 уд/мин × 1.25
//	✨ 573 искры
func FormatReport(r *DayReport, loc *time.Location) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📅 %s\n", common.FormatDate(r.Record.Day, loc))
	fmt.Fprintf(&sb, "👟 %s шагов × %g\n", common.FormatNumber(r.Record.Steps), r.Result.StepsCoefficient)
	fmt.Fprintf(&sb, "⏱ %g мин × %g\n", r.Record.ActiveMinutes, r.Result.TimeCoefficient)
	fmt.Fprintf(&sb, "❤️ %g уд/мин × %g\n", r.Record.AvgHeartRate, r.Result.HeartRateCoefficient)
	if !r.Result.Valid {
		sb.WriteString("⚠️ Расчёт не удался, искры не начислены")
		return sb.String()
	}
	fmt.Fprintf(&sb, "✨ %s", common.FormatBalance(r.Result.SparkPoints))
	return sb.String()
}

// FormatWeek форматирует сводку за несколько дней.
func FormatWeek(reports []*DayReport, loc *time.Location) string {
	if len(reports) == 0 {
		return "🏃 За последнюю неделю активности нет"
	}
	var sb strings.Builder
	sb.WriteString("📊 Искры за неделю:\n\n")
	var total int64
	for _, r := range reports {
		fmt.Fprintf(&sb, "%s — %s шагов, %s\n",
			common.FormatDate(r.Record.Day, loc), common.FormatNumber(r.Record.Steps), common.FormatBalance(r.Result.SparkPoints))
		total += r.Result.SparkPoints
	}
	fmt.Fprintf(&sb, "\nИтого: %s", common.FormatBalance(total))
	return sb.String()
}
