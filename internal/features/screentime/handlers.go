// Package screentime — handlers.go обрабатывает команду !экран [минуты].
package screentime

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	log "github.com/sirupsen/logrus"

	"stepbank.ru/sparks-bot/internal/common"
)

// Handler обрабатывает команды экранного времени.
type Handler struct {
	service *Service
	bot     common.Sender
}

// NewHandler создаёт обработчик.
func NewHandler(service *Service, bot common.Sender) *Handler {
	return &Handler{service: service, bot: bot}
}

// HandleScreen обрабатывает !экран (сколько доступно) и !экран <минуты> (открыть).
func (h *Handler) HandleScreen(ctx context.Context, chatID, userID int64, args []string) {
	if len(args) == 0 {
		minutes, err := h.service.AvailableMinutes(ctx, userID)
		if err != nil {
			log.WithError(err).WithField("user_id", userID).Error("Ошибка расчёта экранного времени")
			common.SendText(h.bot, chatID, "❌ Ошибка получения баланса")
			return
		}
		common.SendText(h.bot, chatID, fmt.Sprintf("📱 Можно открыть: %s\nОткрыть: !экран <минуты>", common.FormatMinutes(minutes)))
		return
	}

	minutes, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		common.SendText(h.bot, chatID, "❌ Формат: !экран <минуты>")
		return
	}

	if _, err := h.service.Unlock(ctx, userID, minutes); err != nil {
		switch {
		case errors.Is(err, common.ErrInvalidAmount):
			common.SendText(h.bot, chatID, fmt.Sprintf("❌ Можно открыть от 1 до %d минут", MaxUnlockMinutes))
		case errors.Is(err, common.ErrInsufficientSparks):
			left, _ := h.service.AvailableMinutes(ctx, userID)
			common.SendText(h.bot, chatID, fmt.Sprintf("❌ Недостаточно искр. Доступно: %s", common.FormatMinutes(left)))
		default:
			log.WithError(err).WithField("user_id", userID).Error("Ошибка открытия экранного времени")
			common.SendText(h.bot, chatID, "❌ Не удалось открыть экранное время")
		}
		return
	}

	left, _ := h.service.AvailableMinutes(ctx, userID)
	common.SendText(h.bot, chatID, fmt.Sprintf("✅ Открыто %s экранного времени\nОсталось: %s",
		common.FormatMinutes(minutes), common.FormatMinutes(left)))
}
