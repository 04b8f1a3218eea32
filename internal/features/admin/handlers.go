// Package admin — handlers.go обрабатывает /login <пароль> и /logout в личных сообщениях.
package admin

import (
	"context"
	"errors"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"stepbank.ru/sparks-bot/internal/common"
)

// Deleter удаляет сообщения (реализуется *tgbotapi.BotAPI через Request).
type Deleter interface {
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Bot — то, что нужно обработчику от Telegram API.
type Bot interface {
	common.Sender
	Deleter
}

// Handler обрабатывает вход родителя.
type Handler struct {
	service *Service
	bot     Bot
}

// NewHandler создаёт обработчик входа.
func NewHandler(service *Service, bot Bot) *Handler {
	return &Handler{service: service, bot: bot}
}

// HandleLogin обрабатывает /login <пароль>. Работает только в личке;
// сообщение с паролем удаляется из чата.
func (h *Handler) HandleLogin(ctx context.Context, chatID, userID int64, messageID int, isPrivate bool, args []string) {
	if !isPrivate {
		h.deleteMessage(chatID, messageID)
		common.SendText(h.bot, chatID, "🔐 Входите только в личных сообщениях с ботом")
		return
	}
	if len(args) == 0 {
		common.SendText(h.bot, chatID, "🔐 Формат: /login <пароль>")
		return
	}

	_, err := h.service.Login(ctx, userID, strings.Join(args, " "))
	h.deleteMessage(chatID, messageID)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrNotParent),
			errors.Is(err, common.ErrWrongPassword),
			errors.Is(err, common.ErrTooManyAttempts):
			common.SendText(h.bot, chatID, "❌ "+err.Error())
		default:
			log.WithError(err).WithField("user_id", userID).Error("Ошибка входа родителя")
			common.SendText(h.bot, chatID, "❌ Ошибка входа")
		}
		return
	}
	common.SendText(h.bot, chatID, "✅ Вход выполнен. Доступны: !ожидают, !одобрить, !отклонить, !товар, !снять")
}

// HandleLogout обрабатывает /logout.
func (h *Handler) HandleLogout(ctx context.Context, chatID, userID int64) {
	if err := h.service.Logout(ctx, userID); err != nil {
		log.WithError(err).WithField("user_id", userID).Error("Ошибка выхода")
		common.SendText(h.bot, chatID, "❌ Ошибка выхода")
		return
	}
	common.SendText(h.bot, chatID, "👋 Сессия закрыта")
}

func (h *Handler) deleteMessage(chatID int64, messageID int) {
	if messageID == 0 {
		return
	}
	if _, err := h.bot.Request(tgbotapi.NewDeleteMessage(chatID, messageID)); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Debug("Не удалось удалить сообщение с паролем")
	}
}
