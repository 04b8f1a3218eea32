// Package bot — главный модуль бота: polling, фильтрация и маршрутизация команд.
package bot

import (
	"context"
	"errors"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"stepbank.ru/sparks-bot/internal/bot/filters"
	"stepbank.ru/sparks-bot/internal/bot/middleware"
	"stepbank.ru/sparks-bot/internal/common"
	"stepbank.ru/sparks-bot/internal/config"
	"stepbank.ru/sparks-bot/internal/features/activity"
	"stepbank.ru/sparks-bot/internal/features/admin"
	"stepbank.ru/sparks-bot/internal/features/economy"
	"stepbank.ru/sparks-bot/internal/features/marketplace"
	"stepbank.ru/sparks-bot/internal/features/members"
	"stepbank.ru/sparks-bot/internal/features/screentime"
)

const helpText = `✨ Искры за активность

!шаги <шаги> <минуты> <пульс> — записать активность за сегодня
!искры — искры за сегодня
!неделя — искры за 7 дней
!баланс — баланс и резервы
!история — последние траты
!магазин — товары
!купить <номер> — заявка на покупку
!экран [минуты] — экранное время (1 искра = 1 минута)

Родителям (после /login <пароль> в личке):
!ожидают, !одобрить <номер>, !отклонить <номер>, !товар <цена> <название>, !снять <номер>, /logout`

// Handlers — обработчики команд по функциям. Marketplace и ScreenTime
// равны nil, если функция выключена.
type Handlers struct {
	Activity    *activity.Handler
	Economy     *economy.Handler
	Marketplace *marketplace.Handler
	ScreenTime  *screentime.Handler
	Admin       *admin.Handler
}

// Services — сервисы, к которым бот обращается напрямую.
type Services struct {
	Members  *members.Service
	Activity *activity.Service
	Admin    *admin.Service
}

// Bot — главная структура бота, объединяющая все компоненты.
type Bot struct {
	api *tgbotapi.BotAPI
	cfg *config.Config

	chatFilter  *filters.ChatFilter
	rateLimiter *middleware.RateLimiter
	handlers    Handlers
	services    Services
	parser      *CommandParser

	// ограничитель параллелизма обработки апдейтов
	inflight chan struct{}
}

// New создаёт бота со всеми зависимостями.
func New(api *tgbotapi.BotAPI, cfg *config.Config, services Services, handlers Handlers, chatFilter *filters.ChatFilter) *Bot {
	maxInFlight := cfg.BotMaxInflight
	if maxInFlight <= 0 {
		maxInFlight = 32
	}
	return &Bot{
		api:         api,
		cfg:         cfg,
		chatFilter:  chatFilter,
		rateLimiter: middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow),
		handlers:    handlers,
		services:    services,
		parser:      NewCommandParser(),
		inflight:    make(chan struct{}, maxInFlight),
	}
}

// Start запускает polling обновлений от Telegram и блокируется до отмены ctx.
func (b *Bot) Start(ctx context.Context) {
	defer b.rateLimiter.Close()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.cfg.BotUpdateTimeoutSeconds
	updates := b.api.GetUpdatesChan(u)

	log.WithFields(log.Fields{
		"max_inflight": cap(b.inflight),
		"timeout_sec":  b.cfg.BotUpdateTimeoutSeconds,
	}).Info("Бот запущен и ожидает сообщения...")

	for {
		select {
		case <-ctx.Done():
			log.Info("Бот останавливается (ctx done)...")
			b.api.StopReceivingUpdates()
			return

		case update, ok := <-updates:
			if !ok {
				log.Info("Канал updates закрыт, бот остановлен")
				return
			}

			b.inflight <- struct{}{}
			go func(upd tgbotapi.Update) {
				defer func() { <-b.inflight }()
				b.handleUpdate(ctx, upd)
			}(update)
		}
	}
}

// handleUpdate обрабатывает одно обновление от Telegram.
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer middleware.RecoverFromPanic(update.UpdateID)

	message := update.Message
	if message == nil || message.Chat == nil {
		return
	}

	if message.NewChatMembers != nil {
		if message.Chat.ID == b.cfg.FamilyChatID {
			b.handleNewMembers(ctx, message.NewChatMembers)
		}
		return
	}
	if message.Text == "" || message.From == nil {
		return
	}

	middleware.LogMessage(message)
	if !b.chatFilter.CheckAccess(ctx, message) {
		return
	}

	cmd, args, isCommand := b.parser.ParseCommand(message.Text)
	if !isCommand {
		return
	}

	userID := message.From.ID
	if !b.rateLimiter.Allow(userID) {
		log.WithField("user_id", userID).Debug("rate limited")
		return
	}

	if err := b.services.Members.EnsureMember(ctx, userID,
		message.From.UserName, message.From.FirstName, message.From.LastName,
	); err != nil {
		log.WithError(err).WithField("user_id", userID).Warn("EnsureMember failed")
	}

	b.routeCommand(ctx, message, cmd, args)
}

// routeCommand маршрутизирует команду к нужному обработчику.
func (b *Bot) routeCommand(ctx context.Context, message *tgbotapi.Message, cmd string, args []string) {
	chatID := message.Chat.ID
	userID := message.From.ID
	log.WithFields(log.Fields{"cmd": cmd, "args_count": len(args)}).Debug("routing command")

	switch cmd {
	case "start", "help", "помощь":
		common.SendText(b.api, chatID, helpText)

	case "login", "вход":
		b.handlers.Admin.HandleLogin(ctx, chatID, userID, message.MessageID, message.Chat.IsPrivate(), args)
	case "logout", "выход":
		b.handlers.Admin.HandleLogout(ctx, chatID, userID)

	case "шаги":
		b.handlers.Activity.HandleLog(ctx, chatID, userID, args)
	case "искры":
		b.handlers.Activity.HandleToday(ctx, chatID, userID)
	case "неделя":
		b.handlers.Activity.HandleWeek(ctx, chatID, userID)

	case "баланс":
		b.handlers.Economy.HandleBalance(ctx, chatID, userID)
	case "история":
		b.handlers.Economy.HandleHistory(ctx, chatID, userID)

	case "экран":
		if b.handlers.ScreenTime == nil {
			common.SendText(b.api, chatID, "📱 Экранное время временно отключено")
			return
		}
		b.handlers.ScreenTime.HandleScreen(ctx, chatID, userID, args)

	case "магазин", "купить", "ожидают", "одобрить", "отклонить", "товар", "снять":
		b.routeMarketplace(ctx, chatID, userID, cmd, args)
	}
}

func (b *Bot) routeMarketplace(ctx context.Context, chatID, userID int64, cmd string, args []string) {
	h := b.handlers.Marketplace
	if h == nil {
		common.SendText(b.api, chatID, "🛍 Магазин временно отключён")
		return
	}

	switch cmd {
	case "магазин":
		h.HandleList(ctx, chatID)
		return
	case "купить":
		h.HandleBuy(ctx, chatID, userID, args)
		return
	}

	if !b.requireParentSession(ctx, chatID, userID) {
		return
	}
	switch cmd {
	case "ожидают":
		h.HandlePending(ctx, chatID, userID)
	case "одобрить":
		h.HandleDecide(ctx, chatID, userID, args, true)
	case "отклонить":
		h.HandleDecide(ctx, chatID, userID, args, false)
	case "товар":
		h.HandleAddProduct(ctx, chatID, userID, args)
	case "снять":
		h.HandleRemoveProduct(ctx, chatID, userID, args)
	}
}

// requireParentSession пропускает родителя с активной сессией, остальным отвечает причиной отказа.
func (b *Bot) requireParentSession(ctx context.Context, chatID, userID int64) bool {
	err := b.services.Admin.RequireParent(ctx, userID)
	switch {
	case err == nil:
		return true
	case errors.Is(err, common.ErrNotParent):
		common.SendText(b.api, chatID, "🔒 Эта команда только для родителей")
	case errors.Is(err, common.ErrSessionExpired):
		common.SendText(b.api, chatID, "🔐 "+err.Error())
	default:
		log.WithError(err).WithField("user_id", userID).Error("Ошибка проверки родителя")
		common.SendText(b.api, chatID, "❌ Ошибка проверки доступа")
	}
	return false
}

// handleNewMembers регистрирует вступивших в семейный чат.
// В демо-режиме новым детям сразу создаётся история активности.
func (b *Bot) handleNewMembers(ctx context.Context, newMembers []tgbotapi.User) {
	for _, user := range newMembers {
		if user.IsBot {
			continue
		}
		if err := b.services.Members.HandleNewMember(ctx, user.ID, user.UserName, user.FirstName, user.LastName); err != nil {
			log.WithError(err).WithField("user_id", user.ID).Warn("HandleNewMember failed")
			continue
		}
		if b.cfg.FeatureDemoActivity && !b.cfg.IsParentID(user.ID) {
			if _, err := b.services.Activity.SeedDemo(ctx, user.ID, b.cfg.SparksDemoDays); err != nil {
				log.WithError(err).WithField("user_id", user.ID).Warn("SeedDemo failed")
			}
		}
		log.WithField("user", user.UserName).Info("Новый участник обработан")
	}
}

// SendMessage отправляет сообщение в чат (для планировщика).
func (b *Bot) SendMessage(chatID int64, text string) {
	common.SendText(b.api, chatID, text)
}

// CommandParser парсит команды с префиксами ! . и /
type CommandParser struct {
	validPrefixes []string
}

// NewCommandParser создаёт парсер команд.
func NewCommandParser() *CommandParser {
	return &CommandParser{validPrefixes: []string{"!", ".", "/"}}
}

// ParseCommand разбирает текст на команду и аргументы.
// Суффикс @botname у команды отбрасывается: /help@stepbank_bot → help.
func (p *CommandParser) ParseCommand(text string) (string, []string, bool) {
	text = strings.TrimSpace(text)

	hasPrefix := false
	for _, prefix := range p.validPrefixes {
		if strings.HasPrefix(text, prefix) {
			text = strings.TrimPrefix(text, prefix)
			hasPrefix = true
			break
		}
	}
	if !hasPrefix {
		return "", nil, false
	}

	parts := strings.Fields(text)
	if len(parts) == 0 {
		return "", nil, false
	}

	command := strings.ToLower(parts[0])
	if i := strings.Index(command, "@"); i > 0 {
		command = command[:i]
	}
	var args []string
	if len(parts) > 1 {
		args = parts[1:]
	}
	return command, args, true
}
