// Package filters решает, отвечает ли бот на сообщение: в семейном чате
// и в личке у участников семьи — да, в остальных чатах — нет.
package filters

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
)

// Members — проверка и регистрация участников (реализуется members.Service).
type Members interface {
	IsMember(ctx context.Context, userID int64) (bool, error)
	EnsureMember(ctx context.Context, userID int64, username, firstName, lastName string) error
}

// ChatMemberAPI — запрос статуса участника чата (реализуется *tgbotapi.BotAPI).
type ChatMemberAPI interface {
	GetChatMember(config tgbotapi.GetChatMemberConfig) (tgbotapi.ChatMember, error)
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// ChatFilter пропускает сообщения семейного чата и личку участников.
type ChatFilter struct {
	familyChatID int64
	members      Members
	bot          ChatMemberAPI
}

// NewChatFilter создаёт фильтр.
func NewChatFilter(familyChatID int64, members Members, bot ChatMemberAPI) *ChatFilter {
	return &ChatFilter{familyChatID: familyChatID, members: members, bot: bot}
}

// CheckAccess возвращает true, если на сообщение нужно отвечать.
func (f *ChatFilter) CheckAccess(ctx context.Context, message *tgbotapi.Message) bool {
	if message == nil || message.Chat == nil {
		log.WithField("component", "ChatFilter").Warn("nil message/chat")
		return false
	}
	if message.From == nil {
		log.WithFields(log.Fields{
			"component": "ChatFilter",
			"chat_id":   message.Chat.ID,
			"chat_type": message.Chat.Type,
		}).Warn("nil message.From (service/channel message?)")
		return false
	}

	chatID := message.Chat.ID
	userID := message.From.ID
	logger := log.WithFields(log.Fields{
		"component":      "ChatFilter",
		"chat_id":        chatID,
		"user_id":        userID,
		"family_chat_id": f.familyChatID,
	})

	if chatID == f.familyChatID {
		return true
	}
	if !message.Chat.IsPrivate() {
		logger.Info("deny: not family chat and not private")
		return false
	}

	// Личка: сначала по БД, потом через Telegram API
	isMember, err := f.members.IsMember(ctx, userID)
	if err != nil {
		logger.WithError(err).Error("member check failed (db)")
		return false
	}
	if isMember {
		return true
	}

	cm, err := f.bot.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{ChatID: f.familyChatID, UserID: userID},
	})
	if err != nil {
		logger.WithError(err).Error("member check failed (telegram GetChatMember)")
		return false
	}

	if !IsActiveStatus(cm.Status) {
		logger.WithField("tg_status", cm.Status).Info("deny: private (not a family member)")
		msg := tgbotapi.NewMessage(chatID, "❌ Бот работает только для участников семейного чата")
		if _, err := f.bot.Send(msg); err != nil {
			logger.WithError(err).Warn("failed to send deny message")
		}
		return false
	}

	if err := f.members.EnsureMember(ctx, userID,
		message.From.UserName, message.From.FirstName, message.From.LastName,
	); err != nil {
		logger.WithError(err).Warn("failed to backfill member to DB (allowing anyway)")
	}
	logger.WithField("tg_status", cm.Status).Info("allow: private (telegram member, backfilled)")
	return true
}

// IsActiveStatus сообщает, состоит ли пользователь в чате.
func IsActiveStatus(status string) bool {
	switch status {
	case "creator", "administrator", "member", "restricted":
		return true
	}
	return false
}
