// Package middleware содержит промежуточные обработчики бота: логирование,
// восстановление после паники и ограничение частоты команд.
package middleware

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
)

// maxLoggedRunes — сколько символов текста попадает в лог.
const maxLoggedRunes = 50

// LogMessage логирует входящее сообщение. Команды входа не логируются
// целиком, чтобы пароль не оказался в логах.
func LogMessage(message *tgbotapi.Message) {
	if message == nil || message.From == nil || message.Chat == nil {
		return
	}

	log.WithFields(log.Fields{
		"user_id":  message.From.ID,
		"chat_id":  message.Chat.ID,
		"username": message.From.UserName,
		"text":     Redact(message.Text),
	}).Debug("Входящее сообщение")
}

// Redact обрезает текст для лога и скрывает аргументы /login.
func Redact(text string) string {
	if IsLoginCommand(text) {
		return "/login ***"
	}
	r := []rune(text)
	if len(r) > maxLoggedRunes {
		return string(r[:maxLoggedRunes]) + "..."
	}
	return text
}

// IsLoginCommand сообщает, что сообщение — команда входа с паролем.
func IsLoginCommand(text string) bool {
	for _, prefix := range []string{"/login", "!login", ".login", "/вход", "!вход"} {
		if len(text) >= len(prefix) && text[:len(prefix)] == prefix {
			return true
		}
	}
	return false
}
