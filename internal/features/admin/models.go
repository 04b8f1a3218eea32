// Package admin — вход родителя по паролю. Родительские команды (одобрение покупок,
// добавление товаров) требуют роли родителя и активной сессии.
// models.go описывает сессии и попытки входа.
package admin

import "time"

// Параметры защиты входа.
const (
	MaxFailedAttempts = 3         // Неудачных попыток до блокировки
	LockoutPeriod     = time.Hour // Окно подсчёта неудачных попыток
)

// Session — активная сессия родителя.
type Session struct {
	ID              int64     `db:"id"`
	UserID          int64     `db:"user_id"`
	SessionToken    string    `db:"session_token"`
	AuthenticatedAt time.Time `db:"authenticated_at"`
	ExpiresAt       time.Time `db:"expires_at"`
	LastActivity    time.Time `db:"last_activity"`
	IsActive        bool      `db:"is_active"`
}

// LoginAttempt — попытка входа (для защиты от перебора).
type LoginAttempt struct {
	ID          int64     `db:"id"`
	UserID      int64     `db:"user_id"`
	AttemptTime time.Time `db:"attempt_time"`
	Success     bool      `db:"success"`
}
