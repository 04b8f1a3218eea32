// Package common содержит общие утилиты, используемые во всём проекте.
// Сюда входят: русская плюрализация, форматирование чисел, работа с часовым поясом семьи.
package common

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
)

// plural выбирает форму слова для числа n по правилам русского языка:
//   - 1, 21, 31, 101 (но не 11) → one
//   - 2–4, 22–24 (но не 12–14) → few
//   - остальные → many
func plural(n int64, one, few, many string) string {
	if n < 0 {
		n = -n
	}
	lastDigit := n % 10
	lastTwoDigits := n % 100

	if lastDigit == 1 && lastTwoDigits != 11 {
		return one
	}
	if lastDigit >= 2 && lastDigit <= 4 && (lastTwoDigits < 12 || lastTwoDigits > 14) {
		return few
	}
	return many
}

// PluralizeSparks возвращает форму слова «искра» для числа n.
//
//	PluralizeSparks(1)  → "искра"
//	PluralizeSparks(3)  → "искры"
//	PluralizeSparks(5)  → "искр"
//	PluralizeSparks(11) → "искр"
//	PluralizeSparks(21) → "искра"
func PluralizeSparks(n int64) string {
	return plural(n, "искра", "искры", "искр")
}

// PluralizeMinutes возвращает форму слова «минута».
func PluralizeMinutes(n int64) string {
	return plural(n, "минута", "минуты", "минут")
}

// PluralizeDays возвращает форму слова «день».
func PluralizeDays(n int) string {
	return plural(int64(n), "день", "дня", "дней")
}

// FormatBalance форматирует баланс: FormatBalance(1500) → "1 500 искр"
func FormatBalance(balance int64) string {
	return fmt.Sprintf("%s %s", FormatNumber(balance), PluralizeSparks(balance))
}

// FormatMinutes форматирует минуты: FormatMinutes(21) → "21 минута"
func FormatMinutes(minutes int64) string {
	return fmt.Sprintf("%d %s", minutes, PluralizeMinutes(minutes))
}

// LoadLocation загружает часовой пояс семьи. Если имя неизвестно — UTC.
func LoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		log.WithError(err).WithField("timezone", name).Warn("Не удалось загрузить часовой пояс, используем UTC")
		return time.UTC
	}
	return loc
}

// DayStart возвращает полночь дня, в который попадает t, в часовом поясе loc.
func DayStart(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// FormatDateTime форматирует время как "02.01.2006 15:04".
func FormatDateTime(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("02.01.2006 15:04")
}

// FormatDate форматирует дату как "02.01".
func FormatDate(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("02.01")
}
