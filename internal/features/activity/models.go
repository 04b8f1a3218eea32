// Package activity хранит дневную активность детей и считает по ней искры.
// models.go описывает запись активности и отчёт за день.
package activity

import (
	"time"

	"stepbank.ru/sparks-bot/internal/balance"
	"stepbank.ru/sparks-bot/internal/sparks"
)

// Источники записи активности
const (
	SourceManual = "manual" // Введено командой в боте
	SourceAPI    = "api"    // Пришло через HTTP API (синхронизация трекера)
	SourceDemo   = "demo"   // Сгенерировано для демо-режима
)

// Пределы правдоподобных значений. Сам расчёт искр их не проверяет,
// это фильтр на входе от пользователя.
const (
	MaxSteps         = 200_000
	MaxActiveMinutes = 24 * 60
	MaxHeartRate     = 250
)

// Record — активность пользователя за один день (одна запись на день).
type Record struct {
	ID            int64     `db:"id" json:"id"`
	UserID        int64     `db:"user_id" json:"userId"`
	Day           time.Time `db:"day" json:"day"` // Полночь дня в часовом поясе семьи
	Steps         int64     `db:"steps" json:"steps"`
	ActiveMinutes float64   `db:"active_minutes" json:"activeMinutes"`
	AvgHeartRate  float64   `db:"avg_heart_rate" json:"avgHeartRate"`
	Source        string    `db:"source" json:"source"`
	RecordedAt    time.Time `db:"recorded_at" json:"recordedAt"`
}

// ToBalance переводит запись в вход агрегатора баланса.
func (r *Record) ToBalance() balance.ActivityRecord {
	return balance.ActivityRecord{
		Steps:         r.Steps,
		ActiveMinutes: r.ActiveMinutes,
		AvgHeartRate:  r.AvgHeartRate,
		Timestamp:     r.Day,
	}
}

// DayReport — запись за день вместе с расчётом искр.
type DayReport struct {
	Record *Record       `json:"record"`
	Result sparks.Result `json:"result"`
}
