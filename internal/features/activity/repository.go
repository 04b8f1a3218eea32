// Package activity — repository.go работает с таблицей activity_records.
package activity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"stepbank.ru/sparks-bot/internal/balance"
	"stepbank.ru/sparks-bot/internal/common"
)

// Repository хранит активность. Колонка day — DATE, поэтому при чтении
// дата переводится в полночь по часовому поясу семьи.
type Repository struct {
	db  *pgxpool.Pool
	loc *time.Location
}

// NewRepository создаёт репозиторий активности.
func NewRepository(db *pgxpool.Pool, loc *time.Location) *Repository {
	return &Repository{db: db, loc: loc}
}

// Upsert сохраняет активность за день. Повторная запись за тот же день заменяет старую.
func (r *Repository) Upsert(ctx context.Context, rec *Record) error {
	query := `
		INSERT INTO activity_records (user_id, day, steps, active_minutes, avg_heart_rate, source, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (user_id, day) DO UPDATE
		SET steps = EXCLUDED.steps,
		    active_minutes = EXCLUDED.active_minutes,
		    avg_heart_rate = EXCLUDED.avg_heart_rate,
		    source = EXCLUDED.source,
		    recorded_at = NOW()
		RETURNING id, recorded_at
	`
	err := r.db.QueryRow(ctx, query,
		rec.UserID, r.dateParam(rec.Day), rec.Steps, rec.ActiveMinutes, rec.AvgHeartRate, rec.Source,
	).Scan(&rec.ID, &rec.RecordedAt)
	if err != nil {
		return fmt.Errorf("ошибка сохранения активности: %w", err)
	}
	return nil
}

// GetDay возвращает запись за день или common.ErrNoActivity.
func (r *Repository) GetDay(ctx context.Context, userID int64, day time.Time) (*Record, error) {
	query := `
		SELECT id, user_id, day, steps, active_minutes, avg_heart_rate, source, recorded_at
		FROM activity_records
		WHERE user_id = $1 AND day = $2
	`
	rec, err := r.scan(r.db.QueryRow(ctx, query, userID, r.dateParam(day)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrNoActivity
		}
		return nil, fmt.Errorf("ошибка чтения активности: %w", err)
	}
	return rec, nil
}

// History возвращает записи начиная с дня, в который попадает since (нулевой since — все).
// Сортировка от новых к старым.
func (r *Repository) History(ctx context.Context, userID int64, since time.Time) ([]*Record, error) {
	query := `
		SELECT id, user_id, day, steps, active_minutes, avg_heart_rate, source, recorded_at
		FROM activity_records
		WHERE user_id = $1 AND day >= $2
		ORDER BY day DESC
	`
	from := time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)
	if !since.IsZero() {
		from = r.dateParam(since)
	}

	rows, err := r.db.Query(ctx, query, userID, from)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения истории активности: %w", err)
	}
	defer rows.Close()

	var out []*Record
	for rows.Next() {
		rec, err := r.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования активности: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ActivityHistory реализует balance.ActivityHistorySource.
func (r *Repository) ActivityHistory(ctx context.Context, userID int64, since time.Time) ([]balance.ActivityRecord, error) {
	recs, err := r.History(ctx, userID, since)
	if err != nil {
		return nil, err
	}
	out := make([]balance.ActivityRecord, 0, len(recs))
	for _, rec := range recs {
		out = append(out, rec.ToBalance())
	}
	return out, nil
}

func (r *Repository) scan(row pgx.Row) (*Record, error) {
	var rec Record
	var day time.Time
	if err := row.Scan(
		&rec.ID, &rec.UserID, &day, &rec.Steps, &rec.ActiveMinutes,
		&rec.AvgHeartRate, &rec.Source, &rec.RecordedAt,
	); err != nil {
		return nil, err
	}
	rec.Day = time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, r.loc)
	return &rec, nil
}

// dateParam отдаёт дату дня t (по часовому поясу семьи) в виде полуночи UTC,
// чтобы драйвер записал в DATE именно этот день.
func (r *Repository) dateParam(t time.Time) time.Time {
	t = t.In(r.loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
