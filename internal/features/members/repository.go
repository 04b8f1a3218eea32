// Package members — repository.go отвечает за операции с таблицей members.
package members

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"stepbank.ru/sparks-bot/internal/common"
)

const memberColumns = `id, user_id, COALESCE(username, ''), first_name, COALESCE(last_name, ''),
       is_parent, joined_at, created_at, updated_at`

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Create добавляет участника. На конфликте по user_id обновляет только имя/username.
func (r *Repository) Create(ctx context.Context, m *Member) error {
	query := `
		INSERT INTO members (user_id, username, first_name, last_name, is_parent, joined_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO UPDATE
		SET username = EXCLUDED.username,
		    first_name = EXCLUDED.first_name,
		    last_name = EXCLUDED.last_name,
		    updated_at = NOW()
	`
	_, err := r.db.Exec(ctx, query,
		m.UserID, m.Username, m.FirstName, m.LastName, m.IsParent, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("ошибка создания/обновления участника: %w", err)
	}
	return nil
}

// GetByUserID: если не найден — common.ErrUserNotFound.
func (r *Repository) GetByUserID(ctx context.Context, userID int64) (*Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members WHERE user_id = $1`
	m, err := scanMember(r.db.QueryRow(ctx, query, userID))
	if err != nil {
		return nil, fmt.Errorf("участник user_id=%d: %w", userID, err)
	}
	return m, nil
}

// GetByUsername ищет участника без учёта регистра.
func (r *Repository) GetByUsername(ctx context.Context, username string) (*Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members WHERE LOWER(username) = LOWER($1)`
	m, err := scanMember(r.db.QueryRow(ctx, query, username))
	if err != nil {
		return nil, fmt.Errorf("участник username=%s: %w", username, err)
	}
	return m, nil
}

func (r *Repository) Exists(ctx context.Context, userID int64) (bool, error) {
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM members WHERE user_id = $1)`, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("ошибка проверки существования: %w", err)
	}
	return exists, nil
}

func (r *Repository) UpdateInfo(ctx context.Context, userID int64, info UpdateInfo) error {
	query := `
		UPDATE members
		SET username = $2, first_name = $3, last_name = $4, updated_at = NOW()
		WHERE user_id = $1
	`
	if _, err := r.db.Exec(ctx, query, userID, info.Username, info.FirstName, info.LastName); err != nil {
		return fmt.Errorf("ошибка обновления данных участника: %w", err)
	}
	return nil
}

// SetParent выставляет или снимает флаг родителя.
func (r *Repository) SetParent(ctx context.Context, userID int64, isParent bool) error {
	query := `UPDATE members SET is_parent = $2, updated_at = NOW() WHERE user_id = $1`
	if _, err := r.db.Exec(ctx, query, userID, isParent); err != nil {
		return fmt.Errorf("ошибка обновления роли родителя: %w", err)
	}
	return nil
}

// ListChildren возвращает всех участников, кроме родителей.
func (r *Repository) ListChildren(ctx context.Context) ([]*Member, error) {
	return r.queryMembers(ctx, `SELECT `+memberColumns+` FROM members WHERE is_parent = FALSE ORDER BY first_name`)
}

// ListParents возвращает родителей.
func (r *Repository) ListParents(ctx context.Context) ([]*Member, error) {
	return r.queryMembers(ctx, `SELECT `+memberColumns+` FROM members WHERE is_parent = TRUE ORDER BY first_name`)
}

func (r *Repository) queryMembers(ctx context.Context, query string, args ...any) ([]*Member, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса участников: %w", err)
	}
	defer rows.Close()

	var out []*Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка чтения строк: %w", err)
	}
	return out, nil
}

func scanMember(row pgx.Row) (*Member, error) {
	var m Member
	err := row.Scan(
		&m.ID, &m.UserID, &m.Username, &m.FirstName, &m.LastName,
		&m.IsParent, &m.JoinedAt, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrUserNotFound
		}
		return nil, fmt.Errorf("ошибка сканирования участника: %w", err)
	}
	return &m, nil
}
