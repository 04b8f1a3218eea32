// Package economy — repository.go работает с таблицей spend_requests.
package economy

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"stepbank.ru/sparks-bot/internal/balance"
	"stepbank.ru/sparks-bot/internal/common"
)

const requestColumns = `id, user_id, kind, item_id, item_name, amount, status, created_at, decided_at, decided_by`

// Repository — журнал трат в PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт репозиторий журнала трат.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Create записывает заявку. Вторая заявка pending на тот же товар
// упирается в уникальный индекс и возвращается как common.ErrAlreadyPending.
func (r *Repository) Create(ctx context.Context, req *SpendRequest) error {
	query := `
		INSERT INTO spend_requests (id, user_id, kind, item_id, item_name, amount, status, decided_at, decided_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at
	`
	err := r.db.QueryRow(ctx, query,
		req.ID, req.UserID, string(req.Kind), req.ItemID, req.ItemName, req.Amount,
		string(req.Status), req.DecidedAt, req.DecidedBy,
	).Scan(&req.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return common.ErrAlreadyPending
		}
		return fmt.Errorf("ошибка записи траты: %w", err)
	}
	return nil
}

// ListByUser возвращает последние limit трат пользователя.
func (r *Repository) ListByUser(ctx context.Context, userID int64, limit int) ([]*SpendRequest, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM spend_requests
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	return r.query(ctx, query, userID, limit)
}

// ListPending возвращает все заявки, ждущие решения, от старых к новым.
func (r *Repository) ListPending(ctx context.Context) ([]*SpendRequest, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM spend_requests
		WHERE status = 'pending'
		ORDER BY created_at ASC
	`
	return r.query(ctx, query)
}

// Decide переводит заявку из pending в status. Строка блокируется FOR UPDATE,
// поэтому два одновременных решения по одной заявке не пройдут оба.
func (r *Repository) Decide(ctx context.Context, id uuid.UUID, status balance.LedgerStatus, decidedBy int64) (*SpendRequest, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	req, err := scanRequest(tx.QueryRow(ctx,
		`SELECT `+requestColumns+` FROM spend_requests WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrRequestNotFound
		}
		return nil, fmt.Errorf("ошибка чтения заявки: %w", err)
	}
	if req.Status != balance.StatusPending {
		return nil, common.ErrRequestDecided
	}

	err = tx.QueryRow(ctx, `
		UPDATE spend_requests
		SET status = $2, decided_at = NOW(), decided_by = $3
		WHERE id = $1
		RETURNING decided_at
	`, id, string(status), decidedBy).Scan(&req.DecidedAt)
	if err != nil {
		return nil, fmt.Errorf("ошибка обновления заявки: %w", err)
	}
	req.Status = status
	req.DecidedBy = &decidedBy

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("ошибка фиксации решения: %w", err)
	}
	return req, nil
}

// SpendLedger реализует balance.SpendLedgerSource. Отклонённые заявки не читаются вовсе.
func (r *Repository) SpendLedger(ctx context.Context, userID int64) ([]balance.LedgerEntry, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM spend_requests
		WHERE user_id = $1 AND status <> 'rejected'
	`
	reqs, err := r.query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	out := make([]balance.LedgerEntry, 0, len(reqs))
	for _, req := range reqs {
		out = append(out, req.Entry())
	}
	return out, nil
}

func (r *Repository) query(ctx context.Context, query string, args ...any) ([]*SpendRequest, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения трат: %w", err)
	}
	defer rows.Close()

	var out []*SpendRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования траты: %w", err)
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

func scanRequest(row pgx.Row) (*SpendRequest, error) {
	var req SpendRequest
	var kind, status string
	if err := row.Scan(
		&req.ID, &req.UserID, &kind, &req.ItemID, &req.ItemName, &req.Amount,
		&status, &req.CreatedAt, &req.DecidedAt, &req.DecidedBy,
	); err != nil {
		return nil, err
	}
	req.Kind = balance.SpendKind(kind)
	req.Status = balance.LedgerStatus(status)
	return &req, nil
}
