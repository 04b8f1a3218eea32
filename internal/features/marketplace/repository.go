// Package marketplace — repository.go работает с таблицей products.
package marketplace

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"stepbank.ru/sparks-bot/internal/common"
)

// Repository хранит товары.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт репозиторий товаров.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// ListActive возвращает товары в продаже, от дешёвых к дорогим.
func (r *Repository) ListActive(ctx context.Context) ([]*Product, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, dollar_value, active, created_by, created_at
		FROM products
		WHERE active
		ORDER BY dollar_value ASC, name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения товаров: %w", err)
	}
	defer rows.Close()

	var out []*Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования товара: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetByID возвращает активный товар или common.ErrProductNotFound.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Product, error) {
	p, err := scanProduct(r.db.QueryRow(ctx, `
		SELECT id, name, dollar_value, active, created_by, created_at
		FROM products
		WHERE id = $1 AND active
	`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrProductNotFound
		}
		return nil, fmt.Errorf("ошибка чтения товара: %w", err)
	}
	return p, nil
}

// Create добавляет товар.
func (r *Repository) Create(ctx context.Context, p *Product) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO products (id, name, dollar_value, active, created_by)
		VALUES ($1, $2, $3, TRUE, $4)
		RETURNING created_at
	`, p.ID, p.Name, p.DollarValue, p.CreatedBy).Scan(&p.CreatedAt)
	if err != nil {
		return fmt.Errorf("ошибка создания товара: %w", err)
	}
	p.Active = true
	return nil
}

// Deactivate снимает товар с продажи. Заявки на него остаются в журнале.
func (r *Repository) Deactivate(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `UPDATE products SET active = FALSE WHERE id = $1 AND active`, id)
	if err != nil {
		return fmt.Errorf("ошибка снятия товара: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrProductNotFound
	}
	return nil
}

func scanProduct(row pgx.Row) (*Product, error) {
	var p Product
	if err := row.Scan(&p.ID, &p.Name, &p.DollarValue, &p.Active, &p.CreatedBy, &p.CreatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}
