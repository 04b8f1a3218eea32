// Package postgres — migrations.go: схема БД, встроенная в бинарник.
// Каждая миграция применяется один раз в своей транзакции,
// номер записывается в schema_migrations.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

type migration struct {
	version int
	name    string
	sql     string
}

var migrations = []migration{
	{1, "members", `
CREATE TABLE IF NOT EXISTS members (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT UNIQUE NOT NULL,
    username VARCHAR(255),
    first_name VARCHAR(255) NOT NULL,
    last_name VARCHAR(255),
    is_parent BOOLEAN DEFAULT FALSE,
    joined_at TIMESTAMPTZ DEFAULT NOW(),
    created_at TIMESTAMPTZ DEFAULT NOW(),
    updated_at TIMESTAMPTZ DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_members_username ON members(LOWER(username));
`},
	{2, "activity_records", `
CREATE TABLE IF NOT EXISTS activity_records (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL REFERENCES members(user_id),
    day DATE NOT NULL,
    steps BIGINT NOT NULL DEFAULT 0,
    active_minutes DOUBLE PRECISION NOT NULL DEFAULT 0,
    avg_heart_rate DOUBLE PRECISION NOT NULL DEFAULT 0,
    source VARCHAR(32) NOT NULL DEFAULT 'manual',
    recorded_at TIMESTAMPTZ DEFAULT NOW(),
    UNIQUE (user_id, day)
);
CREATE INDEX IF NOT EXISTS idx_activity_user_day ON activity_records(user_id, day DESC);
`},
	{3, "spend_requests", `
CREATE TABLE IF NOT EXISTS spend_requests (
    id UUID PRIMARY KEY,
    user_id BIGINT NOT NULL REFERENCES members(user_id),
    kind VARCHAR(32) NOT NULL,
    item_id VARCHAR(64) NOT NULL DEFAULT '',
    item_name TEXT NOT NULL DEFAULT '',
    amount BIGINT NOT NULL CHECK (amount > 0),
    status VARCHAR(16) NOT NULL,
    created_at TIMESTAMPTZ DEFAULT NOW(),
    decided_at TIMESTAMPTZ,
    decided_by BIGINT
);
CREATE INDEX IF NOT EXISTS idx_spend_user ON spend_requests(user_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_spend_pending ON spend_requests(status) WHERE status = 'pending';
CREATE UNIQUE INDEX IF NOT EXISTS uniq_spend_pending_item ON spend_requests(user_id, kind, item_id) WHERE status = 'pending';
`},
	{4, "products", `
CREATE TABLE IF NOT EXISTS products (
    id UUID PRIMARY KEY,
    name TEXT NOT NULL,
    dollar_value DOUBLE PRECISION NOT NULL CHECK (dollar_value > 0),
    active BOOLEAN NOT NULL DEFAULT TRUE,
    created_by BIGINT,
    created_at TIMESTAMPTZ DEFAULT NOW()
);
`},
	{5, "parent_sessions", `
CREATE TABLE IF NOT EXISTS parent_sessions (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT REFERENCES members(user_id),
    session_token VARCHAR(255) UNIQUE,
    authenticated_at TIMESTAMPTZ DEFAULT NOW(),
    expires_at TIMESTAMPTZ,
    last_activity TIMESTAMPTZ DEFAULT NOW(),
    is_active BOOLEAN DEFAULT TRUE
);
CREATE INDEX IF NOT EXISTS idx_parent_sessions_user_id ON parent_sessions(user_id);
CREATE TABLE IF NOT EXISTS parent_login_attempts (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT,
    attempt_time TIMESTAMPTZ DEFAULT NOW(),
    success BOOLEAN DEFAULT FALSE
);
`},
}

// Migrate создаёт таблицу версий и применяет недостающие миграции по порядку.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMPTZ DEFAULT NOW()
		)
	`); err != nil {
		return fmt.Errorf("ошибка создания таблицы миграций: %w", err)
	}

	for _, m := range migrations {
		applied, err := applyMigration(ctx, pool, m)
		if err != nil {
			return fmt.Errorf("миграция %d (%s): %w", m.version, m.name, err)
		}
		if applied {
			log.WithField("version", m.version).Infof("Миграция %s применена", m.name)
		}
	}
	return nil
}

// applyMigration выполняет одну миграцию в транзакции.
// Возвращает false, если она уже была применена.
func applyMigration(ctx context.Context, pool *pgxpool.Pool, m migration) (bool, error) {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	var exists bool
	if err := tx.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)", m.version,
	).Scan(&exists); err != nil {
		return false, fmt.Errorf("ошибка проверки миграции: %w", err)
	}
	if exists {
		return false, nil
	}

	if _, err := tx.Exec(ctx, m.sql); err != nil {
		return false, fmt.Errorf("ошибка выполнения: %w", err)
	}
	if _, err := tx.Exec(ctx, "INSERT INTO schema_migrations (version) VALUES ($1)", m.version); err != nil {
		return false, fmt.Errorf("ошибка записи версии: %w", err)
	}
	return true, tx.Commit(ctx)
}
