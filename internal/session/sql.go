package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// SQLBackend stores the session in the telegram_sessions table.
type SQLBackend struct {
	db   *sqlx.DB
	name string
}

func NewSQLBackend(db *sqlx.DB, name string) *SQLBackend {
	return &SQLBackend{db: db, name: name}
}

func (b *SQLBackend) Name() string {
	return "sql"
}

func (b *SQLBackend) Load(ctx context.Context) ([]byte, error) {
	var data []byte
	err := b.db.GetContext(ctx, &data, "SELECT data FROM telegram_sessions WHERE name = ?", b.name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return data, nil
}

func (b *SQLBackend) Save(ctx context.Context, data []byte) error {
	query := `
		INSERT INTO telegram_sessions (name, data, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(name) DO UPDATE SET data = excluded.data, updated_at = CURRENT_TIMESTAMP
	`
	if b.db.DriverName() == "mysql" {
		query = `
			INSERT INTO telegram_sessions (name, data, updated_at)
			VALUES (?, ?, CURRENT_TIMESTAMP)
			ON DUPLICATE KEY UPDATE data = VALUES(data), updated_at = CURRENT_TIMESTAMP
		`
	}

	if _, err := b.db.ExecContext(ctx, query, b.name, data); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}
