package database

import (
	"embed"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"

	"github.com/onurcolak/telegram-webhook-relay/pkg/logger"
)

//go:embed migrations/mysql/*.sql migrations/sqlite/*.sql
var migrations embed.FS

type gooseLogger struct{}

func (gooseLogger) Printf(format string, v ...any) { logger.Infof(format, v...) }
func (gooseLogger) Fatalf(format string, v ...any) { logger.Fatalf(format, v...) }

// RunMigrations applies the embedded migrations for the connection's driver.
func RunMigrations(db *sqlx.DB) error {
	dialect, dir, err := migrationTarget(db.DriverName())
	if err != nil {
		return err
	}

	goose.SetBaseFS(migrations)
	goose.SetLogger(gooseLogger{})

	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	if err := goose.Up(db.DB, dir); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Infof("Database migrations completed")
	return nil
}

// MigrationStatus prints the applied state of every migration.
func MigrationStatus(db *sqlx.DB) error {
	dialect, dir, err := migrationTarget(db.DriverName())
	if err != nil {
		return err
	}

	goose.SetBaseFS(migrations)
	goose.SetLogger(gooseLogger{})

	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.Status(db.DB, dir)
}

func migrationTarget(driver string) (dialect, dir string, err error) {
	switch driver {
	case "mysql":
		return "mysql", "migrations/mysql", nil
	case "sqlite":
		return "sqlite3", "migrations/sqlite", nil
	default:
		return "", "", fmt.Errorf("no migrations for driver %q", driver)
	}
}
