package repository

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"taskboard/pkg/logger"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// newMigrator opens a dedicated connection: closing the migrator closes it.
func newMigrator(dsn string) (*migrate.Migrate, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		db.Close()
		return nil, err
	}
	src, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		driver.Close()
		return nil, err
	}
	return migrate.NewWithInstance("iofs", src, "postgres", driver)
}

// CreateTablesIfNotExists applies every pending migration.
func CreateTablesIfNotExists(dsn string) error {
	m, err := newMigrator(dsn)
	if err != nil {
		return fmt.Errorf("prepare migrations: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	logger.SystemLogger.Info("Tables 'users' and 'tasks' are ready")
	return nil
}

// DeleteAllTables rolls every migration back. Used by the integration suite.
func DeleteAllTables(dsn string) error {
	m, err := newMigrator(dsn)
	if err != nil {
		return fmt.Errorf("prepare migrations: %w", err)
	}
	defer m.Close()

	if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("revert migrations: %w", err)
	}
	logger.SystemLogger.Info("Tables dropped", zap.String("scope", "all"))
	return nil
}
