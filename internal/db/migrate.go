package db

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/pressly/goose/v3"
)

//go:embed migrations
var migrationsFS embed.FS

// dialectMap maps database drivers to Goose dialect names and the migration
// directory holding that dialect's SQL.
var dialectMap = map[string]string{
	DriverSQLite:   "sqlite3",
	DriverPostgres: "postgres",
	DriverMySQL:    "mysql",
}

var migrationDirs = map[string]string{
	DriverSQLite:   "migrations/sqlite",
	DriverPostgres: "migrations/postgres",
	DriverMySQL:    "migrations/mysql",
}

func setupGoose(driver string) error {
	dialect, ok := dialectMap[driver]
	if !ok {
		return fmt.Errorf("unsupported database driver: %s", driver)
	}

	err := goose.SetDialect(dialect)
	if err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}

	migrationsDir, err := fs.Sub(migrationsFS, migrationDirs[driver])
	if err != nil {
		return fmt.Errorf("failed to get migrations directory: %w", err)
	}

	goose.SetBaseFS(migrationsDir)
	goose.SetLogger(goose.NopLogger())
	return nil
}

func RunMigrations(db *sql.DB, driver string) error {
	err := setupGoose(driver)
	if err != nil {
		return err
	}

	err = goose.Up(db, ".")
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, err := goose.GetDBVersion(db)
	if err == nil {
		slog.Info("migrations completed successfully", "version", version)
	}
	return nil
}

func MigrateDown(db *sql.DB, driver string) error {
	err := setupGoose(driver)
	if err != nil {
		return err
	}

	err = goose.Down(db, ".")
	if err != nil {
		return fmt.Errorf("failed to rollback migration: %w", err)
	}

	slog.Info("rolled back one migration")
	return nil
}

// MigrationVersion returns the currently applied schema version.
func MigrationVersion(db *sql.DB, driver string) (int64, error) {
	err := setupGoose(driver)
	if err != nil {
		return 0, err
	}
	return goose.GetDBVersion(db)
}
