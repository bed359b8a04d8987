package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// MigrationsDir is the directory inside the embedded filesystem.
const MigrationsDir = "migrations"

// OpenMigrationDB opens a database/sql handle through the pgx stdlib driver.
func OpenMigrationDB(url string) (*sql.DB, error) {
	return goose.OpenDBWithDriver("pgx", url)
}

// Migrate applies the embedded schema up to version; version 0 means latest.
func Migrate(ctx context.Context, sqlDB *sql.DB, version int64) error {
	goose.SetBaseFS(migrations)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	var err error
	if version > 0 {
		err = goose.UpToContext(ctx, sqlDB, MigrationsDir, version)
	} else {
		err = goose.UpContext(ctx, sqlDB, MigrationsDir)
	}
	if err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// MigrationStatus logs the applied state of every embedded migration.
func MigrationStatus(ctx context.Context, sqlDB *sql.DB) error {
	goose.SetBaseFS(migrations)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.StatusContext(ctx, sqlDB, MigrationsDir)
}
