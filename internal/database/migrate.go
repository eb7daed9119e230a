// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package database

import (
	"database/sql"
	"embed"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// gooseDialect maps a driver name to the goose dialect.
func gooseDialect(driver string) string {
	if driver == DriverPostgres {
		return "postgres"
	}
	return "sqlite3"
}

func prepareGoose(driver string) error {
	goose.SetBaseFS(embedMigrations)
	return goose.SetDialect(gooseDialect(driver))
}

// RunMigrations runs all pending goose migrations.
func RunMigrations(db *sql.DB, driver string) error {
	if err := prepareGoose(driver); err != nil {
		return err
	}
	return goose.Up(db, "migrations")
}

// MigrateDown rolls back the last migration.
func MigrateDown(db *sql.DB, driver string) error {
	if err := prepareGoose(driver); err != nil {
		return err
	}
	return goose.Down(db, "migrations")
}

// MigrateReset rolls back all migrations.
func MigrateReset(db *sql.DB, driver string) error {
	if err := prepareGoose(driver); err != nil {
		return err
	}
	return goose.Reset(db, "migrations")
}

// MigrationStatus logs the state of every known migration.
func MigrationStatus(db *sql.DB, driver string) error {
	if err := prepareGoose(driver); err != nil {
		return err
	}
	return goose.Status(db, "migrations")
}

// MigrationVersion returns the currently applied schema version.
func MigrationVersion(db *sql.DB, driver string) (int64, error) {
	if err := prepareGoose(driver); err != nil {
		return 0, err
	}
	return goose.GetDBVersion(db)
}
