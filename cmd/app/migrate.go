// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"codeberg.org/oliverandrich/go-account-service/internal/config"
	"codeberg.org/oliverandrich/go-account-service/internal/database"
	"github.com/urfave/cli/v3"
)

type migrateFunc func(db *sql.DB, driver string) error

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Manage the database schema",
		Commands: []*cli.Command{
			{
				Name:   "up",
				Usage:  "Apply all pending migrations",
				Action: migrateAction(database.RunMigrations),
			},
			{
				Name:   "down",
				Usage:  "Roll back the last migration",
				Action: migrateAction(database.MigrateDown),
			},
			{
				Name:   "reset",
				Usage:  "Roll back all migrations",
				Action: migrateAction(database.MigrateReset),
			},
			{
				Name:   "status",
				Usage:  "Show the state of every migration",
				Action: migrateAction(database.MigrationStatus),
			},
		},
	}
}

func migrateAction(fn migrateFunc) cli.ActionFunc {
	return func(_ context.Context, cmd *cli.Command) error {
		cfg := config.NewFromCLI(cmd)

		db, err := database.Connect(cfg.Database.URL)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer func() {
			if closeErr := db.Close(); closeErr != nil {
				slog.Error("failed to close database", "error", closeErr)
			}
		}()

		if err := fn(db.DB, db.DriverName()); err != nil {
			return fmt.Errorf("migrate %s: %w", cmd.Name, err)
		}

		version, err := database.MigrationVersion(db.DB, db.DriverName())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.Root().Writer, "schema version: %d\n", version)
		return nil
	}
}
