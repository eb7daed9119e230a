// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"
	"time"

	"codeberg.org/oliverandrich/go-account-service/internal/config"
	"codeberg.org/oliverandrich/go-account-service/internal/database"
	"codeberg.org/oliverandrich/go-account-service/internal/models"
	"codeberg.org/oliverandrich/go-account-service/internal/record"
	"codeberg.org/oliverandrich/go-account-service/internal/repository"
	"github.com/urfave/cli/v3"
)

func usersCommand() *cli.Command {
	return &cli.Command{
		Name:  "users",
		Usage: "Inspect user accounts",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "Print one page of users",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "sort", Value: "created_at", Usage: "Sort order, e.g. email:desc,created_at"},
					&cli.IntFlag{Name: "offset", Usage: "Number of users to skip"},
					&cli.IntFlag{Name: "limit", Value: record.DefaultLimit, Usage: "Maximum number of users"},
				},
				Action: listUsers,
			},
		},
	}
}

func listUsers(ctx context.Context, cmd *cli.Command) error {
	cfg := config.NewFromCLI(cmd)

	db, err := database.Open(cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("failed to close database", "error", closeErr)
		}
	}()

	page, err := repository.New().Users.GetAll(ctx, db, record.ListOptions{
		Sort:   cmd.String("sort"),
		Offset: int(cmd.Int("offset")),
		Limit:  int(cmd.Int("limit")),
	})
	if err != nil {
		return err
	}

	return writeUsers(cmd.Root().Writer, page)
}

func writeUsers(w io.Writer, page record.Page[models.User]) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tEMAIL\tSTATE\tCONFIRMED\tLAST LOGIN")
	for _, u := range page.Items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			u.ID, u.Email, u.State(), formatTime(u.ConfirmedAt), formatTime(u.LastLoginAt))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "%d of %d users\n", page.NumItems, page.TotalItems)
	return err
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}
