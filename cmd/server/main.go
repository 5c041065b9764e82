// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package main

import (
	"context"
	"log"
	"os"

	"codeberg.org/oliverandrich/go-auth-api/internal/config"
	"codeberg.org/oliverandrich/go-auth-api/internal/database"
	"codeberg.org/oliverandrich/go-auth-api/internal/server"
	"github.com/urfave/cli/v3"
)

func main() {
	cmd := &cli.Command{
		Name:   "server",
		Usage:  "Start the auth API server",
		Flags:  config.Flags(),
		Action: server.Run,
		Commands: []*cli.Command{
			{
				Name:  "migrate",
				Usage: "Database migration maintenance",
				Commands: []*cli.Command{
					{
						Name:   "up",
						Usage:  "Apply all pending migrations",
						Action: migrateUp,
					},
					{
						Name:   "down",
						Usage:  "Roll back the most recent migration",
						Action: migrateDown,
					},
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

// migrateUp opens the database, which applies pending migrations.
func migrateUp(_ context.Context, cmd *cli.Command) error {
	db, err := database.Open(cmd.String("database-dsn"))
	if err != nil {
		return err
	}
	return db.Close()
}

func migrateDown(_ context.Context, cmd *cli.Command) error {
	db, err := database.Open(cmd.String("database-dsn"))
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	return database.MigrateDown(db.DB)
}
