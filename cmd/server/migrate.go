package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"giyus/internal/platform/config"
	"giyus/internal/platform/postgres"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the PostgreSQL schema",
	}
	cmd.AddCommand(
		migrateAction("up", "Apply all pending migrations"),
		migrateAction("down", "Roll back the most recent migration"),
		migrateAction("status", "List migrations and whether they are applied"),
	)
	return cmd
}

func migrateAction(name, short string) *cobra.Command {
	return &cobra.Command{
		Use:   name,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.Database.URL == "" {
				return errors.New("DATABASE_URL is required")
			}
			ctx := cmd.Context()
			db, err := postgres.Open(ctx, cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			out := cmd.OutOrStdout()
			switch name {
			case "up":
				applied, err := postgres.MigrateUp(ctx, db)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "applied %d migration(s)\n", len(applied))
			case "down":
				if err := postgres.MigrateDown(ctx, db); err != nil {
					return err
				}
				fmt.Fprintln(out, "rolled back one migration")
			case "status":
				statuses, err := postgres.Status(ctx, db)
				if err != nil {
					return err
				}
				for _, s := range statuses {
					state := "pending"
					if s.Applied {
						state = "applied"
					}
					fmt.Fprintf(out, "%05d  %-8s %s\n", s.Version, state, s.Path)
				}
			}
			return nil
		},
	}
}
