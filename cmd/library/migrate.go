package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"

	"github.com/mangesh-sakordekar/Neighborhood-Library/library/config"
	"github.com/mangesh-sakordekar/Neighborhood-Library/library/migrations"
	"github.com/mangesh-sakordekar/Neighborhood-Library/pkg/database"
)

func newMigrateCmd(loadConfig func() config.Config) *cobra.Command {
	withMigrator := func(run func(cmd *cobra.Command, p *goose.Provider) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			cfg := loadConfig()
			db, err := database.Open(cmd.Context(), &cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()
			p, err := database.NewMigrator(db, migrations.MigrationFiles)
			if err != nil {
				return err
			}
			return run(cmd, p)
		}
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: withMigrator(func(cmd *cobra.Command, p *goose.Provider) error {
			results, err := p.Up(cmd.Context())
			if err != nil {
				return errors.Wrap(err, "migrate up")
			}
			for _, r := range results {
				printResult(cmd, r)
			}
			return nil
		}),
	}
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back the last migration",
		Args:  cobra.NoArgs,
		RunE: withMigrator(func(cmd *cobra.Command, p *goose.Provider) error {
			r, err := p.Down(cmd.Context())
			if err != nil {
				return errors.Wrap(err, "migrate down")
			}
			printResult(cmd, r)
			return nil
		}),
	}
	status := &cobra.Command{
		Use:   "status",
		Short: "Show applied and pending migrations",
		Args:  cobra.NoArgs,
		RunE: withMigrator(func(cmd *cobra.Command, p *goose.Provider) error {
			list, err := p.Status(cmd.Context())
			if err != nil {
				return errors.Wrap(err, "migrate status")
			}
			for _, s := range list {
				applied := "pending"
				if s.State == goose.StateApplied {
					applied = s.AppliedAt.Format("2006-01-02 15:04:05")
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%05d %-30s %s\n", s.Source.Version, s.Source.Path, applied)
			}
			return nil
		}),
	}

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}
	cmd.AddCommand(up, down, status)
	return cmd
}

func printResult(cmd *cobra.Command, r *goose.MigrationResult) {
	fmt.Fprintf(cmd.OutOrStdout(), "%-4s %05d %-30s %s\n", r.Direction, r.Source.Version, r.Source.Path, r.Duration)
}
