package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/edutrack/edutrack/api/internal/config"
	"github.com/edutrack/edutrack/api/migrations"
)

var errNotPostgres = errors.New("migrations require database.type=postgres")

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		dsn, err := postgresDSN()
		if err != nil {
			return err
		}
		status, err := migrations.Up(dsn)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "schema at version %d (dirty: %t)\n", status.Version, status.Dirty)
		return nil
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back every migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		dsn, err := postgresDSN()
		if err != nil {
			return err
		}
		if err := migrations.Down(dsn); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "all migrations rolled back")
		return nil
	},
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the current schema version",
	RunE: func(cmd *cobra.Command, args []string) error {
		dsn, err := postgresDSN()
		if err != nil {
			return err
		}
		status, err := migrations.Version(dsn)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %t)\n", status.Version, status.Dirty)
		return nil
	},
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateVersionCmd)
	rootCmd.AddCommand(migrateCmd)
}

func postgresDSN() (string, error) {
	cfg, err := loadConfig()
	if err != nil {
		return "", err
	}
	return dsnFor(cfg)
}

func dsnFor(cfg *config.Config) (string, error) {
	if cfg.Database.Type != "postgres" {
		return "", errNotPostgres
	}
	return cfg.Database.Postgres.DSN(), nil
}
