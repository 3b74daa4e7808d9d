package cmd

import (
	"fmt"

	"github.com/Dune005/syfte/internal/config"
	"github.com/Dune005/syfte/internal/db"
	"github.com/Dune005/syfte/internal/logger"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
)

func MigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(
		migrateSubCmd("up", "Apply all pending migrations", func(d *sqlx.DB, driver string) error {
			return db.RunMigrations(d.DB, driver)
		}),
		migrateSubCmd("down", "Roll back the latest migration", func(d *sqlx.DB, driver string) error {
			return db.MigrateDown(d.DB, driver)
		}),
		migrateSubCmd("status", "Print the applied schema version", func(d *sqlx.DB, driver string) error {
			version, err := db.MigrationVersion(d.DB, driver)
			if err != nil {
				return err
			}
			fmt.Printf("driver=%s version=%d\n", driver, version)
			return nil
		}),
	)
	return cmd
}

func migrateSubCmd(use, short string, run func(*sqlx.DB, string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			logger.Init(logger.Options{Development: true, Level: cfg.LogLevel})

			database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
			if err != nil {
				return err
			}
			defer func() { _ = database.Close() }()

			return run(database, cfg.DBDriver)
		},
	}
}
