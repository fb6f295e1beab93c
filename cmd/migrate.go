package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/mash021/meal-sharing/internal/config"
	"github.com/mash021/meal-sharing/internal/database"
)

var downSteps int

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply or roll back the database schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		if cfg.Storage != config.StoragePostgres {
			return errors.New("migrate: STORAGE is not postgres")
		}
		return database.MigrateUp(cfg.DatabaseURL, log)
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		if cfg.Storage != config.StoragePostgres {
			return errors.New("migrate: STORAGE is not postgres")
		}
		return database.MigrateDown(cfg.DatabaseURL, downSteps, log)
	},
}

func init() {
	migrateDownCmd.Flags().IntVar(&downSteps, "steps", 1, "number of migrations to roll back, 0 for all")
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd)
}
