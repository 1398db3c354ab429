package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/trogers1052/trading-journal/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply PostgreSQL migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}

		db, err := database.New(cfg.Database.ConnectionString())
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer db.Close()

		if err := db.Migrate(cfg.Database.MigrationsPath); err != nil {
			return fmt.Errorf("migrate database: %w", err)
		}
		logger.Info().Str("path", cfg.Database.MigrationsPath).Msg("Migrations applied")
		return nil
	},
}
