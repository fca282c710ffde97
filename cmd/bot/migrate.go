package main

import (
	"fmt"

	"attendance_notice_bot/internal/infra/config"
	idb "attendance_notice_bot/internal/infra/database"
	"attendance_notice_bot/internal/infra/logger"

	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the PostgreSQL tables if they do not exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("could not load configuration: %w", err)
			}
			logger.Init(cfg)
			if cfg.StoreDriver != config.StorePostgres {
				return fmt.Errorf("migrate needs STORE_DRIVER=%s, got %q", config.StorePostgres, cfg.StoreDriver)
			}

			db, err := idb.NewPostgresConnection(cmd.Context(), cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("could not connect to database: %w", err)
			}
			defer db.Close()

			if err := idb.Migrate(cmd.Context(), db); err != nil {
				return err
			}
			logger.Log.Info("Schema is up to date")
			return nil
		},
	}
}
