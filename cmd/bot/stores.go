package main

import (
	"context"
	"fmt"

	"attendance_notice_bot/internal/domain/action"
	"attendance_notice_bot/internal/domain/settings"
	"attendance_notice_bot/internal/domain/store"
	"attendance_notice_bot/internal/domain/user"
	"attendance_notice_bot/internal/infra/config"
	idb "attendance_notice_bot/internal/infra/database"
	"attendance_notice_bot/internal/infra/logger"
	"attendance_notice_bot/internal/infra/memstore"
)

// stores bundles the repositories of one backing store.
type stores struct {
	users    user.Repository
	actions  action.Repository
	sent     action.SentRepository
	settings settings.Repository
	tx       store.Transactor
	close    func() error
}

func openStores(ctx context.Context, cfg *config.AppConfig) (*stores, error) {
	log := logger.Component("store").WithField("driver", cfg.StoreDriver)

	if cfg.StoreDriver == config.StoreMemory {
		db := memstore.Open()
		log.Warn("Using in-memory store, data is lost on restart")
		return &stores{
			users:    memstore.NewUserRepository(db),
			actions:  memstore.NewActionRepository(db),
			sent:     memstore.NewSentActionRepository(db),
			settings: memstore.NewSettingsRepository(db),
			tx:       memstore.NewTransactor(db),
			close:    func() error { return nil },
		}, nil
	}

	db, err := idb.NewPostgresConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("could not connect to database: %w", err)
	}
	log.Info("Database connection established successfully")

	if cfg.DBAutoMigrate {
		if err := idb.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
		log.Info("Database schema applied")
	}

	return &stores{
		users:    idb.NewPostgresUserRepository(db),
		actions:  idb.NewPostgresActionRepository(db),
		sent:     idb.NewPostgresSentActionRepository(db),
		settings: idb.NewPostgresSettingsRepository(db),
		tx:       idb.NewPostgresTransactor(db, cfg.DBTxMaxAttempts, logger.Component("tx")),
		close:    db.Close,
	}, nil
}
