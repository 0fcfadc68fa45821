package main

import (
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"chatcore/internal/config"
	"chatcore/internal/domain"
	"chatcore/internal/identity"
	"chatcore/internal/logging"
	"chatcore/internal/security"
	"chatcore/internal/store/postgres"
	"chatcore/internal/store/sqlite"
)

// app holds what every command needs: config, logger and an open store.
type app struct {
	cfg   *config.Config
	log   *zap.Logger
	db    *sql.DB
	store domain.Store
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logging.New(cfg.LogLevel, cfg.Debug)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, log: log}
	switch cfg.DBDriver {
	case config.DriverSQLite:
		a.db, err = sqlite.Open(cfg.DSN())
		if err == nil {
			a.store = sqlite.New(a.db)
		}
	default:
		a.db, err = postgres.Open(cfg.DSN())
		if err == nil {
			a.store = postgres.New(a.db)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.DBDriver, err)
	}
	return a, nil
}

func (a *app) migrate() error {
	var err error
	if a.cfg.DBDriver == config.DriverSQLite {
		err = sqlite.Migrate(a.db)
	} else {
		err = postgres.Migrate(a.db)
	}
	if err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	a.log.Info("migrations_applied", zap.String("driver", a.cfg.DBDriver))
	return nil
}

func (a *app) identity() *identity.Provider {
	tokens := security.NewTokenService(a.cfg.JWTSecret, a.cfg.AppName,
		time.Duration(a.cfg.AccessTokenMinutes)*time.Minute)
	return identity.NewProvider(a.store.Users(), tokens, security.NewPasswordHasher(0))
}

func (a *app) close() {
	if err := a.db.Close(); err != nil {
		a.log.Warn("database_close_failed", zap.Error(err))
	}
	_ = a.log.Sync()
}
