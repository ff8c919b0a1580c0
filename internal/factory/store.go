// Package factory constructs the store implementation selected by config.
package factory

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/skylog-app/skylog/internal/config"
	storepkg "github.com/skylog-app/skylog/internal/store"
	storemem "github.com/skylog-app/skylog/internal/store/memory"
	storepg "github.com/skylog-app/skylog/internal/store/postgres"
	storesqlite "github.com/skylog-app/skylog/internal/store/sqlite"
)

// NewStore returns the store.Store for cfg.DBDriver.
// Postgres opens synchronously so health checks can probe immediately; the
// schema bootstrap check runs async to keep startup fast.
func NewStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (storepkg.Store, error) {
	switch cfg.DBDriver {
	case "memory":
		return storemem.New(), nil

	case "sqlite":
		st, err := storesqlite.New(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		log.Debug().Str("path", cfg.SQLitePath).Msg("sqlite store opened")
		return st, nil

	case "postgres":
		dsn := cfg.PostgresDSN
		if dsn == "" {
			return nil, fmt.Errorf("SKYLOG_POSTGRES_DSN is required when DB_DRIVER=postgres")
		}
		db, err := storepg.Open(dsn)
		if err != nil {
			return nil, err
		}

		go func() {
			bootstrapCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			defer cancel()
			if err := storepg.Bootstrap(bootstrapCtx, dsn); err != nil {
				log.Warn().Err(err).Msg("store bootstrap check failed")
			} else {
				log.Debug().Msg("store bootstrap check completed")
			}
		}()
		return storepg.NewWithDB(db), nil

	default:
		return nil, fmt.Errorf("unknown DB_DRIVER: %s", cfg.DBDriver)
	}
}
