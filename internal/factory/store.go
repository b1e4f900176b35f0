package factory

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/gab-cat/cold-start-sub000/internal/config"
	storepkg "github.com/gab-cat/cold-start-sub000/internal/store"
	storepg "github.com/gab-cat/cold-start-sub000/internal/store/postgres"
	storesqlite "github.com/gab-cat/cold-start-sub000/internal/store/sqlite"
)

// NewStore returns the store.Store selected by cfg.DBDriver. The schema is
// applied before returning because both the service and the outbox worker
// query it straight away.
func NewStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (storepkg.Store, error) {
	switch cfg.DBDriver {
	case "sqlite":
		s, err := storesqlite.New(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite %s: %w", cfg.SQLitePath, err)
		}
		log.Debug().Str("driver", cfg.DBDriver).Str("path", cfg.SQLitePath).Msg("store ready")
		return s, nil
	case "postgres":
		dsn := cfg.PostgresDSN
		if dsn == "" {
			return nil, fmt.Errorf("%s_POSTGRES_DSN is required when DB_DRIVER=postgres", config.EnvPrefix)
		}
		db, err := storepg.Open(dsn)
		if err != nil {
			return nil, err
		}
		bootstrapCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.BootstrapTimeoutSeconds)*time.Second)
		defer cancel()
		if err := storepg.Migrate(bootstrapCtx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
		log.Debug().Str("driver", cfg.DBDriver).Msg("store bootstrap completed")
		return storepg.NewWithDB(db), nil
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER: %s", cfg.DBDriver)
	}
}
