//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	postgrescontainer "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/gab-cat/cold-start-sub000/internal/store"
	"github.com/gab-cat/cold-start-sub000/internal/store/storetest"
)

func TestPostgresStoreCompliance(t *testing.T) {
	ctx := context.Background()

	pg, err := postgrescontainer.Run(ctx, "postgres:16-alpine",
		postgrescontainer.WithDatabase("wellness"),
		postgrescontainer.WithUsername("agent"),
		postgrescontainer.WithPassword("agent"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pg.Terminate(ctx) })

	dsn, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	require.NoError(t, Bootstrap(ctx, dsn))

	storetest.Run(t, func(t *testing.T) store.Store {
		db, err := Open(dsn)
		require.NoError(t, err)
		// Each subtest uses fresh user ids; the outbox is cleared so lease assertions see only their rows.
		_, err = db.ExecContext(ctx, `TRUNCATE outbox`)
		require.NoError(t, err)
		s := NewWithDB(db)
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}
