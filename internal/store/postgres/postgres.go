package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/gab-cat/cold-start-sub000/internal/model"
	"github.com/gab-cat/cold-start-sub000/internal/store"
)

// Open opens a PostgreSQL connection using the pgx stdlib driver and verifies connectivity.
func Open(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is empty")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Migrate applies the schema.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("postgres migrate: %w", err)
	}
	return nil
}

// Bootstrap verifies connectivity and applies the schema.
func Bootstrap(ctx context.Context, dsn string) error {
	if dsn == "" {
		return nil
	}
	db, err := Open(dsn)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	return Migrate(ctx, db)
}

// NewWithDB constructs a Postgres store backed directly by database/sql.
func NewWithDB(db *sql.DB) store.Store { return &pgStore{db: db} }

type pgStore struct{ db *sql.DB }

func (s *pgStore) Profiles() store.Profiles           { return &profiles{db: s.db} }
func (s *pgStore) Activities() store.Activities       { return &activities{db: s.db} }
func (s *pgStore) Goals() store.Goals                 { return &goals{db: s.db} }
func (s *pgStore) Streaks() store.Streaks             { return &streaks{db: s.db} }
func (s *pgStore) Memories() store.Memories           { return &memories{db: s.db} }
func (s *pgStore) Conversations() store.Conversations { return &conversations{db: s.db} }
func (s *pgStore) Summaries() store.Summaries         { return &summaries{db: s.db} }
func (s *pgStore) Outbox() store.Outbox               { return &outbox{db: s.db} }

// HealthPing implements health.HealthPinger.
func (s *pgStore) HealthPing(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *pgStore) Close() error { return s.db.Close() }

// helpers

func writeOutbox(ctx context.Context, tx *sql.Tx, msgs []store.OutboxMessage) error {
	for _, m := range msgs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO outbox (aggregate_id, op, payload) VALUES ($1,$2,$3)`,
			m.AggregateID, m.Op, m.Payload); err != nil {
			return fmt.Errorf("write outbox %s: %w", m.Op, err)
		}
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, model.ErrNotFound)
	}
	return err
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func nullIfEmpty(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	return b
}

// placeholders returns "$start,...,$start+n-1".
func placeholders(start, n int) string {
	ps := make([]string, n)
	for i := range ps {
		ps[i] = fmt.Sprintf("$%d", start+i)
	}
	return strings.Join(ps, ",")
}
