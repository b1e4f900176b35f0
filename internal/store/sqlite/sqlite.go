package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	sqlitelib "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/gab-cat/cold-start-sub000/internal/model"
	"github.com/gab-cat/cold-start-sub000/internal/store"
)

// Open opens (or creates) a SQLite database at path with WAL journaling and
// foreign keys enabled, and applies the schema.
func Open(path string) (*sql.DB, error) {
	// ensure parent directory exists to avoid SQLITE_CANTOPEN errors
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// One writer at a time; SQLite serializes writes anyway.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite migrate: %w", err)
	}
	return db, nil
}

// New opens path and returns a store over it.
func New(path string) (store.Store, error) {
	db, err := Open(path)
	if err != nil {
		return nil, err
	}
	return NewWithDB(db), nil
}

// NewWithDB wraps an already migrated connection.
func NewWithDB(db *sql.DB) store.Store { return &sqliteStore{db: db} }

type sqliteStore struct{ db *sql.DB }

func (s *sqliteStore) Profiles() store.Profiles           { return &profiles{db: s.db} }
func (s *sqliteStore) Activities() store.Activities       { return &activities{db: s.db} }
func (s *sqliteStore) Goals() store.Goals                 { return &goals{db: s.db} }
func (s *sqliteStore) Streaks() store.Streaks             { return &streaks{db: s.db} }
func (s *sqliteStore) Memories() store.Memories           { return &memories{db: s.db} }
func (s *sqliteStore) Conversations() store.Conversations { return &conversations{db: s.db} }
func (s *sqliteStore) Summaries() store.Summaries         { return &summaries{db: s.db} }
func (s *sqliteStore) Outbox() store.Outbox               { return &outbox{db: s.db} }

func (s *sqliteStore) HealthPing(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *sqliteStore) Close() error { return s.db.Close() }

// helpers

func writeOutbox(ctx context.Context, tx *sql.Tx, msgs []store.OutboxMessage) error {
	now := ts(time.Now())
	for _, m := range msgs {
		if _, err := tx.ExecContext(ctx, `
            INSERT INTO outbox (aggregate_id, op, payload, next_attempt_at, created_at, updated_at)
            VALUES (?,?,?,?,?,?)
        `, m.AggregateID, m.Op, m.Payload, now, now, now); err != nil {
			return fmt.Errorf("write outbox %s: %w", m.Op, err)
		}
	}
	return nil
}

func ts(t time.Time) int64 { return t.UnixNano() }

func nts(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UnixNano()
}

func fromTS(n int64) time.Time { return time.Unix(0, n).UTC() }

func fromNullTS(n sql.NullInt64) *time.Time {
	if !n.Valid {
		return nil
	}
	t := fromTS(n.Int64)
	return &t
}

func isUniqueViolation(err error) bool {
	var se *sqlitelib.Error
	if errors.As(err, &se) {
		return se.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY || se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, model.ErrNotFound)
	}
	return err
}

func nullIfEmpty(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	return b
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

type scanner interface{ Scan(dest ...any) error }
