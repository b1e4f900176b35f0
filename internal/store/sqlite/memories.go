package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gab-cat/cold-start-sub000/internal/model"
	"github.com/gab-cat/cold-start-sub000/internal/store"
)

type memories struct{ db *sql.DB }

func (m *memories) Insert(ctx context.Context, rec model.EmbeddingRecord) error {
	created := rec.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := m.db.ExecContext(ctx, `
        INSERT INTO memory_records (record_id, user_id, category, text, vector, source_id, created_at)
        VALUES (?,?,?,?,?,?,?)
        ON CONFLICT (record_id) DO NOTHING
    `, rec.ID, rec.UserID, string(rec.Category), rec.Text, nullIfEmpty(store.EncodeVector(rec.Vector)), rec.SourceID, ts(created))
	return err
}

func (m *memories) List(ctx context.Context, userID string, categories ...model.MemoryCategory) ([]model.EmbeddingRecord, error) {
	q := `SELECT record_id, user_id, category, text, vector, source_id, created_at FROM memory_records WHERE user_id=?`
	args := []any{userID}
	if len(categories) > 0 {
		q += ` AND category IN (` + placeholders(len(categories)) + `)`
		for _, c := range categories {
			args = append(args, string(c))
		}
	}
	q += ` ORDER BY created_at DESC, record_id ASC`
	rows, err := m.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []model.EmbeddingRecord
	for rows.Next() {
		var rec model.EmbeddingRecord
		var category string
		var vec []byte
		var created int64
		if err := rows.Scan(&rec.ID, &rec.UserID, &category, &rec.Text, &vec, &rec.SourceID, &created); err != nil {
			return nil, err
		}
		rec.Category = model.MemoryCategory(category)
		rec.CreatedAt = fromTS(created)
		if rec.Vector, err = store.DecodeVector(vec); err != nil {
			return nil, fmt.Errorf("record %s: %w", rec.ID, err)
		}
		res = append(res, rec)
	}
	return res, rows.Err()
}

type conversations struct{ db *sql.DB }

func (c *conversations) Insert(ctx context.Context, t model.ConversationTurn) error {
	resp, err := json.Marshal(t.Response)
	if err != nil {
		return err
	}
	actions := t.Actions
	if actions == nil {
		actions = []model.ActionOutcome{}
	}
	acts, err := json.Marshal(actions)
	if err != nil {
		return err
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	t.CreatedAt = t.CreatedAt.UTC()
	msgs, err := store.ConversationOutbox(t)
	if err != nil {
		return err
	}

	tx, err := c.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
        INSERT INTO conversation_turns (turn_id, user_id, message, response, actions, client_ts, created_at)
        VALUES (?,?,?,?,?,?,?)
        ON CONFLICT (turn_id) DO NOTHING
    `, t.ID, t.UserID, t.Message, string(resp), string(acts), nts(t.ClientTimestamp), ts(t.CreatedAt))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil
	}
	if err := writeOutbox(ctx, tx, msgs); err != nil {
		return err
	}
	return tx.Commit()
}

func (c *conversations) ListRecent(ctx context.Context, userID string, limit int) ([]model.ConversationTurn, error) {
	rows, err := c.db.QueryContext(ctx, `
        SELECT turn_id, user_id, message, response, actions, client_ts, created_at
        FROM conversation_turns WHERE user_id=?
        ORDER BY created_at DESC, turn_id DESC LIMIT ?
    `, userID, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []model.ConversationTurn
	for rows.Next() {
		var t model.ConversationTurn
		var resp, acts string
		var clientTS sql.NullInt64
		var created int64
		if err := rows.Scan(&t.ID, &t.UserID, &t.Message, &resp, &acts, &clientTS, &created); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(resp), &t.Response); err != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}
		if err := json.Unmarshal([]byte(acts), &t.Actions); err != nil {
			return nil, fmt.Errorf("decode actions: %w", err)
		}
		t.ClientTimestamp = fromNullTS(clientTS)
		t.CreatedAt = fromTS(created)
		res = append(res, t)
	}
	return res, rows.Err()
}
