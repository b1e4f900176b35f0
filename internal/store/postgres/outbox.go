package postgres

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"github.com/gab-cat/cold-start-sub000/internal/store"
)

const (
	leaseReadyRowsSQL = `
UPDATE outbox SET leased_until = $3, updated_at = $2
WHERE id IN (
    SELECT id FROM outbox
    WHERE status = 'pending' AND next_attempt_at <= $2
      AND (leased_until IS NULL OR leased_until <= $2)
    ORDER BY id ASC
    FOR UPDATE SKIP LOCKED
    LIMIT $1)
RETURNING id, op, aggregate_id, payload, attempt_count, created_at`

	markDoneSQL = `UPDATE outbox SET status='done', leased_until=NULL, updated_at=now() WHERE id=$1`

	markFailedSQL = `
UPDATE outbox
SET attempt_count = attempt_count + 1,
    next_attempt_at = $2,
    last_error = $3,
    status = CASE WHEN $4 THEN 'dead' ELSE 'pending' END,
    leased_until = NULL,
    updated_at = now()
WHERE id=$1`
)

type outbox struct{ db *sql.DB }

func (o *outbox) Enqueue(ctx context.Context, msg store.OutboxMessage) error {
	_, err := o.db.ExecContext(ctx, `INSERT INTO outbox (aggregate_id, op, payload) VALUES ($1,$2,$3)`,
		msg.AggregateID, msg.Op, msg.Payload)
	return err
}

func (o *outbox) Lease(ctx context.Context, limit int, lease time.Duration, now time.Time) ([]store.OutboxRow, error) {
	now = now.UTC()
	rows, err := o.db.QueryContext(ctx, leaseReadyRowsSQL, limit, now, now.Add(lease))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []store.OutboxRow
	for rows.Next() {
		var r store.OutboxRow
		if err := rows.Scan(&r.ID, &r.Op, &r.AggregateID, &r.Payload, &r.Attempts, &r.CreatedAt); err != nil {
			return nil, err
		}
		r.CreatedAt = r.CreatedAt.UTC()
		res = append(res, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res, nil
}

func (o *outbox) MarkDone(ctx context.Context, id int64) error {
	_, err := o.db.ExecContext(ctx, markDoneSQL, id)
	return err
}

func (o *outbox) MarkFailed(ctx context.Context, id int64, nextAttemptAt time.Time, errMsg string, dead bool) error {
	_, err := o.db.ExecContext(ctx, markFailedSQL, id, nextAttemptAt.UTC(), errMsg, dead)
	return err
}
