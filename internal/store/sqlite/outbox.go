package sqlite

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"github.com/gab-cat/cold-start-sub000/internal/store"
)

const (
	leaseReadyRowsSQL = `
UPDATE outbox SET leased_until = ?, updated_at = ?
WHERE id IN (
    SELECT id FROM outbox
    WHERE status = 'pending' AND next_attempt_at <= ?
      AND (leased_until IS NULL OR leased_until <= ?)
    ORDER BY id ASC
    LIMIT ?)
RETURNING id, op, aggregate_id, payload, attempt_count, created_at`

	markDoneSQL = `UPDATE outbox SET status='done', leased_until=NULL, updated_at=? WHERE id=?`

	markFailedSQL = `
UPDATE outbox
SET attempt_count = attempt_count + 1,
    next_attempt_at = ?,
    last_error = ?,
    status = ?,
    leased_until = NULL,
    updated_at = ?
WHERE id=?`
)

type outbox struct{ db *sql.DB }

func (o *outbox) Enqueue(ctx context.Context, msg store.OutboxMessage) error {
	now := ts(time.Now())
	_, err := o.db.ExecContext(ctx, `
        INSERT INTO outbox (aggregate_id, op, payload, next_attempt_at, created_at, updated_at)
        VALUES (?,?,?,?,?,?)
    `, msg.AggregateID, msg.Op, msg.Payload, now, now, now)
	return err
}

func (o *outbox) Lease(ctx context.Context, limit int, lease time.Duration, now time.Time) ([]store.OutboxRow, error) {
	n := ts(now)
	rows, err := o.db.QueryContext(ctx, leaseReadyRowsSQL, ts(now.Add(lease)), n, n, n, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []store.OutboxRow
	for rows.Next() {
		var r store.OutboxRow
		var created int64
		if err := rows.Scan(&r.ID, &r.Op, &r.AggregateID, &r.Payload, &r.Attempts, &created); err != nil {
			return nil, err
		}
		r.CreatedAt = fromTS(created)
		res = append(res, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res, nil
}

func (o *outbox) MarkDone(ctx context.Context, id int64) error {
	_, err := o.db.ExecContext(ctx, markDoneSQL, ts(time.Now()), id)
	return err
}

func (o *outbox) MarkFailed(ctx context.Context, id int64, nextAttemptAt time.Time, errMsg string, dead bool) error {
	status := store.OutboxPending
	if dead {
		status = store.OutboxDead
	}
	_, err := o.db.ExecContext(ctx, markFailedSQL, ts(nextAttemptAt), errMsg, status, ts(time.Now()), id)
	return err
}
