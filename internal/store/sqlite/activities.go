package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gab-cat/cold-start-sub000/internal/model"
	"github.com/gab-cat/cold-start-sub000/internal/store"
)

type activities struct{ db *sql.DB }

const activityColumns = `activity_id, user_id, category, name, details, started_at, ended_at, logged_at, source`

func (a *activities) Insert(ctx context.Context, in model.Activity) (*model.Activity, error) {
	if in.ID == "" {
		in.ID = uuid.New().String()
	}
	if in.LoggedAt.IsZero() {
		in.LoggedAt = time.Now()
	}
	in.LoggedAt = in.LoggedAt.UTC()
	if in.StartedAt != nil {
		t := in.StartedAt.UTC()
		in.StartedAt = &t
	}
	if in.EndedAt != nil {
		t := in.EndedAt.UTC()
		in.EndedAt = &t
	}

	details, err := store.EncodeActivityDetails(in)
	if err != nil {
		return nil, err
	}
	msgs, err := store.ActivityOutbox(in)
	if err != nil {
		return nil, err
	}

	tx, err := a.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
        INSERT INTO activities (activity_id, user_id, category, name, details, started_at, ended_at, occurred_at, logged_at, source)
        VALUES (?,?,?,?,?,?,?,?,?,?)
    `, in.ID, in.UserID, string(in.Category), in.Name, string(details), nts(in.StartedAt), nts(in.EndedAt),
		ts(in.OccurredAt()), ts(in.LoggedAt), string(in.Source)); err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("activity %s: %w", in.ID, model.ErrConflict)
		}
		return nil, err
	}
	if err := writeOutbox(ctx, tx, msgs); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	out := in
	return &out, nil
}

func (a *activities) Get(ctx context.Context, userID, activityID string) (*model.Activity, error) {
	row := a.db.QueryRowContext(ctx, `SELECT `+activityColumns+` FROM activities WHERE user_id=? AND activity_id=?`, userID, activityID)
	out, err := scanActivity(row)
	if err != nil {
		return nil, notFound(err, "activity "+activityID)
	}
	return out, nil
}

func (a *activities) ListRecent(ctx context.Context, userID string, limit int) ([]model.Activity, error) {
	rows, err := a.db.QueryContext(ctx, `
        SELECT `+activityColumns+` FROM activities WHERE user_id=?
        ORDER BY logged_at DESC, activity_id DESC LIMIT ?
    `, userID, limit)
	if err != nil {
		return nil, err
	}
	return collectActivities(rows)
}

func (a *activities) ListBetween(ctx context.Context, userID string, from, to time.Time) ([]model.Activity, error) {
	rows, err := a.db.QueryContext(ctx, `
        SELECT `+activityColumns+` FROM activities
        WHERE user_id=? AND occurred_at >= ? AND occurred_at < ?
        ORDER BY occurred_at ASC, activity_id ASC
    `, userID, ts(from), ts(to))
	if err != nil {
		return nil, err
	}
	return collectActivities(rows)
}

func scanActivity(s scanner) (*model.Activity, error) {
	var out model.Activity
	var category, source, details string
	var started, ended sql.NullInt64
	var logged int64
	if err := s.Scan(&out.ID, &out.UserID, &category, &out.Name, &details, &started, &ended, &logged, &source); err != nil {
		return nil, err
	}
	out.Category = model.ActivityCategory(category)
	out.Source = model.Source(source)
	out.StartedAt, out.EndedAt = fromNullTS(started), fromNullTS(ended)
	out.LoggedAt = fromTS(logged)
	if err := store.DecodeActivityDetails([]byte(details), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func collectActivities(rows *sql.Rows) ([]model.Activity, error) {
	defer func() { _ = rows.Close() }()
	var res []model.Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *a)
	}
	return res, rows.Err()
}
