package postgres

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
	in.StartedAt, in.EndedAt = utcPtr(in.StartedAt), utcPtr(in.EndedAt)

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
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
    `, in.ID, in.UserID, string(in.Category), in.Name, details, in.StartedAt, in.EndedAt,
		in.OccurredAt().UTC(), in.LoggedAt, string(in.Source)); err != nil {
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
	row := a.db.QueryRowContext(ctx, `SELECT `+activityColumns+` FROM activities WHERE user_id=$1 AND activity_id=$2`, userID, activityID)
	out, err := scanActivity(row)
	if err != nil {
		return nil, notFound(err, "activity "+activityID)
	}
	return out, nil
}

func (a *activities) ListRecent(ctx context.Context, userID string, limit int) ([]model.Activity, error) {
	rows, err := a.db.QueryContext(ctx, `
        SELECT `+activityColumns+` FROM activities WHERE user_id=$1
        ORDER BY logged_at DESC, activity_id DESC LIMIT $2
    `, userID, limit)
	if err != nil {
		return nil, err
	}
	return collectActivities(rows)
}

func (a *activities) ListBetween(ctx context.Context, userID string, from, to time.Time) ([]model.Activity, error) {
	rows, err := a.db.QueryContext(ctx, `
        SELECT `+activityColumns+` FROM activities
        WHERE user_id=$1 AND occurred_at >= $2 AND occurred_at < $3
        ORDER BY occurred_at ASC, activity_id ASC
    `, userID, from.UTC(), to.UTC())
	if err != nil {
		return nil, err
	}
	return collectActivities(rows)
}

type scanner interface{ Scan(dest ...any) error }

func scanActivity(s scanner) (*model.Activity, error) {
	var out model.Activity
	var category, source string
	var details []byte
	var started, ended *time.Time
	if err := s.Scan(&out.ID, &out.UserID, &category, &out.Name, &details, &started, &ended, &out.LoggedAt, &source); err != nil {
		return nil, err
	}
	out.Category = model.ActivityCategory(category)
	out.Source = model.Source(source)
	out.StartedAt, out.EndedAt = utcPtr(started), utcPtr(ended)
	out.LoggedAt = out.LoggedAt.UTC()
	if err := store.DecodeActivityDetails(details, &out); err != nil {
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
