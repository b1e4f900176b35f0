package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/gab-cat/cold-start-sub000/internal/model"
)

type streaks struct{ db *sql.DB }

func (s *streaks) Get(ctx context.Context, userID string, t model.StreakType) (*model.Streak, error) {
	row := s.db.QueryRowContext(ctx, `
        SELECT user_id, streak_type, streak_count, max_count, last_activity_date, last_activity_at, updated_at
        FROM streaks WHERE user_id=$1 AND streak_type=$2
    `, userID, string(t))
	out, err := scanStreak(row)
	if err != nil {
		return nil, notFound(err, "streak "+string(t))
	}
	return out, nil
}

func (s *streaks) List(ctx context.Context, userID string) ([]model.Streak, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT user_id, streak_type, streak_count, max_count, last_activity_date, last_activity_at, updated_at
        FROM streaks WHERE user_id=$1 ORDER BY streak_type ASC
    `, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []model.Streak
	for rows.Next() {
		st, err := scanStreak(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *st)
	}
	return res, rows.Err()
}

func (s *streaks) Upsert(ctx context.Context, in model.Streak) error {
	updated := in.UpdatedAt
	if updated.IsZero() {
		updated = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO streaks (user_id, streak_type, streak_count, max_count, last_activity_date, last_activity_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        ON CONFLICT (user_id, streak_type) DO UPDATE SET
            streak_count = EXCLUDED.streak_count,
            max_count = EXCLUDED.max_count,
            last_activity_date = EXCLUDED.last_activity_date,
            last_activity_at = EXCLUDED.last_activity_at,
            updated_at = EXCLUDED.updated_at
    `, in.UserID, string(in.Type), in.Count, in.Max, in.LastActivityDate, in.LastActivityAt.UTC(), updated.UTC())
	return err
}

func scanStreak(s scanner) (*model.Streak, error) {
	var out model.Streak
	var streakType string
	if err := s.Scan(&out.UserID, &streakType, &out.Count, &out.Max, &out.LastActivityDate, &out.LastActivityAt, &out.UpdatedAt); err != nil {
		return nil, err
	}
	out.Type = model.StreakType(streakType)
	out.LastActivityAt, out.UpdatedAt = out.LastActivityAt.UTC(), out.UpdatedAt.UTC()
	return &out, nil
}
