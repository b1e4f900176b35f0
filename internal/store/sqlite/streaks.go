package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/gab-cat/cold-start-sub000/internal/model"
)

type streaks struct{ db *sql.DB }

const streakColumns = `user_id, streak_type, streak_count, max_count, last_activity_date, last_activity_at, updated_at`

func (s *streaks) Get(ctx context.Context, userID string, t model.StreakType) (*model.Streak, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+streakColumns+` FROM streaks WHERE user_id=? AND streak_type=?`, userID, string(t))
	out, err := scanStreak(row)
	if err != nil {
		return nil, notFound(err, "streak "+string(t))
	}
	return out, nil
}

func (s *streaks) List(ctx context.Context, userID string) ([]model.Streak, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+streakColumns+` FROM streaks WHERE user_id=? ORDER BY streak_type ASC`, userID)
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
        INSERT INTO streaks (`+streakColumns+`) VALUES (?,?,?,?,?,?,?)
        ON CONFLICT (user_id, streak_type) DO UPDATE SET
            streak_count = excluded.streak_count,
            max_count = excluded.max_count,
            last_activity_date = excluded.last_activity_date,
            last_activity_at = excluded.last_activity_at,
            updated_at = excluded.updated_at
    `, in.UserID, string(in.Type), in.Count, in.Max, in.LastActivityDate, ts(in.LastActivityAt), ts(updated))
	return err
}

func scanStreak(s scanner) (*model.Streak, error) {
	var out model.Streak
	var streakType string
	var last, updated int64
	if err := s.Scan(&out.UserID, &streakType, &out.Count, &out.Max, &out.LastActivityDate, &last, &updated); err != nil {
		return nil, err
	}
	out.Type = model.StreakType(streakType)
	out.LastActivityAt, out.UpdatedAt = fromTS(last), fromTS(updated)
	return &out, nil
}
