package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/gab-cat/cold-start-sub000/internal/model"
)

type summaries struct{ db *sql.DB }

func (s *summaries) Upsert(ctx context.Context, in model.DailySummary) error {
	updated := in.UpdatedAt
	if updated.IsZero() {
		updated = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO daily_summaries (user_id, summary_date, activity_count, workout_count, exercise_minutes,
            distance_km, steps, calories_burned, calories_consumed, hydration_ml, sleep_hours, updated_at)
        VALUES (?,?,?,?,?,?,?,?,?,?,?,?)
        ON CONFLICT (user_id, summary_date) DO UPDATE SET
            activity_count = excluded.activity_count,
            workout_count = excluded.workout_count,
            exercise_minutes = excluded.exercise_minutes,
            distance_km = excluded.distance_km,
            steps = excluded.steps,
            calories_burned = excluded.calories_burned,
            calories_consumed = excluded.calories_consumed,
            hydration_ml = excluded.hydration_ml,
            sleep_hours = excluded.sleep_hours,
            updated_at = excluded.updated_at
    `, in.UserID, in.Date, in.ActivityCount, in.WorkoutCount, in.ExerciseMinutes, in.DistanceKm, in.Steps,
		in.CaloriesBurned, in.CaloriesConsumed, in.HydrationMl, in.SleepHours, ts(updated))
	return err
}

func (s *summaries) Get(ctx context.Context, userID, date string) (*model.DailySummary, error) {
	var out model.DailySummary
	var updated int64
	row := s.db.QueryRowContext(ctx, `
        SELECT user_id, summary_date, activity_count, workout_count, exercise_minutes, distance_km, steps,
            calories_burned, calories_consumed, hydration_ml, sleep_hours, updated_at
        FROM daily_summaries WHERE user_id=? AND summary_date=?
    `, userID, date)
	if err := row.Scan(&out.UserID, &out.Date, &out.ActivityCount, &out.WorkoutCount, &out.ExerciseMinutes,
		&out.DistanceKm, &out.Steps, &out.CaloriesBurned, &out.CaloriesConsumed, &out.HydrationMl,
		&out.SleepHours, &updated); err != nil {
		return nil, notFound(err, "summary "+date)
	}
	out.UpdatedAt = fromTS(updated)
	return &out, nil
}
