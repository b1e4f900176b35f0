package postgres

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
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
        ON CONFLICT (user_id, summary_date) DO UPDATE SET
            activity_count = EXCLUDED.activity_count,
            workout_count = EXCLUDED.workout_count,
            exercise_minutes = EXCLUDED.exercise_minutes,
            distance_km = EXCLUDED.distance_km,
            steps = EXCLUDED.steps,
            calories_burned = EXCLUDED.calories_burned,
            calories_consumed = EXCLUDED.calories_consumed,
            hydration_ml = EXCLUDED.hydration_ml,
            sleep_hours = EXCLUDED.sleep_hours,
            updated_at = EXCLUDED.updated_at
    `, in.UserID, in.Date, in.ActivityCount, in.WorkoutCount, in.ExerciseMinutes, in.DistanceKm, in.Steps,
		in.CaloriesBurned, in.CaloriesConsumed, in.HydrationMl, in.SleepHours, updated.UTC())
	return err
}

func (s *summaries) Get(ctx context.Context, userID, date string) (*model.DailySummary, error) {
	var out model.DailySummary
	row := s.db.QueryRowContext(ctx, `
        SELECT user_id, summary_date, activity_count, workout_count, exercise_minutes, distance_km, steps,
            calories_burned, calories_consumed, hydration_ml, sleep_hours, updated_at
        FROM daily_summaries WHERE user_id=$1 AND summary_date=$2
    `, userID, date)
	if err := row.Scan(&out.UserID, &out.Date, &out.ActivityCount, &out.WorkoutCount, &out.ExerciseMinutes,
		&out.DistanceKm, &out.Steps, &out.CaloriesBurned, &out.CaloriesConsumed, &out.HydrationMl,
		&out.SleepHours, &out.UpdatedAt); err != nil {
		return nil, notFound(err, "summary "+date)
	}
	out.UpdatedAt = out.UpdatedAt.UTC()
	return &out, nil
}
