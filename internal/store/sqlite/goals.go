package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gab-cat/cold-start-sub000/internal/model"
	"github.com/gab-cat/cold-start-sub000/internal/store"
)

type goals struct{ db *sql.DB }

const goalColumns = `goal_id, user_id, goal_type, target, unit, current_progress, status, milestone,
        agent_adjustable, created_by, provenance, created_at, updated_at`

func (g *goals) Create(ctx context.Context, in model.Goal) (*model.Goal, error) {
	if in.ID == "" {
		in.ID = uuid.New().String()
	}
	if in.CreatedAt.IsZero() {
		in.CreatedAt = time.Now()
	}
	in.CreatedAt = in.CreatedAt.UTC()
	in.UpdatedAt = in.CreatedAt
	prov, err := encodeProvenance(in.Provenance)
	if err != nil {
		return nil, err
	}
	msgs, err := store.GoalOutbox(in)
	if err != nil {
		return nil, err
	}

	tx, err := g.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
        INSERT INTO goals (`+goalColumns+`)
        VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)
    `, in.ID, in.UserID, string(in.Type), in.Target, in.Unit, in.CurrentProgress, string(in.Status), in.Milestone,
		in.AgentAdjustable, string(in.CreatedBy), prov, ts(in.CreatedAt), ts(in.UpdatedAt)); err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("goal %s: %w", in.ID, model.ErrConflict)
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

func (g *goals) Get(ctx context.Context, userID, goalID string) (*model.Goal, error) {
	row := g.db.QueryRowContext(ctx, `SELECT `+goalColumns+` FROM goals WHERE user_id=? AND goal_id=?`, userID, goalID)
	out, err := scanGoal(row)
	if err != nil {
		return nil, notFound(err, "goal "+goalID)
	}
	return out, nil
}

func (g *goals) List(ctx context.Context, userID string, statuses ...model.GoalStatus) ([]model.Goal, error) {
	q := `SELECT ` + goalColumns + ` FROM goals WHERE user_id=?`
	args := []any{userID}
	if len(statuses) > 0 {
		q += ` AND status IN (` + placeholders(len(statuses)) + `)`
		for _, s := range statuses {
			args = append(args, string(s))
		}
	}
	q += ` ORDER BY created_at ASC, goal_id ASC`
	rows, err := g.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []model.Goal
	for rows.Next() {
		goal, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *goal)
	}
	return res, rows.Err()
}

func (g *goals) Update(ctx context.Context, in model.Goal) error {
	prov, err := encodeProvenance(in.Provenance)
	if err != nil {
		return err
	}
	updated := in.UpdatedAt
	if updated.IsZero() {
		updated = time.Now()
	}
	res, err := g.db.ExecContext(ctx, `
        UPDATE goals SET target=?, unit=?, current_progress=?, status=?, milestone=?,
            agent_adjustable=?, provenance=?, updated_at=?
        WHERE user_id=? AND goal_id=?
    `, in.Target, in.Unit, in.CurrentProgress, string(in.Status), in.Milestone, in.AgentAdjustable, prov,
		ts(updated), in.UserID, in.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("goal %s: %w", in.ID, model.ErrNotFound)
	}
	return nil
}

func scanGoal(s scanner) (*model.Goal, error) {
	var out model.Goal
	var goalType, status, createdBy string
	var prov sql.NullString
	var created, updated int64
	if err := s.Scan(&out.ID, &out.UserID, &goalType, &out.Target, &out.Unit, &out.CurrentProgress, &status,
		&out.Milestone, &out.AgentAdjustable, &createdBy, &prov, &created, &updated); err != nil {
		return nil, err
	}
	out.Type = model.GoalType(goalType)
	out.Status = model.GoalStatus(status)
	out.CreatedBy = model.Actor(createdBy)
	out.CreatedAt, out.UpdatedAt = fromTS(created), fromTS(updated)
	if prov.Valid && prov.String != "" {
		var p model.GoalProvenance
		if err := json.Unmarshal([]byte(prov.String), &p); err != nil {
			return nil, fmt.Errorf("decode provenance: %w", err)
		}
		out.Provenance = &p
	}
	return &out, nil
}

func encodeProvenance(p *model.GoalProvenance) (any, error) {
	if p == nil {
		return nil, nil
	}
	b, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}
