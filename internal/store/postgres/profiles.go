package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gab-cat/cold-start-sub000/internal/model"
)

type profiles struct{ db *sql.DB }

func (p *profiles) Create(ctx context.Context, in model.UserProfile) (*model.UserProfile, error) {
	health, err := json.Marshal(in.Health)
	if err != nil {
		return nil, err
	}
	prefs, err := json.Marshal(in.Preferences)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if in.CreatedAt.IsZero() {
		in.CreatedAt = now
	}
	in.UpdatedAt = now

	tx, err := p.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
        INSERT INTO user_profiles (user_id, display_name, health, preferences, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6)
    `, in.UserID, in.DisplayName, health, prefs, in.CreatedAt.UTC(), in.UpdatedAt); err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("profile %s: %w", in.UserID, model.ErrConflict)
		}
		return nil, err
	}
	for platform, ext := range in.MessagingIDs {
		if _, err := tx.ExecContext(ctx, `
            INSERT INTO messaging_identities (platform, external_id, user_id) VALUES ($1,$2,$3)
        `, platform, ext, in.UserID); err != nil {
			if isUniqueViolation(err) {
				return nil, fmt.Errorf("messaging id %s/%s: %w", platform, ext, model.ErrConflict)
			}
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	out := in
	return &out, nil
}

func (p *profiles) Get(ctx context.Context, userID string) (*model.UserProfile, error) {
	var out model.UserProfile
	var health, prefs []byte
	var touched *time.Time
	row := p.db.QueryRowContext(ctx, `
        SELECT user_id, display_name, health, preferences, created_at, updated_at, context_touched_at
        FROM user_profiles WHERE user_id=$1
    `, userID)
	if err := row.Scan(&out.UserID, &out.DisplayName, &health, &prefs, &out.CreatedAt, &out.UpdatedAt, &touched); err != nil {
		return nil, notFound(err, "profile "+userID)
	}
	if err := json.Unmarshal(health, &out.Health); err != nil {
		return nil, fmt.Errorf("decode health: %w", err)
	}
	if err := json.Unmarshal(prefs, &out.Preferences); err != nil {
		return nil, fmt.Errorf("decode preferences: %w", err)
	}
	out.CreatedAt = out.CreatedAt.UTC()
	out.UpdatedAt = out.UpdatedAt.UTC()
	out.ContextTouchedAt = utcPtr(touched)

	ids, err := p.messagingIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	out.MessagingIDs = ids
	return &out, nil
}

func (p *profiles) messagingIDs(ctx context.Context, userID string) (map[string]string, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT platform, external_id FROM messaging_identities WHERE user_id=$1`, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var ids map[string]string
	for rows.Next() {
		var platform, ext string
		if err := rows.Scan(&platform, &ext); err != nil {
			return nil, err
		}
		if ids == nil {
			ids = make(map[string]string)
		}
		ids[platform] = ext
	}
	return ids, rows.Err()
}

func (p *profiles) GetByMessagingID(ctx context.Context, platform, externalID string) (*model.UserProfile, error) {
	var userID string
	row := p.db.QueryRowContext(ctx, `
        SELECT user_id FROM messaging_identities WHERE platform=$1 AND external_id=$2
    `, platform, externalID)
	if err := row.Scan(&userID); err != nil {
		return nil, notFound(err, "messaging id "+platform+"/"+externalID)
	}
	return p.Get(ctx, userID)
}

func (p *profiles) Update(ctx context.Context, in model.UserProfile) (*model.UserProfile, error) {
	health, err := json.Marshal(in.Health)
	if err != nil {
		return nil, err
	}
	prefs, err := json.Marshal(in.Preferences)
	if err != nil {
		return nil, err
	}
	res, err := p.db.ExecContext(ctx, `
        UPDATE user_profiles SET display_name=$2, health=$3, preferences=$4, updated_at=$5
        WHERE user_id=$1
    `, in.UserID, in.DisplayName, health, prefs, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("profile %s: %w", in.UserID, model.ErrNotFound)
	}
	return p.Get(ctx, in.UserID)
}

func (p *profiles) TouchContext(ctx context.Context, userID string, at time.Time) error {
	res, err := p.db.ExecContext(ctx, `UPDATE user_profiles SET context_touched_at=$2 WHERE user_id=$1`, userID, at.UTC())
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("profile %s: %w", userID, model.ErrNotFound)
	}
	return nil
}
