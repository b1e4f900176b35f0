package sqlite

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
	in.CreatedAt = in.CreatedAt.UTC()
	in.UpdatedAt = now

	tx, err := p.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
        INSERT INTO user_profiles (user_id, display_name, health, preferences, created_at, updated_at)
        VALUES (?,?,?,?,?,?)
    `, in.UserID, in.DisplayName, string(health), string(prefs), ts(in.CreatedAt), ts(in.UpdatedAt)); err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("profile %s: %w", in.UserID, model.ErrConflict)
		}
		return nil, err
	}
	for platform, ext := range in.MessagingIDs {
		if _, err := tx.ExecContext(ctx, `
            INSERT INTO messaging_identities (platform, external_id, user_id) VALUES (?,?,?)
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
	var health, prefs string
	var created, updated int64
	var touched sql.NullInt64
	row := p.db.QueryRowContext(ctx, `
        SELECT user_id, display_name, health, preferences, created_at, updated_at, context_touched_at
        FROM user_profiles WHERE user_id=?
    `, userID)
	if err := row.Scan(&out.UserID, &out.DisplayName, &health, &prefs, &created, &updated, &touched); err != nil {
		return nil, notFound(err, "profile "+userID)
	}
	if err := json.Unmarshal([]byte(health), &out.Health); err != nil {
		return nil, fmt.Errorf("decode health: %w", err)
	}
	if err := json.Unmarshal([]byte(prefs), &out.Preferences); err != nil {
		return nil, fmt.Errorf("decode preferences: %w", err)
	}
	out.CreatedAt, out.UpdatedAt = fromTS(created), fromTS(updated)
	out.ContextTouchedAt = fromNullTS(touched)

	rows, err := p.db.QueryContext(ctx, `SELECT platform, external_id FROM messaging_identities WHERE user_id=?`, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var platform, ext string
		if err := rows.Scan(&platform, &ext); err != nil {
			return nil, err
		}
		if out.MessagingIDs == nil {
			out.MessagingIDs = make(map[string]string)
		}
		out.MessagingIDs[platform] = ext
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &out, nil
}

func (p *profiles) GetByMessagingID(ctx context.Context, platform, externalID string) (*model.UserProfile, error) {
	var userID string
	row := p.db.QueryRowContext(ctx, `SELECT user_id FROM messaging_identities WHERE platform=? AND external_id=?`, platform, externalID)
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
        UPDATE user_profiles SET display_name=?, health=?, preferences=?, updated_at=? WHERE user_id=?
    `, in.DisplayName, string(health), string(prefs), ts(time.Now()), in.UserID)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("profile %s: %w", in.UserID, model.ErrNotFound)
	}
	return p.Get(ctx, in.UserID)
}

func (p *profiles) TouchContext(ctx context.Context, userID string, at time.Time) error {
	res, err := p.db.ExecContext(ctx, `UPDATE user_profiles SET context_touched_at=? WHERE user_id=?`, ts(at), userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("profile %s: %w", userID, model.ErrNotFound)
	}
	return nil
}
