package session

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a new session.
func (r *PGRepo) Create(ctx context.Context, s Session) error {
	const query = `
INSERT INTO dashboard_sessions (
    id,
    user_id,
    email,
    full_name,
    access_token,
    refresh_token,
    created_at,
    updated_at,
    expires_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	var fullName sql.NullString
	if s.FullName != "" {
		fullName = sql.NullString{String: s.FullName, Valid: true}
	}
	_, err := r.DB.ExecContext(ctx, query,
		s.ID,
		s.UserID,
		s.Email,
		fullName,
		s.AccessToken,
		s.RefreshToken,
		s.CreatedAt,
		s.UpdatedAt,
		s.ExpiresAt,
	)
	return err
}

// Get fetches a session by id.
func (r *PGRepo) Get(ctx context.Context, id string) (Session, error) {
	const query = `
SELECT id, user_id, email, full_name, access_token, refresh_token, created_at, updated_at, expires_at, revoked_at
FROM dashboard_sessions
WHERE id = $1`
	var s Session
	var fullName sql.NullString
	var access sql.NullString
	var refresh sql.NullString
	var revokedAt sql.NullTime
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&s.ID,
		&s.UserID,
		&s.Email,
		&fullName,
		&access,
		&refresh,
		&s.CreatedAt,
		&s.UpdatedAt,
		&s.ExpiresAt,
		&revokedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, ErrNotFound
		}
		return Session{}, err
	}
	if fullName.Valid {
		s.FullName = fullName.String
	}
	if access.Valid {
		s.AccessToken = access.String
	}
	if refresh.Valid {
		s.RefreshToken = refresh.String
	}
	if revokedAt.Valid {
		s.RevokedAt = &revokedAt.Time
	}
	return s, nil
}

// UpdateTokens stores a rotated token pair.
func (r *PGRepo) UpdateTokens(ctx context.Context, id, accessToken, refreshToken string, updatedAt time.Time) error {
	const query = `
UPDATE dashboard_sessions
SET access_token = $1, refresh_token = $2, updated_at = $3
WHERE id = $4 AND revoked_at IS NULL`
	res, err := r.DB.ExecContext(ctx, query, accessToken, refreshToken, updatedAt, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Revoke marks a session revoked and wipes its tokens.
func (r *PGRepo) Revoke(ctx context.Context, id string, revokedAt time.Time) error {
	const query = `
UPDATE dashboard_sessions
SET revoked_at = COALESCE(revoked_at, $1), access_token = NULL, refresh_token = NULL, updated_at = $1
WHERE id = $2`
	res, err := r.DB.ExecContext(ctx, query, revokedAt, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteExpired removes sessions that expired or were revoked before the cutoff.
func (r *PGRepo) DeleteExpired(ctx context.Context, before time.Time) (int, error) {
	const query = `
DELETE FROM dashboard_sessions
WHERE expires_at < $1 OR revoked_at < $1`
	res, err := r.DB.ExecContext(ctx, query, before)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

var _ Repo = (*PGRepo)(nil)
