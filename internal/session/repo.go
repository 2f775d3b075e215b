package session

import (
	"context"
	"time"
)

// Repo persists sessions.
type Repo interface {
	Create(ctx context.Context, s Session) error
	Get(ctx context.Context, id string) (Session, error)
	UpdateTokens(ctx context.Context, id, accessToken, refreshToken string, updatedAt time.Time) error
	Revoke(ctx context.Context, id string, revokedAt time.Time) error
	DeleteExpired(ctx context.Context, before time.Time) (int, error)
}
