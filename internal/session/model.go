package session

import (
	"errors"
	"time"
)

var (
	ErrNotFound     = errors.New("session not found")
	ErrExpired      = errors.New("session expired")
	ErrInvalidInput = errors.New("invalid input")
)

// Session links a dashboard cookie to one user's remote API credentials.
type Session struct {
	ID           string
	UserID       string
	Email        string
	FullName     string
	AccessToken  string
	RefreshToken string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	ExpiresAt    time.Time
	RevokedAt    *time.Time
}

// Active reports whether the session can still be used at now.
func (s Session) Active(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt) && s.AccessToken != ""
}
