package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"resume-dashboard/internal/apiclient"
	"resume-dashboard/internal/shared/auth"
	"resume-dashboard/internal/shared/telemetry"
)

// Service manages dashboard sessions and the remote credentials they hold.
type Service struct {
	Repo   Repo
	Signer *auth.Signer
	now    func() time.Time
}

// NewService constructs a Service. Session lifetime follows the signer's TTL.
func NewService(repo Repo, signer *auth.Signer) *Service {
	return &Service{Repo: repo, Signer: signer, now: time.Now}
}

// Start records a new session for user and returns it with its signed cookie value.
func (s *Service) Start(ctx context.Context, user apiclient.User, tokens apiclient.TokenPair) (Session, string, error) {
	if strings.TrimSpace(user.ID) == "" || tokens.AccessToken == "" {
		return Session{}, "", ErrInvalidInput
	}
	now := s.now().UTC()
	sess := Session{
		ID:           uuid.NewString(),
		UserID:       user.ID,
		Email:        user.Email,
		FullName:     user.FullName,
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		CreatedAt:    now,
		UpdatedAt:    now,
		ExpiresAt:    now.Add(s.Signer.TTL()),
	}
	if err := s.Repo.Create(ctx, sess); err != nil {
		return Session{}, "", fmt.Errorf("create session: %w", err)
	}
	cookie, err := s.Signer.Sign(sess.ID, sess.UserID)
	if err != nil {
		return Session{}, "", err
	}
	return sess, cookie, nil
}

// Resolve returns an active session by id.
func (s *Service) Resolve(ctx context.Context, id string) (Session, error) {
	if strings.TrimSpace(id) == "" {
		return Session{}, ErrNotFound
	}
	sess, err := s.Repo.Get(ctx, id)
	if err != nil {
		return Session{}, err
	}
	if !sess.Active(s.now()) {
		return Session{}, ErrExpired
	}
	return sess, nil
}

// ResolveCookie verifies a cookie value and returns its active session.
func (s *Service) ResolveCookie(ctx context.Context, raw string) (Session, error) {
	claims, err := s.Signer.Verify(raw)
	if err != nil {
		return Session{}, err
	}
	sess, err := s.Resolve(ctx, claims.SessionID)
	if err != nil {
		return Session{}, err
	}
	if sess.UserID != claims.UserID {
		return Session{}, auth.ErrInvalidToken
	}
	return sess, nil
}

// End revokes the session. Ending an unknown session is not an error.
func (s *Service) End(ctx context.Context, id string) error {
	err := s.Repo.Revoke(ctx, id, s.now().UTC())
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}

// Sweep deletes sessions that ended before now.
func (s *Service) Sweep(ctx context.Context) (int, error) {
	return s.Repo.DeleteExpired(ctx, s.now().UTC())
}

// RunJanitor sweeps ended sessions every interval until ctx is done.
func (s *Service) RunJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.Sweep(ctx)
			if err != nil {
				telemetry.Error("session.sweep_failed", map[string]any{"err": err})
				continue
			}
			if n > 0 {
				telemetry.Info("session.sweep", map[string]any{"removed": n})
			}
		}
	}
}

// TokenStore exposes the session's credentials to the API client.
// Clearing them revokes the session.
func (s *Service) TokenStore(id string) apiclient.TokenStore {
	return &tokenStore{svc: s, id: id}
}

type tokenStore struct {
	svc *Service
	id  string
}

func (t *tokenStore) Tokens(ctx context.Context) (apiclient.TokenPair, error) {
	sess, err := t.svc.Resolve(ctx, t.id)
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrExpired) {
			return apiclient.TokenPair{}, nil
		}
		return apiclient.TokenPair{}, err
	}
	return apiclient.TokenPair{AccessToken: sess.AccessToken, RefreshToken: sess.RefreshToken}, nil
}

func (t *tokenStore) SaveTokens(ctx context.Context, tokens apiclient.TokenPair) error {
	return t.svc.Repo.UpdateTokens(ctx, t.id, tokens.AccessToken, tokens.RefreshToken, t.svc.now().UTC())
}

func (t *tokenStore) ClearTokens(ctx context.Context) error {
	return t.svc.End(ctx, t.id)
}
