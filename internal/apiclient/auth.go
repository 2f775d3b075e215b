package apiclient

import (
	"context"
	"net/http"
)

// Login exchanges email and password for tokens.
func (c *Client) Login(ctx context.Context, email, password string) (AuthResult, error) {
	var out AuthResult
	err := c.doJSON(ctx, request{
		method: http.MethodPost,
		path:   "/auth/login",
		body:   map[string]string{"email": email, "password": password},
		public: true,
	}, &out)
	return out, err
}

// Register creates an account and returns its first tokens.
func (c *Client) Register(ctx context.Context, email, password, fullName string) (AuthResult, error) {
	var out AuthResult
	err := c.doJSON(ctx, request{
		method: http.MethodPost,
		path:   "/auth/register",
		body: map[string]string{
			"email":     email,
			"password":  password,
			"full_name": fullName,
		},
		public: true,
	}, &out)
	return out, err
}

// LoginWithGoogle exchanges a Google ID token for service tokens.
func (c *Client) LoginWithGoogle(ctx context.Context, idToken string) (AuthResult, error) {
	var out AuthResult
	err := c.doJSON(ctx, request{
		method: http.MethodPost,
		path:   "/auth/google",
		body:   map[string]string{"id_token": idToken},
		public: true,
	}, &out)
	return out, err
}

// Refresh exchanges a refresh token for a new token pair.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	var out TokenPair
	err := c.doJSON(ctx, request{
		method: http.MethodPost,
		path:   refreshPath,
		body:   map[string]string{"refresh_token": refreshToken},
		public: true,
	}, &out)
	return out, err
}

// Me returns the signed-in user's profile.
func (c *Client) Me(ctx context.Context) (User, error) {
	var out User
	err := c.getJSON(ctx, "/auth/me", nil, &out)
	return out, err
}

// Logout revokes the refresh token on the remote side.
func (c *Client) Logout(ctx context.Context) error {
	tokens, err := c.currentTokens(ctx)
	if err != nil {
		return err
	}
	return c.doJSON(ctx, request{
		method: http.MethodPost,
		path:   "/auth/logout",
		body:   map[string]string{"refresh_token": tokens.RefreshToken},
	}, nil)
}
