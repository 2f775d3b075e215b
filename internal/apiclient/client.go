package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"resume-dashboard/internal/shared/metrics"
	"resume-dashboard/internal/shared/telemetry"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "resume-dashboard/1.0"
	maxErrorBody     = 64 << 10
	refreshPath      = "/auth/refresh"
)

// TokenStore holds the credentials of one signed-in user.
type TokenStore interface {
	Tokens(ctx context.Context) (TokenPair, error)
	SaveTokens(ctx context.Context, tokens TokenPair) error
	ClearTokens(ctx context.Context) error
}

// Client talks to the remote tailoring service.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	limiter   *rate.Limiter
	userAgent string
	tokens    TokenStore
	refresh   *singleflight.Group
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithRateLimit caps outbound requests per second across all users.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		if perSecond > 0 && burst > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// New builds a Client for the given base URL (e.g. https://api.example.com/api/v1).
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("parse api base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("api base url must be http(s): %q", baseURL)
	}
	c := &Client{
		baseURL:   u,
		http:      &http.Client{Timeout: defaultTimeout},
		userAgent: defaultUserAgent,
		refresh:   &singleflight.Group{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// WithTokens returns a copy of c bound to one user's credentials.
func (c *Client) WithTokens(store TokenStore) *Client {
	clone := *c
	clone.tokens = store
	return &clone
}

type request struct {
	method string
	path   string
	query  url.Values
	body   any
	raw    []byte
	accept string
	// public requests carry no bearer token and never refresh.
	public bool
}

type response struct {
	status int
	header http.Header
	body   []byte
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	return c.doJSON(ctx, request{method: http.MethodGet, path: path, query: query}, out)
}

func (c *Client) sendJSON(ctx context.Context, method, path string, body, out any) error {
	return c.doJSON(ctx, request{method: method, path: path, body: body}, out)
}

func (c *Client) doJSON(ctx context.Context, req request, out any) error {
	if req.body != nil {
		payload, err := json.Marshal(req.body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", req.method, req.path, err)
		}
		req.raw = payload
	}
	resp, err := c.do(ctx, req)
	if err != nil {
		return err
	}
	if out == nil || resp.status == http.StatusNoContent || len(resp.body) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.body, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", req.method, req.path, err)
	}
	return nil
}

// do sends req. A 401 on an authenticated request refreshes the tokens once
// and retries once; a second 401 or a rejected refresh clears the credentials.
func (c *Client) do(ctx context.Context, req request) (response, error) {
	var access string
	if !req.public {
		tokens, err := c.currentTokens(ctx)
		if err != nil {
			return response{}, err
		}
		access = tokens.AccessToken
	}

	resp, err := c.send(ctx, req, access)
	if err != nil {
		return response{}, err
	}
	if resp.status != http.StatusUnauthorized || req.public {
		return resp, c.check(req, resp)
	}

	refreshed, err := c.refreshTokens(ctx, access)
	if err != nil {
		if !refreshRejected(err) {
			return response{}, err
		}
		c.clearTokens(ctx, req, "refresh_failed")
		return response{}, c.check(req, resp)
	}

	metrics.IncAPIRetry()
	resp, err = c.send(ctx, req, refreshed.AccessToken)
	if err != nil {
		return response{}, err
	}
	if resp.status == http.StatusUnauthorized {
		c.clearTokens(ctx, req, "retry_unauthorized")
	}
	return resp, c.check(req, resp)
}

func (c *Client) currentTokens(ctx context.Context) (TokenPair, error) {
	if c.tokens == nil {
		return TokenPair{}, ErrNoCredentials
	}
	tokens, err := c.tokens.Tokens(ctx)
	if err != nil {
		return TokenPair{}, err
	}
	if tokens.AccessToken == "" {
		return TokenPair{}, ErrNoCredentials
	}
	return tokens, nil
}

// refreshTokens exchanges the refresh token for a new pair. Concurrent
// callers that saw the same stale access token share a single exchange;
// a caller whose token was already rotated reuses the stored pair.
func (c *Client) refreshTokens(ctx context.Context, stale string) (TokenPair, error) {
	current, err := c.currentTokens(ctx)
	if err != nil {
		return TokenPair{}, err
	}
	if current.AccessToken != stale {
		return current, nil
	}
	if current.RefreshToken == "" {
		return TokenPair{}, ErrNoCredentials
	}

	// The exchange outlives any single caller: one caller going away must
	// not fail the others sharing it or leave the rotated pair unsaved.
	ch := c.refresh.DoChan(stale, func() (any, error) {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.refreshTimeout())
		defer cancel()

		metrics.IncAPIRefresh()
		pair, err := c.Refresh(rctx, current.RefreshToken)
		if err != nil {
			return TokenPair{}, err
		}
		if pair.RefreshToken == "" {
			pair.RefreshToken = current.RefreshToken
		}
		if err := c.tokens.SaveTokens(rctx, pair); err != nil {
			return TokenPair{}, fmt.Errorf("save refreshed tokens: %w", err)
		}
		return pair, nil
	})
	select {
	case <-ctx.Done():
		return TokenPair{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return TokenPair{}, res.Err
		}
		return res.Val.(TokenPair), nil
	}
}

func (c *Client) refreshTimeout() time.Duration {
	if c.http.Timeout > 0 {
		return c.http.Timeout
	}
	return defaultTimeout
}

// refreshRejected reports whether the remote definitively refused the
// refresh token. Cancellation and transport failures leave credentials alone.
func refreshRejected(err error) bool {
	if errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrNoCredentials) {
		return true
	}
	return StatusCode(err) == http.StatusForbidden
}

func (c *Client) clearTokens(ctx context.Context, req request, reason string) {
	if c.tokens == nil {
		return
	}
	if err := c.tokens.ClearTokens(ctx); err != nil {
		telemetry.Error("api.clear_tokens_failed", map[string]any{
			"path": req.path,
			"err":  err,
		})
		return
	}
	telemetry.Warn("api.credentials_cleared", map[string]any{
		"path":   req.path,
		"reason": reason,
	})
}

func (c *Client) send(ctx context.Context, req request, access string) (response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return response{}, err
		}
	}

	target := c.resolve(req.path, req.query)
	var body io.Reader
	if req.raw != nil {
		body = bytes.NewReader(req.raw)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method, target, body)
	if err != nil {
		return response{}, fmt.Errorf("build %s %s: %w", req.method, req.path, err)
	}
	if req.raw != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	accept := req.accept
	if accept == "" {
		accept = "application/json"
	}
	httpReq.Header.Set("Accept", accept)
	httpReq.Header.Set("User-Agent", c.userAgent)
	if access != "" {
		httpReq.Header.Set("Authorization", "Bearer "+access)
	}

	start := time.Now()
	httpResp, err := c.http.Do(httpReq)
	elapsed := time.Since(start)
	if err != nil {
		metrics.ObserveAPICall(0, elapsed)
		return response{}, fmt.Errorf("%s %s: %w", req.method, req.path, err)
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return response{}, fmt.Errorf("read %s %s: %w", req.method, req.path, err)
	}
	metrics.ObserveAPICall(httpResp.StatusCode, elapsed)
	return response{status: httpResp.StatusCode, header: httpResp.Header, body: data}, nil
}

func (c *Client) check(req request, resp response) error {
	if resp.status >= 200 && resp.status < 300 {
		return nil
	}
	body := resp.body
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	return &APIError{
		Status: resp.status,
		Detail: decodeDetail(body),
		Method: req.method,
		Path:   req.path,
	}
}

func (c *Client) resolve(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func (c *Client) download(ctx context.Context, path string, query url.Values, fallbackName string) (ExportFile, error) {
	resp, err := c.do(ctx, request{method: http.MethodGet, path: path, query: query, accept: "*/*"})
	if err != nil {
		return ExportFile{}, err
	}
	name := fallbackName
	if cd := resp.header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil && params["filename"] != "" {
			name = params["filename"]
		}
	}
	contentType := resp.header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return ExportFile{Filename: name, ContentType: contentType, Data: resp.body}, nil
}

func escape(id string) string {
	return url.PathEscape(id)
}

// memoryTokens is a TokenStore for callers that keep credentials in process,
// such as the command line tool.
type memoryTokens struct {
	mu     sync.Mutex
	tokens TokenPair
}

// NewMemoryTokenStore returns an in-process TokenStore seeded with tokens.
func NewMemoryTokenStore(tokens TokenPair) TokenStore {
	return &memoryTokens{tokens: tokens}
}

func (m *memoryTokens) Tokens(ctx context.Context) (TokenPair, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tokens, ctx.Err()
}

func (m *memoryTokens) SaveTokens(ctx context.Context, tokens TokenPair) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens = tokens
	return ctx.Err()
}

func (m *memoryTokens) ClearTokens(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens = TokenPair{}
	return ctx.Err()
}
