package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"resume-dashboard/internal/apiclient"
	"resume-dashboard/internal/forms"
	"resume-dashboard/internal/querycache"
	"resume-dashboard/internal/session"
	"resume-dashboard/internal/shared/server/middleware"
	"resume-dashboard/internal/shared/server/respond"
	"resume-dashboard/internal/shared/telemetry"
)

// Handler serves sign-in, sign-out and the current profile.
type Handler struct {
	Sessions     *session.Service
	API          *apiclient.Client
	Cache        *querycache.Cache
	SecureCookie bool
}

// NewHandler constructs a Handler. api must not carry credentials.
func NewHandler(sessions *session.Service, api *apiclient.Client, cache *querycache.Cache, secureCookie bool) *Handler {
	return &Handler{Sessions: sessions, API: api, Cache: cache, SecureCookie: secureCookie}
}

// RegisterPublicRoutes attaches the routes that work without a session.
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.POST("/auth/login", h.login)
	rg.POST("/auth/register", h.register)
}

// RegisterRoutes attaches the routes that need a session.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/auth/logout", h.logout)
	rg.GET("/me", h.me)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,max=128"`
}

type registerRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=128"`
	FullName string `json:"fullName" validate:"notblank,max=120"`
}

type meResponse struct {
	UserID string `json:"userId"`
	Email  string `json:"email,omitempty"`
	Name   string `json:"name,omitempty"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if !forms.Bind(c, &req) {
		return
	}
	res, err := h.API.Login(c.Request.Context(), strings.ToLower(strings.TrimSpace(req.Email)), req.Password)
	if err != nil {
		h.authFailed(c, err, "invalid email or password")
		return
	}
	h.begin(c, res, "password")
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if !forms.Bind(c, &req) {
		return
	}
	res, err := h.API.Register(c.Request.Context(), strings.ToLower(strings.TrimSpace(req.Email)), req.Password, strings.TrimSpace(req.FullName))
	if err != nil {
		h.authFailed(c, err, "registration rejected")
		return
	}
	h.begin(c, res, "register")
}

// begin records a session for res and sets the cookie.
func (h *Handler) begin(c *gin.Context, res apiclient.AuthResult, method string) {
	if _, err := h.start(c, res, method); err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to start session", nil)
		return
	}
	respond.JSON(c, http.StatusOK, meResponse{UserID: res.User.ID, Email: res.User.Email, Name: res.User.FullName})
}

func (h *Handler) start(c *gin.Context, res apiclient.AuthResult, method string) (session.Session, error) {
	sess, cookie, err := h.Sessions.Start(c.Request.Context(), res.User, res.TokenPair)
	if err != nil {
		telemetry.Error("auth.session_start_failed", map[string]any{
			"user_id": res.User.ID,
			"method":  method,
			"err":     err,
		})
		return session.Session{}, err
	}
	middleware.SetSessionCookie(c, cookie, int(h.Sessions.Signer.TTL().Seconds()), h.SecureCookie)
	telemetry.Info("auth.signed_in", map[string]any{
		"user_id":    sess.UserID,
		"session_id": sess.ID,
		"method":     method,
	})
	return sess, nil
}

func (h *Handler) authFailed(c *gin.Context, err error, message string) {
	switch apiclient.StatusCode(err) {
	case http.StatusUnauthorized, http.StatusForbidden:
		respond.Error(c, http.StatusUnauthorized, "invalid_credentials", message, nil)
	case http.StatusConflict:
		respond.Error(c, http.StatusConflict, "conflict", apiclient.Detail(err), nil)
	default:
		respond.Remote(c, err, message)
	}
}

// logout revokes the remote refresh token, ends the session and drops
// everything cached for the user. Remote failures do not keep the user
// signed in.
func (h *Handler) logout(c *gin.Context) {
	user := middleware.UserIDFromContext(c)
	sid := middleware.SessionIDFromContext(c)

	if api := middleware.APIFromContext(c); api != nil {
		if err := api.Logout(c.Request.Context()); err != nil && !errors.Is(err, context.Canceled) {
			telemetry.Warn("auth.remote_logout_failed", map[string]any{"user_id": user, "err": err})
		}
	}
	if err := h.Sessions.End(c.Request.Context(), sid); err != nil {
		telemetry.Warn("auth.session_end_failed", map[string]any{"session_id": sid, "err": err})
	}
	h.Cache.InvalidateUser(user)
	middleware.ClearSessionCookie(c, h.SecureCookie)
	respond.NoContent(c)
}

func (h *Handler) me(c *gin.Context) {
	user := middleware.UserIDFromContext(c)
	if user == "" {
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "sign in required", nil)
		return
	}
	api := middleware.APIFromContext(c)
	profile, err := querycache.Fetch(c.Request.Context(), h.Cache, user, querycache.K("me"), func(ctx context.Context) (apiclient.User, error) {
		return api.Me(ctx)
	})
	if err != nil {
		if errors.Is(err, apiclient.ErrUnauthorized) || errors.Is(err, apiclient.ErrNoCredentials) {
			respond.Remote(c, err, "failed to load profile")
			return
		}
		// The session already carries the profile it was started with.
		telemetry.Warn("auth.me_fallback", map[string]any{"user_id": user, "err": err})
		respond.OK(c, meResponse{
			UserID: user,
			Email:  middleware.UserEmailFromContext(c),
			Name:   middleware.UserNameFromContext(c),
		})
		return
	}
	respond.OK(c, meResponse{UserID: profile.ID, Email: profile.Email, Name: profile.FullName})
}
