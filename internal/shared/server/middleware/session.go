package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"resume-dashboard/internal/apiclient"
	"resume-dashboard/internal/session"
	"resume-dashboard/internal/shared/server/respond"
)

const (
	// SessionCookie is the name of the dashboard session cookie.
	SessionCookie = "rd_session"

	userIDKey    = "userId"
	userEmailKey = "userEmail"
	userNameKey  = "userName"
	sessionIDKey = "sessionId"
	apiClientKey = "apiClient"
)

// Session resolves the session cookie, stores the identity in context and
// binds an API client to the session's credentials.
func Session(sessions *session.Service, api *apiclient.Client, secureCookie bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			return
		}

		raw := sessionToken(c)
		if raw == "" {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "sign in required", nil)
			return
		}
		sess, err := sessions.ResolveCookie(c.Request.Context(), raw)
		if err != nil {
			ClearSessionCookie(c, secureCookie)
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "session expired, sign in again", nil)
			return
		}

		SetIdentity(c, sess, api.WithTokens(sessions.TokenStore(sess.ID)))
		c.Next()
	}
}

// SetIdentity stores the session identity and its bound client in context.
func SetIdentity(c *gin.Context, sess session.Session, api *apiclient.Client) {
	c.Set(userIDKey, sess.UserID)
	c.Set(sessionIDKey, sess.ID)
	if sess.Email != "" {
		c.Set(userEmailKey, sess.Email)
	}
	if sess.FullName != "" {
		c.Set(userNameKey, sess.FullName)
	}
	c.Set(apiClientKey, api)
}

// sessionToken reads the cookie, falling back to a bearer header for
// non-browser callers.
func sessionToken(c *gin.Context) string {
	if v, err := c.Cookie(SessionCookie); err == nil && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return ""
}

// SetSessionCookie writes the session cookie.
func SetSessionCookie(c *gin.Context, value string, maxAgeSeconds int, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, value, maxAgeSeconds, "/", "", secure, true)
}

// ClearSessionCookie expires the session cookie.
func ClearSessionCookie(c *gin.Context, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, "", -1, "/", "", secure, true)
}

// UserIDFromContext fetches the user ID set by the session middleware.
func UserIDFromContext(c *gin.Context) string {
	return stringFromContext(c, userIDKey)
}

// UserEmailFromContext fetches the user email set by the session middleware.
func UserEmailFromContext(c *gin.Context) string {
	return stringFromContext(c, userEmailKey)
}

// UserNameFromContext fetches the user name set by the session middleware.
func UserNameFromContext(c *gin.Context) string {
	return stringFromContext(c, userNameKey)
}

// SessionIDFromContext fetches the session ID set by the session middleware.
func SessionIDFromContext(c *gin.Context) string {
	return stringFromContext(c, sessionIDKey)
}

// APIFromContext returns the API client bound to the caller's session.
func APIFromContext(c *gin.Context) *apiclient.Client {
	if c == nil {
		return nil
	}
	val, _ := c.Get(apiClientKey)
	api, _ := val.(*apiclient.Client)
	return api
}

func stringFromContext(c *gin.Context, key string) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(key)
	if s, ok := val.(string); ok {
		return s
	}
	return ""
}
