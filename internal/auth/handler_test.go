package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-dashboard/internal/apiclient"
	"resume-dashboard/internal/querycache"
	"resume-dashboard/internal/session"
	sharedauth "resume-dashboard/internal/shared/auth"
	"resume-dashboard/internal/shared/server/middleware"
)

type remoteServer struct {
	mu         sync.Mutex
	loggedOut  []string
	lastBearer string
}

func (rs *remoteServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	rs.lastBearer = r.Header.Get("Authorization")
	switch r.URL.Path {
	case "/api/v1/auth/login":
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["password"] != "correct horse" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail":"Incorrect email or password"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(apiclient.AuthResult{
			TokenPair: apiclient.TokenPair{AccessToken: "access-1", RefreshToken: "refresh-1"},
			User:      apiclient.User{ID: "u1", Email: body["email"], FullName: "Jane Doe"},
		})
	case "/api/v1/auth/register":
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"detail":"Email already registered"}`))
	case "/api/v1/auth/me":
		_ = json.NewEncoder(w).Encode(apiclient.User{ID: "u1", Email: "jane@example.com", FullName: "Jane D."})
	case "/api/v1/auth/logout":
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		rs.loggedOut = append(rs.loggedOut, body["refresh_token"])
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail":"Not Found"}`))
	}
}

func newTestRouter(t *testing.T, rs *remoteServer) (*gin.Engine, *session.Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	srv := httptest.NewServer(rs)
	t.Cleanup(srv.Close)

	client, err := apiclient.New(srv.URL + "/api/v1")
	require.NoError(t, err)
	signer, err := sharedauth.NewSigner("test-secret", "dev", time.Hour)
	require.NoError(t, err)
	sessions := session.NewService(session.NewMemoryRepo(), signer)
	h := NewHandler(sessions, client, querycache.New(time.Minute), false)

	r := gin.New()
	public := r.Group("/api/v1")
	h.RegisterPublicRoutes(public)
	private := r.Group("/api/v1")
	private.Use(middleware.Session(sessions, client, false))
	h.RegisterRoutes(private)
	return r, sessions
}

func post(r http.Handler, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func sessionCookie(t *testing.T, resp *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range resp.Result().Cookies() {
		if c.Name == middleware.SessionCookie {
			return c
		}
	}
	t.Fatalf("no %s cookie in response", middleware.SessionCookie)
	return nil
}

func TestLoginMeLogout(t *testing.T) {
	rs := &remoteServer{}
	r, _ := newTestRouter(t, rs)

	resp := post(r, "/api/v1/auth/login", `{"email":"Jane@Example.com","password":"correct horse"}`)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	cookie := sessionCookie(t, resp)
	assert.True(t, cookie.HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	req.AddCookie(cookie)
	meResp := httptest.NewRecorder()
	r.ServeHTTP(meResp, req)
	require.Equal(t, http.StatusOK, meResp.Code, meResp.Body.String())
	var me meResponse
	require.NoError(t, json.Unmarshal(meResp.Body.Bytes(), &me))
	assert.Equal(t, "Jane D.", me.Name)
	assert.Equal(t, "Bearer access-1", rs.lastBearer)

	resp = post(r, "/api/v1/auth/logout", "", cookie)
	require.Equal(t, http.StatusNoContent, resp.Code)
	assert.Equal(t, []string{"refresh-1"}, rs.loggedOut)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	req.AddCookie(cookie)
	meResp = httptest.NewRecorder()
	r.ServeHTTP(meResp, req)
	assert.Equal(t, http.StatusUnauthorized, meResp.Code)
}

func TestLoginWrongPassword(t *testing.T) {
	r, _ := newTestRouter(t, &remoteServer{})
	resp := post(r, "/api/v1/auth/login", `{"email":"jane@example.com","password":"nope"}`)
	require.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Contains(t, resp.Body.String(), "invalid_credentials")
	assert.Empty(t, resp.Result().Cookies())
}

func TestLoginValidation(t *testing.T) {
	r, _ := newTestRouter(t, &remoteServer{})
	resp := post(r, "/api/v1/auth/login", `{"email":"not-an-email","password":""}`)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestRegisterConflict(t *testing.T) {
	r, _ := newTestRouter(t, &remoteServer{})
	resp := post(r, "/api/v1/auth/register", `{"email":"jane@example.com","password":"longenough","fullName":"Jane"}`)
	require.Equal(t, http.StatusConflict, resp.Code)
	assert.Contains(t, resp.Body.String(), "Email already registered")
}

func TestMeWithoutSession(t *testing.T) {
	r, _ := newTestRouter(t, &remoteServer{})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestStateStoreConsumesOnce(t *testing.T) {
	s := newStateStore()
	s.put("abc", time.Now().Add(time.Minute))
	assert.True(t, s.consume("abc"))
	assert.False(t, s.consume("abc"))

	s.put("old", time.Now().Add(-time.Second))
	assert.False(t, s.consume("old"))
}

func TestGoogleStartNotConfigured(t *testing.T) {
	gin.SetMode(gin.TestMode)
	g := NewGoogleService(&Handler{}, "", "", "", "http://localhost:5173")
	r := gin.New()
	g.RegisterRoutes(r.Group("/api/v1"))

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/auth/google/start", nil))
	assert.Equal(t, http.StatusInternalServerError, resp.Code)
}

func TestGoogleStartRedirects(t *testing.T) {
	gin.SetMode(gin.TestMode)
	g := NewGoogleService(&Handler{}, "client", "secret", "http://localhost:8080/api/v1/auth/google/callback", "http://localhost:5173")
	r := gin.New()
	g.RegisterRoutes(r.Group("/api/v1"))

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/auth/google/start", nil))
	require.Equal(t, http.StatusFound, resp.Code)
	loc := resp.Header().Get("Location")
	assert.Contains(t, loc, "accounts.google.com")
	assert.Contains(t, loc, "scope=openid+email+profile")
}

func TestWithStatus(t *testing.T) {
	got, err := withStatus("http://localhost:5173/app?x=1", "signed_in")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:5173/app?auth=signed_in&x=1", got)
}
