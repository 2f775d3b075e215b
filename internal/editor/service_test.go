package editor

import (
	"context"
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
	"resume-dashboard/internal/shared/server/middleware"
)

type fakeRemote struct {
	mu      sync.Mutex
	resume  apiclient.Resume
	gets    int
	updates []apiclient.ResumeUpdate
	saveErr error
}

func (f *fakeRemote) GetResume(ctx context.Context, id string) (apiclient.Resume, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	if id != f.resume.ID {
		return apiclient.Resume{}, &apiclient.APIError{Status: 404, Detail: "Resume not found"}
	}
	return f.resume, nil
}

func (f *fakeRemote) UpdateResume(ctx context.Context, id string, in apiclient.ResumeUpdate) (apiclient.Resume, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, in)
	if f.saveErr != nil {
		return apiclient.Resume{}, f.saveErr
	}
	if in.Style != nil {
		style := *in.Style
		f.resume.Style = &style
	}
	f.resume.SectionOrder = in.SectionOrder
	f.resume.UpdatedAt = f.resume.UpdatedAt.Add(time.Minute)
	return f.resume, nil
}

func TestServiceSaveSendsVisibleOrder(t *testing.T) {
	ctx := context.Background()
	remote := &fakeRemote{resume: sampleResume()}
	cache := querycache.New(time.Minute)
	svc := NewService(cache, time.Hour)

	_, err := svc.Edit(ctx, remote, "u1", "r1", func(e *Editor) error { return e.ToggleSection("education") })
	require.NoError(t, err)

	v, err := svc.Save(ctx, remote, "u1", "r1")
	require.NoError(t, err)
	assert.Equal(t, StatusClean, v.Status)
	require.Len(t, remote.updates, 1)
	assert.Equal(t, []string{"summary", "experience", "skills"}, remote.updates[0].SectionOrder)

	// the saved resume is served from the cache
	_, err = svc.Open(ctx, remote, "u1", "r1")
	require.NoError(t, err)
	assert.Equal(t, 1, remote.gets)
}

func TestServiceSaveWhenCleanIsNoop(t *testing.T) {
	remote := &fakeRemote{resume: sampleResume()}
	svc := NewService(querycache.New(time.Minute), time.Hour)

	v, err := svc.Save(context.Background(), remote, "u1", "r1")
	require.NoError(t, err)
	assert.Equal(t, StatusClean, v.Status)
	assert.Empty(t, remote.updates)
}

func TestServiceSaveFailureIsReported(t *testing.T) {
	ctx := context.Background()
	remote := &fakeRemote{resume: sampleResume(), saveErr: &apiclient.APIError{Status: 500, Detail: "boom"}}
	svc := NewService(querycache.New(time.Minute), time.Hour)

	_, err := svc.Edit(ctx, remote, "u1", "r1", func(e *Editor) error { return e.MoveSection("skills", -1) })
	require.NoError(t, err)

	v, err := svc.Save(ctx, remote, "u1", "r1")
	require.Error(t, err)
	assert.Equal(t, StatusFailed, v.Status)
	assert.Equal(t, "boom", v.LastError)

	v, err = svc.Open(ctx, remote, "u1", "r1")
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, v.Status)
}

func TestServiceOpenRebuildsCleanEditorOnNewVersion(t *testing.T) {
	ctx := context.Background()
	remote := &fakeRemote{resume: sampleResume()}
	cache := querycache.New(time.Minute)
	svc := NewService(cache, time.Hour)

	_, err := svc.Open(ctx, remote, "u1", "r1")
	require.NoError(t, err)

	remote.mu.Lock()
	remote.resume.SectionOrder = []string{"skills", "summary"}
	remote.resume.UpdatedAt = remote.resume.UpdatedAt.Add(time.Hour)
	remote.mu.Unlock()
	cache.Invalidate("u1", "resume", "r1")

	v, err := svc.Open(ctx, remote, "u1", "r1")
	require.NoError(t, err)
	assert.Equal(t, []string{"skills", "summary"}, v.Order)
}

func TestServiceOpenKeepsDirtyEditor(t *testing.T) {
	ctx := context.Background()
	remote := &fakeRemote{resume: sampleResume()}
	cache := querycache.New(time.Minute)
	svc := NewService(cache, time.Hour)

	_, err := svc.Edit(ctx, remote, "u1", "r1", func(e *Editor) error { return e.ToggleSection("summary") })
	require.NoError(t, err)

	remote.mu.Lock()
	remote.resume.UpdatedAt = remote.resume.UpdatedAt.Add(time.Hour)
	remote.mu.Unlock()
	cache.Invalidate("u1", "resume", "r1")

	v, err := svc.Open(ctx, remote, "u1", "r1")
	require.NoError(t, err)
	assert.Equal(t, StatusDirty, v.Status)
	assert.NotContains(t, v.Order, "summary")
}

func newTestRouter(t *testing.T, remote *fakeRemote) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/v1/resumes/r1":
			res, _ := remote.GetResume(r.Context(), "r1")
			_ = json.NewEncoder(w).Encode(res)
		case r.Method == http.MethodPatch && r.URL.Path == "/api/v1/resumes/r1":
			var in apiclient.ResumeUpdate
			_ = json.NewDecoder(r.Body).Decode(&in)
			res, _ := remote.UpdateResume(r.Context(), "r1", in)
			_ = json.NewEncoder(w).Encode(res)
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"detail":"Resume not found"}`))
		}
	}))
	t.Cleanup(srv.Close)

	client, err := apiclient.New(srv.URL + "/api/v1")
	require.NoError(t, err)
	bound := client.WithTokens(apiclient.NewMemoryTokenStore(apiclient.TokenPair{AccessToken: "a", RefreshToken: "r"}))

	r := gin.New()
	r.Use(func(c *gin.Context) {
		middleware.SetIdentity(c, session.Session{ID: "s1", UserID: "u1"}, bound)
		c.Next()
	})
	NewHandler(NewService(querycache.New(time.Minute), time.Hour)).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func send(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestEditorOverHTTP(t *testing.T) {
	remote := &fakeRemote{resume: sampleResume()}
	r := newTestRouter(t, remote)

	resp := send(r, http.MethodPatch, "/api/v1/editor/resumes/r1/style", `{"lineSpacing":1.5}`)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	var v View
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &v))
	assert.Equal(t, StatusDirty, v.Status)
	assert.Equal(t, 1.5, v.Style.LineSpacing)

	resp = send(r, http.MethodPatch, "/api/v1/editor/resumes/r1/style", `{"lineSpacing":5}`)
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = send(r, http.MethodPost, "/api/v1/editor/resumes/r1/sections/move", `{"section":"hobbies","delta":1}`)
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = send(r, http.MethodPost, "/api/v1/editor/resumes/r1/save", "")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &v))
	assert.Equal(t, StatusClean, v.Status)

	require.Len(t, remote.updates, 1)
	require.NotNil(t, remote.updates[0].Style)
	assert.Equal(t, 1.5, remote.updates[0].Style.LineSpacing)
}

func TestEditorRejectsHidingLastSection(t *testing.T) {
	res := sampleResume()
	res.SectionOrder = []string{"skills"}
	r := newTestRouter(t, &fakeRemote{resume: res})

	resp := send(r, http.MethodPost, "/api/v1/editor/resumes/r1/sections/toggle", `{"section":"skills"}`)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, resp.Body.String(), "validation_error")
}

func TestEditorUnknownResume(t *testing.T) {
	r := newTestRouter(t, &fakeRemote{resume: sampleResume()})
	resp := send(r, http.MethodGet, "/api/v1/editor/resumes/missing", "")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}
