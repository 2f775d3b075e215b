package resumes

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
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
	mu       sync.Mutex
	resumes  map[string]apiclient.Resume
	lists    int
	uploaded string
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{resumes: map[string]apiclient.Resume{
		"r1": {ID: "r1", Title: "Backend", IsMaster: true},
		"r2": {ID: "r2", Title: "Platform"},
	}}
}

func (f *fakeRemote) ListResumes(ctx context.Context) ([]apiclient.Resume, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	out := make([]apiclient.Resume, 0, len(f.resumes))
	for _, id := range []string{"r1", "r2", "r3"} {
		if r, ok := f.resumes[id]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRemote) GetResume(ctx context.Context, id string) (apiclient.Resume, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.resumes[id]
	if !ok {
		return apiclient.Resume{}, &apiclient.APIError{Status: 404, Detail: "Resume not found"}
	}
	return r, nil
}

func (f *fakeRemote) CreateResume(ctx context.Context, in apiclient.ResumeInput) (apiclient.Resume, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r := apiclient.Resume{ID: "r3", Title: in.Title, RawText: in.RawText}
	f.resumes[r.ID] = r
	return r, nil
}

func (f *fakeRemote) UpdateResume(ctx context.Context, id string, in apiclient.ResumeUpdate) (apiclient.Resume, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r := f.resumes[id]
	if in.IsMaster != nil && *in.IsMaster {
		for k, other := range f.resumes {
			other.IsMaster = false
			f.resumes[k] = other
		}
		r.IsMaster = true
	}
	if in.Title != nil {
		r.Title = *in.Title
	}
	f.resumes[id] = r
	return r, nil
}

func (f *fakeRemote) DeleteResume(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.resumes, id)
	return nil
}

func (f *fakeRemote) UploadResume(ctx context.Context, title, rawText string, isMaster bool) (apiclient.Resume, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploaded = rawText
	r := apiclient.Resume{ID: "r3", Title: title, RawText: rawText, IsMaster: isMaster}
	f.resumes[r.ID] = r
	return r, nil
}

type recordingDiscarder struct{ discarded []string }

func (d *recordingDiscarder) Discard(user, resumeID string) {
	d.discarded = append(d.discarded, user+"/"+resumeID)
}

func TestListIsCachedUntilMutation(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote()
	svc := NewService(querycache.New(time.Minute), nil)

	_, err := svc.List(ctx, remote, "u1")
	require.NoError(t, err)
	_, err = svc.List(ctx, remote, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, remote.lists)

	_, err = svc.Create(ctx, remote, "u1", apiclient.ResumeInput{Title: "New", RawText: "text"})
	require.NoError(t, err)
	out, err := svc.List(ctx, remote, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, remote.lists)
	assert.Len(t, out, 3)
}

func TestSetMasterDropsOtherCachedResumes(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote()
	svc := NewService(querycache.New(time.Minute), nil)

	r1, err := svc.Get(ctx, remote, "u1", "r1")
	require.NoError(t, err)
	require.True(t, r1.IsMaster)

	_, err = svc.SetMaster(ctx, remote, "u1", "r2")
	require.NoError(t, err)

	r1, err = svc.Get(ctx, remote, "u1", "r1")
	require.NoError(t, err)
	assert.False(t, r1.IsMaster)
}

func TestDeleteDiscardsEditor(t *testing.T) {
	editors := &recordingDiscarder{}
	svc := NewService(querycache.New(time.Minute), editors)

	require.NoError(t, svc.Delete(context.Background(), newFakeRemote(), "u1", "r2"))
	assert.Equal(t, []string{"u1/r2"}, editors.discarded)
}

func TestUploadRejectsUnsupportedFile(t *testing.T) {
	svc := NewService(querycache.New(time.Minute), nil)
	_, err := svc.Upload(context.Background(), newFakeRemote(), "u1", "", "photo.png", "image/png", []byte{0x89, 'P', 'N', 'G'}, false)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func newTestRouter(t *testing.T, remote *fakeRemote) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.Method == http.MethodPost && r.URL.Path == "/api/v1/resumes" {
			var body struct {
				Title    string `json:"title"`
				RawText  string `json:"raw_text"`
				IsMaster bool   `json:"is_master"`
			}
			_ = json.NewDecoder(r.Body).Decode(&body)
			res, _ := remote.UploadResume(r.Context(), body.Title, body.RawText, body.IsMaster)
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(res)
			return
		}
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail":"Not Found"}`))
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
	NewHandler(NewService(querycache.New(time.Minute), nil)).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func TestUploadOverHTTP(t *testing.T) {
	remote := newFakeRemote()
	r := newTestRouter(t, remote)

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	fw, err := writer.CreateFormFile("file", "jane.txt")
	require.NoError(t, err)
	_, err = fw.Write([]byte("Jane Doe\nGo engineer\n"))
	require.NoError(t, err)
	require.NoError(t, writer.WriteField("isMaster", "true"))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/resumes/upload", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	var created apiclient.Resume
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &created))
	assert.Equal(t, "jane", created.Title)
	assert.True(t, created.IsMaster)
	assert.Equal(t, "Jane Doe\nGo engineer", remote.uploaded)
}

func TestUploadWithoutFile(t *testing.T) {
	r := newTestRouter(t, newFakeRemote())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/resumes/upload", bytes.NewBufferString("{}"))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}
