package workshops

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"resume-dashboard/internal/apiclient"
	"resume-dashboard/internal/querycache"
	"resume-dashboard/internal/session"
	"resume-dashboard/internal/shared/server/middleware"
)

type remoteServer struct {
	mu       sync.Mutex
	workshop apiclient.Workshop
	accepted []string
	rejected []string
}

func (rs *remoteServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/api/v1/workshops/w1":
		_ = json.NewEncoder(w).Encode(rs.workshop)
	case r.Method == http.MethodPost && r.URL.Path == "/api/v1/workshops/w1/diffs/accept":
		var body struct {
			SuggestionIDs []string `json:"suggestion_ids"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		rs.accepted = append(rs.accepted, body.SuggestionIDs...)
		rs.workshop.PendingDiffs = nil
		rs.workshop.UpdatedAt = rs.workshop.UpdatedAt.Add(time.Second)
		_ = json.NewEncoder(w).Encode(rs.workshop)
	case r.Method == http.MethodPost && r.URL.Path == "/api/v1/workshops/w1/diffs/reject":
		var body struct {
			SuggestionIDs []string `json:"suggestion_ids"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		rs.rejected = append(rs.rejected, body.SuggestionIDs...)
		_ = json.NewEncoder(w).Encode(rs.workshop)
	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail":"Workshop not found"}`))
	}
}

func newTestRouter(t *testing.T, rs *remoteServer) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	srv := httptest.NewServer(rs)
	t.Cleanup(srv.Close)

	client, err := apiclient.New(srv.URL + "/api/v1")
	if err != nil {
		t.Fatalf("apiclient.New: %v", err)
	}
	bound := client.WithTokens(apiclient.NewMemoryTokenStore(apiclient.TokenPair{AccessToken: "a", RefreshToken: "r"}))

	r := gin.New()
	r.Use(func(c *gin.Context) {
		middleware.SetIdentity(c, session.Session{ID: "s1", UserID: "u1"}, bound)
		c.Next()
	})
	h := NewHandler(NewService(querycache.New(time.Minute), time.Hour))
	h.RegisterRoutes(r.Group("/api/v1"))
	return r
}

func do(t *testing.T, r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
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

func TestReviewFlowOverHTTP(t *testing.T) {
	rs := &remoteServer{workshop: sampleWorkshop()}
	r := newTestRouter(t, rs)

	resp := do(t, r, http.MethodPost, "/api/v1/workshops/w1/review/s1/accept", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("accept: expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	resp = do(t, r, http.MethodPost, "/api/v1/workshops/w1/review/s2/reject", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("reject: expected 200, got %d", resp.Code)
	}

	resp = do(t, r, http.MethodGet, "/api/v1/workshops/w1/review/preview", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("preview: expected 200, got %d", resp.Code)
	}
	var preview Preview
	if err := json.NewDecoder(resp.Body).Decode(&preview); err != nil {
		t.Fatalf("decode preview: %v", err)
	}
	if preview.Sections.Summary != "Backend engineer focused on Go." {
		t.Fatalf("unexpected preview summary %q", preview.Sections.Summary)
	}

	resp = do(t, r, http.MethodPost, "/api/v1/workshops/w1/review/commit", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("commit: expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if strings.Join(rs.accepted, ",") != "s1" || strings.Join(rs.rejected, ",") != "s2" {
		t.Fatalf("unexpected remote calls accepted=%v rejected=%v", rs.accepted, rs.rejected)
	}
}

func TestReviewUnknownSuggestionIs404(t *testing.T) {
	r := newTestRouter(t, &remoteServer{workshop: sampleWorkshop()})

	resp := do(t, r, http.MethodPost, "/api/v1/workshops/w1/review/nope/accept", "")
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestCommitWithoutDecisionsIs409(t *testing.T) {
	r := newTestRouter(t, &remoteServer{workshop: sampleWorkshop()})

	resp := do(t, r, http.MethodPost, "/api/v1/workshops/w1/review/commit", "")
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.Code)
	}
}

func TestRemoteNotFoundIsMapped(t *testing.T) {
	r := newTestRouter(t, &remoteServer{workshop: sampleWorkshop()})

	resp := do(t, r, http.MethodGet, "/api/v1/workshops/missing", "")
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "Workshop not found") {
		t.Fatalf("expected remote detail in body, got %s", resp.Body.String())
	}
}

func TestPullBlocksValidation(t *testing.T) {
	r := newTestRouter(t, &remoteServer{workshop: sampleWorkshop()})

	resp := do(t, r, http.MethodPost, "/api/v1/workshops/w1/blocks", `{"blockIds":[]}`)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}
