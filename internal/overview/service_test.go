package overview

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-dashboard/internal/apiclient"
	"resume-dashboard/internal/jobs"
	"resume-dashboard/internal/querycache"
	"resume-dashboard/internal/resumes"
	"resume-dashboard/internal/tailored"
	"resume-dashboard/internal/vault"
	"resume-dashboard/internal/workshops"
)

func newService(cache *querycache.Cache) *Service {
	return &Service{
		Cache:     cache,
		Resumes:   resumes.NewService(cache, nil),
		Jobs:      jobs.NewService(cache),
		Vault:     vault.NewService(cache),
		Workshops: workshops.NewService(cache, time.Hour),
		Tailored:  tailored.NewService(cache),
	}
}

func newClient(t *testing.T, failJobs bool, calls *atomic.Int32) *apiclient.Client {
	t.Helper()
	base := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		var body any
		switch r.URL.Path {
		case "/resumes":
			body = []apiclient.Resume{
				{ID: "r1", Title: "Old", UpdatedAt: base},
				{ID: "r2", Title: "Master", IsMaster: true, UpdatedAt: base.Add(time.Hour)},
			}
		case "/jobs":
			if failJobs {
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(`{"detail":"database unavailable"}`))
				return
			}
			body = []apiclient.Job{{ID: "j1", Title: "Staff Engineer", Company: "Acme", UpdatedAt: base}}
		case "/blocks":
			body = []apiclient.Block{{ID: "b1"}, {ID: "b2"}, {ID: "b3"}}
		case "/workshops":
			body = []apiclient.Workshop{{
				ID:           "w1",
				JobID:        "j1",
				PendingDiffs: []apiclient.DiffSuggestion{{ID: "s1"}, {ID: "s2"}},
				UpdatedAt:    base,
			}}
		case "/tailored":
			body = []apiclient.TailoredResume{{ID: "t1", JobID: "j1", UpdatedAt: base}}
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"detail":"Not Found"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)

	client, err := apiclient.New(srv.URL)
	require.NoError(t, err)
	return client.WithTokens(apiclient.NewMemoryTokenStore(apiclient.TokenPair{AccessToken: "a"}))
}

func TestOverviewAggregates(t *testing.T) {
	var calls atomic.Int32
	api := newClient(t, false, &calls)
	svc := newService(querycache.New(time.Minute))

	out, err := svc.Get(context.Background(), api, "u1")
	require.NoError(t, err)

	assert.Equal(t, Counts{Resumes: 2, Jobs: 1, Blocks: 3, Workshops: 1, Tailored: 1, PendingSuggestions: 2}, out.Counts)
	assert.Equal(t, "r2", out.MasterResumeID)
	require.Len(t, out.RecentResumes, 2)
	assert.Equal(t, "r2", out.RecentResumes[0].ID)
	assert.Equal(t, "Staff Engineer", out.RecentWorkshops[0].Title)
	assert.Equal(t, "Staff Engineer", out.RecentTailored[0].Title)
	assert.Equal(t, int32(5), calls.Load())

	_, err = svc.Get(context.Background(), api, "u1")
	require.NoError(t, err)
	assert.Equal(t, int32(5), calls.Load())
}

func TestOverviewSharesPageCache(t *testing.T) {
	var calls atomic.Int32
	api := newClient(t, false, &calls)
	cache := querycache.New(time.Minute)
	svc := newService(cache)

	_, err := svc.Resumes.List(context.Background(), api, "u1")
	require.NoError(t, err)
	_, err = svc.Get(context.Background(), api, "u1")
	require.NoError(t, err)
	assert.Equal(t, int32(5), calls.Load())
}

func TestOverviewFailsWhenAListFails(t *testing.T) {
	var calls atomic.Int32
	api := newClient(t, true, &calls)
	svc := newService(querycache.New(time.Minute))

	_, err := svc.Get(context.Background(), api, "u1")
	var apiErr *apiclient.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
}

func TestRecentKeepsNewestFive(t *testing.T) {
	base := time.Now()
	var items []Item
	for i := 0; i < 8; i++ {
		items = append(items, Item{ID: string(rune('a' + i)), UpdatedAt: base.Add(time.Duration(i) * time.Minute)})
	}
	out := recent(items)
	require.Len(t, out, recentLimit)
	assert.Equal(t, "h", out[0].ID)
	assert.Equal(t, "d", out[4].ID)
}
