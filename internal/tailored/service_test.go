package tailored

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-dashboard/internal/apiclient"
	"resume-dashboard/internal/querycache"
)

type fakeRemote struct {
	mu      sync.Mutex
	items   map[string]apiclient.TailoredResume
	lists   int
	tailors atomic.Int32
	release chan struct{}
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{items: map[string]apiclient.TailoredResume{
		"t1": {ID: "t1", ResumeID: "r1", JobID: "j1", MatchScore: 0.7},
	}}
}

func (f *fakeRemote) ListTailored(ctx context.Context, jobID string) ([]apiclient.TailoredResume, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	var out []apiclient.TailoredResume
	for _, t := range f.items {
		if jobID == "" || t.JobID == jobID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeRemote) GetTailored(ctx context.Context, id string) (apiclient.TailoredResume, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.items[id]
	if !ok {
		return apiclient.TailoredResume{}, &apiclient.APIError{Status: 404, Detail: "Tailored resume not found"}
	}
	return t, nil
}

func (f *fakeRemote) Tailor(ctx context.Context, resumeID, jobID string) (apiclient.TailoredResume, error) {
	f.tailors.Add(1)
	if f.release != nil {
		<-f.release
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	t := apiclient.TailoredResume{ID: "t2", ResumeID: resumeID, JobID: jobID, MatchScore: 0.9}
	f.items[t.ID] = t
	return t, nil
}

func (f *fakeRemote) UpdateTailored(ctx context.Context, id string, content apiclient.ResumeContent, style *apiclient.ResumeStyle) (apiclient.TailoredResume, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := f.items[id]
	t.Content = content
	t.Style = style
	f.items[id] = t
	return t, nil
}

func (f *fakeRemote) DeleteTailored(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.items, id)
	return nil
}

func TestTailorInvalidatesLists(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote()
	svc := NewService(querycache.New(time.Minute))

	out, err := svc.List(ctx, remote, "u1", "j1")
	require.NoError(t, err)
	assert.Len(t, out, 1)

	_, err = svc.Tailor(ctx, remote, "u1", "r2", "j1")
	require.NoError(t, err)

	out, err = svc.List(ctx, remote, "u1", "j1")
	require.NoError(t, err)
	assert.Len(t, out, 2)
	assert.Equal(t, 2, remote.lists)

	got, err := svc.Get(ctx, remote, "u1", "t2")
	require.NoError(t, err)
	assert.Equal(t, 0.9, got.MatchScore)
}

func TestConcurrentTailorSharesOneCall(t *testing.T) {
	remote := newFakeRemote()
	remote.release = make(chan struct{})
	svc := NewService(querycache.New(time.Minute))

	var wg sync.WaitGroup
	results := make([]apiclient.TailoredResume, 3)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = svc.Tailor(context.Background(), remote, "u1", "r1", "j1")
		}(i)
	}

	require.Eventually(t, func() bool { return remote.tailors.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(remote.release)
	wg.Wait()

	assert.Equal(t, int32(1), remote.tailors.Load())
	for _, r := range results {
		assert.Equal(t, "t2", r.ID)
	}
}

func TestDeleteDropsCachedEntry(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote()
	svc := NewService(querycache.New(time.Minute))

	_, err := svc.Get(ctx, remote, "u1", "t1")
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, remote, "u1", "t1"))

	_, err = svc.Get(ctx, remote, "u1", "t1")
	assert.Error(t, err)
}
