package workshops

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-dashboard/internal/apiclient"
	"resume-dashboard/internal/querycache"
)

type fakeRemote struct {
	mu        sync.Mutex
	workshop  apiclient.Workshop
	gets      int
	calls     []string
	acceptErr error
	rejectErr error
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{workshop: sampleWorkshop()}
}

func (f *fakeRemote) record(call string) {
	f.calls = append(f.calls, call)
}

func (f *fakeRemote) ListWorkshops(ctx context.Context) ([]apiclient.Workshop, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return []apiclient.Workshop{f.workshop}, nil
}

func (f *fakeRemote) GetWorkshop(ctx context.Context, id string) (apiclient.Workshop, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	if id != f.workshop.ID {
		return apiclient.Workshop{}, &apiclient.APIError{Status: 404, Detail: "Workshop not found"}
	}
	return f.workshop, nil
}

func (f *fakeRemote) CreateWorkshop(ctx context.Context, jobID string) (apiclient.Workshop, error) {
	return apiclient.Workshop{ID: "w-new", JobID: jobID}, nil
}

func (f *fakeRemote) DeleteWorkshop(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("delete")
	return nil
}

func (f *fakeRemote) UpdateWorkshopSections(ctx context.Context, id string, sections apiclient.ResumeContent, order []string) (apiclient.Workshop, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.workshop.Sections = sections
	f.workshop.UpdatedAt = f.workshop.UpdatedAt.Add(time.Second)
	return f.workshop, nil
}

func (f *fakeRemote) PullBlocks(ctx context.Context, id string, blockIDs []string) (apiclient.Workshop, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.workshop.PulledBlockIDs = append(f.workshop.PulledBlockIDs, blockIDs...)
	return f.workshop, nil
}

func (f *fakeRemote) RemoveBlock(ctx context.Context, id, blockID string) (apiclient.Workshop, error) {
	return f.workshop, nil
}

func (f *fakeRemote) SuggestDiffs(ctx context.Context, id string) (apiclient.Workshop, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.workshop.PendingDiffs = append(f.workshop.PendingDiffs, apiclient.DiffSuggestion{ID: "s5", Op: apiclient.OpRemove, Path: "/summary"})
	f.workshop.UpdatedAt = f.workshop.UpdatedAt.Add(time.Minute)
	return f.workshop, nil
}

func (f *fakeRemote) AcceptDiffs(ctx context.Context, id string, ids []string) (apiclient.Workshop, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("accept:" + join(ids))
	if f.acceptErr != nil {
		return apiclient.Workshop{}, f.acceptErr
	}
	f.drop(ids)
	return f.workshop, nil
}

func (f *fakeRemote) RejectDiffs(ctx context.Context, id string, ids []string) (apiclient.Workshop, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("reject:" + join(ids))
	if f.rejectErr != nil {
		return apiclient.Workshop{}, f.rejectErr
	}
	f.drop(ids)
	return f.workshop, nil
}

func (f *fakeRemote) drop(ids []string) {
	gone := map[string]bool{}
	for _, id := range ids {
		gone[id] = true
	}
	kept := f.workshop.PendingDiffs[:0:0]
	for _, sg := range f.workshop.PendingDiffs {
		if !gone[sg.ID] {
			kept = append(kept, sg)
		}
	}
	f.workshop.PendingDiffs = kept
	f.workshop.UpdatedAt = f.workshop.UpdatedAt.Add(time.Second)
}

func join(ids []string) string {
	out := ""
	for i, id := range ids {
		if i > 0 {
			out += ","
		}
		out += id
	}
	return out
}

func newTestService() *Service {
	return NewService(querycache.New(time.Minute), time.Hour)
}

func TestGetIsCached(t *testing.T) {
	svc := newTestService()
	remote := newFakeRemote()
	ctx := context.Background()

	_, err := svc.Get(ctx, remote, "u1", "w1")
	require.NoError(t, err)
	_, err = svc.Get(ctx, remote, "u1", "w1")
	require.NoError(t, err)
	assert.Equal(t, 1, remote.gets)
}

func TestReviewKeepsDecisionsAcrossCalls(t *testing.T) {
	svc := newTestService()
	remote := newFakeRemote()
	ctx := context.Background()

	_, err := svc.Decide(ctx, remote, "u1", "w1", "s1", Accepted)
	require.NoError(t, err)
	review, err := svc.Review(ctx, remote, "u1", "w1")
	require.NoError(t, err)
	assert.Equal(t, 1, review.Counts.Accepted)
	assert.Equal(t, 3, review.Counts.Pending)

	other, err := svc.Review(ctx, remote, "u2", "w1")
	require.NoError(t, err)
	assert.Equal(t, 0, other.Counts.Accepted, "decisions are per user")
}

func TestDecideUnknownSuggestion(t *testing.T) {
	svc := newTestService()
	_, err := svc.Decide(context.Background(), newFakeRemote(), "u1", "w1", "missing", Rejected)
	require.ErrorIs(t, err, ErrSuggestionNotFound)
}

func TestReviewRebuiltWhenWorkshopChanges(t *testing.T) {
	svc := newTestService()
	remote := newFakeRemote()
	ctx := context.Background()

	_, err := svc.Decide(ctx, remote, "u1", "w1", "s1", Accepted)
	require.NoError(t, err)
	_, err = svc.Suggest(ctx, remote, "u1", "w1")
	require.NoError(t, err)

	review, err := svc.Review(ctx, remote, "u1", "w1")
	require.NoError(t, err)
	assert.Equal(t, 5, review.Counts.Total)
	assert.Equal(t, 5, review.Counts.Pending)
}

func TestCommitAcceptsThenRejects(t *testing.T) {
	svc := newTestService()
	remote := newFakeRemote()
	ctx := context.Background()

	_, err := svc.Decide(ctx, remote, "u1", "w1", "s2", Accepted)
	require.NoError(t, err)
	_, err = svc.Decide(ctx, remote, "u1", "w1", "s1", Accepted)
	require.NoError(t, err)
	_, err = svc.Decide(ctx, remote, "u1", "w1", "s3", Rejected)
	require.NoError(t, err)

	res, err := svc.Commit(ctx, remote, "u1", "w1")
	require.NoError(t, err)
	assert.Equal(t, []string{"accept:s1,s2", "reject:s3"}, remote.calls)
	assert.Equal(t, []string{"s1", "s2"}, res.Accepted)
	assert.Equal(t, []string{"s3"}, res.Rejected)
	require.Len(t, res.Workshop.PendingDiffs, 1)

	review, err := svc.Review(ctx, remote, "u1", "w1")
	require.NoError(t, err)
	assert.Equal(t, Counts{Total: 1, Pending: 1}, review.Counts)
}

func TestCommitNothing(t *testing.T) {
	svc := newTestService()
	_, err := svc.Commit(context.Background(), newFakeRemote(), "u1", "w1")
	require.ErrorIs(t, err, ErrNothingToCommit)
}

func TestCommitAcceptFailureKeepsState(t *testing.T) {
	svc := newTestService()
	remote := newFakeRemote()
	remote.acceptErr = errors.New("upstream down")
	ctx := context.Background()

	_, err := svc.DecideAll(ctx, remote, "u1", "w1", Accepted)
	require.NoError(t, err)
	_, err = svc.Commit(ctx, remote, "u1", "w1")
	require.Error(t, err)

	review, err := svc.Review(ctx, remote, "u1", "w1")
	require.NoError(t, err)
	assert.Equal(t, 4, review.Counts.Accepted)
}

func TestCommitRejectFailureKeepsUnsentRejections(t *testing.T) {
	svc := newTestService()
	remote := newFakeRemote()
	remote.rejectErr = errors.New("upstream down")
	ctx := context.Background()

	_, err := svc.Decide(ctx, remote, "u1", "w1", "s1", Accepted)
	require.NoError(t, err)
	_, err = svc.Decide(ctx, remote, "u1", "w1", "s2", Rejected)
	require.NoError(t, err)

	res, err := svc.Commit(ctx, remote, "u1", "w1")
	require.Error(t, err)
	assert.Equal(t, []string{"s1"}, res.Accepted)

	review, err := svc.Review(ctx, remote, "u1", "w1")
	require.NoError(t, err)
	assert.Equal(t, 3, review.Counts.Total)
	assert.Equal(t, 1, review.Counts.Rejected)
	assert.Equal(t, 0, review.Counts.Accepted)
}

func TestDeleteDropsState(t *testing.T) {
	svc := newTestService()
	remote := newFakeRemote()
	ctx := context.Background()

	_, err := svc.Review(ctx, remote, "u1", "w1")
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, remote, "u1", "w1"))
	_, ok := svc.states.Get(stateKey("u1", "w1"))
	assert.False(t, ok)
}
