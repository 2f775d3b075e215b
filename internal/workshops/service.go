package workshops

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"resume-dashboard/internal/apiclient"
	"resume-dashboard/internal/querycache"
	"resume-dashboard/internal/shared/metrics"
	"resume-dashboard/internal/shared/telemetry"
)

const defaultStateTTL = 2 * time.Hour

// Remote is the part of the API client the workshop pages use.
type Remote interface {
	ListWorkshops(ctx context.Context) ([]apiclient.Workshop, error)
	GetWorkshop(ctx context.Context, id string) (apiclient.Workshop, error)
	CreateWorkshop(ctx context.Context, jobID string) (apiclient.Workshop, error)
	DeleteWorkshop(ctx context.Context, id string) error
	UpdateWorkshopSections(ctx context.Context, id string, sections apiclient.ResumeContent, order []string) (apiclient.Workshop, error)
	PullBlocks(ctx context.Context, id string, blockIDs []string) (apiclient.Workshop, error)
	RemoveBlock(ctx context.Context, id, blockID string) (apiclient.Workshop, error)
	SuggestDiffs(ctx context.Context, id string) (apiclient.Workshop, error)
	AcceptDiffs(ctx context.Context, id string, suggestionIDs []string) (apiclient.Workshop, error)
	RejectDiffs(ctx context.Context, id string, suggestionIDs []string) (apiclient.Workshop, error)
}

// Service serves workshop pages and holds review decisions per user.
type Service struct {
	Cache *querycache.Cache

	mu      sync.Mutex
	states  *gocache.Cache
	commits singleflight.Group
}

// NewService constructs a Service. Review state idles out after stateTTL.
func NewService(cache *querycache.Cache, stateTTL time.Duration) *Service {
	if stateTTL <= 0 {
		stateTTL = defaultStateTTL
	}
	return &Service{
		Cache:  cache,
		states: gocache.New(stateTTL, stateTTL),
	}
}

func (s *Service) List(ctx context.Context, api Remote, user string) ([]apiclient.Workshop, error) {
	return querycache.Fetch(ctx, s.Cache, user, querycache.K("workshops"), func(ctx context.Context) ([]apiclient.Workshop, error) {
		return api.ListWorkshops(ctx)
	})
}

func (s *Service) Get(ctx context.Context, api Remote, user, id string) (apiclient.Workshop, error) {
	return querycache.Fetch(ctx, s.Cache, user, querycache.K("workshop", id), func(ctx context.Context) (apiclient.Workshop, error) {
		return api.GetWorkshop(ctx, id)
	})
}

func (s *Service) Create(ctx context.Context, api Remote, user, jobID string) (apiclient.Workshop, error) {
	if strings.TrimSpace(jobID) == "" {
		return apiclient.Workshop{}, ErrInvalidInput
	}
	w, err := api.CreateWorkshop(ctx, jobID)
	if err != nil {
		return apiclient.Workshop{}, err
	}
	s.store(user, w)
	return w, nil
}

func (s *Service) Delete(ctx context.Context, api Remote, user, id string) error {
	if err := api.DeleteWorkshop(ctx, id); err != nil {
		return err
	}
	s.Cache.Invalidate(user, "workshops")
	s.Cache.Invalidate(user, "workshop", id)
	s.Cache.Invalidate(user, "overview")
	s.states.Delete(stateKey(user, id))
	return nil
}

func (s *Service) UpdateSections(ctx context.Context, api Remote, user, id string, sections apiclient.ResumeContent, order []string) (apiclient.Workshop, error) {
	w, err := api.UpdateWorkshopSections(ctx, id, sections, order)
	if err != nil {
		return apiclient.Workshop{}, err
	}
	s.store(user, w)
	return w, nil
}

func (s *Service) PullBlocks(ctx context.Context, api Remote, user, id string, blockIDs []string) (apiclient.Workshop, error) {
	if len(blockIDs) == 0 {
		return apiclient.Workshop{}, ErrInvalidInput
	}
	w, err := api.PullBlocks(ctx, id, blockIDs)
	if err != nil {
		return apiclient.Workshop{}, err
	}
	s.store(user, w)
	return w, nil
}

func (s *Service) RemoveBlock(ctx context.Context, api Remote, user, id, blockID string) (apiclient.Workshop, error) {
	w, err := api.RemoveBlock(ctx, id, blockID)
	if err != nil {
		return apiclient.Workshop{}, err
	}
	s.store(user, w)
	return w, nil
}

// Suggest asks the remote service for a fresh set of suggestions.
func (s *Service) Suggest(ctx context.Context, api Remote, user, id string) (apiclient.Workshop, error) {
	w, err := api.SuggestDiffs(ctx, id)
	if err != nil {
		return apiclient.Workshop{}, err
	}
	s.store(user, w)
	return w, nil
}

// AcceptNow applies suggestions on the remote side without staging them.
func (s *Service) AcceptNow(ctx context.Context, api Remote, user, id string, ids []string) (apiclient.Workshop, error) {
	if len(ids) == 0 {
		return apiclient.Workshop{}, ErrInvalidInput
	}
	w, err := api.AcceptDiffs(ctx, id, ids)
	if err != nil {
		return apiclient.Workshop{}, err
	}
	s.store(user, w)
	return w, nil
}

// RejectNow discards suggestions on the remote side without staging them.
func (s *Service) RejectNow(ctx context.Context, api Remote, user, id string, ids []string) (apiclient.Workshop, error) {
	if len(ids) == 0 {
		return apiclient.Workshop{}, ErrInvalidInput
	}
	w, err := api.RejectDiffs(ctx, id, ids)
	if err != nil {
		return apiclient.Workshop{}, err
	}
	s.store(user, w)
	return w, nil
}

// Review is the decision view of one workshop.
type Review struct {
	WorkshopID string    `json:"workshopId"`
	Version    time.Time `json:"version"`
	Items      []Item    `json:"items"`
	Counts     Counts    `json:"counts"`
}

func reviewOf(st *DiffState) Review {
	items, counts := st.Items()
	return Review{WorkshopID: st.WorkshopID(), Version: st.Version(), Items: items, Counts: counts}
}

// Review returns the current decisions, rebuilding them if the workshop changed remotely.
func (s *Service) Review(ctx context.Context, api Remote, user, id string) (Review, error) {
	st, err := s.state(ctx, api, user, id)
	if err != nil {
		return Review{}, err
	}
	return reviewOf(st), nil
}

// Decide records one decision.
func (s *Service) Decide(ctx context.Context, api Remote, user, id, suggestionID string, d Decision) (Review, error) {
	st, err := s.state(ctx, api, user, id)
	if err != nil {
		return Review{}, err
	}
	switch d {
	case Accepted:
		err = st.Accept(suggestionID)
	case Rejected:
		err = st.Reject(suggestionID)
	case Pending:
		err = st.Reset(suggestionID)
	default:
		err = ErrInvalidInput
	}
	if err != nil {
		return Review{}, err
	}
	return reviewOf(st), nil
}

// DecideAll accepts or rejects every pending suggestion.
func (s *Service) DecideAll(ctx context.Context, api Remote, user, id string, d Decision) (Review, error) {
	st, err := s.state(ctx, api, user, id)
	if err != nil {
		return Review{}, err
	}
	switch d {
	case Accepted:
		st.AcceptAll()
	case Rejected:
		st.RejectAll()
	default:
		return Review{}, ErrInvalidInput
	}
	return reviewOf(st), nil
}

// Preview applies accepted suggestions to a copy of the sections.
func (s *Service) Preview(ctx context.Context, api Remote, user, id string) (Preview, error) {
	st, err := s.state(ctx, api, user, id)
	if err != nil {
		return Preview{}, err
	}
	return st.Preview()
}

// CommitResult reports what was sent to the remote service.
type CommitResult struct {
	Workshop apiclient.Workshop `json:"workshop"`
	Accepted []string           `json:"accepted"`
	Rejected []string           `json:"rejected"`
}

// Commit sends accepted suggestions, then rejected ones, and replaces the
// local state with the workshop the service returns. Concurrent commits of
// the same workshop share one round trip.
func (s *Service) Commit(ctx context.Context, api Remote, user, id string) (CommitResult, error) {
	v, err, _ := s.commits.Do(stateKey(user, id), func() (any, error) {
		return s.commit(ctx, api, user, id)
	})
	res, _ := v.(CommitResult)
	return res, err
}

func (s *Service) commit(ctx context.Context, api Remote, user, id string) (CommitResult, error) {
	st, err := s.state(ctx, api, user, id)
	if err != nil {
		return CommitResult{}, err
	}
	accepted := st.IDs(Accepted)
	rejected := st.IDs(Rejected)
	if len(accepted) == 0 && len(rejected) == 0 {
		return CommitResult{}, ErrNothingToCommit
	}

	var w apiclient.Workshop
	res := CommitResult{Accepted: []string{}, Rejected: []string{}}
	if len(accepted) > 0 {
		w, err = api.AcceptDiffs(ctx, id, accepted)
		if err != nil {
			return CommitResult{}, fmt.Errorf("accept suggestions: %w", err)
		}
		res.Accepted = accepted
	}
	if len(rejected) > 0 {
		after, err := api.RejectDiffs(ctx, id, rejected)
		if err != nil {
			if len(accepted) > 0 {
				s.replace(user, w, rejected)
				res.Workshop = w
			}
			return res, fmt.Errorf("reject suggestions: %w", err)
		}
		w = after
		res.Rejected = rejected
	}

	s.replace(user, w, nil)
	res.Workshop = w
	metrics.IncCommit()
	telemetry.Info("workshop.commit", map[string]any{
		"user_id":     user,
		"workshop_id": id,
		"accepted":    len(res.Accepted),
		"rejected":    len(res.Rejected),
	})
	return res, nil
}

// state returns the review state for the workshop, rebuilding it when the
// remote updated_at moved.
func (s *Service) state(ctx context.Context, api Remote, user, id string) (*DiffState, error) {
	w, err := s.Get(ctx, api, user, id)
	if err != nil {
		return nil, err
	}
	key := stateKey(user, id)

	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.states.Get(key); ok {
		if st, ok := v.(*DiffState); ok && st.Version().Equal(w.UpdatedAt) {
			s.states.SetDefault(key, st)
			return st, nil
		}
	}
	st := NewDiffState(w)
	s.states.SetDefault(key, st)
	return st, nil
}

// replace installs w as the latest copy and starts a new review state,
// carrying over rejections that were not sent.
func (s *Service) replace(user string, w apiclient.Workshop, keepRejected []string) {
	s.store(user, w)
	st := NewDiffState(w)
	for _, sid := range keepRejected {
		_ = st.Reject(sid)
	}
	s.mu.Lock()
	s.states.SetDefault(stateKey(user, w.ID), st)
	s.mu.Unlock()
}

func (s *Service) store(user string, w apiclient.Workshop) {
	s.Cache.Invalidate(user, "workshops")
	s.Cache.Invalidate(user, "workshop", w.ID)
	s.Cache.Invalidate(user, "overview")
	s.Cache.Set(user, querycache.K("workshop", w.ID), w)
}

func stateKey(user, id string) string {
	return user + "|" + id
}
