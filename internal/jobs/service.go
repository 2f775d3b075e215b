package jobs

import (
	"context"
	"strconv"

	"resume-dashboard/internal/apiclient"
	"resume-dashboard/internal/querycache"
)

// Remote is the part of the API client the job and listing pages use.
type Remote interface {
	ListJobs(ctx context.Context) ([]apiclient.Job, error)
	GetJob(ctx context.Context, id string) (apiclient.Job, error)
	CreateJob(ctx context.Context, in apiclient.JobInput) (apiclient.Job, error)
	UpdateJob(ctx context.Context, id string, in apiclient.JobInput) (apiclient.Job, error)
	DeleteJob(ctx context.Context, id string) error
	SearchListings(ctx context.Context, q apiclient.ListingQuery) (apiclient.ListingPage, error)
	GetListing(ctx context.Context, id string) (apiclient.JobListing, error)
	SaveListing(ctx context.Context, id string) (apiclient.Job, error)
}

// Service serves job and listing pages through the query cache.
type Service struct {
	Cache *querycache.Cache
}

// NewService constructs a Service.
func NewService(cache *querycache.Cache) *Service {
	return &Service{Cache: cache}
}

func (s *Service) List(ctx context.Context, api Remote, user string) ([]apiclient.Job, error) {
	return querycache.Fetch(ctx, s.Cache, user, querycache.K("jobs"), func(ctx context.Context) ([]apiclient.Job, error) {
		return api.ListJobs(ctx)
	})
}

func (s *Service) Get(ctx context.Context, api Remote, user, id string) (apiclient.Job, error) {
	return querycache.Fetch(ctx, s.Cache, user, querycache.K("job", id), func(ctx context.Context) (apiclient.Job, error) {
		return api.GetJob(ctx, id)
	})
}

func (s *Service) Create(ctx context.Context, api Remote, user string, in apiclient.JobInput) (apiclient.Job, error) {
	j, err := api.CreateJob(ctx, in)
	if err != nil {
		return apiclient.Job{}, err
	}
	s.stored(user, j)
	return j, nil
}

func (s *Service) Update(ctx context.Context, api Remote, user, id string, in apiclient.JobInput) (apiclient.Job, error) {
	j, err := api.UpdateJob(ctx, id, in)
	if err != nil {
		return apiclient.Job{}, err
	}
	s.stored(user, j)
	return j, nil
}

// Delete removes a job. Workshops and tailored resumes hang off jobs, so
// their cached lists go too.
func (s *Service) Delete(ctx context.Context, api Remote, user, id string) error {
	if err := api.DeleteJob(ctx, id); err != nil {
		return err
	}
	s.Cache.Invalidate(user, "jobs")
	s.Cache.Invalidate(user, "job", id)
	s.Cache.Invalidate(user, "workshops")
	s.Cache.Invalidate(user, "tailored-list")
	s.Cache.Invalidate(user, "overview")
	return nil
}

func (s *Service) Search(ctx context.Context, api Remote, user string, q apiclient.ListingQuery) (apiclient.ListingPage, error) {
	key := querycache.K("listings", q.Query, q.Location, strconv.FormatBool(q.Remote), strconv.Itoa(q.Page), strconv.Itoa(q.PageSize))
	return querycache.Fetch(ctx, s.Cache, user, key, func(ctx context.Context) (apiclient.ListingPage, error) {
		return api.SearchListings(ctx, q)
	})
}

func (s *Service) Listing(ctx context.Context, api Remote, user, id string) (apiclient.JobListing, error) {
	return querycache.Fetch(ctx, s.Cache, user, querycache.K("listing", id), func(ctx context.Context) (apiclient.JobListing, error) {
		return api.GetListing(ctx, id)
	})
}

// SaveListing copies a listing into the user's jobs.
func (s *Service) SaveListing(ctx context.Context, api Remote, user, id string) (apiclient.Job, error) {
	j, err := api.SaveListing(ctx, id)
	if err != nil {
		return apiclient.Job{}, err
	}
	s.stored(user, j)
	return j, nil
}

func (s *Service) stored(user string, j apiclient.Job) {
	s.Cache.Invalidate(user, "jobs")
	s.Cache.Invalidate(user, "job", j.ID)
	s.Cache.Invalidate(user, "overview")
	s.Cache.Set(user, querycache.K("job", j.ID), j)
}
