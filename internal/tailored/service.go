package tailored

import (
	"context"

	"golang.org/x/sync/singleflight"

	"resume-dashboard/internal/apiclient"
	"resume-dashboard/internal/querycache"
	"resume-dashboard/internal/shared/telemetry"
)

// Remote is the part of the API client the tailored resume pages use.
type Remote interface {
	ListTailored(ctx context.Context, jobID string) ([]apiclient.TailoredResume, error)
	GetTailored(ctx context.Context, id string) (apiclient.TailoredResume, error)
	Tailor(ctx context.Context, resumeID, jobID string) (apiclient.TailoredResume, error)
	UpdateTailored(ctx context.Context, id string, content apiclient.ResumeContent, style *apiclient.ResumeStyle) (apiclient.TailoredResume, error)
	DeleteTailored(ctx context.Context, id string) error
}

// Service serves tailored resume pages through the query cache.
type Service struct {
	Cache *querycache.Cache

	tailoring singleflight.Group
}

// NewService constructs a Service.
func NewService(cache *querycache.Cache) *Service {
	return &Service{Cache: cache}
}

// List returns tailored resumes, all of them when jobID is empty.
func (s *Service) List(ctx context.Context, api Remote, user, jobID string) ([]apiclient.TailoredResume, error) {
	return querycache.Fetch(ctx, s.Cache, user, querycache.K("tailored-list", jobID), func(ctx context.Context) ([]apiclient.TailoredResume, error) {
		return api.ListTailored(ctx, jobID)
	})
}

func (s *Service) Get(ctx context.Context, api Remote, user, id string) (apiclient.TailoredResume, error) {
	return querycache.Fetch(ctx, s.Cache, user, querycache.K("tailored", id), func(ctx context.Context) (apiclient.TailoredResume, error) {
		return api.GetTailored(ctx, id)
	})
}

// Tailor generates a resume for a job. Repeated clicks while a generation
// for the same pair is running share its result.
func (s *Service) Tailor(ctx context.Context, api Remote, user, resumeID, jobID string) (apiclient.TailoredResume, error) {
	v, err, shared := s.tailoring.Do(user+"|"+resumeID+"|"+jobID, func() (any, error) {
		t, err := api.Tailor(ctx, resumeID, jobID)
		if err != nil {
			return apiclient.TailoredResume{}, err
		}
		s.stored(user, t)
		telemetry.Info("tailored.created", map[string]any{
			"user_id":     user,
			"resume_id":   resumeID,
			"job_id":      jobID,
			"tailored_id": t.ID,
			"match_score": t.MatchScore,
		})
		return t, nil
	})
	if err != nil {
		return apiclient.TailoredResume{}, err
	}
	if shared {
		telemetry.Info("tailored.shared", map[string]any{"user_id": user, "job_id": jobID})
	}
	return v.(apiclient.TailoredResume), nil
}

func (s *Service) Update(ctx context.Context, api Remote, user, id string, content apiclient.ResumeContent, style *apiclient.ResumeStyle) (apiclient.TailoredResume, error) {
	t, err := api.UpdateTailored(ctx, id, content, style)
	if err != nil {
		return apiclient.TailoredResume{}, err
	}
	s.stored(user, t)
	return t, nil
}

func (s *Service) Delete(ctx context.Context, api Remote, user, id string) error {
	if err := api.DeleteTailored(ctx, id); err != nil {
		return err
	}
	s.Cache.Invalidate(user, "tailored-list")
	s.Cache.Invalidate(user, "tailored", id)
	s.Cache.Invalidate(user, "overview")
	return nil
}

func (s *Service) stored(user string, t apiclient.TailoredResume) {
	s.Cache.Invalidate(user, "tailored-list")
	s.Cache.Invalidate(user, "tailored", t.ID)
	s.Cache.Invalidate(user, "overview")
	s.Cache.Set(user, querycache.K("tailored", t.ID), t)
}
