package resumes

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"resume-dashboard/internal/apiclient"
	"resume-dashboard/internal/extract"
	"resume-dashboard/internal/querycache"
)

var ErrInvalidInput = errors.New("invalid input")

// Remote is the part of the API client the resume pages use.
type Remote interface {
	ListResumes(ctx context.Context) ([]apiclient.Resume, error)
	GetResume(ctx context.Context, id string) (apiclient.Resume, error)
	CreateResume(ctx context.Context, in apiclient.ResumeInput) (apiclient.Resume, error)
	UpdateResume(ctx context.Context, id string, in apiclient.ResumeUpdate) (apiclient.Resume, error)
	DeleteResume(ctx context.Context, id string) error
	UploadResume(ctx context.Context, title, rawText string, isMaster bool) (apiclient.Resume, error)
}

// Discarder drops per-resume state held elsewhere, such as an open editor.
type Discarder interface {
	Discard(user, resumeID string)
}

// Service serves resume pages through the query cache.
type Service struct {
	Cache   *querycache.Cache
	Editors Discarder
}

// NewService constructs a Service. editors may be nil.
func NewService(cache *querycache.Cache, editors Discarder) *Service {
	return &Service{Cache: cache, Editors: editors}
}

func (s *Service) List(ctx context.Context, api Remote, user string) ([]apiclient.Resume, error) {
	return querycache.Fetch(ctx, s.Cache, user, querycache.K("resumes"), func(ctx context.Context) ([]apiclient.Resume, error) {
		return api.ListResumes(ctx)
	})
}

func (s *Service) Get(ctx context.Context, api Remote, user, id string) (apiclient.Resume, error) {
	return querycache.Fetch(ctx, s.Cache, user, querycache.K("resume", id), func(ctx context.Context) (apiclient.Resume, error) {
		return api.GetResume(ctx, id)
	})
}

func (s *Service) Create(ctx context.Context, api Remote, user string, in apiclient.ResumeInput) (apiclient.Resume, error) {
	r, err := api.CreateResume(ctx, in)
	if err != nil {
		return apiclient.Resume{}, err
	}
	s.stored(user, r, in.IsMaster)
	return r, nil
}

// Upload extracts the text of an uploaded PDF, DOCX or text file and lets
// the remote service parse it into a resume.
func (s *Service) Upload(ctx context.Context, api Remote, user, title, fileName, contentType string, data []byte, isMaster bool) (apiclient.Resume, error) {
	text, err := extract.Text(ctx, data, contentType, fileName)
	if err != nil {
		if errors.Is(err, extract.ErrUnsupported) || errors.Is(err, extract.ErrEmpty) {
			return apiclient.Resume{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return apiclient.Resume{}, err
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = strings.TrimSuffix(fileName, fileExt(fileName))
	}
	r, err := api.UploadResume(ctx, title, text, isMaster)
	if err != nil {
		return apiclient.Resume{}, err
	}
	s.stored(user, r, isMaster)
	return r, nil
}

func (s *Service) Update(ctx context.Context, api Remote, user, id string, in apiclient.ResumeUpdate) (apiclient.Resume, error) {
	r, err := api.UpdateResume(ctx, id, in)
	if err != nil {
		return apiclient.Resume{}, err
	}
	s.stored(user, r, in.IsMaster != nil)
	return r, nil
}

// SetMaster marks one resume as the master copy.
func (s *Service) SetMaster(ctx context.Context, api Remote, user, id string) (apiclient.Resume, error) {
	master := true
	return s.Update(ctx, api, user, id, apiclient.ResumeUpdate{IsMaster: &master})
}

func (s *Service) Delete(ctx context.Context, api Remote, user, id string) error {
	if err := api.DeleteResume(ctx, id); err != nil {
		return err
	}
	s.Cache.Invalidate(user, "resumes")
	s.Cache.Invalidate(user, "resume", id)
	s.Cache.Invalidate(user, "overview")
	if s.Editors != nil {
		s.Editors.Discard(user, id)
	}
	return nil
}

// stored refreshes the caches after r was written. A master change flips
// the flag on other resumes too, so every cached resume goes.
func (s *Service) stored(user string, r apiclient.Resume, masterChanged bool) {
	s.Cache.Invalidate(user, "resumes")
	s.Cache.Invalidate(user, "overview")
	if masterChanged {
		s.Cache.Invalidate(user, "resume")
	} else {
		s.Cache.Invalidate(user, "resume", r.ID)
	}
	s.Cache.Set(user, querycache.K("resume", r.ID), r)
}

func fileExt(name string) string {
	if i := strings.LastIndex(name, "."); i > 0 {
		return name[i:]
	}
	return ""
}
