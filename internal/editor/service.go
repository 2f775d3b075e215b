package editor

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"resume-dashboard/internal/apiclient"
	"resume-dashboard/internal/querycache"
	"resume-dashboard/internal/shared/telemetry"
)

const defaultIdle = 2 * time.Hour

// Remote is the part of the API client the editor needs.
type Remote interface {
	GetResume(ctx context.Context, id string) (apiclient.Resume, error)
	UpdateResume(ctx context.Context, id string, in apiclient.ResumeUpdate) (apiclient.Resume, error)
}

// Service keeps one Editor per user and resume.
type Service struct {
	Cache *querycache.Cache

	mu      sync.Mutex
	editors *gocache.Cache
}

// NewService constructs a Service. Editors idle out after idle.
func NewService(cache *querycache.Cache, idle time.Duration) *Service {
	if idle <= 0 {
		idle = defaultIdle
	}
	return &Service{Cache: cache, editors: gocache.New(idle, idle)}
}

// Open returns the editor for a resume. A clean editor is rebuilt when the
// stored resume changed; unsaved edits are kept.
func (s *Service) Open(ctx context.Context, api Remote, user, resumeID string) (View, error) {
	ed, err := s.editor(ctx, api, user, resumeID)
	if err != nil {
		return View{}, err
	}
	return ed.View(), nil
}

// Edit runs fn against the editor and returns the new view.
func (s *Service) Edit(ctx context.Context, api Remote, user, resumeID string, fn func(*Editor) error) (View, error) {
	ed, err := s.editor(ctx, api, user, resumeID)
	if err != nil {
		return View{}, err
	}
	if err := fn(ed); err != nil {
		return View{}, err
	}
	return ed.View(), nil
}

// Save sends the style and visible section order to the remote service.
func (s *Service) Save(ctx context.Context, api Remote, user, resumeID string) (View, error) {
	ed, err := s.editor(ctx, api, user, resumeID)
	if err != nil {
		return View{}, err
	}
	update, ok, err := ed.BeginSave()
	if err != nil {
		return View{}, err
	}
	if !ok {
		return ed.View(), nil
	}

	saved, err := api.UpdateResume(ctx, resumeID, update)
	ed.FinishSave(saved, err)
	if err != nil {
		telemetry.Warn("editor.save_failed", map[string]any{
			"user_id":   user,
			"resume_id": resumeID,
			"err":       err,
		})
		return ed.View(), err
	}

	s.Cache.Invalidate(user, "resumes")
	s.Cache.Invalidate(user, "resume", resumeID)
	s.Cache.Invalidate(user, "overview")
	s.Cache.Set(user, querycache.K("resume", resumeID), saved)
	return ed.View(), nil
}

// Discard drops the editor, e.g. after the resume was deleted.
func (s *Service) Discard(user, resumeID string) {
	s.editors.Delete(editorKey(user, resumeID))
}

func (s *Service) editor(ctx context.Context, api Remote, user, resumeID string) (*Editor, error) {
	r, err := querycache.Fetch(ctx, s.Cache, user, querycache.K("resume", resumeID), func(ctx context.Context) (apiclient.Resume, error) {
		return api.GetResume(ctx, resumeID)
	})
	if err != nil {
		return nil, err
	}

	key := editorKey(user, resumeID)
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.editors.Get(key); ok {
		if ed, ok := v.(*Editor); ok {
			if ed.Status() != StatusClean || ed.Version().Equal(r.UpdatedAt) {
				s.editors.SetDefault(key, ed)
				return ed, nil
			}
		}
	}
	ed := New(r)
	s.editors.SetDefault(key, ed)
	return ed, nil
}

func editorKey(user, resumeID string) string {
	return user + "|" + resumeID
}
