package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode"

	"golang.org/x/sync/singleflight"

	"resume-dashboard/internal/apiclient"
	"resume-dashboard/internal/querycache"
	"resume-dashboard/internal/shared/metrics"
	"resume-dashboard/internal/shared/storage/object"
	"resume-dashboard/internal/shared/telemetry"
	"resume-dashboard/internal/shared/util"
)

const (
	kindWorkshop = "workshop"
	kindTailored = "tailored"
)

// Remote is the part of the API client exports need.
type Remote interface {
	GetWorkshop(ctx context.Context, id string) (apiclient.Workshop, error)
	ExportWorkshop(ctx context.Context, id, format string) (apiclient.ExportFile, error)
	GetTailored(ctx context.Context, id string) (apiclient.TailoredResume, error)
	GetResume(ctx context.Context, id string) (apiclient.Resume, error)
	ExportTailored(ctx context.Context, id, format string) (apiclient.ExportFile, error)
}

// Service renders exports and keeps finished files in the object store.
// A nil Store disables artifact caching.
type Service struct {
	Cache     *querycache.Cache
	Store     object.Store
	Artifacts ArtifactRepo

	group singleflight.Group
}

// NewService constructs a Service.
func NewService(cache *querycache.Cache, store object.Store, artifacts ArtifactRepo) *Service {
	if artifacts == nil {
		artifacts = NewMemoryArtifactRepo()
	}
	return &Service{Cache: cache, Store: store, Artifacts: artifacts}
}

type source struct {
	kind     string
	id       string
	version  time.Time
	content  apiclient.ResumeContent
	order    []string
	baseName string
	fetch    func(ctx context.Context) (apiclient.ExportFile, error)
}

// Workshop exports a workshop's current sections.
func (s *Service) Workshop(ctx context.Context, api Remote, user, id string, f Format) (apiclient.ExportFile, error) {
	w, err := querycache.Fetch(ctx, s.Cache, user, querycache.K("workshop", id), func(ctx context.Context) (apiclient.Workshop, error) {
		return api.GetWorkshop(ctx, id)
	})
	if err != nil {
		return apiclient.ExportFile{}, err
	}
	return s.export(ctx, user, source{
		kind:     kindWorkshop,
		id:       id,
		version:  w.UpdatedAt,
		content:  w.Sections,
		order:    w.SectionOrder,
		baseName: fileBase(w.Sections.Contact.Name, w.Company, "workshop-"+id),
		fetch: func(ctx context.Context) (apiclient.ExportFile, error) {
			return api.ExportWorkshop(ctx, id, string(f))
		},
	}, f)
}

// Tailored exports a tailored resume.
func (s *Service) Tailored(ctx context.Context, api Remote, user, id string, f Format) (apiclient.ExportFile, error) {
	t, err := querycache.Fetch(ctx, s.Cache, user, querycache.K("tailored", id), func(ctx context.Context) (apiclient.TailoredResume, error) {
		return api.GetTailored(ctx, id)
	})
	if err != nil {
		return apiclient.ExportFile{}, err
	}
	version, order := t.UpdatedAt, []string(nil)
	if f == FormatTXT && t.ResumeID != "" {
		// Plain text follows the section order of the resume it was tailored from.
		r, err := querycache.Fetch(ctx, s.Cache, user, querycache.K("resume", t.ResumeID), func(ctx context.Context) (apiclient.Resume, error) {
			return api.GetResume(ctx, t.ResumeID)
		})
		switch {
		case err == nil:
			order = r.SectionOrder
			if r.UpdatedAt.After(version) {
				version = r.UpdatedAt
			}
		case apiclient.IsNotFound(err):
		default:
			return apiclient.ExportFile{}, err
		}
	}
	return s.export(ctx, user, source{
		kind:     kindTailored,
		id:       id,
		version:  version,
		content:  t.Content,
		order:    order,
		baseName: fileBase(t.Content.Contact.Name, "", "resume-"+id),
		fetch: func(ctx context.Context) (apiclient.ExportFile, error) {
			return api.ExportTailored(ctx, id, string(f))
		},
	}, f)
}

func (s *Service) export(ctx context.Context, user string, src source, f Format) (apiclient.ExportFile, error) {
	if _, err := ParseFormat(string(f)); err != nil {
		return apiclient.ExportFile{}, err
	}
	key, err := storageKey(user, src, f)
	if err != nil {
		return apiclient.ExportFile{}, err
	}
	metrics.IncExport(string(f))

	if file, ok := s.cached(ctx, key, src, f); ok {
		metrics.IncExportCacheHit()
		return file, nil
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		file, err := s.render(ctx, src, f)
		if err != nil {
			return apiclient.ExportFile{}, err
		}
		s.keep(ctx, user, key, src, f, file)
		return file, nil
	})
	if err != nil {
		return apiclient.ExportFile{}, err
	}
	return v.(apiclient.ExportFile), nil
}

func (s *Service) render(ctx context.Context, src source, f Format) (apiclient.ExportFile, error) {
	if f.remote() {
		file, err := src.fetch(ctx)
		if err != nil {
			return apiclient.ExportFile{}, err
		}
		if file.Filename == "" {
			file.Filename = src.baseName + "." + string(f)
		}
		return file, nil
	}
	return apiclient.ExportFile{
		Filename:    src.baseName + ".txt",
		ContentType: f.ContentType(),
		Data:        RenderText(src.content, src.order),
	}, nil
}

func (s *Service) cached(ctx context.Context, key string, src source, f Format) (apiclient.ExportFile, bool) {
	if s.Store == nil {
		return apiclient.ExportFile{}, false
	}
	rc, err := s.Store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, object.ErrNotFound) {
			telemetry.Warn("export.cache_read_failed", map[string]any{"key": key, "err": err})
		}
		return apiclient.ExportFile{}, false
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		telemetry.Warn("export.cache_read_failed", map[string]any{"key": key, "err": err})
		return apiclient.ExportFile{}, false
	}

	file := apiclient.ExportFile{
		Filename:    src.baseName + "." + string(f),
		ContentType: f.ContentType(),
		Data:        data,
	}
	if a, err := s.Artifacts.Get(ctx, key); err == nil {
		file.Filename = a.FileName
		file.ContentType = a.ContentType
	}
	return file, true
}

// keep stores the artifact and drops older versions of the same format.
// Storage failures only cost a cache miss, so they are logged.
func (s *Service) keep(ctx context.Context, user, key string, src source, f Format, file apiclient.ExportFile) {
	if s.Store == nil {
		return
	}
	size, err := s.Store.Put(ctx, key, file.ContentType, bytes.NewReader(file.Data))
	if err != nil {
		telemetry.Warn("export.cache_write_failed", map[string]any{"key": key, "err": err})
		return
	}
	if err := s.Artifacts.Save(ctx, Artifact{
		StorageKey:  key,
		UserID:      user,
		EntityKind:  src.kind,
		EntityID:    src.id,
		Format:      f,
		FileName:    file.Filename,
		ContentType: file.ContentType,
		SizeBytes:   size,
		CreatedAt:   time.Now().UTC(),
	}); err != nil {
		telemetry.Warn("export.artifact_save_failed", map[string]any{"key": key, "err": err})
		return
	}

	older, err := s.Artifacts.ListEntity(ctx, user, src.kind, src.id)
	if err != nil {
		telemetry.Warn("export.artifact_list_failed", map[string]any{"key": key, "err": err})
		return
	}
	for _, a := range older {
		if a.StorageKey == key || a.Format != f {
			continue
		}
		if err := s.Store.Delete(ctx, a.StorageKey); err != nil {
			telemetry.Warn("export.prune_failed", map[string]any{"key": a.StorageKey, "err": err})
			continue
		}
		_ = s.Artifacts.Delete(ctx, a.StorageKey)
	}
}

// storageKey is exports/<owner>/<kind>/<id>/<version>.<format>.
func storageKey(user string, src source, f Format) (string, error) {
	id, err := util.SanitizeFileName(src.id)
	if err != nil {
		return "", fmt.Errorf("export key: %w", err)
	}
	version := src.version.UTC().Format("20060102T150405.000000000Z")
	return strings.Join([]string{"exports", util.HashUserKey(user), src.kind, id, version + "." + string(f)}, "/"), nil
}

// fileBase builds a download name like Jane_Doe_Acme from the parts present.
func fileBase(name, company, fallback string) string {
	var parts []string
	for _, p := range []string{name, company} {
		if s := slug(p); s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) == 0 {
		return fallback
	}
	return strings.Join(parts, "_")
}

func slug(s string) string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return strings.Join(fields, "_")
}
