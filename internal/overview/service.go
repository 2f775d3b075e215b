// Package overview builds the dashboard landing page from the other pages'
// cached queries.
package overview

import (
	"context"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"resume-dashboard/internal/apiclient"
	"resume-dashboard/internal/jobs"
	"resume-dashboard/internal/querycache"
	"resume-dashboard/internal/resumes"
	"resume-dashboard/internal/tailored"
	"resume-dashboard/internal/vault"
	"resume-dashboard/internal/workshops"
)

const recentLimit = 5

// vaultCountLimit caps the block listing used for the vault count.
const vaultCountLimit = 500

// Remote is everything the overview reads.
type Remote interface {
	resumes.Remote
	jobs.Remote
	vault.Remote
	workshops.Remote
	tailored.Remote
}

// Counts is the number of entities of each kind.
type Counts struct {
	Resumes            int `json:"resumes"`
	Jobs               int `json:"jobs"`
	Blocks             int `json:"blocks"`
	Workshops          int `json:"workshops"`
	Tailored           int `json:"tailored"`
	PendingSuggestions int `json:"pendingSuggestions"`
}

// Item is one row in a recent list.
type Item struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Subtitle  string    `json:"subtitle,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Overview is the landing page payload.
type Overview struct {
	Counts          Counts `json:"counts"`
	MasterResumeID  string `json:"masterResumeId,omitempty"`
	RecentResumes   []Item `json:"recentResumes"`
	RecentJobs      []Item `json:"recentJobs"`
	RecentWorkshops []Item `json:"recentWorkshops"`
	RecentTailored  []Item `json:"recentTailored"`
}

// Service assembles the overview.
type Service struct {
	Cache     *querycache.Cache
	Resumes   *resumes.Service
	Jobs      *jobs.Service
	Vault     *vault.Service
	Workshops *workshops.Service
	Tailored  *tailored.Service
}

// Get loads every list concurrently. Each list goes through its own page's
// cache entry, so the overview and the pages share fetches.
func (s *Service) Get(ctx context.Context, api Remote, user string) (Overview, error) {
	return querycache.Fetch(ctx, s.Cache, user, querycache.K("overview"), func(ctx context.Context) (Overview, error) {
		return s.load(ctx, api, user)
	})
}

func (s *Service) load(ctx context.Context, api Remote, user string) (Overview, error) {
	var (
		rs []apiclient.Resume
		js []apiclient.Job
		bs []apiclient.Block
		ws []apiclient.Workshop
		ts []apiclient.TailoredResume
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		rs, err = s.Resumes.List(gctx, api, user)
		return err
	})
	g.Go(func() (err error) {
		js, err = s.Jobs.List(gctx, api, user)
		return err
	})
	g.Go(func() (err error) {
		bs, err = s.Vault.List(gctx, api, user, apiclient.BlockFilter{Limit: vaultCountLimit})
		return err
	})
	g.Go(func() (err error) {
		ws, err = s.Workshops.List(gctx, api, user)
		return err
	})
	g.Go(func() (err error) {
		ts, err = s.Tailored.List(gctx, api, user, "")
		return err
	})
	if err := g.Wait(); err != nil {
		return Overview{}, err
	}

	out := Overview{
		Counts: Counts{
			Resumes:   len(rs),
			Jobs:      len(js),
			Blocks:    len(bs),
			Workshops: len(ws),
			Tailored:  len(ts),
		},
		RecentResumes:   []Item{},
		RecentJobs:      []Item{},
		RecentWorkshops: []Item{},
		RecentTailored:  []Item{},
	}

	jobTitles := make(map[string]string, len(js))
	for _, j := range js {
		jobTitles[j.ID] = j.Title
		out.RecentJobs = append(out.RecentJobs, Item{ID: j.ID, Title: j.Title, Subtitle: j.Company, UpdatedAt: j.UpdatedAt})
	}
	for _, r := range rs {
		if r.IsMaster {
			out.MasterResumeID = r.ID
		}
		out.RecentResumes = append(out.RecentResumes, Item{ID: r.ID, Title: r.Title, UpdatedAt: r.UpdatedAt})
	}
	for _, w := range ws {
		out.Counts.PendingSuggestions += len(w.PendingDiffs)
		title := w.JobTitle
		if title == "" {
			title = jobTitles[w.JobID]
		}
		out.RecentWorkshops = append(out.RecentWorkshops, Item{ID: w.ID, Title: title, Subtitle: w.Company, UpdatedAt: w.UpdatedAt})
	}
	for _, t := range ts {
		out.RecentTailored = append(out.RecentTailored, Item{ID: t.ID, Title: jobTitles[t.JobID], UpdatedAt: t.UpdatedAt})
	}

	out.RecentResumes = recent(out.RecentResumes)
	out.RecentJobs = recent(out.RecentJobs)
	out.RecentWorkshops = recent(out.RecentWorkshops)
	out.RecentTailored = recent(out.RecentTailored)
	return out, nil
}

func recent(items []Item) []Item {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].UpdatedAt.After(items[j].UpdatedAt)
	})
	if len(items) > recentLimit {
		items = items[:recentLimit]
	}
	return items
}
