// Package vault serves the experience vault: reusable bullet blocks,
// import from a resume and matching against a job.
package vault

import (
	"context"
	"strconv"

	"resume-dashboard/internal/apiclient"
	"resume-dashboard/internal/querycache"
)

// Remote is the part of the API client the vault pages use.
type Remote interface {
	ListBlocks(ctx context.Context, f apiclient.BlockFilter) ([]apiclient.Block, error)
	GetBlock(ctx context.Context, id string) (apiclient.Block, error)
	CreateBlock(ctx context.Context, in apiclient.BlockInput) (apiclient.Block, error)
	UpdateBlock(ctx context.Context, id string, in apiclient.BlockInput) (apiclient.Block, error)
	DeleteBlock(ctx context.Context, id string) error
	ImportBlocks(ctx context.Context, resumeID string) ([]apiclient.Block, error)
	MatchBlocks(ctx context.Context, jobID string, limit int) ([]apiclient.BlockMatch, error)
}

// Service serves vault pages through the query cache.
type Service struct {
	Cache *querycache.Cache
}

// NewService constructs a Service.
func NewService(cache *querycache.Cache) *Service {
	return &Service{Cache: cache}
}

// List returns blocks matching f. Every filter combination is its own
// cache entry under the "blocks" prefix.
func (s *Service) List(ctx context.Context, api Remote, user string, f apiclient.BlockFilter) ([]apiclient.Block, error) {
	key := querycache.K("blocks", f.Query, f.BlockType, strconv.Itoa(f.Limit), strconv.Itoa(f.Offset))
	key = append(key, f.Tags...)
	return querycache.Fetch(ctx, s.Cache, user, key, func(ctx context.Context) ([]apiclient.Block, error) {
		return api.ListBlocks(ctx, f)
	})
}

func (s *Service) Get(ctx context.Context, api Remote, user, id string) (apiclient.Block, error) {
	return querycache.Fetch(ctx, s.Cache, user, querycache.K("block", id), func(ctx context.Context) (apiclient.Block, error) {
		return api.GetBlock(ctx, id)
	})
}

func (s *Service) Create(ctx context.Context, api Remote, user string, in apiclient.BlockInput) (apiclient.Block, error) {
	b, err := api.CreateBlock(ctx, in)
	if err != nil {
		return apiclient.Block{}, err
	}
	s.changed(user)
	s.Cache.Set(user, querycache.K("block", b.ID), b)
	return b, nil
}

func (s *Service) Update(ctx context.Context, api Remote, user, id string, in apiclient.BlockInput) (apiclient.Block, error) {
	b, err := api.UpdateBlock(ctx, id, in)
	if err != nil {
		return apiclient.Block{}, err
	}
	s.changed(user)
	s.Cache.Invalidate(user, "block", id)
	s.Cache.Set(user, querycache.K("block", b.ID), b)
	return b, nil
}

func (s *Service) Delete(ctx context.Context, api Remote, user, id string) error {
	if err := api.DeleteBlock(ctx, id); err != nil {
		return err
	}
	s.changed(user)
	s.Cache.Invalidate(user, "block", id)
	return nil
}

// Import splits a stored resume into vault blocks.
func (s *Service) Import(ctx context.Context, api Remote, user, resumeID string) ([]apiclient.Block, error) {
	blocks, err := api.ImportBlocks(ctx, resumeID)
	if err != nil {
		return nil, err
	}
	s.changed(user)
	return blocks, nil
}

// Match ranks vault blocks against a job.
func (s *Service) Match(ctx context.Context, api Remote, user, jobID string, limit int) ([]apiclient.BlockMatch, error) {
	return querycache.Fetch(ctx, s.Cache, user, querycache.K("block-matches", jobID, strconv.Itoa(limit)), func(ctx context.Context) ([]apiclient.BlockMatch, error) {
		return api.MatchBlocks(ctx, jobID, limit)
	})
}

func (s *Service) changed(user string) {
	s.Cache.Invalidate(user, "blocks")
	s.Cache.Invalidate(user, "block-matches")
	s.Cache.Invalidate(user, "overview")
}
