package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// ListBlocks returns vault blocks matching the filter.
func (c *Client) ListBlocks(ctx context.Context, f BlockFilter) ([]Block, error) {
	var out []Block
	err := c.getJSON(ctx, "/blocks", f.values(), &out)
	return out, err
}

// GetBlock returns one block.
func (c *Client) GetBlock(ctx context.Context, id string) (Block, error) {
	var out Block
	err := c.getJSON(ctx, "/blocks/"+escape(id), nil, &out)
	return out, err
}

// CreateBlock adds a block to the vault.
func (c *Client) CreateBlock(ctx context.Context, in BlockInput) (Block, error) {
	var out Block
	err := c.sendJSON(ctx, http.MethodPost, "/blocks", in, &out)
	return out, err
}

// UpdateBlock replaces a block.
func (c *Client) UpdateBlock(ctx context.Context, id string, in BlockInput) (Block, error) {
	var out Block
	err := c.sendJSON(ctx, http.MethodPut, "/blocks/"+escape(id), in, &out)
	return out, err
}

// DeleteBlock removes a block.
func (c *Client) DeleteBlock(ctx context.Context, id string) error {
	return c.sendJSON(ctx, http.MethodDelete, "/blocks/"+escape(id), nil, nil)
}

// ImportBlocks splits a stored resume into vault blocks.
func (c *Client) ImportBlocks(ctx context.Context, resumeID string) ([]Block, error) {
	var out []Block
	err := c.sendJSON(ctx, http.MethodPost, "/blocks/import", map[string]string{"resume_id": resumeID}, &out)
	return out, err
}

// MatchBlocks ranks vault blocks against a job.
func (c *Client) MatchBlocks(ctx context.Context, jobID string, limit int) ([]BlockMatch, error) {
	body := map[string]any{"job_id": jobID}
	if limit > 0 {
		body["limit"] = limit
	}
	var out []BlockMatch
	err := c.sendJSON(ctx, http.MethodPost, "/blocks/match", body, &out)
	return out, err
}

func (f BlockFilter) values() url.Values {
	q := url.Values{}
	if s := strings.TrimSpace(f.Query); s != "" {
		q.Set("q", s)
	}
	if s := strings.TrimSpace(f.BlockType); s != "" {
		q.Set("block_type", s)
	}
	for _, tag := range f.Tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			q.Add("tags", tag)
		}
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	if f.Offset > 0 {
		q.Set("offset", strconv.Itoa(f.Offset))
	}
	return q
}
