package apiclient

import (
	"context"
	"net/http"
)

// ListJobs returns saved job descriptions.
func (c *Client) ListJobs(ctx context.Context) ([]Job, error) {
	var out []Job
	err := c.getJSON(ctx, "/jobs", nil, &out)
	return out, err
}

// GetJob returns one job.
func (c *Client) GetJob(ctx context.Context, id string) (Job, error) {
	var out Job
	err := c.getJSON(ctx, "/jobs/"+escape(id), nil, &out)
	return out, err
}

// CreateJob stores a job description.
func (c *Client) CreateJob(ctx context.Context, in JobInput) (Job, error) {
	var out Job
	err := c.sendJSON(ctx, http.MethodPost, "/jobs", in, &out)
	return out, err
}

// UpdateJob replaces a job description.
func (c *Client) UpdateJob(ctx context.Context, id string, in JobInput) (Job, error) {
	var out Job
	err := c.sendJSON(ctx, http.MethodPut, "/jobs/"+escape(id), in, &out)
	return out, err
}

// DeleteJob removes a job.
func (c *Client) DeleteJob(ctx context.Context, id string) error {
	return c.sendJSON(ctx, http.MethodDelete, "/jobs/"+escape(id), nil, nil)
}
