package apiclient

import (
	"context"
	"net/http"
)

// ListResumes returns the user's resumes.
func (c *Client) ListResumes(ctx context.Context) ([]Resume, error) {
	var out []Resume
	err := c.getJSON(ctx, "/resumes", nil, &out)
	return out, err
}

// GetResume returns one resume.
func (c *Client) GetResume(ctx context.Context, id string) (Resume, error) {
	var out Resume
	err := c.getJSON(ctx, "/resumes/"+escape(id), nil, &out)
	return out, err
}

// CreateResume stores a new resume. The service parses RawText when
// Content is omitted.
func (c *Client) CreateResume(ctx context.Context, in ResumeInput) (Resume, error) {
	var out Resume
	err := c.sendJSON(ctx, http.MethodPost, "/resumes", in, &out)
	return out, err
}

// UpdateResume applies a partial update.
func (c *Client) UpdateResume(ctx context.Context, id string, in ResumeUpdate) (Resume, error) {
	var out Resume
	err := c.sendJSON(ctx, http.MethodPatch, "/resumes/"+escape(id), in, &out)
	return out, err
}

// DeleteResume removes a resume.
func (c *Client) DeleteResume(ctx context.Context, id string) error {
	return c.sendJSON(ctx, http.MethodDelete, "/resumes/"+escape(id), nil, nil)
}

// UploadResume stores a resume from text already extracted from an uploaded
// file; the service parses it into structured content.
func (c *Client) UploadResume(ctx context.Context, title, rawText string, isMaster bool) (Resume, error) {
	return c.CreateResume(ctx, ResumeInput{Title: title, RawText: rawText, IsMaster: isMaster})
}
