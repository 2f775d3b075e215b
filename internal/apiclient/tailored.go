package apiclient

import (
	"context"
	"net/http"
	"net/url"
)

// ListTailored returns generated resumes, optionally for one job.
func (c *Client) ListTailored(ctx context.Context, jobID string) ([]TailoredResume, error) {
	var q url.Values
	if jobID != "" {
		q = url.Values{"job_id": []string{jobID}}
	}
	var out []TailoredResume
	err := c.getJSON(ctx, "/tailored", q, &out)
	return out, err
}

// GetTailored returns one tailored resume.
func (c *Client) GetTailored(ctx context.Context, id string) (TailoredResume, error) {
	var out TailoredResume
	err := c.getJSON(ctx, "/tailored/"+escape(id), nil, &out)
	return out, err
}

// Tailor generates a resume variant for a job.
func (c *Client) Tailor(ctx context.Context, resumeID, jobID string) (TailoredResume, error) {
	var out TailoredResume
	err := c.sendJSON(ctx, http.MethodPost, "/tailor", map[string]string{
		"resume_id": resumeID,
		"job_id":    jobID,
	}, &out)
	return out, err
}

// UpdateTailored saves edited content.
func (c *Client) UpdateTailored(ctx context.Context, id string, content ResumeContent, style *ResumeStyle) (TailoredResume, error) {
	body := map[string]any{"content": content}
	if style != nil {
		body["style"] = style
	}
	var out TailoredResume
	err := c.sendJSON(ctx, http.MethodPatch, "/tailored/"+escape(id), body, &out)
	return out, err
}

// DeleteTailored removes a tailored resume.
func (c *Client) DeleteTailored(ctx context.Context, id string) error {
	return c.sendJSON(ctx, http.MethodDelete, "/tailored/"+escape(id), nil, nil)
}

// ExportTailored renders a tailored resume (pdf or docx).
func (c *Client) ExportTailored(ctx context.Context, id, format string) (ExportFile, error) {
	q := url.Values{"format": []string{format}}
	return c.download(ctx, "/tailored/"+escape(id)+"/export", q, "resume-"+id+"."+format)
}
