package apiclient

import (
	"context"
	"net/http"
	"net/url"
)

// ListWorkshops returns the user's workshops.
func (c *Client) ListWorkshops(ctx context.Context) ([]Workshop, error) {
	var out []Workshop
	err := c.getJSON(ctx, "/workshops", nil, &out)
	return out, err
}

// GetWorkshop returns one workshop including its pending suggestions.
func (c *Client) GetWorkshop(ctx context.Context, id string) (Workshop, error) {
	var out Workshop
	err := c.getJSON(ctx, "/workshops/"+escape(id), nil, &out)
	return out, err
}

// CreateWorkshop opens a workshop for a job.
func (c *Client) CreateWorkshop(ctx context.Context, jobID string) (Workshop, error) {
	var out Workshop
	err := c.sendJSON(ctx, http.MethodPost, "/workshops", map[string]string{"job_id": jobID}, &out)
	return out, err
}

// DeleteWorkshop removes a workshop.
func (c *Client) DeleteWorkshop(ctx context.Context, id string) error {
	return c.sendJSON(ctx, http.MethodDelete, "/workshops/"+escape(id), nil, nil)
}

// UpdateWorkshopSections overwrites the workshop sections.
func (c *Client) UpdateWorkshopSections(ctx context.Context, id string, sections ResumeContent, order []string) (Workshop, error) {
	body := map[string]any{"sections": sections}
	if len(order) > 0 {
		body["section_order"] = order
	}
	var out Workshop
	err := c.sendJSON(ctx, http.MethodPatch, "/workshops/"+escape(id), body, &out)
	return out, err
}

// PullBlocks adds vault blocks to the workshop.
func (c *Client) PullBlocks(ctx context.Context, id string, blockIDs []string) (Workshop, error) {
	var out Workshop
	err := c.sendJSON(ctx, http.MethodPost, "/workshops/"+escape(id)+"/pull", map[string][]string{"block_ids": blockIDs}, &out)
	return out, err
}

// RemoveBlock drops a pulled block from the workshop.
func (c *Client) RemoveBlock(ctx context.Context, id, blockID string) (Workshop, error) {
	var out Workshop
	err := c.sendJSON(ctx, http.MethodDelete, "/workshops/"+escape(id)+"/blocks/"+escape(blockID), nil, &out)
	return out, err
}

// SuggestDiffs asks the service to generate suggestions for the workshop.
func (c *Client) SuggestDiffs(ctx context.Context, id string) (Workshop, error) {
	var out Workshop
	err := c.sendJSON(ctx, http.MethodPost, "/workshops/"+escape(id)+"/suggest", struct{}{}, &out)
	return out, err
}

// AcceptDiffs applies the given suggestions on the remote side.
func (c *Client) AcceptDiffs(ctx context.Context, id string, suggestionIDs []string) (Workshop, error) {
	var out Workshop
	err := c.sendJSON(ctx, http.MethodPost, "/workshops/"+escape(id)+"/diffs/accept", map[string][]string{"suggestion_ids": suggestionIDs}, &out)
	return out, err
}

// RejectDiffs discards the given suggestions.
func (c *Client) RejectDiffs(ctx context.Context, id string, suggestionIDs []string) (Workshop, error) {
	var out Workshop
	err := c.sendJSON(ctx, http.MethodPost, "/workshops/"+escape(id)+"/diffs/reject", map[string][]string{"suggestion_ids": suggestionIDs}, &out)
	return out, err
}

// ExportWorkshop renders the workshop in the requested format (pdf or docx).
func (c *Client) ExportWorkshop(ctx context.Context, id, format string) (ExportFile, error) {
	q := url.Values{"format": []string{format}}
	return c.download(ctx, "/workshops/"+escape(id)+"/export", q, "workshop-"+id+"."+format)
}
