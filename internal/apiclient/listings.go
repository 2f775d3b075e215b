package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// SearchListings queries external job postings.
func (c *Client) SearchListings(ctx context.Context, q ListingQuery) (ListingPage, error) {
	var out ListingPage
	err := c.getJSON(ctx, "/job-listings", q.values(), &out)
	return out, err
}

// GetListing returns one posting.
func (c *Client) GetListing(ctx context.Context, id string) (JobListing, error) {
	var out JobListing
	err := c.getJSON(ctx, "/job-listings/"+escape(id), nil, &out)
	return out, err
}

// SaveListing copies a posting into the user's jobs.
func (c *Client) SaveListing(ctx context.Context, id string) (Job, error) {
	var out Job
	err := c.sendJSON(ctx, http.MethodPost, "/job-listings/"+escape(id)+"/save", struct{}{}, &out)
	return out, err
}

func (q ListingQuery) values() url.Values {
	v := url.Values{}
	if s := strings.TrimSpace(q.Query); s != "" {
		v.Set("q", s)
	}
	if s := strings.TrimSpace(q.Location); s != "" {
		v.Set("location", s)
	}
	if q.Remote {
		v.Set("remote", "true")
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.PageSize > 0 {
		v.Set("page_size", strconv.Itoa(q.PageSize))
	}
	return v
}
