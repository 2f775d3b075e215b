package respond

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"resume-dashboard/internal/apiclient"
)

// Remote maps an error from the remote service to a response. what names the
// failed action for messages that carry no detail.
func Remote(c *gin.Context, err error, what string) {
	switch {
	case errors.Is(err, apiclient.ErrUnauthorized), errors.Is(err, apiclient.ErrNoCredentials):
		Error(c, http.StatusUnauthorized, "unauthorized", "session expired, sign in again", nil)
		return
	case errors.Is(err, context.DeadlineExceeded):
		Error(c, http.StatusGatewayTimeout, "upstream_timeout", what+": the service did not respond in time", nil)
		return
	case errors.Is(err, context.Canceled):
		Error(c, 499, "canceled", "request canceled", nil)
		return
	}

	var apiErr *apiclient.APIError
	if !errors.As(err, &apiErr) {
		Error(c, http.StatusBadGateway, "upstream_unavailable", what+": the service is unavailable", nil)
		return
	}
	detail := apiErr.Detail
	if detail == "" {
		detail = what
	}
	switch apiErr.Status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		Error(c, http.StatusBadRequest, "validation_error", detail, nil)
	case http.StatusForbidden:
		Error(c, http.StatusForbidden, "forbidden", detail, nil)
	case http.StatusNotFound:
		Error(c, http.StatusNotFound, "not_found", detail, nil)
	case http.StatusConflict:
		Error(c, http.StatusConflict, "conflict", detail, nil)
	case http.StatusTooManyRequests:
		Error(c, http.StatusTooManyRequests, "rate_limited", detail, nil)
	default:
		Error(c, http.StatusBadGateway, "upstream_error", detail, nil)
	}
}
