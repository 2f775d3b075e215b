package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrUnauthorized means the credentials were rejected and have been cleared.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNoCredentials means no access token is available for an authenticated call.
	ErrNoCredentials = errors.New("no credentials")
)

// APIError is a non-2xx response from the remote service.
type APIError struct {
	Status int
	Detail string
	Method string
	Path   string
}

func (e *APIError) Error() string {
	detail := e.Detail
	if detail == "" {
		detail = http.StatusText(e.Status)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, detail)
}

// Unwrap lets errors.Is(err, ErrUnauthorized) match terminal 401s.
func (e *APIError) Unwrap() error {
	if e.Status == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	return nil
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// IsNotFound reports whether err is a remote 404.
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

// IsValidation reports whether err is a remote 400 or 422.
func IsValidation(err error) bool {
	code := StatusCode(err)
	return code == http.StatusBadRequest || code == http.StatusUnprocessableEntity
}

// Detail returns the human-readable message for err.
func Detail(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

type errorEnvelope struct {
	Detail json.RawMessage `json:"detail"`
}

type validationItem struct {
	Loc []any  `json:"loc"`
	Msg string `json:"msg"`
}

// decodeDetail reads the {detail} envelope. A list of validation items is
// flattened into "field: message; field: message".
func decodeDetail(body []byte) string {
	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err != nil || len(env.Detail) == 0 {
		return strings.TrimSpace(string(body))
	}

	var text string
	if err := json.Unmarshal(env.Detail, &text); err == nil {
		return text
	}

	var items []validationItem
	if err := json.Unmarshal(env.Detail, &items); err == nil {
		parts := make([]string, 0, len(items))
		for _, item := range items {
			field := locField(item.Loc)
			if field == "" {
				parts = append(parts, item.Msg)
				continue
			}
			parts = append(parts, field+": "+item.Msg)
		}
		return strings.Join(parts, "; ")
	}

	return string(env.Detail)
}

func locField(loc []any) string {
	parts := make([]string, 0, len(loc))
	for i, raw := range loc {
		s := fmt.Sprint(raw)
		if i == 0 && (s == "body" || s == "query" || s == "path") {
			continue
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, ".")
}
