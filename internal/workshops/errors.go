package workshops

import "errors"

var (
	ErrSuggestionNotFound = errors.New("suggestion not found")
	ErrNothingToCommit    = errors.New("no decided suggestions to commit")
	ErrInvalidInput       = errors.New("invalid input")
)
