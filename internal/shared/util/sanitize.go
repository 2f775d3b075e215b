package util

import (
	"errors"
	"strings"
	"unicode"
)

// ErrInvalidName is returned for names that cannot be used as a storage key segment.
var ErrInvalidName = errors.New("invalid name")

const maxSegmentRunes = 128

// SanitizeFileName turns an identifier into one storage key segment:
// separators and control characters become "_", traversal is rejected and
// the result is capped at 128 runes.
func SanitizeFileName(name string) (string, error) {
	s := strings.TrimSpace(name)
	if s == "" || s == "." || strings.Contains(s, "..") {
		return "", ErrInvalidName
	}
	s = strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || unicode.IsControl(r) {
			return '_'
		}
		return r
	}, s)
	if r := []rune(s); len(r) > maxSegmentRunes {
		s = string(r[:maxSegmentRunes])
	}
	return s, nil
}
