// Package export produces PDF, DOCX and TXT files for workshops and
// tailored resumes and keeps finished artifacts in the object store.
package export

import (
	"errors"
	"fmt"
	"strings"
)

// Format is an export file type.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
	FormatTXT  Format = "txt"
)

var ErrUnsupportedFormat = errors.New("unsupported export format")

// ParseFormat accepts pdf, docx or txt in any case.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatPDF, FormatDOCX, FormatTXT:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

// ContentType is the MIME type served for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatPDF:
		return "application/pdf"
	case FormatDOCX:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	default:
		return "text/plain; charset=utf-8"
	}
}

// remote reports whether the file is rendered by the remote service.
func (f Format) remote() bool {
	return f == FormatPDF || f == FormatDOCX
}
