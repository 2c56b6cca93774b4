package render

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Moniqchege/resume-builder/internal/shared/util"
)

// Supported export formats.
const (
	FormatTXT  = "txt"
	FormatDOCX = "docx"
)

// ErrUnsupportedFormat is returned for export formats the renderer
// does not produce.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// Result is a rendered document ready to store or stream.
type Result struct {
	Data        []byte
	ContentType string
	FileName    string
}

// Render produces a downloadable document from plain resume text.
func Render(format, title, text string) (Result, error) {
	base, err := util.SanitizeFileName(title)
	if err != nil || base == "" {
		base = "resume"
	}
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatTXT:
		return Result{
			Data:        []byte(text),
			ContentType: "text/plain; charset=utf-8",
			FileName:    base + ".txt",
		}, nil
	case FormatDOCX:
		data, err := renderDOCX(text)
		if err != nil {
			return Result{}, fmt.Errorf("render docx: %w", err)
		}
		return Result{
			Data:        data,
			ContentType: "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
			FileName:    base + ".docx",
		}, nil
	default:
		return Result{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}
