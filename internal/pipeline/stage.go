// Package pipeline drives the per-file processing state machine: a
// malware scan followed by one content-type-specific transform, both
// executed out-of-band from the request that triggered them.
package pipeline

import (
	"context"
	"strings"

	"github.com/filecrate/filecrate/internal/file"
)

// Category is the normalized content-type family a stage is keyed on.
type Category string

const (
	CategoryImage Category = "image"
	CategoryVideo Category = "video"
	CategoryPDF   Category = "pdf"
	CategoryOther Category = "other"
)

// Categorize maps a declared content type to its stage category.
func Categorize(contentType string) Category {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	switch {
	case strings.HasPrefix(ct, "image/"):
		return CategoryImage
	case strings.HasPrefix(ct, "video/"):
		return CategoryVideo
	case ct == "application/pdf":
		return CategoryPDF
	default:
		return CategoryOther
	}
}

// Stage is one derived-artifact transform. Implementations wrap exactly
// one external tool and carry the key suffix, output type, and terminal
// statuses for their artifact.
type Stage interface {
	// Name identifies the stage in logs and metrics.
	Name() string

	// Suffix is the derived-key suffix (e.g. "optimized").
	Suffix() string

	// OutputExt is the derived artifact's file extension without dot.
	OutputExt() string

	// OutputContentType is the MIME type of the derived artifact.
	OutputContentType() string

	// DoneStatus is the terminal status on success.
	DoneStatus() file.Status

	// FailedStatus is the terminal status on failure.
	FailedStatus() file.Status

	// Transform produces the derived artifact from the original bytes.
	Transform(ctx context.Context, src []byte) ([]byte, error)
}

// Registry dispatches categories to stages. New stages register a new
// variant instead of growing a conditional chain.
type Registry struct {
	stages map[Category]Stage
}

// NewRegistry creates an empty stage registry.
func NewRegistry() *Registry {
	return &Registry{stages: make(map[Category]Stage)}
}

// Register binds a stage to a category, replacing any previous binding.
func (r *Registry) Register(cat Category, s Stage) {
	r.stages[cat] = s
}

// For returns the stage bound to a category, if any. Categories without
// a stage (CategoryOther) terminate processing at the scan result.
func (r *Registry) For(cat Category) (Stage, bool) {
	s, ok := r.stages[cat]
	return s, ok
}

// NewDefaultRegistry binds the built-in stages: image optimization,
// video transcoding, and PDF sanitization.
func NewDefaultRegistry(ffmpegPath string) *Registry {
	r := NewRegistry()
	r.Register(CategoryImage, NewImageStage())
	r.Register(CategoryVideo, NewVideoStage(ffmpegPath))
	r.Register(CategoryPDF, NewPDFStage())
	return r
}
