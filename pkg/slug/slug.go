// Package slug generates lowercase, hyphen-separated identifiers safe
// for use in DNS-style names such as S3 bucket names.
//
// Diacritics are stripped via Unicode normalization, anything outside
// [a-z0-9] becomes a separator, and runs of separators collapse:
//
//	slug.Make("Café & Restaurant")              // "cafe-restaurant"
//	slug.Make("Project Assets", slug.MaxLength(10)) // "project-as"
package slug

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Option configures slug generation.
type Option func(*config)

type config struct {
	maxLength int
}

// MaxLength limits the slug to n runes. Zero or negative means no limit.
// A trailing separator left by the cut is trimmed.
func MaxLength(n int) Option {
	return func(c *config) {
		c.maxLength = n
	}
}

// Make converts an arbitrary string into a slug.
func Make(s string, opts ...Option) string {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}

	// Decompose and drop combining marks, then recompose.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if normalized, _, err := transform.String(t, s); err == nil {
		s = normalized
	}

	s = strings.ToLower(s)

	var b strings.Builder
	b.Grow(len(s))
	lastSep := true // suppress a leading separator
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastSep = false
		default:
			if !lastSep {
				b.WriteByte('-')
				lastSep = true
			}
		}
	}

	out := strings.TrimSuffix(b.String(), "-")

	if cfg.maxLength > 0 {
		r := []rune(out)
		if len(r) > cfg.maxLength {
			out = strings.TrimSuffix(string(r[:cfg.maxLength]), "-")
		}
	}

	return out
}
