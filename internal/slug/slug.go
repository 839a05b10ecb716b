// Package slug derives URL-safe article identifiers from titles.
package slug

import (
	"context"
	"math/rand/v2"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

const (
	suffixLength   = 6
	suffixAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
)

var (
	whitespaceRegex = regexp.MustCompile(`\s+`)
	nonWordRegex    = regexp.MustCompile(`[^\w-]`)
	hyphenRunRegex  = regexp.MustCompile(`-{2,}`)
	slugRegex       = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)
)

// Normalize turns a title into its slug base without any uniqueness handling.
// Underscores survive the word-character filter but are emitted as hyphens so
// every result is lowercase alphanumerics separated by single hyphens.
// Normalize returns "" when the title has no usable characters.
func Normalize(title string) string {
	s := whitespaceRegex.ReplaceAllString(title, "-")
	s = norm.NFD.String(s)
	s = nonWordRegex.ReplaceAllString(s, "")
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "_", "-")
	s = hyphenRunRegex.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// Valid reports whether s is a well-formed slug.
func Valid(s string) bool {
	return slugRegex.MatchString(s)
}

// ExistsFunc reports whether a slug is already taken.
type ExistsFunc func(ctx context.Context, slug string) (bool, error)

// Generator produces slugs that are unique at the time of the existence check.
type Generator struct {
	exists ExistsFunc
	suffix func() string
}

// NewGenerator creates a Generator backed by the given existence check.
func NewGenerator(exists ExistsFunc) *Generator {
	return &Generator{exists: exists, suffix: RandomSuffix}
}

// WithSuffix replaces the random suffix source.
func (g *Generator) WithSuffix(fn func() string) *Generator {
	g.suffix = fn
	return g
}

// Generate derives a slug for title. When the base slug is taken a single
// random suffix is appended; the suffixed value is not checked again, so the
// store's unique index remains the final arbiter.
func (g *Generator) Generate(ctx context.Context, title string) (string, error) {
	base := Normalize(title)
	if base == "" {
		base = g.suffix()
	}

	taken, err := g.exists(ctx, base)
	if err != nil {
		return "", err
	}
	if !taken {
		return base, nil
	}
	return base + "-" + g.suffix(), nil
}

// RandomSuffix returns six random lowercase alphanumeric characters.
func RandomSuffix() string {
	var b strings.Builder
	b.Grow(suffixLength)
	for range suffixLength {
		b.WriteByte(suffixAlphabet[rand.IntN(len(suffixAlphabet))])
	}
	return b.String()
}
