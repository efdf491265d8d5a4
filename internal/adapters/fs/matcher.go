// Package fs provides filesystem adapters: glob expansion, modification
// times and content hashing.
package fs

import (
	"path/filepath"
	"slices"

	"go.trai.ch/forge/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.PathMatcher = (*Matcher)(nil)

// Matcher implements ports.PathMatcher using filepath.Glob.
type Matcher struct {
	// Root is prepended to relative patterns. Empty means the current directory.
	Root string
}

// NewMatcher creates a Matcher rooted at the current directory.
func NewMatcher() *Matcher {
	return &Matcher{}
}

// Expand resolves the pattern to the existing files it matches, sorted and
// deduplicated. Zero matches is a valid, silent result: prerequisite lists
// routinely glob optional file families.
func (m *Matcher) Expand(pattern string) ([]string, error) {
	p := pattern
	if m.Root != "" && !filepath.IsAbs(p) {
		p = filepath.Join(m.Root, p)
	}

	matches, err := filepath.Glob(p)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "malformed pattern"), "pattern", pattern)
	}

	// filepath.Glob returns matches in directory enumeration order; sort so
	// identical filesystem state always yields identical output.
	slices.Sort(matches)
	return slices.Compact(matches), nil
}
