// Package ports defines the core interfaces for the application.
package ports

// PathMatcher resolves glob patterns against the filesystem.
//
//go:generate go run go.uber.org/mock/mockgen -source=matcher.go -destination=mocks/mock_matcher.go -package=mocks
type PathMatcher interface {
	// Expand resolves a shell-style pattern to the existing files it matches.
	// Results are sorted lexicographically and deduplicated; identical
	// filesystem state always yields identical output. Zero matches returns
	// an empty slice, not an error.
	Expand(pattern string) ([]string, error)
}
