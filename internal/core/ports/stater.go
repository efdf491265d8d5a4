package ports

import "time"

// FileStater reports file modification times for staleness decisions.
// Timestamps are always re-read from the filesystem per invocation, never
// persisted across runs.
//
//go:generate go run go.uber.org/mock/mockgen -source=stater.go -destination=mocks/mock_stater.go -package=mocks
type FileStater interface {
	// ModTime returns the last-modified time of path. exists is false when
	// the file is absent, which is a valid state, not an error.
	ModTime(path string) (mtime time.Time, exists bool, err error)
}
