package fs

import (
	"os"
	"time"

	"go.trai.ch/forge/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.FileStater = (*Stater)(nil)

// Stater implements ports.FileStater using os.Stat.
type Stater struct{}

// NewStater creates a new Stater.
func NewStater() *Stater {
	return &Stater{}
}

// ModTime returns the last-modified time of path. A missing file is reported
// through the exists flag, not as an error.
func (s *Stater) ModTime(path string) (time.Time, bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, zerr.With(zerr.Wrap(err, "failed to stat path"), "path", path)
	}
	return info.ModTime(), true, nil
}
