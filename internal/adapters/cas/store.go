// Package cas implements the persistent fingerprint store.
package cas

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"go.trai.ch/forge/internal/core/domain"
	"go.trai.ch/forge/internal/core/ports"
	"go.trai.ch/zerr"
)

// DefaultPath is the state file location relative to the working directory.
const DefaultPath = ".forge/state.json"

var _ ports.FingerprintStore = (*Store)(nil)

// Store implements ports.FingerprintStore using a flat JSON file. Only
// rules-file fingerprints live here; target freshness is decided from
// timestamps every run and is never persisted.
type Store struct {
	path  string
	mu    sync.RWMutex
	cache map[string]domain.Fingerprint
}

// NewStore creates a Store backed by the file at the given path.
func NewStore(path string) (*Store, error) {
	s := &Store{
		path:  filepath.Clean(path),
		cache: make(map[string]domain.Fingerprint),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	//nolint:gosec // Path is cleaned and provided by trusted caller
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return zerr.Wrap(err, "failed to read fingerprint store")
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, &s.cache); err != nil {
		return zerr.Wrap(err, "failed to unmarshal fingerprint store")
	}
	return nil
}

func (s *Store) save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(s.cache, "", "  ")
	if err != nil {
		return zerr.Wrap(err, "failed to marshal fingerprint store")
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return zerr.Wrap(err, "failed to create state directory")
	}
	//nolint:gosec // Path is cleaned and provided by trusted caller
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return zerr.Wrap(err, "failed to write fingerprint store")
	}
	return nil
}

// Get retrieves the fingerprint for a given name.
// Returns nil, nil if not found.
func (s *Store) Get(name string) (*domain.Fingerprint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	fp, ok := s.cache[name]
	if !ok {
		return nil, nil
	}
	return &fp, nil
}

// Put stores the fingerprint.
func (s *Store) Put(fp domain.Fingerprint) error {
	s.mu.Lock()
	s.cache[fp.Name] = fp
	s.mu.Unlock()

	return s.save()
}
