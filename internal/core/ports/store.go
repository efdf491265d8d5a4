package ports

import "go.trai.ch/forge/internal/core/domain"

// FingerprintStore persists rules-file fingerprints between invocations.
//
//go:generate go run go.uber.org/mock/mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks
type FingerprintStore interface {
	// Get retrieves the fingerprint for a given name.
	// Returns nil, nil if not found.
	Get(name string) (*domain.Fingerprint, error)

	// Put stores the fingerprint.
	Put(fp domain.Fingerprint) error
}
