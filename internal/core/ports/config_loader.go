package ports

import "go.trai.ch/forge/internal/core/domain"

// ConfigLoader loads the rules file into a target registry.
//
//go:generate go run go.uber.org/mock/mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load reads the rules file from the given working directory and returns
	// the registry plus the raw bytes of the file (for fingerprinting).
	Load(cwd string) (*domain.Registry, []byte, error)
}
