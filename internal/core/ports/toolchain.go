package ports

import "context"

// ToolchainResolver constructs the base environment for external actions
// from the rules file's tool location defaults: FORGE_<NAME> process
// variables override declared defaults, tool directories are prepended to
// PATH and the plugin search path is exported.
//
//go:generate go run go.uber.org/mock/mockgen -source=toolchain.go -destination=mocks/mock_toolchain.go -package=mocks
type ToolchainResolver interface {
	// Environment returns environment variables in "KEY=VALUE" form suitable
	// for process execution. The tools map contains name -> default location
	// pairs from the rules file.
	Environment(ctx context.Context, tools map[string]string) ([]string, error)
}
