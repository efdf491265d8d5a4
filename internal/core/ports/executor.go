package ports

import (
	"context"
	"io"

	"go.trai.ch/forge/internal/core/domain"
)

// Executor invokes a target's external action.
//
//go:generate go run go.uber.org/mock/mockgen -source=executor.go -destination=mocks/mock_executor.go -package=mocks
type Executor interface {
	// Execute runs the target's command with the given base environment,
	// streaming the action's output to stdout and stderr. The environment is
	// in "KEY=VALUE" form, typically assembled by a ToolchainResolver; the
	// target's own environment overrides are applied on top.
	//
	// It returns domain.ErrActionFailed (with exit-code metadata) when the
	// command exits non-zero.
	Execute(ctx context.Context, target *domain.Target, env []string, stdout, stderr io.Writer) error
}
