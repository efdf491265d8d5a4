// Package main is the entry point for the forge build driver.
package main

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/grindlemire/graft"
	"go.trai.ch/forge/cmd/forge/commands"
	"go.trai.ch/forge/internal/app"
	"go.trai.ch/forge/internal/core/domain"
	_ "go.trai.ch/forge/internal/wiring"
)

// Exit codes: 0 success, 1 build failure, 2 usage or configuration error.
const (
	exitOK = iota
	exitBuildFailure
	exitUsage
)

// componentsProvider builds the application components and returns a cleanup
// function. Tests substitute their own provider.
type componentsProvider func(ctx context.Context) (*app.Components, func(), error)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	os.Exit(run(ctx, os.Args[1:], os.Stderr, graftProvider))
}

// graftProvider resolves the components through the Graft node graph.
func graftProvider(ctx context.Context) (*app.Components, func(), error) {
	components, _, err := graft.ExecuteFor[*app.Components](ctx)
	if err != nil {
		return nil, nil, err
	}
	return components, func() { _ = components.Telemetry.Close() }, nil
}

func run(ctx context.Context, args []string, stderr io.Writer, provide componentsProvider) int {
	components, cleanup, err := provide(ctx)
	if err != nil {
		// Logger is not available if initialization failed.
		_, _ = io.WriteString(stderr, "Error: "+err.Error()+"\n")
		return exitUsage
	}
	defer cleanup()

	cli := commands.New(components.App)
	if components.ConfigLoader != nil {
		cli.SetConfigHook(func(path string) {
			components.ConfigLoader.Filename = path
		})
	}
	cli.SetArgs(args)

	if err := cli.Execute(ctx); err != nil {
		components.Logger.Error(err)
		if errors.Is(err, domain.ErrBuildFailed) {
			return exitBuildFailure
		}
		// Unknown commands, unknown targets, cycles, duplicate outputs and
		// unreadable rules all stop before any action runs.
		return exitUsage
	}
	return exitOK
}
