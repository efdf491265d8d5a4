package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/forge/internal/adapters/cas"        //nolint:depguard // Wired in app layer
	"go.trai.ch/forge/internal/adapters/config"     //nolint:depguard // Wired in app layer
	"go.trai.ch/forge/internal/adapters/fs"         //nolint:depguard // Wired in app layer
	"go.trai.ch/forge/internal/adapters/logger"     //nolint:depguard // Wired in app layer
	"go.trai.ch/forge/internal/adapters/telemetry"  //nolint:depguard // Wired in app layer
	"go.trai.ch/forge/internal/adapters/testreport" //nolint:depguard // Wired in app layer
	"go.trai.ch/forge/internal/adapters/toolchain"  //nolint:depguard // Wired in app layer
	"go.trai.ch/forge/internal/core/ports"
	"go.trai.ch/forge/internal/engine/scheduler"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

// Components contains the initialized application components needed by the
// CLI layer.
type Components struct {
	App       *App
	Logger    ports.Logger
	Telemetry ports.Telemetry
	// ConfigLoader is exposed concretely so the CLI can rebind the rules
	// file path from the --config flag.
	ConfigLoader *config.Loader
}

func init() {
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			fs.MatcherNodeID,
			fs.HasherNodeID,
			toolchain.NodeID,
			cas.NodeID,
			testreport.NodeID,
			scheduler.NodeID,
			logger.NodeID,
		},
		Run: runAppNode,
	})

	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
			telemetry.NodeID,
			config.NodeID,
		},
		Run: runComponentsNode,
	})
}

func runAppNode(ctx context.Context) (*App, error) {
	loader, err := graft.Dep[*config.Loader](ctx)
	if err != nil {
		return nil, err
	}
	matcher, err := graft.Dep[ports.PathMatcher](ctx)
	if err != nil {
		return nil, err
	}
	tools, err := graft.Dep[ports.ToolchainResolver](ctx)
	if err != nil {
		return nil, err
	}
	store, err := graft.Dep[ports.FingerprintStore](ctx)
	if err != nil {
		return nil, err
	}
	hasher, err := graft.Dep[*fs.Hasher](ctx)
	if err != nil {
		return nil, err
	}
	parser, err := graft.Dep[*testreport.Parser](ctx)
	if err != nil {
		return nil, err
	}
	sched, err := graft.Dep[*scheduler.Scheduler](ctx)
	if err != nil {
		return nil, err
	}
	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}
	return New(loader, matcher, tools, store, hasher, parser, sched, log), nil
}

func runComponentsNode(ctx context.Context) (*Components, error) {
	application, err := graft.Dep[*App](ctx)
	if err != nil {
		return nil, err
	}
	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}
	tel, err := graft.Dep[ports.Telemetry](ctx)
	if err != nil {
		return nil, err
	}
	loader, err := graft.Dep[*config.Loader](ctx)
	if err != nil {
		return nil, err
	}
	return &Components{App: application, Logger: log, Telemetry: tel, ConfigLoader: loader}, nil
}
