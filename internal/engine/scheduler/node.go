package scheduler

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/forge/internal/adapters/fs"        //nolint:depguard // Wired in engine node
	"go.trai.ch/forge/internal/adapters/logger"    //nolint:depguard // Wired in engine node
	"go.trai.ch/forge/internal/adapters/shell"     //nolint:depguard // Wired in engine node
	"go.trai.ch/forge/internal/adapters/telemetry" //nolint:depguard // Wired in engine node
	"go.trai.ch/forge/internal/core/ports"
)

// NodeID is the unique identifier for the scheduler Graft node.
const NodeID graft.ID = "engine.scheduler"

func init() {
	graft.Register(graft.Node[*Scheduler]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			shell.NodeID,
			fs.StaterNodeID,
			telemetry.NodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Scheduler, error) {
			executor, err := graft.Dep[ports.Executor](ctx)
			if err != nil {
				return nil, err
			}
			stater, err := graft.Dep[ports.FileStater](ctx)
			if err != nil {
				return nil, err
			}
			tel, err := graft.Dep[ports.Telemetry](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return NewScheduler(executor, stater, tel, log), nil
		},
	})
}
