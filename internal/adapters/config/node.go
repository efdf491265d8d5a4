package config

import (
	"context"

	"github.com/grindlemire/graft"
)

// NodeID is the unique identifier for the config loader Graft node.
const NodeID graft.ID = "adapter.config_loader"

func init() {
	// Registered as the concrete type: the CLI layer rebinds Filename from
	// the --config flag before the first Load.
	graft.Register(graft.Node[*Loader]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (*Loader, error) {
			return NewLoader(), nil
		},
	})
}
