package fs

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/forge/internal/core/ports"
)

const (
	// MatcherNodeID is the unique identifier for the path matcher Graft node.
	MatcherNodeID graft.ID = "adapter.fs.matcher"
	// StaterNodeID is the unique identifier for the file stater Graft node.
	StaterNodeID graft.ID = "adapter.fs.stater"
	// HasherNodeID is the unique identifier for the hasher Graft node.
	HasherNodeID graft.ID = "adapter.fs.hasher"
)

func init() {
	graft.Register(graft.Node[ports.PathMatcher]{
		ID:        MatcherNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.PathMatcher, error) {
			return NewMatcher(), nil
		},
	})

	graft.Register(graft.Node[ports.FileStater]{
		ID:        StaterNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.FileStater, error) {
			return NewStater(), nil
		},
	})

	graft.Register(graft.Node[*Hasher]{
		ID:        HasherNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (*Hasher, error) {
			return NewHasher(), nil
		},
	})
}
