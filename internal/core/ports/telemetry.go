package ports

import (
	"context"
	"io"
)

//go:generate go run go.uber.org/mock/mockgen -source=telemetry.go -destination=mocks/mock_telemetry.go -package=mocks

// Telemetry records build progress as vertices, one per executed target.
type Telemetry interface {
	// Record starts recording a new vertex.
	Record(ctx context.Context, name string) (context.Context, Vertex)
	// Close flushes and closes the recording session.
	Close() error
}

// Vertex represents one target's execution in the progress stream.
type Vertex interface {
	// Stdout returns a writer capturing the action's standard output.
	Stdout() io.Writer
	// Stderr returns a writer capturing the action's error output.
	Stderr() io.Writer
	// Complete marks the vertex as finished, successfully or with an error.
	Complete(err error)
	// Cached marks the vertex as skipped-fresh.
	Cached()
}
