package domain

import "go.trai.ch/zerr"

var (
	// ErrTargetExists is returned when registering a target whose name is already taken.
	ErrTargetExists = zerr.New("target already exists")

	// ErrUnknownTarget is returned when a target or target-reference prerequisite
	// was never registered. It is fatal at graph construction time.
	ErrUnknownTarget = zerr.New("unknown target")

	// ErrCycleDetected is returned when the dependency graph contains a cycle.
	// The offending chain is attached as metadata under "cycle".
	ErrCycleDetected = zerr.New("cycle detected")

	// ErrDuplicateOutput is returned when two non-phony targets claim the same
	// backing file.
	ErrDuplicateOutput = zerr.New("duplicate output file")

	// ErrActionFailed is returned when an external action exits non-zero.
	ErrActionFailed = zerr.New("action failed")

	// ErrBuildFailed is the summary error for a run whose report contains at
	// least one failure outcome.
	ErrBuildFailed = zerr.New("build failed")

	// ErrNoTargetsSpecified is returned when a run is requested with an empty
	// target selection.
	ErrNoTargetsSpecified = zerr.New("no targets specified")
)
