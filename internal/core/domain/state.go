package domain

import "sync"

// TargetState is the per-run lifecycle state of a target.
type TargetState int

const (
	// StateUnvisited is the initial state.
	StateUnvisited TargetState = iota
	// StateInProgress means the target is being checked or its action is running.
	StateInProgress
	// StateSatisfied means the target is up to date, either fresh or rebuilt.
	StateSatisfied
	// StateFailed means the target's action failed or a prerequisite failed.
	StateFailed
)

// BuildState tracks target states for exactly one scheduler run. It is
// created at the start of a run and discarded at the end; concurrent
// invocations never share one. All transitions go through one mutex.
type BuildState struct {
	mu      sync.Mutex
	states  map[InternedString]TargetState
	rebuilt map[InternedString]bool
}

// NewBuildState creates a BuildState with every target unvisited.
func NewBuildState() *BuildState {
	return &BuildState{
		states:  make(map[InternedString]TargetState),
		rebuilt: make(map[InternedString]bool),
	}
}

// Get returns the current state of a target.
func (b *BuildState) Get(name InternedString) TargetState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.states[name]
}

// Set transitions a target to the given state.
func (b *BuildState) Set(name InternedString, s TargetState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.states[name] = s
}

// MarkRebuilt records that the target's action actually ran this invocation.
// Freshness propagates through this set, not just through file timestamps,
// so coarse timestamp granularity on generated intermediates cannot hide a
// rebuild from dependents.
func (b *BuildState) MarkRebuilt(name InternedString) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rebuilt[name] = true
}

// WasRebuilt reports whether the target's action ran this invocation.
func (b *BuildState) WasRebuilt(name InternedString) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.rebuilt[name]
}
