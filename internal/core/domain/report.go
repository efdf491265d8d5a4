package domain

import (
	"iter"
	"sync"
	"time"
)

// Outcome classifies what happened to a target during one run.
type Outcome string

const (
	// OutcomeSkippedFresh means the target was up to date and its action was skipped.
	OutcomeSkippedFresh Outcome = "skipped-fresh"
	// OutcomeExecutedOK means the action ran and succeeded.
	OutcomeExecutedOK Outcome = "executed-ok"
	// OutcomeExecutedFailed means the action ran and failed.
	OutcomeExecutedFailed Outcome = "executed-failed"
	// OutcomeShortCircuited means the action was never invoked because a
	// prerequisite failed (or, in fail-fast mode, because dispatch stopped).
	OutcomeShortCircuited Outcome = "short-circuited"
)

// Failure reports whether the outcome is a failure kind.
func (o Outcome) Failure() bool {
	return o == OutcomeExecutedFailed || o == OutcomeShortCircuited
}

// TargetResult is one report entry: the outcome of a single target plus the
// captured output streams of its action.
type TargetResult struct {
	Target   InternedString
	Outcome  Outcome
	Err      error
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// ExecutionReport collects per-target results for one scheduler run. Workers
// record concurrently; Results iterates in deterministic execution order.
type ExecutionReport struct {
	mu      sync.Mutex
	order   []InternedString
	results map[InternedString]TargetResult
}

// NewExecutionReport creates a report that will list targets in the given
// order, regardless of when each result arrives.
func NewExecutionReport(order []InternedString) *ExecutionReport {
	return &ExecutionReport{
		order:   order,
		results: make(map[InternedString]TargetResult, len(order)),
	}
}

// Record stores the result for one target.
func (r *ExecutionReport) Record(res TargetResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results[res.Target] = res
}

// Get returns the result for a target and whether one was recorded.
func (r *ExecutionReport) Get(name InternedString) (TargetResult, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.results[name]
	return res, ok
}

// Results yields recorded results in report order.
func (r *ExecutionReport) Results() iter.Seq[TargetResult] {
	return func(yield func(TargetResult) bool) {
		for _, name := range r.order {
			r.mu.Lock()
			res, ok := r.results[name]
			r.mu.Unlock()
			if !ok {
				continue
			}
			if !yield(res) {
				return
			}
		}
	}
}

// Failed reports whether any recorded outcome is a failure kind.
func (r *ExecutionReport) Failed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, res := range r.results {
		if res.Outcome.Failure() {
			return true
		}
	}
	return false
}

// Len returns the number of recorded results.
func (r *ExecutionReport) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.results)
}
