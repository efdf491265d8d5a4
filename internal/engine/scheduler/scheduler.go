// Package scheduler executes the dependency graph.
package scheduler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"golang.org/x/sync/semaphore"

	"go.trai.ch/forge/internal/core/domain"
	"go.trai.ch/forge/internal/core/ports"
	"go.trai.ch/forge/internal/engine/staleness"
	"go.trai.ch/zerr"
)

// Mode controls failure handling.
type Mode int

const (
	// FailFast stops dispatching new targets after the first failure while
	// letting in-flight actions finish. The default.
	FailFast Mode = iota
	// KeepGoing keeps scheduling every target whose prerequisites all
	// succeeded, maximizing work done per invocation.
	KeepGoing
)

// Options configure one run.
type Options struct {
	// Workers bounds concurrent action invocations. Values below 1 mean 1.
	Workers int
	Mode    Mode
	// Force treats every selected target as stale.
	Force bool
	// Env is the base action environment from the toolchain resolver.
	Env []string
}

// Scheduler executes targets in dependency order: independent subtrees run
// concurrently on a bounded pool, each target at most once per invocation.
type Scheduler struct {
	executor  ports.Executor
	stater    ports.FileStater
	telemetry ports.Telemetry
	logger    ports.Logger
}

// NewScheduler creates a new Scheduler.
func NewScheduler(
	executor ports.Executor,
	stater ports.FileStater,
	telemetry ports.Telemetry,
	logger ports.Logger,
) *Scheduler {
	return &Scheduler{
		executor:  executor,
		stater:    stater,
		telemetry: telemetry,
		logger:    logger,
	}
}

// Run executes the selected targets and their transitive prerequisites.
//
// The returned report always covers every target in the selection closure.
// The error is non-nil iff the report contains a failure outcome (wrapped
// around domain.ErrBuildFailed) or the context was cancelled.
func (s *Scheduler) Run(ctx context.Context, graph *domain.Graph, targetNames []string, opts Options) (*domain.ExecutionReport, error) {
	if len(targetNames) == 0 {
		return nil, domain.ErrNoTargetsSpecified
	}

	selection := make([]domain.InternedString, len(targetNames))
	for i, name := range targetNames {
		selection[i] = domain.NewInternedString(name)
	}

	order, err := graph.TopologicalOrder(selection)
	if err != nil {
		return nil, err
	}
	s.logger.Info(fmt.Sprintf("scheduling %d targets", len(order)))

	st := s.newRunState(ctx, graph, order, opts)

	for !st.done() {
		st.dispatch()
		if st.done() {
			break
		}

		select {
		case res := <-st.results:
			st.handleResult(res)
		case <-ctx.Done():
			st.halted = true
			st.drain()
		}
	}
	st.finish()

	if ctx.Err() != nil {
		st.errs = errors.Join(st.errs, ctx.Err())
	}
	if st.errs != nil {
		return st.report, errors.Join(domain.ErrBuildFailed, st.errs)
	}
	return st.report, nil
}

type result struct {
	target   domain.InternedString
	outcome  domain.Outcome
	err      error
	stdout   string
	stderr   string
	duration time.Duration
}

// runState is the transient coordinator state of one invocation. It is only
// touched from the coordinating goroutine; workers communicate through the
// results channel and the shared BuildState.
type runState struct {
	s       *Scheduler
	ctx     context.Context
	graph   *domain.Graph
	opts    Options
	oracle  *staleness.Oracle
	state   *domain.BuildState
	report  *domain.ExecutionReport
	sem     *semaphore.Weighted
	results chan result

	inDegree map[domain.InternedString]int
	pending  map[domain.InternedString]bool
	ready    []domain.InternedString
	active   int
	halted   bool
	errs     error
}

func (s *Scheduler) newRunState(ctx context.Context, graph *domain.Graph, order []domain.InternedString, opts Options) *runState {
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}

	st := &runState{
		s:        s,
		ctx:      ctx,
		graph:    graph,
		opts:     opts,
		oracle:   staleness.New(s.stater),
		state:    domain.NewBuildState(),
		report:   domain.NewExecutionReport(order),
		sem:      semaphore.NewWeighted(int64(workers)),
		results:  make(chan result, workers),
		inDegree: make(map[domain.InternedString]int, len(order)),
		pending:  make(map[domain.InternedString]bool, len(order)),
	}

	for _, name := range order {
		st.pending[name] = true
		st.inDegree[name] = len(graph.TargetPrereqs(name))
	}
	// Order is prerequisite-first, so zero-degree targets surface in the
	// same deterministic sequence the report uses.
	for _, name := range order {
		if st.inDegree[name] == 0 {
			st.ready = append(st.ready, name)
		}
	}
	return st
}

func (st *runState) done() bool {
	return st.active == 0 && (len(st.ready) == 0 || st.halted)
}

// dispatch launches ready targets while the pool has capacity. TryAcquire
// keeps the coordinator free to receive results when the pool is full.
func (st *runState) dispatch() {
	for len(st.ready) > 0 && !st.halted && st.ctx.Err() == nil && st.sem.TryAcquire(1) {
		name := st.ready[0]
		st.ready = st.ready[1:]
		delete(st.pending, name)

		st.state.Set(name, domain.StateInProgress)
		st.active++

		go st.execute(name)
	}
}

// execute runs in a worker goroutine: staleness check, then the action.
func (st *runState) execute(name domain.InternedString) {
	defer st.sem.Release(1)

	target, err := st.graph.Lookup(name)
	if err != nil {
		st.results <- result{target: name, outcome: domain.OutcomeExecutedFailed, err: err}
		return
	}

	if !target.Actionable() {
		st.results <- st.settleAggregate(target)
		return
	}

	stale := st.opts.Force
	if !stale {
		stale, err = st.oracle.IsStale(st.graph, target, st.state)
		if err != nil {
			st.results <- result{target: name, outcome: domain.OutcomeExecutedFailed, err: err}
			return
		}
	}

	if !stale {
		_, vtx := st.s.telemetry.Record(st.ctx, name.String())
		vtx.Cached()
		st.results <- result{target: name, outcome: domain.OutcomeSkippedFresh}
		return
	}

	st.results <- st.invoke(target)
}

// settleAggregate resolves an actionless aggregation node: satisfied with
// its prerequisites, counted as rebuilt when any of them rebuilt so
// freshness keeps propagating through it.
func (st *runState) settleAggregate(target *domain.Target) result {
	for _, dep := range st.graph.TargetPrereqs(target.Name) {
		if st.state.WasRebuilt(dep) {
			st.state.MarkRebuilt(target.Name)
			return result{target: target.Name, outcome: domain.OutcomeExecutedOK}
		}
	}
	return result{target: target.Name, outcome: domain.OutcomeSkippedFresh}
}

// invoke runs the external action, capturing output for the report while
// streaming it to the progress vertex.
func (st *runState) invoke(target *domain.Target) result {
	_, vtx := st.s.telemetry.Record(st.ctx, target.Name.String())

	var outBuf, errBuf bytes.Buffer
	stdout := io.MultiWriter(&outBuf, vtx.Stdout())
	stderr := io.MultiWriter(&errBuf, vtx.Stderr())

	start := time.Now()
	err := st.s.executor.Execute(st.ctx, target, st.opts.Env, stdout, stderr)
	vtx.Complete(err)

	res := result{
		target:   target.Name,
		stdout:   outBuf.String(),
		stderr:   errBuf.String(),
		duration: time.Since(start),
	}
	if err != nil {
		res.outcome = domain.OutcomeExecutedFailed
		res.err = err
		return res
	}

	st.state.MarkRebuilt(target.Name)
	res.outcome = domain.OutcomeExecutedOK
	return res
}

// handleResult runs on the coordinator: records the outcome, releases
// dependents or short-circuits them.
func (st *runState) handleResult(res result) {
	st.active--

	st.report.Record(domain.TargetResult{
		Target:   res.target,
		Outcome:  res.outcome,
		Err:      res.err,
		Stdout:   res.stdout,
		Stderr:   res.stderr,
		Duration: res.duration,
	})

	if res.outcome == domain.OutcomeExecutedFailed {
		st.state.Set(res.target, domain.StateFailed)
		st.errs = errors.Join(st.errs, zerr.With(zerr.Wrap(res.err, "action failed"),
			"target", res.target.String()))
		st.shortCircuitDependents(res.target)
		if st.opts.Mode == FailFast {
			st.halted = true
		}
		return
	}

	st.state.Set(res.target, domain.StateSatisfied)
	for _, dep := range st.graph.Dependents(res.target) {
		if !st.pending[dep] {
			continue
		}
		st.inDegree[dep]--
		if st.inDegree[dep] == 0 {
			st.ready = append(st.ready, dep)
		}
	}
}

// shortCircuitDependents marks every pending transitive dependent of a
// failed target as failed without invocation. Never silently skipped: each
// gets a report entry naming the failed prerequisite.
func (st *runState) shortCircuitDependents(failed domain.InternedString) {
	for _, dep := range st.graph.Dependents(failed) {
		if !st.pending[dep] {
			continue
		}
		delete(st.pending, dep)
		st.removeReady(dep)
		st.state.Set(dep, domain.StateFailed)
		st.report.Record(domain.TargetResult{
			Target:  dep,
			Outcome: domain.OutcomeShortCircuited,
			Err: zerr.With(zerr.With(zerr.New("prerequisite failed"),
				"target", dep.String()),
				"prerequisite", failed.String()),
		})
		st.shortCircuitDependents(dep)
	}
}

func (st *runState) removeReady(name domain.InternedString) {
	for i, r := range st.ready {
		if r == name {
			st.ready = append(st.ready[:i], st.ready[i+1:]...)
			return
		}
	}
}

// drain waits for in-flight actions after a halt. They are never killed:
// interrupting external tools mid-write risks half-applied side effects.
func (st *runState) drain() {
	for st.active > 0 {
		st.handleResult(<-st.results)
	}
}

// finish records short-circuited entries for whatever was never dispatched,
// after a fail-fast halt or cancellation.
func (st *runState) finish() {
	st.drain()
	for name := range st.pending {
		st.state.Set(name, domain.StateFailed)
		st.report.Record(domain.TargetResult{
			Target:  name,
			Outcome: domain.OutcomeShortCircuited,
			Err:     zerr.With(zerr.New("dispatch halted"), "target", name.String()),
		})
	}
}
