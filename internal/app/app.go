// Package app implements the application layer for forge.
package app

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"go.trai.ch/forge/internal/adapters/fs"
	"go.trai.ch/forge/internal/adapters/testreport"
	"go.trai.ch/forge/internal/core/domain"
	"go.trai.ch/forge/internal/core/ports"
	"go.trai.ch/forge/internal/engine/scheduler"
	"go.trai.ch/zerr"
)

// RunOptions configure one invocation.
type RunOptions struct {
	// Workers bounds concurrent actions. Zero means NumCPU.
	Workers int
	// KeepGoing schedules every target whose prerequisites succeeded instead
	// of halting on the first failure.
	KeepGoing bool
	// Force treats every selected target as stale.
	Force bool
	// PassThrough is appended verbatim to the command of every target marked
	// parse_results, for forwarding test-engine arguments.
	PassThrough []string
}

// App ties loading, graph construction, scheduling and reporting together.
type App struct {
	loader    ports.ConfigLoader
	matcher   ports.PathMatcher
	toolchain ports.ToolchainResolver
	store     ports.FingerprintStore
	hasher    *fs.Hasher
	parser    *testreport.Parser
	scheduler *scheduler.Scheduler
	logger    ports.Logger
}

// New creates a new App instance.
func New(
	loader ports.ConfigLoader,
	matcher ports.PathMatcher,
	toolchain ports.ToolchainResolver,
	store ports.FingerprintStore,
	hasher *fs.Hasher,
	parser *testreport.Parser,
	sched *scheduler.Scheduler,
	logger ports.Logger,
) *App {
	return &App{
		loader:    loader,
		matcher:   matcher,
		toolchain: toolchain,
		store:     store,
		hasher:    hasher,
		parser:    parser,
		scheduler: sched,
		logger:    logger,
	}
}

// Run executes the build for the selected targets. Lifecycle commands are
// ordinary targets here: the rules file registers each as a phony aggregate.
func (a *App) Run(ctx context.Context, targetNames []string, opts RunOptions) error {
	if len(targetNames) == 0 {
		return domain.ErrNoTargetsSpecified
	}

	reg, raw, err := a.loader.Load(".")
	if err != nil {
		return zerr.Wrap(err, "failed to load configuration")
	}
	a.applyPassThrough(reg, opts.PassThrough)

	// The whole graph is resolved and validated before any action runs.
	graph, err := domain.BuildGraph(reg, a.matcher)
	if err != nil {
		return err
	}

	hash := a.hasher.HashBytes(raw)
	force := opts.Force || a.rulesChanged(hash)

	env, err := a.toolchain.Environment(ctx, reg.Toolchain())
	if err != nil {
		return zerr.Wrap(err, "failed to resolve toolchain environment")
	}

	workers := opts.Workers
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	mode := scheduler.FailFast
	if opts.KeepGoing {
		mode = scheduler.KeepGoing
	}

	report, runErr := a.scheduler.Run(ctx, graph, targetNames, scheduler.Options{
		Workers: workers,
		Mode:    mode,
		Force:   force,
		Env:     env,
	})
	if report == nil {
		return runErr
	}

	a.printReport(report)
	testsErr := a.aggregateTestResults(graph, report)

	if runErr == nil && testsErr == nil {
		if err := a.store.Put(domain.Fingerprint{
			Name:      domain.RegistryFingerprintName,
			Hash:      hash,
			Timestamp: time.Now(),
		}); err != nil {
			a.logger.Warn("failed to persist rules fingerprint: " + err.Error())
		}
		return nil
	}
	if runErr != nil {
		return runErr
	}
	return testsErr
}

// applyPassThrough appends forwarded arguments to result-parsing targets.
func (a *App) applyPassThrough(reg *domain.Registry, args []string) {
	if len(args) == 0 {
		return
	}
	for _, name := range reg.Names() {
		target, err := reg.Lookup(name)
		if err != nil {
			continue
		}
		if target.ParseResults && target.Actionable() {
			target.Command = append(target.Command, args...)
		}
	}
}

// rulesChanged reports whether the rules file differs from the fingerprint
// of the last completed run. Edited rules can invalidate targets without
// touching any prerequisite timestamp, so a change forces a full rebuild. A
// missing fingerprint does not: timestamps alone decide the first run.
func (a *App) rulesChanged(hash string) bool {
	prev, err := a.store.Get(domain.RegistryFingerprintName)
	if err != nil {
		a.logger.Warn("failed to read rules fingerprint: " + err.Error())
		return false
	}
	if prev == nil {
		return false
	}
	if prev.Hash != hash {
		a.logger.Info("rules file changed, forcing full rebuild")
		return true
	}
	return false
}

// printReport logs every target's outcome in deterministic order, then a
// summary line.
func (a *App) printReport(report *domain.ExecutionReport) {
	var executed, fresh, failed int
	for res := range report.Results() {
		switch res.Outcome {
		case domain.OutcomeExecutedOK:
			executed++
			a.logger.Info(fmt.Sprintf("%-16s %s (%s)", res.Outcome, res.Target.String(), res.Duration.Round(time.Millisecond)))
		case domain.OutcomeSkippedFresh:
			fresh++
			a.logger.Info(fmt.Sprintf("%-16s %s", res.Outcome, res.Target.String()))
		case domain.OutcomeExecutedFailed, domain.OutcomeShortCircuited:
			failed++
			a.logger.Error(zerr.With(zerr.Wrap(res.Err, string(res.Outcome)), "target", res.Target.String()))
		}
	}
	a.logger.Info(fmt.Sprintf("done: %d executed, %d fresh, %d failed", executed, fresh, failed))
}

// aggregateTestResults parses the captured result stream of every executed
// parse_results target and fails the run when the stream reports failures.
func (a *App) aggregateTestResults(graph *domain.Graph, report *domain.ExecutionReport) error {
	var errs error
	for res := range report.Results() {
		target, err := graph.Lookup(res.Target)
		if err != nil || !target.ParseResults {
			continue
		}
		if res.Outcome != domain.OutcomeExecutedOK && res.Outcome != domain.OutcomeExecutedFailed {
			continue
		}

		results, summary, err := a.parser.ParseString(res.Stdout)
		if err != nil {
			a.logger.Warn("unreadable test result stream from " + res.Target.String())
			continue
		}
		for _, r := range results {
			if r.Outcome == domain.TestFail || r.Outcome == domain.TestError {
				msg := r.ID
				if r.Detail != "" {
					msg += ": " + r.Detail
				}
				a.logger.Warn(string(r.Outcome) + " " + msg)
			}
		}
		a.logger.Info(fmt.Sprintf("tests %s: %d passed, %d failed, %d errored, %d skipped",
			res.Target.String(), summary.Passed, summary.Failed, summary.Errored, summary.Skipped))

		if !summary.Ok() {
			errs = zerr.With(zerr.Wrap(domain.ErrBuildFailed, "test failures"),
				"target", res.Target.String())
		}
	}
	return errs
}
