package scheduler_test

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/forge/internal/adapters/telemetry"
	"go.trai.ch/forge/internal/core/domain"
	"go.trai.ch/forge/internal/core/ports/mocks"
	"go.trai.ch/forge/internal/engine/scheduler"
	"go.trai.ch/zerr"
	"go.uber.org/mock/gomock"
)

type schedulerTestMocks struct {
	executor *mocks.MockExecutor
	stater   *mocks.MockFileStater
}

func setupSchedulerTest(t *testing.T) (*scheduler.Scheduler, schedulerTestMocks) {
	t.Helper()
	ctrl := gomock.NewController(t)
	m := schedulerTestMocks{
		executor: mocks.NewMockExecutor(ctrl),
		stater:   mocks.NewMockFileStater(ctrl),
	}

	logger := mocks.NewMockLogger(ctrl)
	logger.EXPECT().Info(gomock.Any()).AnyTimes()
	logger.EXPECT().Warn(gomock.Any()).AnyTimes()
	logger.EXPECT().Error(gomock.Any()).AnyTimes()

	s := scheduler.NewScheduler(m.executor, m.stater, telemetry.NewNoOp(), logger)
	return s, m
}

type nopExpander struct{}

func (nopExpander) Expand(string) ([]string, error) { return nil, nil }

// buildGraph constructs a graph of phony targets from a dependency map.
// Phony targets are always stale, so these tests exercise scheduling
// without stat expectations.
func buildGraph(t *testing.T, deps map[string][]string, order []string) *domain.Graph {
	t.Helper()
	reg := domain.NewRegistry()
	for _, name := range order {
		prereqs := make([]domain.Prerequisite, 0, len(deps[name]))
		for _, d := range deps[name] {
			prereqs = append(prereqs, domain.TargetRef(d))
		}
		require.NoError(t, reg.Register(&domain.Target{
			Name:    domain.NewInternedString(name),
			Prereqs: prereqs,
			Command: []string{"true"},
			Phony:   true,
		}))
	}

	g, err := domain.BuildGraph(reg, nopExpander{})
	require.NoError(t, err)
	return g
}

// targetMatcher matches an executed *domain.Target by name.
type targetMatcher struct {
	name string
}

func (m targetMatcher) Matches(x any) bool {
	target, ok := x.(*domain.Target)
	return ok && target.Name.String() == m.name
}

func (m targetMatcher) String() string {
	return "target named " + m.name
}

func byName(name string) gomock.Matcher { return targetMatcher{name: name} }

func outcomeOf(t *testing.T, report *domain.ExecutionReport, name string) domain.Outcome {
	t.Helper()
	res, ok := report.Get(domain.NewInternedString(name))
	require.True(t, ok, "no result recorded for %s", name)
	return res.Outcome
}

func TestScheduler_RunsInDependencyOrder(t *testing.T) {
	s, m := setupSchedulerTest(t)

	// Diamond: app depends on lib and docs, both depend on gen.
	g := buildGraph(t, map[string][]string{
		"app":  {"lib", "docs"},
		"lib":  {"gen"},
		"docs": {"gen"},
	}, []string{"app", "lib", "docs", "gen"})

	var mu sync.Mutex
	var execOrder []string
	m.executor.EXPECT().
		Execute(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, target *domain.Target, _ []string, _, _ io.Writer) error {
			mu.Lock()
			execOrder = append(execOrder, target.Name.String())
			mu.Unlock()
			return nil
		}).Times(4)

	report, err := s.Run(context.Background(), g, []string{"app"}, scheduler.Options{Workers: 1})
	require.NoError(t, err)

	require.Len(t, execOrder, 4)
	assert.Equal(t, "gen", execOrder[0])
	assert.Equal(t, "app", execOrder[3])
	assert.Contains(t, execOrder[1:3], "lib")
	assert.Contains(t, execOrder[1:3], "docs")

	for _, name := range []string{"gen", "lib", "docs", "app"} {
		assert.Equal(t, domain.OutcomeExecutedOK, outcomeOf(t, report, name))
	}
}

func TestScheduler_ReportOrderIsDeterministic(t *testing.T) {
	s, m := setupSchedulerTest(t)

	g := buildGraph(t, map[string][]string{
		"app": {"lib", "docs"},
	}, []string{"app", "lib", "docs"})

	m.executor.EXPECT().
		Execute(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil).Times(3)

	report, err := s.Run(context.Background(), g, []string{"app"}, scheduler.Options{Workers: 4})
	require.NoError(t, err)

	var got []string
	for res := range report.Results() {
		got = append(got, res.Target.String())
	}
	assert.Equal(t, []string{"lib", "docs", "app"}, got)
}

func TestScheduler_SkipsFreshTargets(t *testing.T) {
	s, m := setupSchedulerTest(t)

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	m.stater.EXPECT().ModTime("app").Return(base, true, nil)
	m.stater.EXPECT().ModTime("main.c").Return(base.Add(-time.Hour), true, nil)

	reg := domain.NewRegistry()
	require.NoError(t, reg.Register(&domain.Target{
		Name:    domain.NewInternedString("app"),
		Prereqs: []domain.Prerequisite{domain.LiteralPath("main.c")},
		Command: []string{"cc"},
	}))
	g, err := domain.BuildGraph(reg, nopExpander{})
	require.NoError(t, err)

	// No executor expectation: invoking the action would fail the test.
	report, err := s.Run(context.Background(), g, []string{"app"}, scheduler.Options{Workers: 1})
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeSkippedFresh, outcomeOf(t, report, "app"))
}

func TestScheduler_ForceBypassesStalenessCheck(t *testing.T) {
	s, m := setupSchedulerTest(t)

	reg := domain.NewRegistry()
	require.NoError(t, reg.Register(&domain.Target{
		Name:    domain.NewInternedString("app"),
		Command: []string{"cc"},
	}))
	g, err := domain.BuildGraph(reg, nopExpander{})
	require.NoError(t, err)

	// No stater expectation: force never consults timestamps.
	m.executor.EXPECT().
		Execute(gomock.Any(), byName("app"), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil)

	report, err := s.Run(context.Background(), g, []string{"app"}, scheduler.Options{Workers: 1, Force: true})
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeExecutedOK, outcomeOf(t, report, "app"))
}

func TestScheduler_FailFastShortCircuits(t *testing.T) {
	s, m := setupSchedulerTest(t)

	// Chain top -> mid -> base, plus an unrelated target.
	g := buildGraph(t, map[string][]string{
		"top": {"mid"},
		"mid": {"base"},
	}, []string{"top", "mid", "base", "unrelated"})

	m.executor.EXPECT().
		Execute(gomock.Any(), byName("base"), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(zerr.New("exit 1"))

	report, err := s.Run(context.Background(), g, []string{"top", "unrelated"}, scheduler.Options{
		Workers: 1,
		Mode:    scheduler.FailFast,
	})
	require.Error(t, err)
	require.ErrorIs(t, err, domain.ErrBuildFailed)

	assert.Equal(t, domain.OutcomeExecutedFailed, outcomeOf(t, report, "base"))
	assert.Equal(t, domain.OutcomeShortCircuited, outcomeOf(t, report, "mid"))
	assert.Equal(t, domain.OutcomeShortCircuited, outcomeOf(t, report, "top"))
	// Fail-fast also halts dispatch of unrelated work.
	assert.Equal(t, domain.OutcomeShortCircuited, outcomeOf(t, report, "unrelated"))
	assert.Equal(t, 4, report.Len())
}

func TestScheduler_KeepGoingRunsUnrelatedWork(t *testing.T) {
	s, m := setupSchedulerTest(t)

	g := buildGraph(t, map[string][]string{
		"top": {"mid"},
		"mid": {"base"},
	}, []string{"top", "mid", "base", "unrelated"})

	m.executor.EXPECT().
		Execute(gomock.Any(), byName("base"), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(zerr.New("exit 1"))
	m.executor.EXPECT().
		Execute(gomock.Any(), byName("unrelated"), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil)

	report, err := s.Run(context.Background(), g, []string{"top", "unrelated"}, scheduler.Options{
		Workers: 1,
		Mode:    scheduler.KeepGoing,
	})
	require.ErrorIs(t, err, domain.ErrBuildFailed)

	assert.Equal(t, domain.OutcomeExecutedFailed, outcomeOf(t, report, "base"))
	assert.Equal(t, domain.OutcomeShortCircuited, outcomeOf(t, report, "mid"))
	assert.Equal(t, domain.OutcomeShortCircuited, outcomeOf(t, report, "top"))
	assert.Equal(t, domain.OutcomeExecutedOK, outcomeOf(t, report, "unrelated"))
}

func TestScheduler_ShortCircuitNamesFailedPrerequisite(t *testing.T) {
	s, m := setupSchedulerTest(t)

	g := buildGraph(t, map[string][]string{
		"app": {"lib"},
	}, []string{"app", "lib"})

	m.executor.EXPECT().
		Execute(gomock.Any(), byName("lib"), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(zerr.New("exit 1"))

	report, err := s.Run(context.Background(), g, []string{"app"}, scheduler.Options{Workers: 1})
	require.ErrorIs(t, err, domain.ErrBuildFailed)

	res, ok := report.Get(domain.NewInternedString("app"))
	require.True(t, ok)
	require.Error(t, res.Err)

	zErr, ok := res.Err.(*zerr.Error)
	require.True(t, ok, "expected *zerr.Error, got %T", res.Err)
	assert.Equal(t, "lib", zErr.Metadata()["prerequisite"])
}

func TestScheduler_AggregatePropagation(t *testing.T) {
	newAggregateGraph := func(t *testing.T) *domain.Graph {
		t.Helper()
		reg := domain.NewRegistry()
		require.NoError(t, reg.Register(&domain.Target{
			Name:    domain.NewInternedString("compile"),
			Command: []string{"cc"},
		}))
		require.NoError(t, reg.Register(&domain.Target{
			Name:    domain.NewInternedString("build"),
			Prereqs: []domain.Prerequisite{domain.TargetRef("compile")},
			Phony:   true,
		}))
		g, err := domain.BuildGraph(reg, nopExpander{})
		require.NoError(t, err)
		return g
	}

	t.Run("rebuilt member marks the aggregate executed", func(t *testing.T) {
		s, m := setupSchedulerTest(t)
		g := newAggregateGraph(t)

		m.stater.EXPECT().ModTime("compile").Return(time.Time{}, false, nil)
		m.executor.EXPECT().
			Execute(gomock.Any(), byName("compile"), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil)

		report, err := s.Run(context.Background(), g, []string{"build"}, scheduler.Options{Workers: 1})
		require.NoError(t, err)
		assert.Equal(t, domain.OutcomeExecutedOK, outcomeOf(t, report, "compile"))
		assert.Equal(t, domain.OutcomeExecutedOK, outcomeOf(t, report, "build"))
	})

	t.Run("fresh members keep the aggregate fresh", func(t *testing.T) {
		s, m := setupSchedulerTest(t)
		g := newAggregateGraph(t)

		base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
		m.stater.EXPECT().ModTime("compile").Return(base, true, nil)

		report, err := s.Run(context.Background(), g, []string{"build"}, scheduler.Options{Workers: 1})
		require.NoError(t, err)
		assert.Equal(t, domain.OutcomeSkippedFresh, outcomeOf(t, report, "compile"))
		assert.Equal(t, domain.OutcomeSkippedFresh, outcomeOf(t, report, "build"))
	})
}

func TestScheduler_PassesEnvironmentToActions(t *testing.T) {
	s, m := setupSchedulerTest(t)

	g := buildGraph(t, nil, []string{"app"})
	env := []string{"FORGE_DOC_GEN=/opt/docgen", "PATH=/opt/docgen"}

	m.executor.EXPECT().
		Execute(gomock.Any(), byName("app"), gomock.Eq(env), gomock.Any(), gomock.Any()).
		Return(nil)

	_, err := s.Run(context.Background(), g, []string{"app"}, scheduler.Options{Workers: 1, Env: env})
	require.NoError(t, err)
}

func TestScheduler_IndependentTargetsRunConcurrently(t *testing.T) {
	s, m := setupSchedulerTest(t)

	g := buildGraph(t, nil, []string{"left", "right"})

	// Both actions block until the other has started; with fewer than two
	// workers this would deadlock the test timeout.
	var wg sync.WaitGroup
	wg.Add(2)
	m.executor.EXPECT().
		Execute(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ *domain.Target, _ []string, _, _ io.Writer) error {
			wg.Done()
			wg.Wait()
			return nil
		}).Times(2)

	report, err := s.Run(context.Background(), g, []string{"left", "right"}, scheduler.Options{Workers: 2})
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeExecutedOK, outcomeOf(t, report, "left"))
	assert.Equal(t, domain.OutcomeExecutedOK, outcomeOf(t, report, "right"))
}

func TestScheduler_EmptySelection(t *testing.T) {
	s, _ := setupSchedulerTest(t)
	g := buildGraph(t, nil, []string{"app"})

	_, err := s.Run(context.Background(), g, nil, scheduler.Options{Workers: 1})
	require.ErrorIs(t, err, domain.ErrNoTargetsSpecified)
}

func TestScheduler_UnknownSelection(t *testing.T) {
	s, _ := setupSchedulerTest(t)
	g := buildGraph(t, nil, []string{"app"})

	_, err := s.Run(context.Background(), g, []string{"ghost"}, scheduler.Options{Workers: 1})
	require.ErrorIs(t, err, domain.ErrUnknownTarget)
}

func TestScheduler_CapturesActionOutput(t *testing.T) {
	s, m := setupSchedulerTest(t)
	g := buildGraph(t, nil, []string{"app"})

	m.executor.EXPECT().
		Execute(gomock.Any(), byName("app"), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ *domain.Target, _ []string, stdout, stderr io.Writer) error {
			_, _ = stdout.Write([]byte("out"))
			_, _ = stderr.Write([]byte("err"))
			return nil
		})

	report, err := s.Run(context.Background(), g, []string{"app"}, scheduler.Options{Workers: 1})
	require.NoError(t, err)

	res, ok := report.Get(domain.NewInternedString("app"))
	require.True(t, ok)
	assert.Equal(t, "out", res.Stdout)
	assert.Equal(t, "err", res.Stderr)
}
