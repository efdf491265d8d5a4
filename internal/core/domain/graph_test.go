package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/forge/internal/core/domain"
	"go.trai.ch/zerr"
)

// fakeExpander is an in-memory PathExpander for graph tests.
type fakeExpander struct {
	matches map[string][]string
}

func (f fakeExpander) Expand(pattern string) ([]string, error) {
	return f.matches[pattern], nil
}

func mustRegister(t *testing.T, reg *domain.Registry, targets ...*domain.Target) {
	t.Helper()
	for _, target := range targets {
		require.NoError(t, reg.Register(target))
	}
}

func named(name string, prereqs ...domain.Prerequisite) *domain.Target {
	return &domain.Target{
		Name:    domain.NewInternedString(name),
		Prereqs: prereqs,
		Command: []string{"true"},
	}
}

func TestBuildGraph_Cycle(t *testing.T) {
	tests := []struct {
		name      string
		targets   []*domain.Target
		wantChain string
	}{
		{
			name: "self cycle",
			targets: []*domain.Target{
				named("a", domain.TargetRef("a")),
			},
			wantChain: "a -> a",
		},
		{
			name: "two node cycle",
			targets: []*domain.Target{
				named("a", domain.TargetRef("b")),
				named("b", domain.TargetRef("a")),
			},
			wantChain: "a -> b -> a",
		},
		{
			name: "three node cycle",
			targets: []*domain.Target{
				named("a", domain.TargetRef("b")),
				named("b", domain.TargetRef("c")),
				named("c", domain.TargetRef("a")),
			},
			wantChain: "a -> b -> c -> a",
		},
		{
			name: "cycle below an acyclic root",
			targets: []*domain.Target{
				named("root", domain.TargetRef("a")),
				named("a", domain.TargetRef("b")),
				named("b", domain.TargetRef("a")),
			},
			wantChain: "a -> b -> a",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := domain.NewRegistry()
			mustRegister(t, reg, tt.targets...)

			_, err := domain.BuildGraph(reg, fakeExpander{})
			require.Error(t, err)
			require.ErrorIs(t, err, domain.ErrCycleDetected)

			zErr, ok := err.(*zerr.Error)
			require.True(t, ok, "expected *zerr.Error, got %T", err)
			assert.Equal(t, tt.wantChain, zErr.Metadata()["cycle"])
		})
	}
}

func TestBuildGraph_NoCycle(t *testing.T) {
	reg := domain.NewRegistry()
	mustRegister(t, reg,
		named("a", domain.TargetRef("b")),
		named("b", domain.TargetRef("c")),
		named("c"),
		// Disconnected component.
		named("d", domain.TargetRef("e")),
		named("e"),
	)

	_, err := domain.BuildGraph(reg, fakeExpander{})
	require.NoError(t, err)
}

func TestBuildGraph_UnknownTargetReference(t *testing.T) {
	reg := domain.NewRegistry()
	mustRegister(t, reg, named("a", domain.TargetRef("ghost")))

	_, err := domain.BuildGraph(reg, fakeExpander{})
	require.Error(t, err)
	require.ErrorIs(t, err, domain.ErrUnknownTarget)

	zErr, ok := err.(*zerr.Error)
	require.True(t, ok)
	assert.Equal(t, "ghost", zErr.Metadata()["prerequisite"])
}

func TestBuildGraph_DuplicateOutput(t *testing.T) {
	t.Run("two targets claim one file", func(t *testing.T) {
		first := named("compile-a")
		first.Output = domain.NewInternedString("out.bin")
		second := named("compile-b")
		second.Output = domain.NewInternedString("out.bin")

		reg := domain.NewRegistry()
		mustRegister(t, reg, first, second)

		_, err := domain.BuildGraph(reg, fakeExpander{})
		require.Error(t, err)
		require.ErrorIs(t, err, domain.ErrDuplicateOutput)

		zErr, ok := err.(*zerr.Error)
		require.True(t, ok)
		assert.Equal(t, "compile-a", zErr.Metadata()["conflicts_with"])
	})

	t.Run("phony targets never claim files", func(t *testing.T) {
		first := named("check")
		first.Phony = true
		second := named("lint")
		second.Phony = true

		reg := domain.NewRegistry()
		mustRegister(t, reg, first, second)

		_, err := domain.BuildGraph(reg, fakeExpander{})
		require.NoError(t, err)
	})

	t.Run("implicit output collides with explicit", func(t *testing.T) {
		first := named("out.bin") // backing file defaults to the name
		second := named("other")
		second.Output = domain.NewInternedString("out.bin")

		reg := domain.NewRegistry()
		mustRegister(t, reg, first, second)

		_, err := domain.BuildGraph(reg, fakeExpander{})
		require.ErrorIs(t, err, domain.ErrDuplicateOutput)
	})
}

func TestBuildGraph_GlobExpansion(t *testing.T) {
	expander := fakeExpander{matches: map[string][]string{
		"src/*.c": {"src/z.c", "src/a.c"},
	}}

	reg := domain.NewRegistry()
	mustRegister(t, reg, named("compile",
		domain.GlobPattern("src/*.c"),
		domain.LiteralPath("src/z.c"), // duplicate of a glob match
		domain.LiteralPath("Makefile.in"),
	))

	g, err := domain.BuildGraph(reg, expander)
	require.NoError(t, err)

	got := g.FilePrereqs(domain.NewInternedString("compile"))
	want := []string{"Makefile.in", "src/a.c", "src/z.c"}
	require.Len(t, got, len(want))
	for i, file := range got {
		assert.Equal(t, want[i], file.String())
	}
}

func TestBuildGraph_ZeroGlobMatchesIsSilent(t *testing.T) {
	reg := domain.NewRegistry()
	mustRegister(t, reg, named("docs", domain.GlobPattern("doc/*.txt")))

	g, err := domain.BuildGraph(reg, fakeExpander{})
	require.NoError(t, err)
	assert.Empty(t, g.FilePrereqs(domain.NewInternedString("docs")))
}

func TestGraph_TopologicalOrder(t *testing.T) {
	reg := domain.NewRegistry()
	mustRegister(t, reg,
		named("app", domain.TargetRef("lib"), domain.TargetRef("util")),
		named("lib", domain.TargetRef("util")),
		named("util"),
		named("docs"),
	)

	g, err := domain.BuildGraph(reg, fakeExpander{})
	require.NoError(t, err)

	t.Run("full closure", func(t *testing.T) {
		order, err := g.TopologicalOrder([]domain.InternedString{
			domain.NewInternedString("app"),
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"util", "lib", "app"}, asStrings(order))
	})

	t.Run("subset excludes unrelated targets", func(t *testing.T) {
		order, err := g.TopologicalOrder([]domain.InternedString{
			domain.NewInternedString("lib"),
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"util", "lib"}, asStrings(order))
	})

	t.Run("multiple selections share prerequisites once", func(t *testing.T) {
		order, err := g.TopologicalOrder([]domain.InternedString{
			domain.NewInternedString("app"),
			domain.NewInternedString("docs"),
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"util", "lib", "app", "docs"}, asStrings(order))
	})

	t.Run("unknown selection fails", func(t *testing.T) {
		_, err := g.TopologicalOrder([]domain.InternedString{
			domain.NewInternedString("ghost"),
		})
		require.ErrorIs(t, err, domain.ErrUnknownTarget)
	})
}

func TestGraph_OrderIsDeterministic(t *testing.T) {
	build := func() []string {
		reg := domain.NewRegistry()
		mustRegister(t, reg,
			named("z"),
			named("a", domain.TargetRef("z"), domain.TargetRef("m")),
			named("m"),
		)
		g, err := domain.BuildGraph(reg, fakeExpander{})
		require.NoError(t, err)
		order, err := g.TopologicalOrder([]domain.InternedString{domain.NewInternedString("a")})
		require.NoError(t, err)
		return asStrings(order)
	}

	first := build()
	for range 20 {
		assert.Equal(t, first, build())
	}
	// Declaration order breaks the tie between z and m.
	assert.Equal(t, []string{"z", "m", "a"}, first)
}

func TestGraph_Dependents(t *testing.T) {
	reg := domain.NewRegistry()
	mustRegister(t, reg,
		named("app", domain.TargetRef("lib")),
		named("tests", domain.TargetRef("lib")),
		named("lib"),
	)

	g, err := domain.BuildGraph(reg, fakeExpander{})
	require.NoError(t, err)

	deps := g.Dependents(domain.NewInternedString("lib"))
	assert.Equal(t, []string{"app", "tests"}, asStrings(deps))
	assert.Empty(t, g.Dependents(domain.NewInternedString("app")))
}

func asStrings(names []domain.InternedString) []string {
	res := make([]string, len(names))
	for i, n := range names {
		res[i] = n.String()
	}
	return res
}
