// Package domain contains the core domain model for the build dependency graph.
package domain

import (
	"slices"
	"strings"

	"go.trai.ch/zerr"
)

// PathExpander resolves a glob pattern to sorted, deduplicated existing file
// paths. It is the only filesystem capability graph construction needs; tests
// substitute an in-memory fake.
type PathExpander interface {
	Expand(pattern string) ([]string, error)
}

// Graph is the fully resolved dependency graph of one invocation: every glob
// prerequisite expanded to concrete files, every target reference checked
// against the registry, cycles ruled out and a deterministic execution order
// computed. It borrows the registry's target definitions.
type Graph struct {
	registry      *Registry
	filePrereqs   map[InternedString][]InternedString
	targetPrereqs map[InternedString][]InternedString
	dependents    map[InternedString][]InternedString
	order         []InternedString
}

// BuildGraph resolves the registry into a Graph.
//
// It fails with ErrUnknownTarget if a target-reference prerequisite was never
// registered, ErrDuplicateOutput if two non-phony targets claim the same
// backing file, and ErrCycleDetected (naming the full chain) if the edges are
// not acyclic. Any of these aborts before a single action runs.
func BuildGraph(reg *Registry, expander PathExpander) (*Graph, error) {
	g := &Graph{
		registry:      reg,
		filePrereqs:   make(map[InternedString][]InternedString, reg.Len()),
		targetPrereqs: make(map[InternedString][]InternedString, reg.Len()),
		dependents:    make(map[InternedString][]InternedString),
	}

	if err := g.resolvePrereqs(expander); err != nil {
		return nil, err
	}
	if err := g.checkOutputs(); err != nil {
		return nil, err
	}
	if err := g.sort(); err != nil {
		return nil, err
	}

	for _, name := range reg.Names() {
		for _, dep := range g.targetPrereqs[name] {
			g.dependents[dep] = append(g.dependents[dep], name)
		}
	}

	return g, nil
}

// resolvePrereqs expands globs and splits prerequisites into file and target
// edges, in registration order.
func (g *Graph) resolvePrereqs(expander PathExpander) error {
	for _, name := range g.registry.Names() {
		target, err := g.registry.Lookup(name)
		if err != nil {
			return err
		}

		var files []string
		for _, p := range target.Prereqs {
			switch p.Kind {
			case PrereqTarget:
				if !g.registry.Has(p.Value) {
					return zerr.With(zerr.With(ErrUnknownTarget,
						"target", name.String()),
						"prerequisite", p.Value.String())
				}
				g.targetPrereqs[name] = append(g.targetPrereqs[name], p.Value)
			case PrereqGlob:
				matches, err := expander.Expand(p.Value.String())
				if err != nil {
					return zerr.With(zerr.Wrap(err, "failed to expand pattern"),
						"pattern", p.Value.String())
				}
				// Zero matches is a valid, silent state.
				files = append(files, matches...)
			case PrereqLiteral:
				files = append(files, p.Value.String())
			}
		}

		slices.Sort(files)
		files = slices.Compact(files)
		g.filePrereqs[name] = internStrings(files)
	}
	return nil
}

// checkOutputs rejects registries where two non-phony targets declare the
// same backing file. Concurrent actions writing one path would race.
func (g *Graph) checkOutputs() error {
	owners := make(map[string]InternedString, g.registry.Len())
	for _, name := range g.registry.Names() {
		target, _ := g.registry.Lookup(name)
		file := target.BackingFile()
		if file == "" {
			continue
		}
		if owner, taken := owners[file]; taken {
			return zerr.With(zerr.With(zerr.With(ErrDuplicateOutput,
				"output", file),
				"target", name.String()),
				"conflicts_with", owner.String())
		}
		owners[file] = name
	}
	return nil
}

// sort runs a depth-first topological sort over the target edges. Roots are
// visited in registration order and prerequisites in declaration order, so
// the resulting order is deterministic for identical registries.
func (g *Graph) sort() error {
	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)

	g.order = make([]InternedString, 0, g.registry.Len())
	state := make(map[InternedString]int, g.registry.Len())
	var path []InternedString

	var visit func(u InternedString) error
	visit = func(u InternedString) error {
		state[u] = visiting
		path = append(path, u)

		for _, dep := range g.targetPrereqs[u] {
			switch state[dep] {
			case visiting:
				return cycleError(path, dep)
			case unvisited:
				if err := visit(dep); err != nil {
					return err
				}
			}
		}

		state[u] = done
		path = path[:len(path)-1]
		g.order = append(g.order, u)
		return nil
	}

	for _, name := range g.registry.Names() {
		if state[name] == unvisited {
			if err := visit(name); err != nil {
				return err
			}
		}
	}
	return nil
}

// cycleError attaches the full offending chain, e.g. "a -> b -> a".
func cycleError(path []InternedString, dep InternedString) error {
	start := 0
	for i, node := range path {
		if node == dep {
			start = i
			break
		}
	}

	var b strings.Builder
	for _, node := range path[start:] {
		b.WriteString(node.String())
		b.WriteString(" -> ")
	}
	b.WriteString(dep.String())
	return zerr.With(ErrCycleDetected, "cycle", b.String())
}

// TopologicalOrder returns the transitive prerequisite closure of the given
// targets, ordered so that every prerequisite precedes its dependents. It
// fails with ErrUnknownTarget if a selected target is not registered.
func (g *Graph) TopologicalOrder(targets []InternedString) ([]InternedString, error) {
	selected := make(map[InternedString]bool)

	var collect func(name InternedString)
	collect = func(name InternedString) {
		if selected[name] {
			return
		}
		selected[name] = true
		for _, dep := range g.targetPrereqs[name] {
			collect(dep)
		}
	}

	for _, name := range targets {
		if !g.registry.Has(name) {
			return nil, zerr.With(ErrUnknownTarget, "target", name.String())
		}
		collect(name)
	}

	order := make([]InternedString, 0, len(selected))
	for _, name := range g.order {
		if selected[name] {
			order = append(order, name)
		}
	}
	return order, nil
}

// Lookup returns the target definition for the given name.
func (g *Graph) Lookup(name InternedString) (*Target, error) {
	return g.registry.Lookup(name)
}

// FilePrereqs returns the expanded file prerequisites of a target.
func (g *Graph) FilePrereqs(name InternedString) []InternedString {
	return g.filePrereqs[name]
}

// TargetPrereqs returns the target prerequisites of a target.
func (g *Graph) TargetPrereqs(name InternedString) []InternedString {
	return g.targetPrereqs[name]
}

// Dependents returns the direct dependents of a target.
func (g *Graph) Dependents(name InternedString) []InternedString {
	return g.dependents[name]
}

// TargetCount returns the number of targets in the graph.
func (g *Graph) TargetCount() int {
	return g.registry.Len()
}

func internStrings(strs []string) []InternedString {
	if len(strs) == 0 {
		return nil
	}
	res := make([]InternedString, len(strs))
	for i, s := range strs {
		res[i] = NewInternedString(s)
	}
	return res
}
