package domain

// Target represents a named unit of build work: a set of prerequisites and an
// opaque external action. A target without a command is a pure aggregation
// node; it never executes anything itself.
type Target struct {
	Name    InternedString
	Prereqs []Prerequisite

	// Command is the external action, argv style. Empty for aggregation nodes.
	Command []string

	// Output is the backing file produced by the action. Defaults to the
	// target name for non-phony targets; empty for phony ones.
	Output InternedString

	// Phony marks a target that represents no real file and is always
	// considered stale.
	Phony bool

	// ParseResults marks a target whose stdout is a machine-readable test
	// result stream to be aggregated after the run.
	ParseResults bool

	WorkingDir  InternedString
	Environment map[string]string
}

// BackingFile returns the path the target's freshness is judged against, or
// "" for phony targets.
func (t *Target) BackingFile() string {
	if t.Phony {
		return ""
	}
	if out := t.Output.String(); out != "" {
		return out
	}
	return t.Name.String()
}

// Actionable reports whether the target has a command to execute.
func (t *Target) Actionable() bool {
	return len(t.Command) > 0
}
