package domain

import "strings"

// PrereqKind discriminates the prerequisite variants.
type PrereqKind int

const (
	// PrereqLiteral is a concrete filesystem path.
	PrereqLiteral PrereqKind = iota
	// PrereqGlob is a shell-style pattern expanded at graph construction time.
	PrereqGlob
	// PrereqTarget is a reference to another registered target.
	PrereqTarget
)

// Prerequisite is a tagged variant: a literal path, a glob pattern, or a
// reference to another target. Globs stay unexpanded until graph construction
// so that registry building never touches the filesystem.
type Prerequisite struct {
	Kind  PrereqKind
	Value InternedString
}

// LiteralPath creates a concrete-path prerequisite.
func LiteralPath(path string) Prerequisite {
	return Prerequisite{Kind: PrereqLiteral, Value: NewInternedString(path)}
}

// GlobPattern creates a pattern prerequisite.
func GlobPattern(pattern string) Prerequisite {
	return Prerequisite{Kind: PrereqGlob, Value: NewInternedString(pattern)}
}

// TargetRef creates a prerequisite referencing another target.
func TargetRef(name string) Prerequisite {
	return Prerequisite{Kind: PrereqTarget, Value: NewInternedString(name)}
}

// HasGlobMeta reports whether s contains shell-style wildcard characters.
func HasGlobMeta(s string) bool {
	return strings.ContainsAny(s, "*?[")
}
