package domain

import "go.trai.ch/zerr"

// Registry holds all target definitions for one build invocation. It retains
// registration order, which the graph uses as the stable tie-break for
// otherwise unordered targets. Construction performs no filesystem I/O.
type Registry struct {
	targets   map[InternedString]*Target
	order     []InternedString
	toolchain map[string]string
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		targets: make(map[InternedString]*Target),
	}
}

// Register adds a target definition.
// It returns ErrTargetExists if the name is already taken.
func (r *Registry) Register(t *Target) error {
	if _, exists := r.targets[t.Name]; exists {
		return zerr.With(ErrTargetExists, "target", t.Name.String())
	}
	r.targets[t.Name] = t
	r.order = append(r.order, t.Name)
	return nil
}

// Lookup returns the target with the given name.
// It returns ErrUnknownTarget if no such target is registered.
func (r *Registry) Lookup(name InternedString) (*Target, error) {
	t, ok := r.targets[name]
	if !ok {
		return nil, zerr.With(ErrUnknownTarget, "target", name.String())
	}
	return t, nil
}

// Has reports whether a target with the given name is registered.
func (r *Registry) Has(name InternedString) bool {
	_, ok := r.targets[name]
	return ok
}

// Names returns all target names in registration order.
// The returned slice is shared; callers must not mutate it.
func (r *Registry) Names() []InternedString {
	return r.order
}

// Len returns the number of registered targets.
func (r *Registry) Len() int {
	return len(r.order)
}

// SetToolchain records the rules file's tool location defaults.
func (r *Registry) SetToolchain(tools map[string]string) {
	r.toolchain = tools
}

// Toolchain returns the rules file's tool location defaults, as
// name -> default path pairs.
func (r *Registry) Toolchain() map[string]string {
	return r.toolchain
}
