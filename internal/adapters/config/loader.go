// Package config provides the rules file loader for forge.
package config

import (
	"os"
	"path/filepath"

	"go.trai.ch/forge/internal/core/domain"
	"go.trai.ch/forge/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// DefaultFilename is the rules file looked up in the working directory.
const DefaultFilename = "forge.yaml"

var _ ports.ConfigLoader = (*Loader)(nil)

// Loader implements ports.ConfigLoader using a YAML rules file.
type Loader struct {
	Filename string
}

// NewLoader creates a Loader for the default rules file.
func NewLoader() *Loader {
	return &Loader{Filename: DefaultFilename}
}

// Load reads the rules file from the given working directory and returns the
// registry plus the raw file bytes for fingerprinting.
func (l *Loader) Load(cwd string) (*domain.Registry, []byte, error) {
	name := l.Filename
	if name == "" {
		name = DefaultFilename
	}
	path := filepath.Join(cwd, name)

	data, err := os.ReadFile(path) //nolint:gosec // path is provided by user
	if err != nil {
		return nil, nil, zerr.With(zerr.Wrap(err, "failed to read rules file"), "path", path)
	}

	reg, err := Parse(data)
	if err != nil {
		return nil, nil, err
	}
	return reg, data, nil
}

// Parse decodes rules file content into a registry. Glob prerequisites stay
// unexpanded: parsing never touches the filesystem.
func Parse(data []byte) (*domain.Registry, error) {
	var file Forgefile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, zerr.Wrap(err, "failed to parse rules file")
	}

	targets, err := decodeTargets(&file.Targets)
	if err != nil {
		return nil, err
	}
	lifecycle, err := decodeLifecycle(&file.Lifecycle)
	if err != nil {
		return nil, err
	}

	known := make(map[string]bool, len(targets))
	for _, t := range targets {
		known[t.name] = true
	}
	for _, lc := range lifecycle {
		if known[lc.name] {
			return nil, zerr.With(zerr.New("lifecycle name is reserved"), "target", lc.name)
		}
		known[lc.name] = true
	}

	reg := domain.NewRegistry()
	reg.SetToolchain(file.Toolchain)

	for _, t := range targets {
		if err := reg.Register(buildTarget(t.name, t.dto, known)); err != nil {
			return nil, err
		}
	}
	for _, lc := range lifecycle {
		if err := reg.Register(buildAggregate(lc.name, lc.members)); err != nil {
			return nil, err
		}
	}

	return reg, nil
}

type namedTarget struct {
	name string
	dto  TargetDTO
}

type namedLifecycle struct {
	name    string
	members []string
}

// decodeTargets walks the mapping node pairwise to keep document order.
func decodeTargets(node *yaml.Node) ([]namedTarget, error) {
	if node.Kind == 0 || node.IsZero() {
		return nil, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, zerr.New("targets section must be a mapping")
	}

	res := make([]namedTarget, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		var name string
		if err := node.Content[i].Decode(&name); err != nil {
			return nil, zerr.Wrap(err, "invalid target name")
		}
		var dto TargetDTO
		if err := node.Content[i+1].Decode(&dto); err != nil {
			return nil, zerr.With(zerr.Wrap(err, "invalid target definition"), "target", name)
		}
		res = append(res, namedTarget{name: name, dto: dto})
	}
	return res, nil
}

func decodeLifecycle(node *yaml.Node) ([]namedLifecycle, error) {
	if node.Kind == 0 || node.IsZero() {
		return nil, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, zerr.New("lifecycle section must be a mapping")
	}

	res := make([]namedLifecycle, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		var name string
		if err := node.Content[i].Decode(&name); err != nil {
			return nil, zerr.Wrap(err, "invalid lifecycle name")
		}
		var members []string
		if err := node.Content[i+1].Decode(&members); err != nil {
			return nil, zerr.With(zerr.Wrap(err, "invalid lifecycle members"), "lifecycle", name)
		}
		res = append(res, namedLifecycle{name: name, members: members})
	}
	return res, nil
}

// buildTarget classifies each deps entry: a registered name is a target
// reference, wildcard characters make a glob, anything else is a literal path.
func buildTarget(name string, dto TargetDTO, known map[string]bool) *domain.Target {
	prereqs := make([]domain.Prerequisite, 0, len(dto.Deps))
	for _, dep := range dto.Deps {
		switch {
		case known[dep]:
			prereqs = append(prereqs, domain.TargetRef(dep))
		case domain.HasGlobMeta(dep):
			prereqs = append(prereqs, domain.GlobPattern(dep))
		default:
			prereqs = append(prereqs, domain.LiteralPath(dep))
		}
	}

	return &domain.Target{
		Name:         domain.NewInternedString(name),
		Prereqs:      prereqs,
		Command:      dto.Cmd,
		Output:       domain.NewInternedString(dto.Output),
		Phony:        dto.Phony,
		ParseResults: dto.ParseResults,
		WorkingDir:   domain.NewInternedString(dto.Dir),
		Environment:  dto.Env,
	}
}

// buildAggregate synthesizes a lifecycle command as a phony actionless target
// whose prerequisites are the subset members. Lifecycle commands reuse the
// graph machinery instead of special-cased control flow. Unknown members
// become dangling target references; graph construction rejects them with
// the offending pair named.
func buildAggregate(name string, members []string) *domain.Target {
	prereqs := make([]domain.Prerequisite, 0, len(members))
	for _, m := range members {
		prereqs = append(prereqs, domain.TargetRef(m))
	}
	return &domain.Target{
		Name:    domain.NewInternedString(name),
		Prereqs: prereqs,
		Phony:   true,
	}
}
