package config

import "gopkg.in/yaml.v3"

// Forgefile represents the structure of the forge.yaml rules file.
//
// Targets and lifecycle are kept as yaml.Node so document order survives
// decoding: registration order is the deterministic tie-break for the
// execution order and the report.
type Forgefile struct {
	Version   string            `yaml:"version"`
	Toolchain map[string]string `yaml:"toolchain"`
	Targets   yaml.Node         `yaml:"targets"`
	Lifecycle yaml.Node         `yaml:"lifecycle"`
}

// TargetDTO represents a target definition in the rules file.
type TargetDTO struct {
	Deps         []string          `yaml:"deps"`
	Cmd          []string          `yaml:"cmd"`
	Output       string            `yaml:"output"`
	Phony        bool              `yaml:"phony"`
	ParseResults bool              `yaml:"parse_results"`
	Dir          string            `yaml:"dir"`
	Env          map[string]string `yaml:"env"`
}
