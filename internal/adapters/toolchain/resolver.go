// Package toolchain resolves external tool locations into an execution
// environment. External collaborators (doc renderers, extension compilers,
// the test engine, packagers) are found through it rather than through the
// bare process PATH.
package toolchain

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"go.trai.ch/forge/internal/core/ports"
)

// EnvPrefix prefixes process-environment overrides: FORGE_<NAME> overrides
// the rules file's default location for tool <NAME>.
const EnvPrefix = "FORGE_"

// PluginPathVar is the plugin-search-path override, exported to actions
// verbatim. Defaults to <cwd>/plugins when unset.
const PluginPathVar = "FORGE_PLUGIN_PATH"

var _ ports.ToolchainResolver = (*Resolver)(nil)

// Resolver implements ports.ToolchainResolver from the process environment
// and an optional .env file in the working directory.
type Resolver struct {
	logger ports.Logger
}

// NewResolver creates a new Resolver.
func NewResolver(logger ports.Logger) *Resolver {
	return &Resolver{logger: logger}
}

// Environment assembles the base action environment. Priority, low to high:
// the rules file's declared defaults, a .env file in the working directory,
// FORGE_<NAME> process variables. Directories of resolved tools are joined
// into a PATH fragment which the executor prepends to the system PATH.
func (r *Resolver) Environment(_ context.Context, tools map[string]string) ([]string, error) {
	dotenv := loadDotenv(r.logger)

	names := make([]string, 0, len(tools))
	for name := range tools {
		names = append(names, name)
	}
	sort.Strings(names)

	var env []string
	var pathDirs []string
	for _, name := range names {
		location := tools[name]
		if v, ok := dotenv[overrideVar(name)]; ok {
			location = v
		}
		if v, ok := os.LookupEnv(overrideVar(name)); ok {
			location = v
		}
		if location == "" {
			continue
		}
		env = append(env, overrideVar(name)+"="+location)
		if dir := filepath.Dir(location); dir != "." {
			pathDirs = append(pathDirs, dir)
		}
	}

	if len(pathDirs) > 0 {
		env = append(env, "PATH="+strings.Join(pathDirs, string(os.PathListSeparator)))
	}

	env = append(env, PluginPathVar+"="+pluginPath(dotenv))
	return env, nil
}

// overrideVar maps a tool name to its environment variable, e.g.
// "doc-gen" -> "FORGE_DOC_GEN".
func overrideVar(name string) string {
	v := strings.ToUpper(name)
	v = strings.NewReplacer("-", "_", ".", "_").Replace(v)
	return EnvPrefix + v
}

func pluginPath(dotenv map[string]string) string {
	if v, ok := os.LookupEnv(PluginPathVar); ok {
		return v
	}
	if v, ok := dotenv[PluginPathVar]; ok {
		return v
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "plugins"
	}
	return filepath.Join(cwd, "plugins")
}

// loadDotenv reads the working directory's .env file when present. A missing
// file is the normal case.
func loadDotenv(logger ports.Logger) map[string]string {
	vars, err := godotenv.Read(".env")
	if err != nil {
		if !os.IsNotExist(err) && logger != nil {
			logger.Warn("ignoring unreadable .env file: " + err.Error())
		}
		return nil
	}
	return vars
}
