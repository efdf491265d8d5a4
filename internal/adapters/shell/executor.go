// Package shell provides the external action executor.
package shell

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"go.trai.ch/forge/internal/core/domain"
	"go.trai.ch/forge/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Executor = (*Executor)(nil)

// Executor implements ports.Executor using os/exec. Actions are opaque: the
// engine only observes exit status and output streams.
type Executor struct {
	logger ports.Logger
}

// NewExecutor creates a new Executor.
func NewExecutor(logger ports.Logger) *Executor {
	return &Executor{logger: logger}
}

// Execute runs the target's command. The final environment merges, low to
// high priority: the system environment, the toolchain environment (PATH
// entries prepended), and the target's own overrides. Output streams go to
// the provided writers; they are never parsed here.
func (e *Executor) Execute(ctx context.Context, target *domain.Target, env []string, stdout, stderr io.Writer) error {
	if !target.Actionable() {
		return nil
	}

	name := target.Command[0]
	args := target.Command[1:]
	cmdEnv := mergeEnvironment(os.Environ(), env, target.Environment)

	// Resolve the executable against the merged PATH, not the process PATH,
	// so toolchain overrides take effect.
	executable := name
	if !filepath.IsAbs(name) {
		if lp, err := lookPath(name, cmdEnv); err == nil {
			executable = lp
		}
	}

	cmd := exec.CommandContext(ctx, executable, args...) //nolint:gosec // user provided command
	if len(cmd.Args) > 0 {
		// Preserve the command name as invoked.
		cmd.Args[0] = name
	}
	if dir := target.WorkingDir.String(); dir != "" {
		cmd.Dir = dir
	}
	cmd.Env = cmdEnv
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	e.logger.Info("exec " + target.Name.String() + ": " + strings.Join(target.Command, " "))

	if err := cmd.Run(); err != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		return zerr.With(zerr.With(zerr.Wrap(errors.Join(domain.ErrActionFailed, err), "command failed"),
			"target", target.Name.String()),
			"exit_code", exitCode)
	}
	return nil
}

// mergeEnvironment merges environment variables with the defined priority.
func mergeEnvironment(sysEnv, toolEnv []string, targetEnv map[string]string) []string {
	envMap := make(map[string]string, len(sysEnv)+len(toolEnv)+len(targetEnv))
	for _, entry := range sysEnv {
		if k, v, ok := strings.Cut(entry, "="); ok {
			envMap[k] = v
		}
	}

	for _, entry := range toolEnv {
		k, v, ok := strings.Cut(entry, "=")
		if !ok {
			continue
		}
		if k == "PATH" {
			if sysPath, exists := envMap["PATH"]; exists && sysPath != "" {
				envMap[k] = v + string(os.PathListSeparator) + sysPath
			} else {
				envMap[k] = v
			}
		} else {
			envMap[k] = v
		}
	}

	for k, v := range targetEnv {
		envMap[k] = v
	}

	result := make([]string, 0, len(envMap))
	for k, v := range envMap {
		result = append(result, k+"="+v)
	}
	return result
}

// lookPath searches for an executable in the PATH of the given environment.
func lookPath(file string, env []string) (string, error) {
	var path string
	for _, e := range env {
		if strings.HasPrefix(e, "PATH=") {
			path = strings.TrimPrefix(e, "PATH=")
			break
		}
	}
	if path == "" {
		return "", exec.ErrNotFound
	}

	for _, dir := range filepath.SplitList(path) {
		if dir == "" {
			// Unix shell semantics: empty path element means ".".
			dir = "."
		}
		candidate := filepath.Join(dir, file)
		if err := findExecutable(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", exec.ErrNotFound
}

func findExecutable(file string) error {
	d, err := os.Stat(file)
	if err != nil {
		return err
	}
	if m := d.Mode(); !m.IsDir() && m&0o111 != 0 {
		return nil
	}
	return os.ErrPermission
}
