// Package commands implements the CLI commands for the forge build driver.
package commands

import (
	"context"
	"io"

	"github.com/spf13/cobra"
	"go.trai.ch/forge/internal/app"
	"go.trai.ch/forge/internal/build"
)

// Runner executes build targets. Satisfied by *app.App.
type Runner interface {
	Run(ctx context.Context, targetNames []string, opts app.RunOptions) error
}

// CLI represents the command line interface for forge.
type CLI struct {
	app     Runner
	rootCmd *cobra.Command
}

// New creates a new CLI instance with the given app.
func New(a Runner) *CLI {
	rootCmd := &cobra.Command{
		Use:           "forge",
		Short:         "An incremental build driver for external toolchains",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.PersistentFlags().StringP("config", "c", "forge.yaml", "Path to the rules file")
	rootCmd.PersistentFlags().IntP("jobs", "j", 0, "Maximum concurrent actions (default: number of CPUs)")
	rootCmd.PersistentFlags().BoolP("keep-going", "k", false, "Continue scheduling unrelated targets after a failure")
	rootCmd.PersistentFlags().BoolP("force", "f", false, "Treat every selected target as stale")

	c := &CLI{
		app:     a,
		rootCmd: rootCmd,
	}

	rootCmd.AddCommand(c.newRunCmd())
	for _, lc := range lifecycleCommands {
		rootCmd.AddCommand(c.newLifecycleCmd(lc))
	}
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the writers for command output and errors.
func (c *CLI) SetOutput(out, errOut io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(errOut)
}

// SetConfigHook installs a PersistentPreRun that passes the --config flag
// value to the provided callback before any command runs.
func (c *CLI) SetConfigHook(fn func(string)) {
	c.rootCmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		configPath, err := cmd.Flags().GetString("config")
		if err != nil {
			return err
		}
		fn(configPath)
		return nil
	}
}

// options reads the persistent flags into RunOptions.
func options(cmd *cobra.Command) app.RunOptions {
	jobs, _ := cmd.Flags().GetInt("jobs")
	keepGoing, _ := cmd.Flags().GetBool("keep-going")
	force, _ := cmd.Flags().GetBool("force")
	return app.RunOptions{
		Workers:   jobs,
		KeepGoing: keepGoing,
		Force:     force,
	}
}
