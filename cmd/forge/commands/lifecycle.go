package commands

import (
	"github.com/spf13/cobra"
)

// lifecycleCommands are the user-facing build phases. Each maps to a phony
// aggregate target of the same name in the rules file, so they ride the
// ordinary graph machinery.
var lifecycleCommands = []struct {
	name  string
	short string
}{
	{"build", "Build the extension targets"},
	{"docs", "Build all documentation targets"},
	{"clean", "Remove generated files"},
	{"check", "Build docs and run the test suite"},
	{"dist", "Produce the distribution package"},
}

func (c *CLI) newLifecycleCmd(lc struct{ name, short string }) *cobra.Command {
	cmd := &cobra.Command{
		Use:   lc.name,
		Short: lc.short,
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := options(cmd)
			// Arguments after -- are forwarded verbatim to the test engine.
			opts.PassThrough = args
			return c.app.Run(cmd.Context(), []string{cmd.Name()}, opts)
		},
	}
	return cmd
}
