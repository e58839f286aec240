package setup

import (
	"fmt"

	"github.com/LegacyCodeHQ/testscope/cmd/selection"
	"github.com/LegacyCodeHQ/testscope/internal/devlog"
	"github.com/LegacyCodeHQ/testscope/runconfig"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type setupOptions struct {
	selection selection.Options
	flags     []string
	save      bool
}

// Cmd represents the setup command.
var Cmd = NewCommand()

// NewCommand returns a new setup command instance.
func NewCommand() *cobra.Command {
	opts := &setupOptions{}

	cmd := &cobra.Command{
		Use:   "setup FILE:LINE[:COL]",
		Short: "Create a test run configuration for a position in a Python test file",
		Long: `Resolve the py_test target owning the file and the test selected by the
position, then print a run configuration as YAML.

With --save the configuration is stored under .testscope/ in the workspace,
unless an equivalent configuration is already stored, in which case that one
is printed instead.

Examples:
  testscope setup app/foo_test.py:42
  testscope setup app/foo_test.py:42 --flag=--config=ci --save`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSetup(cmd, args[0], opts)
		},
	}

	opts.selection.AddFlags(cmd)
	opts.selection.AddColorFlag(cmd)
	cmd.Flags().StringArrayVar(&opts.flags, "flag", nil, "Build flag for the configuration (repeatable)")
	cmd.Flags().BoolVar(&opts.save, "save", false, "Store the configuration in the workspace")

	return cmd
}

func runSetup(cmd *cobra.Command, arg string, opts *setupOptions) error {
	session, err := selection.Open(cmd.Context(), arg, opts.selection, devlog.New())
	if err != nil {
		return err
	}

	flags := append(append([]string(nil), session.Config.DefaultFlags...), opts.flags...)

	var cfg *runconfig.Configuration
	if opts.save {
		store, err := runconfig.LoadStore(runconfig.StorePath(session.Workspace.Root))
		if err != nil {
			return err
		}
		var created bool
		cfg, created, err = session.Producer.Ensure(cmd.Context(), store, session.Context, flags)
		if err != nil {
			return err
		}
		printStatus(cmd, created, cfg.Name)
	} else {
		cfg = &runconfig.Configuration{Flags: flags}
		_, ok, err := session.Producer.SetupFromContext(cmd.Context(), cfg, session.Context)
		if err != nil {
			return err
		}
		if !ok {
			return runconfig.ErrNotTestContext
		}
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func printStatus(cmd *cobra.Command, created bool, name string) {
	if created {
		color.New(color.FgGreen).Fprintf(cmd.ErrOrStderr(), "created %s\n", name)
		return
	}
	color.New(color.FgYellow).Fprintf(cmd.ErrOrStderr(), "reusing %s\n", name)
}
