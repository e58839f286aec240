package match

import (
	"errors"
	"fmt"

	"github.com/LegacyCodeHQ/testscope/blaze"
	"github.com/LegacyCodeHQ/testscope/cmd/selection"
	"github.com/LegacyCodeHQ/testscope/internal/devlog"
	"github.com/LegacyCodeHQ/testscope/runconfig"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// ErrNoMatch is returned when the configuration does not run the selection.
var ErrNoMatch = errors.New("configuration does not match selection")

type matchOptions struct {
	selection selection.Options
	target    string
	command   string
	flags     []string
}

// Cmd represents the match command.
var Cmd = NewCommand()

// NewCommand returns a new match command instance.
func NewCommand() *cobra.Command {
	opts := &matchOptions{}

	cmd := &cobra.Command{
		Use:   "match FILE:LINE[:COL] --target LABEL",
		Short: "Check whether a run configuration already runs the selected test",
		Long: `Check whether a run configuration, given by its command, target and flags,
runs exactly the test selected by a position. The command exits with an error
when it does not, so editors can decide whether to create a new configuration.

Examples:
  testscope match app/foo_test.py:42 --target //app:foo_test --flag=--test_filter=Foo.test_bar`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMatch(cmd, args[0], opts)
		},
	}

	opts.selection.AddFlags(cmd)
	opts.selection.AddColorFlag(cmd)
	cmd.Flags().StringVar(&opts.target, "target", "", "Target label of the configuration")
	cmd.Flags().StringVar(&opts.command, "command", runconfig.CommandTest, "Build tool command of the configuration")
	cmd.Flags().StringArrayVar(&opts.flags, "flag", nil, "Build flag of the configuration (repeatable)")
	_ = cmd.MarkFlagRequired("target")

	return cmd
}

func runMatch(cmd *cobra.Command, arg string, opts *matchOptions) error {
	target, err := blaze.ParseLabel(opts.target)
	if err != nil {
		return fmt.Errorf("invalid target %q: %w", opts.target, err)
	}

	session, err := selection.Open(cmd.Context(), arg, opts.selection, devlog.New())
	if err != nil {
		return err
	}

	cfg := &runconfig.Configuration{
		Command: opts.command,
		Target:  target.String(),
		Flags:   opts.flags,
	}
	matches, err := session.Producer.IsConfigFromContext(cmd.Context(), cfg, session.Context)
	if err != nil {
		return err
	}

	if !matches {
		color.New(color.FgRed).Fprintln(cmd.OutOrStdout(), "no match")
		return ErrNoMatch
	}
	color.New(color.FgGreen).Fprintln(cmd.OutOrStdout(), "match")
	return nil
}
