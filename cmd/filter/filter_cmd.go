package filter

import (
	"fmt"
	"strings"

	"github.com/LegacyCodeHQ/testscope/blaze"
	"github.com/LegacyCodeHQ/testscope/cmd/selection"
	"github.com/LegacyCodeHQ/testscope/pytest"
	"github.com/spf13/cobra"
)

type filterOptions struct {
	selection selection.Options
	flags     []string
	rewrite   bool
}

// Cmd represents the filter command.
var Cmd = NewCommand()

// NewCommand returns a new filter command instance.
func NewCommand() *cobra.Command {
	opts := &filterOptions{}

	cmd := &cobra.Command{
		Use:   "filter FILE:LINE[:COL]",
		Short: "Print the test filter for a position in a Python test file",
		Long: `Print the --test_filter value that runs exactly the test selected by a
position: a test method, every generated case of a parameterized method, or a
whole test class. Nothing is printed when the position is outside a test class.

With --flag or --rewrite the given flags are printed one per line with any
existing test filter replaced.

Examples:
  testscope filter app/foo_test.py:42
  testscope filter app/foo_test.py:42:9 --flag=--config=ci --flag=--test_filter=Old`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFilter(cmd, args[0], opts)
		},
	}

	opts.selection.AddFlags(cmd)
	cmd.Flags().StringArrayVar(&opts.flags, "flag", nil, "Existing build flag to rewrite (repeatable)")
	cmd.Flags().BoolVar(&opts.rewrite, "rewrite", false, "Print the rewritten flag list even when no --flag is given")

	return cmd
}

func runFilter(cmd *cobra.Command, arg string, opts *filterOptions) error {
	c, err := selection.Read(cmd.Context(), arg, opts.selection)
	if err != nil {
		return err
	}

	f, err := pytest.Parse(cmd.Context(), c.Source)
	if err != nil {
		return err
	}
	defer f.Close()
	f.Path = c.File

	loc, err := f.LocationAt(c.Line, c.Column)
	if err != nil {
		return err
	}
	testFilter, ok := pytest.Resolve(f, loc).TestFilter()

	out := cmd.OutOrStdout()
	if !opts.rewrite && len(opts.flags) == 0 {
		if !ok {
			return nil
		}
		_, err := fmt.Fprintln(out, testFilter)
		return err
	}

	flags := blaze.StripTestFilter(opts.flags)
	if ok {
		flags = blaze.WithTestFilter(flags, testFilter)
	}
	if len(flags) == 0 {
		return nil
	}
	_, err = fmt.Fprintln(out, strings.Join(flags, "\n"))
	return err
}
