package watch

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/LegacyCodeHQ/testscope/cmd/selection"
	"github.com/LegacyCodeHQ/testscope/pytest"
	"github.com/LegacyCodeHQ/testscope/runconfig"
	"github.com/spf13/cobra"
)

const noFilter = "(no test selected)"

// Cmd represents the watch command.
var Cmd = NewCommand()

// NewCommand returns a new watch command instance.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch FILE:LINE[:COL]",
		Short: "Print the test filter for a position each time the file changes",
		Long: `Print the test filter for a position, then print it again whenever the
file is saved and the filter changes. Stops on interrupt.

Examples:
  testscope watch app/foo_test.py:42`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, args[0])
		},
	}

	return cmd
}

func runWatch(cmd *cobra.Command, arg string) error {
	c, err := selection.Read(cmd.Context(), arg, selection.Options{})
	if err != nil {
		return err
	}

	p := &printer{out: cmd.OutOrStdout()}
	publish := func() {
		current, err := selection.Read(cmd.Context(), arg, selection.Options{})
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "read error: %v\n", err)
			return
		}
		if err := p.print(cmd.Context(), current); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "resolve error: %v\n", err)
		}
	}

	publish()
	return watchAndResolve(cmd.Context(), c.File, publish)
}

// printer writes a filter line whenever the result differs from the last one.
type printer struct {
	mu      sync.Mutex
	out     io.Writer
	last    string
	printed bool
}

func (p *printer) print(ctx context.Context, c runconfig.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	f, err := pytest.Parse(ctx, c.Source)
	if err != nil {
		return err
	}
	defer f.Close()

	loc, err := f.LocationAt(c.Line, c.Column)
	if err != nil {
		return err
	}

	current := noFilter
	if filter, ok := pytest.Resolve(f, loc).TestFilter(); ok {
		current = filter
	}
	if p.printed && current == p.last {
		return nil
	}

	p.last = current
	p.printed = true
	_, err = fmt.Fprintln(p.out, current)
	return err
}
