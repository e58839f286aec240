package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/LegacyCodeHQ/testscope/cmd/filter"
	"github.com/LegacyCodeHQ/testscope/cmd/match"
	"github.com/LegacyCodeHQ/testscope/cmd/setup"
	"github.com/LegacyCodeHQ/testscope/cmd/watch"
	"github.com/spf13/cobra"
)

// version is set via build-time ldflags
var version = "dev"

// buildDate is set via build-time ldflags
var buildDate = "unknown"

// commit is set via build-time ldflags
var commit = "unknown"

// rootCmd represents the base command when called without any subcommands
var rootCmd = newRootCommand()

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "testscope",
		Short: "Work out the Bazel test target and filter for a position in a Python test",
		Long: `testscope maps a cursor position inside a Python test file to the py_test
target that owns it, the --test_filter flag that runs only the selected tests,
and a named run configuration.

Use 'testscope --help' to see all available commands, or 'testscope <command> --help'
for detailed information about a specific command.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Register subcommands
	root.AddCommand(filter.NewCommand())
	root.AddCommand(setup.NewCommand())
	root.AddCommand(match.NewCommand())
	root.AddCommand(watch.NewCommand())

	// Initialize annotations for version template
	root.Annotations = map[string]string{
		"buildDate": buildDate,
		"commit":    commit,
	}

	// Customize version template to show additional build info
	root.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "version %s" .Version}}
Build date: {{printf "%s" (index .Annotations "buildDate")}}
Commit: {{printf "%s" (index .Annotations "commit")}}
`)

	return root
}

// Execute runs the root command and exits with a nonzero status on failure.
// This is called by main.main().
func Execute(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		reportError(os.Stderr, err)
		os.Exit(1)
	}
}

// reportError prints err unless the command already reported it.
func reportError(w io.Writer, err error) {
	if errors.Is(err, match.ErrNoMatch) {
		return
	}
	fmt.Fprintf(w, "Error: %v\n", err)
}
