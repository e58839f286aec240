// Package selection turns a FILE:LINE[:COL] argument into a resolution
// context shared by the testscope commands.
package selection

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/LegacyCodeHQ/testscope/blaze"
	"github.com/LegacyCodeHQ/testscope/internal/config"
	"github.com/LegacyCodeHQ/testscope/internal/devlog"
	"github.com/LegacyCodeHQ/testscope/runconfig"
	"github.com/LegacyCodeHQ/testscope/vcs"
	"github.com/LegacyCodeHQ/testscope/vcs/git"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// Position is a parsed FILE:LINE[:COL] argument.
type Position struct {
	File   string
	Line   int
	Column int
}

// ParsePosition parses FILE:LINE or FILE:LINE:COL. The numeric parts are
// taken from the right so file names may contain colons.
func ParsePosition(arg string) (Position, error) {
	parts := strings.Split(arg, ":")
	if len(parts) < 2 {
		return Position{}, fmt.Errorf("expected FILE:LINE[:COL], got %q", arg)
	}

	numbers := make([]int, 0, 2)
	for len(parts) > 1 && len(numbers) < 2 {
		n, err := strconv.Atoi(parts[len(parts)-1])
		if err != nil {
			break
		}
		numbers = append([]int{n}, numbers...)
		parts = parts[:len(parts)-1]
	}
	if len(numbers) == 0 {
		return Position{}, fmt.Errorf("expected FILE:LINE[:COL], got %q", arg)
	}

	pos := Position{File: strings.Join(parts, ":"), Line: numbers[0]}
	if len(numbers) == 2 {
		pos.Column = numbers[1]
	}
	if pos.File == "" {
		return Position{}, fmt.Errorf("missing file in %q", arg)
	}
	if pos.Line < 1 || pos.Column < 0 {
		return Position{}, fmt.Errorf("invalid position in %q", arg)
	}
	return pos, nil
}

// Options are the flags shared by commands that read a selection.
type Options struct {
	Revision string
	NoColor  bool
}

// AddFlags registers the flags shared by every command reading a selection.
func (o *Options) AddFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.Revision, "rev", "", "Read the file as of this git commit instead of the working tree")
}

// AddColorFlag registers --no-color on commands that print colored status.
func (o *Options) AddColorFlag(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&o.NoColor, "no-color", false, "Disable colored status output")
}

// Read resolves arg to an absolute path and reads its content.
func Read(ctx context.Context, arg string, opts Options) (runconfig.Context, error) {
	pos, err := ParsePosition(arg)
	if err != nil {
		return runconfig.Context{}, err
	}

	file, err := absolutePath(pos.File)
	if err != nil {
		return runconfig.Context{}, err
	}

	reader, err := contentReader(ctx, file, opts.Revision)
	if err != nil {
		return runconfig.Context{}, err
	}
	source, err := reader(ctx, file)
	if err != nil {
		return runconfig.Context{}, fmt.Errorf("failed to read %s: %w", pos.File, err)
	}

	return runconfig.Context{File: file, Source: source, Line: pos.Line, Column: pos.Column}, nil
}

// Session is a selection inside a workspace, ready for the producer.
type Session struct {
	Workspace *blaze.Workspace
	Config    *config.Config
	Producer  *runconfig.Producer
	Context   runconfig.Context
}

// Open reads arg and loads the workspace around it.
func Open(ctx context.Context, arg string, opts Options, log devlog.Logger) (*Session, error) {
	c, err := Read(ctx, arg, opts)
	if err != nil {
		return nil, err
	}

	ws, err := blaze.FindWorkspace(filepath.Dir(c.File))
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(ws.Root)
	if err != nil {
		return nil, err
	}
	color.NoColor = opts.NoColor || !cfg.ColorEnabled(!color.NoColor)

	log.Debug("opened selection", map[string]any{
		"file":      c.File,
		"line":      c.Line,
		"workspace": ws.Root,
		"revision":  opts.Revision,
	})

	return &Session{
		Workspace: ws,
		Config:    cfg,
		Producer: runconfig.NewProducer(ws,
			runconfig.WithBuildSystem(cfg.BuildSystem),
			runconfig.WithLogger(log)),
		Context: c,
	}, nil
}

func contentReader(ctx context.Context, file, revision string) (vcs.ContentReader, error) {
	if revision == "" {
		return vcs.FilesystemContentReader(), nil
	}

	repoRoot, err := git.GetRepositoryRoot(ctx, filepath.Dir(file))
	if err != nil {
		return nil, err
	}
	if err := git.ValidateCommit(ctx, repoRoot, revision); err != nil {
		return nil, err
	}
	return git.CommitContentReader(repoRoot, revision), nil
}

// absolutePath makes path absolute with symlinked directories resolved, so
// it lines up with the repository root git reports.
func absolutePath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	if dir, err := filepath.EvalSymlinks(filepath.Dir(abs)); err == nil {
		abs = filepath.Join(dir, filepath.Base(abs))
	}
	return abs, nil
}
