package blaze

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNoWorkspace means no workspace marker file was found above a path. The
// project has not been set up for Bazel, so no target metadata exists.
var ErrNoWorkspace = errors.New("not inside a Bazel workspace")

var workspaceMarkers = []string{"MODULE.bazel", "WORKSPACE.bazel", "WORKSPACE"}

var buildFileNames = []string{"BUILD.bazel", "BUILD"}

// Workspace is a Bazel workspace rooted at Root.
type Workspace struct {
	Root string
}

// FindWorkspace walks upward from dir to the nearest workspace root.
func FindWorkspace(dir string) (*Workspace, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", dir, err)
	}

	for current := absDir; ; current = filepath.Dir(current) {
		for _, marker := range workspaceMarkers {
			if isFile(filepath.Join(current, marker)) {
				return &Workspace{Root: current}, nil
			}
		}
		if filepath.Dir(current) == current {
			return nil, fmt.Errorf("%w: %s", ErrNoWorkspace, absDir)
		}
	}
}

// Rel returns file relative to the workspace root with forward slashes.
func (w *Workspace) Rel(file string) (string, error) {
	absFile, err := filepath.Abs(file)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", file, err)
	}
	rel, err := filepath.Rel(w.Root, absFile)
	if err != nil {
		return "", fmt.Errorf("failed to relativize %s: %w", file, err)
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", fmt.Errorf("%s is outside workspace %s", file, w.Root)
	}
	return rel, nil
}

// FindPackage returns the workspace-relative package owning file and the
// path of its BUILD file. The root package is "".
func (w *Workspace) FindPackage(file string) (string, string, bool) {
	rel, err := w.Rel(file)
	if err != nil {
		return "", "", false
	}

	dir := pathDir(rel)
	for {
		for _, name := range buildFileNames {
			buildFile := filepath.Join(w.Root, filepath.FromSlash(dir), name)
			if isFile(buildFile) {
				return dir, buildFile, true
			}
		}
		if dir == "" {
			return "", "", false
		}
		dir = pathDir(dir)
	}
}

func pathDir(rel string) string {
	i := strings.LastIndexByte(rel, '/')
	if i < 0 {
		return ""
	}
	return rel[:i]
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
