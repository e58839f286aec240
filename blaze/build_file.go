package blaze

import (
	"fmt"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bazelbuild/bazel-gazelle/label"
	"github.com/bazelbuild/bazel-gazelle/rule"
)

// Target is a test rule declared in a BUILD file.
type Target struct {
	Label label.Label
	Kind  string
	// Srcs are workspace-relative source paths.
	Srcs []string
	// Main is the workspace-relative entry point, when set explicitly.
	Main string
}

// LoadTargets parses the BUILD file at buildFile for package pkg and returns
// its test rules in label order. Globs in srcs are expanded against the
// package directory.
func LoadTargets(buildFile, pkg string) ([]Target, error) {
	f, err := rule.LoadFile(buildFile, pkg)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", buildFile, err)
	}

	var targets []Target
	for _, r := range f.Rules {
		if !strings.HasSuffix(r.Kind(), "_test") || r.Name() == "" {
			continue
		}

		target := Target{
			Label: label.New("", pkg, r.Name()),
			Kind:  r.Kind(),
		}
		srcs, err := labelList(r.Attr("srcs"), filepath.Dir(buildFile))
		if err != nil {
			return nil, fmt.Errorf("failed to read srcs of %s: %w", target.Label, err)
		}
		for _, src := range srcs {
			if resolved, ok := sourcePath(pkg, src); ok {
				target.Srcs = append(target.Srcs, resolved)
			}
		}
		if main := r.AttrString("main"); main != "" {
			target.Main, _ = sourcePath(pkg, main)
		}
		targets = append(targets, target)
	}

	sort.Slice(targets, func(i, j int) bool {
		return targets[i].Label.String() < targets[j].Label.String()
	})
	return targets, nil
}

// sourcePath maps a srcs entry to a workspace-relative path. Entries in
// external repositories are dropped.
func sourcePath(pkg, src string) (string, bool) {
	if !strings.HasPrefix(src, ":") && !strings.HasPrefix(src, "//") && !strings.HasPrefix(src, "@") {
		return path.Join(pkg, src), true
	}

	l, err := label.Parse(src)
	if err != nil {
		return "", false
	}
	if l.Repo != "" {
		return "", false
	}
	if l.Relative {
		return path.Join(pkg, l.Name), true
	}
	return path.Join(l.Pkg, l.Name), true
}
