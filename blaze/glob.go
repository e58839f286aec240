package blaze

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"

	bzl "github.com/bazelbuild/buildtools/build"
	"github.com/bmatcuk/doublestar/v4"
)

// globCall is a parsed glob(include, exclude = [...]) call.
type globCall struct {
	include []string
	exclude []string
}

// labelList evaluates a label list attribute such as srcs. String lists,
// glob calls and their concatenations are understood; select() and other
// expressions contribute nothing. Globs are expanded against pkgDir.
func labelList(expr bzl.Expr, pkgDir string) ([]string, error) {
	switch e := expr.(type) {
	case *bzl.ListExpr:
		return stringList(e), nil
	case *bzl.BinaryExpr:
		if e.Op != "+" {
			return nil, nil
		}
		left, err := labelList(e.X, pkgDir)
		if err != nil {
			return nil, err
		}
		right, err := labelList(e.Y, pkgDir)
		if err != nil {
			return nil, err
		}
		return append(left, right...), nil
	case *bzl.CallExpr:
		g, ok := parseGlob(e)
		if !ok {
			return nil, nil
		}
		return g.expand(pkgDir)
	}
	return nil, nil
}

func stringList(list *bzl.ListExpr) []string {
	var values []string
	for _, item := range list.List {
		if s, ok := item.(*bzl.StringExpr); ok {
			values = append(values, s.Value)
		}
	}
	return values
}

func parseGlob(call *bzl.CallExpr) (globCall, bool) {
	if ident, ok := call.X.(*bzl.Ident); !ok || ident.Name != "glob" {
		return globCall{}, false
	}

	var g globCall
	for i, arg := range call.List {
		if assign, ok := arg.(*bzl.AssignExpr); ok {
			key, _ := assign.LHS.(*bzl.Ident)
			list, _ := assign.RHS.(*bzl.ListExpr)
			if key == nil || list == nil {
				continue
			}
			switch key.Name {
			case "include":
				g.include = stringList(list)
			case "exclude":
				g.exclude = stringList(list)
			}
			continue
		}
		if list, ok := arg.(*bzl.ListExpr); ok && i == 0 {
			g.include = stringList(list)
		}
	}
	return g, true
}

// expand returns the files under pkgDir matching the glob, sorted. Like
// Bazel, it does not descend into subpackages.
func (g globCall) expand(pkgDir string) ([]string, error) {
	fsys := os.DirFS(pkgDir)
	seen := make(map[string]bool)
	var matches []string

	for _, pattern := range g.include {
		found, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("invalid glob pattern %q: %w", pattern, err)
		}
		for _, name := range found {
			if seen[name] || g.excluded(name) || inSubpackage(fsys, name) {
				continue
			}
			seen[name] = true
			matches = append(matches, name)
		}
	}

	sort.Strings(matches)
	return matches, nil
}

func (g globCall) excluded(name string) bool {
	for _, pattern := range g.exclude {
		if ok, err := doublestar.Match(pattern, name); err == nil && ok {
			return true
		}
	}
	return false
}

// inSubpackage reports whether a directory between the package root and
// name has its own BUILD file.
func inSubpackage(fsys fs.FS, name string) bool {
	for dir := path.Dir(name); dir != "."; dir = path.Dir(dir) {
		for _, buildFile := range buildFileNames {
			if _, err := fs.Stat(fsys, path.Join(dir, buildFile)); err == nil {
				return true
			}
		}
	}
	return false
}
