package blaze

import (
	"path"
	"strings"

	"github.com/bazelbuild/bazel-gazelle/label"
)

// TestTargetForSource picks the test target that runs file. Among the test
// rules in the file's package that list it in srcs, a rule named after the
// file wins, then a rule whose main is the file, then the first by label.
func (w *Workspace) TestTargetForSource(file string) (Target, bool, error) {
	rel, err := w.Rel(file)
	if err != nil {
		return Target{}, false, err
	}

	pkg, buildFile, ok := w.FindPackage(file)
	if !ok {
		return Target{}, false, nil
	}

	targets, err := LoadTargets(buildFile, pkg)
	if err != nil {
		return Target{}, false, err
	}
	ix, err := NewTargetIndex(targets)
	if err != nil {
		return Target{}, false, err
	}
	candidates, err := ix.TargetsForSource(rel)
	if err != nil {
		return Target{}, false, err
	}
	if len(candidates) == 0 {
		return Target{}, false, nil
	}

	return chooseTarget(rel, candidates), true, nil
}

func chooseTarget(rel string, candidates []Target) Target {
	stem := strings.TrimSuffix(path.Base(rel), path.Ext(rel))
	for _, candidate := range candidates {
		if candidate.Label.Name == stem {
			return candidate
		}
	}
	for _, candidate := range candidates {
		if candidate.Main == rel {
			return candidate
		}
	}
	return candidates[0]
}

// ParseLabel parses an absolute target label.
func ParseLabel(s string) (label.Label, error) {
	return label.Parse(s)
}
