package blaze

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const globBuildFile = `py_test(
    name = "foo_test",
    srcs = glob(["*_test.py"]),
)

py_test(
    name = "suite_test",
    srcs = ["runner.py"] + glob(
        ["**/*_test.py"],
        exclude = ["slow_*_test.py"],
    ),
    main = "runner.py",
)

py_test(
    name = "keyword_test",
    srcs = glob(include = ["helpers/*.py"]),
)

py_test(
    name = "selected_test",
    srcs = select({"//conditions:default": ["foo_test.py"]}),
)
`

func newGlobWorkspace(t *testing.T) *Workspace {
	t.Helper()
	root := t.TempDir()
	writeFile(t, root, "MODULE.bazel", "")
	writeFile(t, root, "app/BUILD", globBuildFile)
	writeFile(t, root, "app/foo_test.py", "")
	writeFile(t, root, "app/slow_io_test.py", "")
	writeFile(t, root, "app/runner.py", "")
	writeFile(t, root, "app/helpers/util.py", "")
	writeFile(t, root, "app/deep/nested_test.py", "")
	writeFile(t, root, "app/sub/BUILD", "")
	writeFile(t, root, "app/sub/owned_test.py", "")

	ws, err := FindWorkspace(root)
	require.NoError(t, err)
	return ws
}

func TestLoadTargets_ExpandsGlobs(t *testing.T) {
	ws := newGlobWorkspace(t)

	targets, err := LoadTargets(filepath.Join(ws.Root, "app", "BUILD"), "app")
	require.NoError(t, err)

	srcs := make(map[string][]string)
	for _, target := range targets {
		srcs[target.Label.Name] = target.Srcs
	}

	assert.Equal(t, []string{"app/foo_test.py", "app/slow_io_test.py"}, srcs["foo_test"])
	assert.Equal(t, []string{"app/runner.py", "app/deep/nested_test.py", "app/foo_test.py"}, srcs["suite_test"])
	assert.Equal(t, []string{"app/helpers/util.py"}, srcs["keyword_test"])
	assert.Empty(t, srcs["selected_test"])
}

func TestTestTargetForSource_GlobbedSrcs(t *testing.T) {
	ws := newGlobWorkspace(t)

	target, ok, err := ws.TestTargetForSource(filepath.Join(ws.Root, "app", "foo_test.py"))

	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "//app:foo_test", target.Label.String())

	_, ok, err = ws.TestTargetForSource(filepath.Join(ws.Root, "app", "sub", "owned_test.py"))
	require.NoError(t, err)
	assert.False(t, ok, "subpackage files are not matched by the parent glob")
}

func TestLoadTargets_InvalidGlob(t *testing.T) {
	root := t.TempDir()
	buildFile := writeFile(t, root, "app/BUILD", `py_test(name = "bad_test", srcs = glob(["[*.py"]))`)

	_, err := LoadTargets(buildFile, "app")

	assert.ErrorContains(t, err, "invalid glob pattern")
}
