package runconfig

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/LegacyCodeHQ/testscope/blaze"
	"github.com/LegacyCodeHQ/testscope/pytest"
	"github.com/bazelbuild/bazel-gazelle/label"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fooTestSource = `from absl.testing import parameterized


class Foo(parameterized.TestCase):

    def setUp(self):
        self.x = 1

    def test_plain(self):
        self.assertEqual(1, 1)

    @parameterized.named_parameters(
        {"testcase_name": "alpha"},
        ("beta", 1),
    )
    def test_named(self, value):
        self.assertTrue(value)


def module_helper():
    return 1
`

type fakeTargets struct {
	target blaze.Target
	ok     bool
	err    error
	calls  int
}

func (f *fakeTargets) TestTargetForSource(string) (blaze.Target, bool, error) {
	f.calls++
	return f.target, f.ok, f.err
}

func fooTarget() *fakeTargets {
	return &fakeTargets{target: blaze.Target{Label: label.New("", "app", "foo_test"), Kind: "py_test"}, ok: true}
}

type recordedEvent struct {
	level   string
	message string
}

type recordingLogger struct {
	events []recordedEvent
}

func (l *recordingLogger) Info(message string, _ map[string]any) {
	l.events = append(l.events, recordedEvent{"info", message})
}

func (l *recordingLogger) Debug(message string, _ map[string]any) {
	l.events = append(l.events, recordedEvent{"debug", message})
}

func (l *recordingLogger) Warn(message string, _ map[string]any) {
	l.events = append(l.events, recordedEvent{"warn", message})
}

func (l *recordingLogger) Error(message string, _ map[string]any) {
	l.events = append(l.events, recordedEvent{"error", message})
}

func contextAt(t *testing.T, marker string) Context {
	t.Helper()
	idx := strings.Index(fooTestSource, marker)
	require.GreaterOrEqual(t, idx, 0, "marker %q not found", marker)
	return Context{
		File:   "/ws/app/foo_test.py",
		Source: []byte(fooTestSource),
		Line:   strings.Count(fooTestSource[:idx], "\n") + 1,
	}
}

func TestSetupFromContext_Filters(t *testing.T) {
	tests := []struct {
		name      string
		marker    string
		wantFlags []string
		wantName  string
		wantKind  pytest.ElementKind
	}{
		{
			name:      "plain test",
			marker:    "self.assertEqual(1, 1)",
			wantFlags: []string{"--config=ci", "--test_filter=Foo.test_plain"},
			wantName:  "Bazel test Foo.test_plain (//app:foo_test)",
			wantKind:  pytest.ElementFunction,
		},
		{
			name:      "named parameters",
			marker:    "def test_named",
			wantFlags: []string{"--config=ci", "--test_filter=Foo.test_namedalpha Foo.test_namedbeta"},
			wantName:  "Bazel test Foo.test_namedalpha Foo.test_namedbeta (//app:foo_test)",
			wantKind:  pytest.ElementFunction,
		},
		{
			name:      "class",
			marker:    "self.x = 1",
			wantFlags: []string{"--config=ci", "--test_filter=Foo"},
			wantName:  "Bazel test Foo (//app:foo_test)",
			wantKind:  pytest.ElementClass,
		},
		{
			name:      "outside any class",
			marker:    "return 1",
			wantFlags: []string{"--config=ci"},
			wantName:  "Bazel test //app:foo_test",
			wantKind:  pytest.ElementFile,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			producer := NewProducer(fooTarget())
			cfg := &Configuration{Flags: []string{"--test_filter=Stale", "--config=ci"}}

			sel, ok, err := producer.SetupFromContext(context.Background(), cfg, contextAt(t, tc.marker))

			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, CommandTest, cfg.Command)
			assert.Equal(t, "//app:foo_test", cfg.Target)
			assert.Equal(t, tc.wantFlags, cfg.Flags)
			assert.Equal(t, tc.wantName, cfg.Name)
			assert.True(t, cfg.NameChangedByUser)
			assert.Equal(t, tc.wantKind, sel.Element.Kind)
		})
	}
}

func TestSetupFromContext_BuildSystemName(t *testing.T) {
	producer := NewProducer(fooTarget(), WithBuildSystem("Blaze"))
	cfg := &Configuration{}

	_, ok, err := producer.SetupFromContext(context.Background(), cfg, contextAt(t, "def test_plain"))

	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Blaze test Foo.test_plain (//app:foo_test)", cfg.Name)
}

func TestSetupFromContext_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		targets *fakeTargets
		context Context
	}{
		{
			name:    "not python",
			targets: fooTarget(),
			context: Context{File: "/ws/app/foo_test.go", Source: []byte("package app\n"), Line: 1},
		},
		{
			name:    "not a test file",
			targets: fooTarget(),
			context: Context{File: "/ws/app/helpers.py", Source: []byte("import os\n"), Line: 1},
		},
		{
			name:    "no target",
			targets: &fakeTargets{},
			context: Context{File: "/ws/app/foo_test.py", Source: []byte(fooTestSource), Line: 1},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			producer := NewProducer(tc.targets)
			cfg := &Configuration{Flags: []string{"--test_filter=Keep"}}

			sel, ok, err := producer.SetupFromContext(context.Background(), cfg, tc.context)

			require.NoError(t, err)
			assert.False(t, ok)
			assert.Nil(t, sel)
			assert.Equal(t, &Configuration{Flags: []string{"--test_filter=Keep"}}, cfg)
		})
	}
}

func TestSetupFromContext_TargetError(t *testing.T) {
	targets := &fakeTargets{err: errors.New("bad BUILD file")}
	producer := NewProducer(targets)

	_, _, err := producer.SetupFromContext(context.Background(), &Configuration{}, contextAt(t, "def test_plain"))

	assert.ErrorContains(t, err, "bad BUILD file")
}

func TestSetupFromContext_LineOutsideFile(t *testing.T) {
	producer := NewProducer(fooTarget())
	c := contextAt(t, "def test_plain")
	c.Line = 1000

	_, _, err := producer.SetupFromContext(context.Background(), &Configuration{}, c)

	assert.Error(t, err)
}

func TestSetupFromContext_Logs(t *testing.T) {
	logger := &recordingLogger{}
	producer := NewProducer(fooTarget(), WithLogger(logger))

	_, ok, err := producer.SetupFromContext(context.Background(), &Configuration{}, contextAt(t, "def test_plain"))

	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []recordedEvent{{"info", "configured test"}}, logger.events)
}

func TestIsConfigFromContext_RoundTrip(t *testing.T) {
	for _, marker := range []string{"self.assertEqual(1, 1)", "def test_named", "self.x = 1", "return 1"} {
		t.Run(marker, func(t *testing.T) {
			producer := NewProducer(fooTarget())
			c := contextAt(t, marker)
			cfg := &Configuration{Flags: []string{"--config=ci"}}
			_, ok, err := producer.SetupFromContext(context.Background(), cfg, c)
			require.NoError(t, err)
			require.True(t, ok)

			matches, err := producer.IsConfigFromContext(context.Background(), cfg, c)

			require.NoError(t, err)
			assert.True(t, matches)
		})
	}
}

func TestIsConfigFromContext_Mismatches(t *testing.T) {
	producer := NewProducer(fooTarget())
	plain := contextAt(t, "self.assertEqual(1, 1)")
	cfg := &Configuration{}
	_, ok, err := producer.SetupFromContext(context.Background(), cfg, plain)
	require.NoError(t, err)
	require.True(t, ok)

	tests := []struct {
		name    string
		mutate  func(*Configuration)
		context Context
	}{
		{name: "other test", mutate: func(*Configuration) {}, context: contextAt(t, "def test_named")},
		{name: "other command", mutate: func(c *Configuration) { c.Command = "run" }, context: plain},
		{name: "other target", mutate: func(c *Configuration) { c.Target = "//app:other_test" }, context: plain},
		{name: "filter removed", mutate: func(c *Configuration) { c.Flags = nil }, context: plain},
		{name: "filter differs", mutate: func(c *Configuration) { c.Flags = []string{"--test_filter=Foo.test_plain "} }, context: plain},
		{name: "not python", mutate: func(*Configuration) {}, context: Context{File: "/ws/app/foo_test.go", Line: 1}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			candidate := cfg.Clone()
			tc.mutate(candidate)

			matches, err := producer.IsConfigFromContext(context.Background(), candidate, tc.context)

			require.NoError(t, err)
			assert.False(t, matches)
		})
	}
}

func TestIsConfigFromContext_DoesNotRequireTestFileName(t *testing.T) {
	producer := NewProducer(fooTarget())
	cfg := &Configuration{Command: CommandTest, Target: "//app:foo_test"}
	c := Context{File: "/ws/app/helpers.py", Source: []byte("x = 1\n"), Line: 1}

	matches, err := producer.IsConfigFromContext(context.Background(), cfg, c)

	require.NoError(t, err)
	assert.True(t, matches)
}

func TestEnsure_CreatesThenReuses(t *testing.T) {
	root := t.TempDir()
	store, err := LoadStore(StorePath(root))
	require.NoError(t, err)
	targets := fooTarget()
	producer := NewProducer(targets)
	c := contextAt(t, "def test_named")

	first, created, err := producer.Ensure(context.Background(), store, c, []string{"--config=ci"})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, []string{"--config=ci", "--test_filter=Foo.test_namedalpha Foo.test_namedbeta"}, first.Flags)

	reloaded, err := LoadStore(StorePath(root))
	require.NoError(t, err)
	require.Len(t, reloaded.Configurations(), 1)
	assert.Equal(t, first, reloaded.Configurations()[0])

	second, created, err := producer.Ensure(context.Background(), reloaded, c, []string{"--config=ci"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first, second)
	assert.Len(t, reloaded.Configurations(), 1)

	_, created, err = producer.Ensure(context.Background(), reloaded, contextAt(t, "def test_plain"), nil)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Len(t, reloaded.Configurations(), 2)
}

func TestEnsure_NotTestContext(t *testing.T) {
	store, err := LoadStore(StorePath(t.TempDir()))
	require.NoError(t, err)
	producer := NewProducer(&fakeTargets{})

	_, _, err = producer.Ensure(context.Background(), store, contextAt(t, "def test_plain"), nil)

	assert.ErrorIs(t, err, ErrNotTestContext)
}

func TestEnsure_WithWorkspaceTargets(t *testing.T) {
	root := t.TempDir()
	write := func(rel, content string) string {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		return path
	}
	write("MODULE.bazel", "")
	write("app/BUILD", "py_test(name = \"foo_test\", srcs = [\"foo_test.py\"])\n")
	file := write("app/foo_test.py", fooTestSource)

	ws, err := blaze.FindWorkspace(root)
	require.NoError(t, err)
	store, err := LoadStore(StorePath(ws.Root))
	require.NoError(t, err)

	c := contextAt(t, "def test_plain")
	c.File = file

	cfg, created, err := NewProducer(ws).Ensure(context.Background(), store, c, nil)

	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "//app:foo_test", cfg.Target)
	assert.Equal(t, []string{"--test_filter=Foo.test_plain"}, cfg.Flags)
}
