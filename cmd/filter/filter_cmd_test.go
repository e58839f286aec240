package filter

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleTest = `from absl.testing import parameterized


class Foo(parameterized.TestCase):

    @parameterized.parameters(1, 2, 3)
    def test_positional(self, value):
        self.assertTrue(value)

    @parameterized.named_parameters(
        {"testcase_name": "alpha"},
        ("beta", 1),
    )
    def test_named(self, value):
        self.assertTrue(value)


def helper():
    return 1
`

func writeSample(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "foo_test.py")
	require.NoError(t, os.WriteFile(path, []byte(sampleTest), 0o644))
	return path
}

func lineOf(t *testing.T, marker string) int {
	t.Helper()
	idx := strings.Index(sampleTest, marker)
	require.GreaterOrEqual(t, idx, 0)
	return strings.Count(sampleTest[:idx], "\n") + 1
}

func execute(t *testing.T, args ...string) string {
	t.Helper()
	cmd := NewCommand()
	cmd.SetArgs(args)
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)

	require.NoError(t, cmd.Execute())
	return stdout.String()
}

func position(path string, line int) string {
	return fmt.Sprintf("%s:%d", path, line)
}

func TestFilterCommand_Positional(t *testing.T) {
	path := writeSample(t)

	output := execute(t, position(path, lineOf(t, "def test_positional")))

	g := goldie.New(t)
	g.Assert(t, t.Name(), []byte(output))
}

func TestFilterCommand_Named(t *testing.T) {
	path := writeSample(t)

	output := execute(t, position(path, lineOf(t, `("beta", 1)`)))

	g := goldie.New(t)
	g.Assert(t, t.Name(), []byte(output))
}

func TestFilterCommand_OutsideTestClass(t *testing.T) {
	path := writeSample(t)

	output := execute(t, position(path, lineOf(t, "return 1")))

	if output != "" {
		t.Fatalf("output = %q, want empty", output)
	}
}

func TestFilterCommand_RewritesFlags(t *testing.T) {
	path := writeSample(t)

	output := execute(t, position(path, lineOf(t, "def test_named")),
		"--flag=--config=ci", "--flag=--test_filter=Old", "--flag=--test_output=errors")

	g := goldie.New(t)
	g.Assert(t, t.Name(), []byte(output))
}

func TestFilterCommand_RewriteStripsWhenNoFilter(t *testing.T) {
	path := writeSample(t)

	output := execute(t, position(path, lineOf(t, "return 1")), "--flag=--test_filter=Old", "--flag=--config=ci")

	if output != "--config=ci\n" {
		t.Fatalf("output = %q, want %q", output, "--config=ci\n")
	}
}

func TestFilterCommand_InvalidPosition(t *testing.T) {
	cmd := NewCommand()
	cmd.SetArgs([]string{"foo_test.py"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error for position without line")
	}
}

func TestFilterCommand_HasNoColorFlag(t *testing.T) {
	cmd := NewCommand()

	assert.NotNil(t, cmd.Flags().Lookup("rev"))
	assert.Nil(t, cmd.Flags().Lookup("no-color"), "filter prints no colored output")
}
