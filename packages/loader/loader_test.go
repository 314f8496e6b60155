package loader

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/abdul-hamid-achik/runspec/packages/spec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSuiteFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const sampleSuite = `name: payments
defaults:
  timeout: 30s
cases:
  - name: health endpoint answers
    command: "true"
    tags: [smoke]
  - name: hammer the gateway
    command: "true"
    threads: 4
    invocations: 10
    timeout: 5s
suites:
  - name: refunds
    cases:
      - name: rejects unknown charge
        command: "true"
        active: false
`

func TestLoadBuildsTree(t *testing.T) {
	path := writeSuiteFile(t, "payments.suite.yaml", sampleSuite)

	f, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "payments", f.Name)

	inst, err := f.Factory()()
	require.NoError(t, err)

	cases := spec.Flatten(inst.Suite())
	require.Len(t, cases, 3)

	assert.Equal(t, "health endpoint answers", cases[0].Name)
	assert.Equal(t, []string{"smoke"}, cases[0].Config.Tags)
	assert.Equal(t, 30*time.Second, cases[0].Config.Timeout, "defaults apply when unset")

	assert.Equal(t, 4, cases[1].Config.Threads)
	assert.Equal(t, 10, cases[1].Config.Invocations)
	assert.Equal(t, 5*time.Second, cases[1].Config.Timeout)

	assert.Equal(t, "refunds", cases[2].Suite.Name)
	assert.False(t, cases[2].Active)
}

func TestFactoryIsDeterministic(t *testing.T) {
	path := writeSuiteFile(t, "payments.suite.yaml", sampleSuite)
	f, err := Load(path)
	require.NoError(t, err)

	factory := f.Factory()
	first, err := factory()
	require.NoError(t, err)
	second, err := factory()
	require.NoError(t, err)

	a := spec.Flatten(first.Suite())
	b := spec.Flatten(second.Suite())
	require.Equal(t, len(a), len(b))
	for i := range a {
		assert.Equal(t, a[i].Name, b[i].Name)
		assert.NotSame(t, a[i], b[i], "instances must not share tree nodes")
	}
}

func TestLoadDefaultsNameFromFile(t *testing.T) {
	path := writeSuiteFile(t, "checkout.suite.yaml", "cases:\n  - name: c\n    command: \"true\"\n")

	f, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "checkout", f.Name)
}

func TestLoadRejectsMissingCommand(t *testing.T) {
	path := writeSuiteFile(t, "bad.suite.yaml", "cases:\n  - name: c\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "command")
}

func TestLoadRejectsUnknownField(t *testing.T) {
	path := writeSuiteFile(t, "bad.suite.yaml", "cases:\n  - name: c\n    command: \"true\"\n    retries: 3\n")

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsZeroThreads(t *testing.T) {
	path := writeSuiteFile(t, "bad.suite.yaml", "cases:\n  - name: c\n    command: \"true\"\n    threads: 0\n")

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsBadTimeout(t *testing.T) {
	path := writeSuiteFile(t, "bad.suite.yaml", "cases:\n  - name: c\n    command: \"true\"\n    timeout: soon\n")

	f, err := Load(path)
	require.NoError(t, err, "schema only checks shape; duration parsing happens at build")
	_, err = f.Factory()()
	assert.Error(t, err)
}

func TestShellActionReportsFailureOutput(t *testing.T) {
	action := shellAction("echo oops >&2; exit 3", t.TempDir())

	err := action()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "oops")
}

func TestShellActionSuccess(t *testing.T) {
	assert.NoError(t, shellAction("true", t.TempDir())())
	assert.NoError(t, shellAction("  ", t.TempDir())(), "blank commands are no-ops")
}

func TestCollect(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested"), 0o755))
	a := filepath.Join(dir, "a.suite.yaml")
	b := filepath.Join(dir, "nested", "b.suite.yaml")
	other := filepath.Join(dir, "notes.txt")
	for _, p := range []string{a, b, other} {
		require.NoError(t, os.WriteFile(p, []byte("cases: []\n"), 0o644))
	}

	files, err := Collect([]string{dir})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{a, b}, files)

	files, err = Collect([]string{a})
	require.NoError(t, err)
	assert.Equal(t, []string{a}, files)
}

func TestValidate(t *testing.T) {
	good := writeSuiteFile(t, "good.suite.yaml", sampleSuite)
	bad := writeSuiteFile(t, "bad.suite.yaml", "cases: {not: a list}\n")

	assert.NoError(t, Validate(good))
	assert.Error(t, Validate(bad))
}
