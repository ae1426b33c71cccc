package cmd

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	oerrors "github.com/ceph/cephadm-build/internal/errors"
	"github.com/ceph/cephadm-build/internal/runner"
	"github.com/ceph/cephadm-build/internal/testutil"
)

const testPython = "/opt/py/bin/python3"

// isolateConfig points the config loader at an empty temp location and
// returns the config file path.
func isolateConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv("CEPHADM_BUILD_CONFIG", path)
	return path
}

func stubRunner(t *testing.T, r runner.Runner) {
	t.Helper()
	orig := newRunner
	newRunner = func() runner.Runner { return r }
	t.Cleanup(func() { newRunner = orig })
}

func stubHandOff(t *testing.T) *[]string {
	t.Helper()
	var calls []string
	orig := handOff
	handOff = func(python string) error {
		calls = append(calls, python)
		return nil
	}
	t.Cleanup(func() { handOff = orig })
	return &calls
}

// pythonRunner answers every "python -c" call: the version probe reads the
// printed version, the zipapp and byte-compile calls only need exit 0.
func pythonRunner() *testutil.FakeRunner {
	return testutil.NewFakeRunner().OnStdout("3.11.4\n", testPython, "-c")
}

// execute runs the root command with args and returns its stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestNewRootCmd(t *testing.T) {
	root := NewRootCmd()

	assert.Equal(t, "cephadm-build DEST", root.Use)
	assert.True(t, root.SilenceUsage)
	assert.True(t, root.SilenceErrors)

	for _, name := range []string{"config", "verbose", "timestamps"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(name), "persistent flag %s", name)
	}
	for _, name := range []string{"source", "python", "set-version-var", "pip-use-venv", "bundled-dependencies", "compress", "publish"} {
		assert.NotNil(t, root.Flags().Lookup(name), "flag %s", name)
	}

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"inspect", "diff", "config", "version"}, names)
}

func TestRootCmd_UsageErrors(t *testing.T) {
	isolateConfig(t)

	tests := []struct {
		name string
		args []string
	}{
		{name: "missing dest", args: nil},
		{name: "too many args", args: []string{"a", "b"}},
		{name: "unknown flag", args: []string{"dest", "--no-such-flag"}},
		{name: "bad version var key", args: []string{"dest", "-S", "FOO=bar"}},
		{name: "version var without value", args: []string{"dest", "-S", "CEPH_RELEASE"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Equal(t, oerrors.ExitValidationError, oerrors.ExitCodeFromError(err))
		})
	}
}

func TestRootCmd_InvalidConfig(t *testing.T) {
	path := isolateConfig(t)
	testutil.WriteFile(t, filepath.Dir(path), filepath.Base(path), "bundledDependencies: conda\n")

	_, err := execute(t, "version")
	require.Error(t, err)
	assert.Equal(t, oerrors.ExitValidationError, oerrors.ExitCodeFromError(err))
}
