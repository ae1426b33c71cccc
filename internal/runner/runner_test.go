package runner

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	oerrors "github.com/ceph/cephadm-build/internal/errors"
)

func newTestRunner() (*ExecRunner, *bytes.Buffer) {
	var out bytes.Buffer
	return &ExecRunner{Stdout: &out, Stderr: &bytes.Buffer{}}, &out
}

func TestExecRunnerCapturesStdout(t *testing.T) {
	r, _ := newTestRunner()

	res, err := r.Exec(context.Background(), Command{
		Args:          []string{"sh", "-c", "printf hello"},
		CaptureStdout: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, "hello", string(res.Stdout))
}

func TestExecRunnerForwardsStdout(t *testing.T) {
	r, out := newTestRunner()

	_, err := r.Exec(context.Background(), Command{Args: []string{"sh", "-c", "echo forwarded"}})
	require.NoError(t, err)
	assert.Equal(t, "forwarded\n", out.String())
}

func TestExecRunnerDiscardStdout(t *testing.T) {
	r, out := newTestRunner()

	_, err := r.Exec(context.Background(), Command{Args: []string{"sh", "-c", "echo dropped"}, DiscardStdout: true})
	require.NoError(t, err)
	assert.Empty(t, out.String())
}

func TestExecRunnerReportsExitCode(t *testing.T) {
	r, _ := newTestRunner()

	res, err := r.Exec(context.Background(), Command{Args: []string{"sh", "-c", "echo oops >&2; exit 3"}})
	require.NoError(t, err, "non-zero exit is not an exec error")
	assert.Equal(t, 3, res.ExitCode)
	assert.Equal(t, "oops\n", string(res.Stderr))
}

func TestExecRunnerEnvOverrides(t *testing.T) {
	t.Setenv("RUNNER_TEST_INHERITED", "kept")
	r, _ := newTestRunner()

	res, err := r.Exec(context.Background(), Command{
		Args:          []string{"sh", "-c", `printf "%s %s" "$RUNNER_TEST_INHERITED" "$CC"`},
		Env:           map[string]string{"CC": "/bin/false"},
		CaptureStdout: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "kept /bin/false", string(res.Stdout))
}

func TestExecRunnerMissingProgram(t *testing.T) {
	r, _ := newTestRunner()

	_, err := r.Exec(context.Background(), Command{Args: []string{"/nonexistent/program-xyz"}})
	assert.Error(t, err)
}

func TestExecRunnerCanceledContext(t *testing.T) {
	r, _ := newTestRunner()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Exec(ctx, Command{Args: []string{"true"}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunCheck(t *testing.T) {
	r, _ := newTestRunner()

	_, err := Run(context.Background(), r, Command{Args: []string{"sh", "-c", "exit 2"}, Check: true})
	require.Error(t, err)
	assert.True(t, errors.Is(err, oerrors.ErrCommand))

	var statusErr *ExitStatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, 2, statusErr.ExitCode)

	_, err = Run(context.Background(), r, Command{Args: []string{"sh", "-c", "exit 2"}})
	assert.NoError(t, err, "unchecked commands do not fail on exit status")
}

func TestSucceeds(t *testing.T) {
	r, _ := newTestRunner()
	ctx := context.Background()

	assert.True(t, Succeeds(ctx, r, Command{Args: []string{"true"}}))
	assert.False(t, Succeeds(ctx, r, Command{Args: []string{"false"}}))
	assert.False(t, Succeeds(ctx, r, Command{Args: []string{"/nonexistent/program-xyz"}}))
}

func TestCommandString(t *testing.T) {
	cmd := Command{Args: []string{"python3", "-m", "pip", "install", "Jinja2 >= 3.1.2, <3.2"}}
	assert.Equal(t, `python3 -m pip install 'Jinja2 >= 3.1.2, <3.2'`, cmd.String())
}

func TestMergeEnv(t *testing.T) {
	env := MergeEnv([]string{"B=2", "A=1", "BROKEN"}, map[string]string{"A": "override", "C": "3"})
	assert.Equal(t, []string{"A=override", "B=2", "C=3"}, env)
}

func TestAppendPathList(t *testing.T) {
	assert.Equal(t, "/scratch", AppendPathList("", "/scratch"))
	assert.Equal(t, "/a:/scratch", AppendPathList("/a", "/scratch"))
}
