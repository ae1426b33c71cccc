package build

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ceph/cephadm-build/internal/archive"
	"github.com/ceph/cephadm-build/internal/config"
	oerrors "github.com/ceph/cephadm-build/internal/errors"
	"github.com/ceph/cephadm-build/internal/manifest"
	"github.com/ceph/cephadm-build/internal/python"
	"github.com/ceph/cephadm-build/internal/runner"
	"github.com/ceph/cephadm-build/internal/testutil"
)

const testPython = "/usr/bin/python3"

var py311 = python.Version{Major: 3, Minor: 11, Patch: 4}

type env struct {
	source  string
	tempDir string
	dest    string
	runner  *testutil.FakeRunner
}

func newEnv(t *testing.T) *env {
	t.Helper()
	r := testutil.NewFakeRunner()
	// byte-compilation always succeeds
	r.OnExit(0, testPython, "-c")
	return &env{
		source:  testutil.SourceTree(t),
		tempDir: t.TempDir(),
		dest:    filepath.Join(t.TempDir(), "cephadm"),
		runner:  r,
	}
}

func (e *env) orchestrator(t *testing.T, cfg *config.BuildConfig, emitter Emitter) *Orchestrator {
	t.Helper()
	o, err := New(cfg, Deps{
		Runner:   e.runner,
		Python:   testPython,
		Compress: true,
		Emitter:  emitter,
		TempDir:  e.tempDir,
	})
	require.NoError(t, err)
	return o
}

func (e *env) assertScratchRemoved(t *testing.T) {
	t.Helper()
	entries, err := os.ReadDir(e.tempDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "scratch directory must be removed")
}

// scriptPipInstall makes pip install drop a package into --target and list
// it afterwards.
func scriptPipInstall(t *testing.T, r *testutil.FakeRunner) {
	t.Helper()
	r.OnExit(0, testPython, "-m", "pip", "--version")
	r.On(func(cmd runner.Command) (runner.Result, error) {
		var target string
		for i, a := range cmd.Args {
			if a == "--target" {
				target = cmd.Args[i+1]
			}
		}
		testutil.WriteFile(t, target, "jinja2/__init__.py", "# jinja2\n")
		testutil.WriteFile(t, target, "markupsafe/__init__.py", "# markupsafe\n")
		return runner.Result{}, nil
	}, testPython, "-m", "pip", "install")
	r.OnStdout(`[{"name": "Jinja2", "version": "3.1.4"}, {"name": "MarkupSafe", "version": "2.1.5"}]`,
		testPython, "-m", "pip", "list")
}

func TestBuildWithoutDependencies(t *testing.T) {
	e := newEnv(t)
	cfg := config.NewBuildConfig(config.ModeNone, config.VenvAuto, py311)

	res, err := e.orchestrator(t, cfg, nil).Build(context.Background(), Options{
		SourceDir: e.source,
		Dest:      e.dest,
	})
	require.NoError(t, err)
	assert.Nil(t, res.Manifest)
	assert.Equal(t, 0, res.DependencyCount())
	assert.Len(t, res.TreeDigest, 64)

	info, err := archive.Inspect(e.dest)
	require.NoError(t, err)
	assert.Equal(t, testPython, info.Interpreter)
	assert.Empty(t, info.Dependencies)
	assert.Empty(t, info.VersionVars)

	assert.Empty(t, e.runner.CallsWithPrefix(testPython, "-m", "pip"), "no bundler runs")
	e.assertScratchRemoved(t)
}

func TestBuildStagesSources(t *testing.T) {
	e := newEnv(t)
	cfg := config.NewBuildConfig(config.ModeNone, config.VenvAuto, py311)

	var staged []string
	emitter := emitFunc(func(_ context.Context, dir, _ string) error {
		staged = testutil.ListFiles(t, dir)
		return nil
	})

	_, err := e.orchestrator(t, cfg, emitter).Build(context.Background(), Options{
		SourceDir: e.source,
		Dest:      e.dest,
		VersionVars: []config.VersionVar{
			{Key: "CEPH_GIT_VER", Value: "abc123"},
			{Key: "CEPH_RELEASE", Value: "19.2.0"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"__main__.py",
		"_cephadmmeta/__init__.py",
		"_cephadmmeta/version.py",
		"cephadmlib/__init__.py",
		"cephadmlib/constants.py",
	}, staged)
}

func TestBuildWithPipDependencies(t *testing.T) {
	e := newEnv(t)
	scriptPipInstall(t, e.runner)
	cfg := config.NewBuildConfig(config.ModePip, config.VenvNever, py311)

	res, err := e.orchestrator(t, cfg, nil).Build(context.Background(), Options{
		SourceDir:   e.source,
		Dest:        e.dest,
		VersionVars: []config.VersionVar{{Key: "CEPH_RELEASE", Value: "19.2.0"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.DependencyCount())

	info, err := archive.Inspect(e.dest)
	require.NoError(t, err)
	assert.Equal(t, []manifest.DependencyRecord{
		{Name: "Jinja2", Version: "3.1.4", PackageSource: manifest.SourcePip, RequirementsEntry: "Jinja2 >= 3.1.2, <3.2"},
		{Name: "MarkupSafe", Version: "2.1.5", PackageSource: manifest.SourcePip, RequirementsEntry: "MarkupSafe >= 2.1.3, <2.2"},
	}, info.Dependencies)
	assert.Equal(t, []config.VersionVar{{Key: "CEPH_RELEASE", Value: "19.2.0"}}, info.VersionVars)
	e.assertScratchRemoved(t)
}

func TestBuildIsIdempotent(t *testing.T) {
	e := newEnv(t)
	scriptPipInstall(t, e.runner)
	cfg := config.NewBuildConfig(config.ModePip, config.VenvNever, py311)
	o := e.orchestrator(t, cfg, nil)

	second := filepath.Join(t.TempDir(), "cephadm")
	first, err := o.Build(context.Background(), Options{SourceDir: e.source, Dest: e.dest})
	require.NoError(t, err)
	again, err := o.Build(context.Background(), Options{SourceDir: e.source, Dest: second})
	require.NoError(t, err)

	assert.Equal(t, first.TreeDigest, again.TreeDigest)
	assert.Equal(t, first.Manifest.Records(), again.Manifest.Records())

	a, err := archive.FileDigest(e.dest)
	require.NoError(t, err)
	b, err := archive.FileDigest(second)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestBuildRPMRequirementMissing(t *testing.T) {
	e := newEnv(t)
	e.runner.OnExit(1, "rpm", "-q", "--whatprovides")
	cfg := config.NewBuildConfig(config.ModeRPM, config.VenvNever, py311).WithRequirements([]string{"Foo"})

	_, err := e.orchestrator(t, cfg, nil).Build(context.Background(), Options{
		SourceDir: e.source,
		Dest:      e.dest,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, oerrors.ErrNotFound)
	assert.Contains(t, err.Error(), "Foo")
	assert.NoFileExists(t, e.dest)
	e.assertScratchRemoved(t)
}

func TestBuildEmitterFailure(t *testing.T) {
	e := newEnv(t)
	cfg := config.NewBuildConfig(config.ModeNone, config.VenvAuto, py311)
	emitter := emitFunc(func(context.Context, string, string) error {
		return errors.New("disk full")
	})

	_, err := e.orchestrator(t, cfg, emitter).Build(context.Background(), Options{
		SourceDir: e.source,
		Dest:      e.dest,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	e.assertScratchRemoved(t)
}

func TestBuildCanceled(t *testing.T) {
	e := newEnv(t)
	cfg := config.NewBuildConfig(config.ModeNone, config.VenvAuto, py311)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.orchestrator(t, cfg, nil).Build(ctx, Options{SourceDir: e.source, Dest: e.dest})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NoFileExists(t, e.dest)
	e.assertScratchRemoved(t)
}

func TestOptionsValidate(t *testing.T) {
	source := testutil.SourceTree(t)
	noLib := t.TempDir()
	testutil.WriteFile(t, noLib, "cephadm.py", "")
	destDir := t.TempDir()

	tests := []struct {
		name    string
		opts    Options
		wantErr error
	}{
		{name: "valid", opts: Options{SourceDir: source, Dest: filepath.Join(destDir, "cephadm")}},
		{name: "no dest", opts: Options{SourceDir: source}, wantErr: oerrors.ErrValidation},
		{name: "dest is directory", opts: Options{SourceDir: source, Dest: destDir}, wantErr: oerrors.ErrValidation},
		{name: "dest parent missing", opts: Options{SourceDir: source, Dest: filepath.Join(destDir, "x", "cephadm")}, wantErr: oerrors.ErrNotFound},
		{name: "no entry point", opts: Options{SourceDir: t.TempDir(), Dest: filepath.Join(destDir, "cephadm")}, wantErr: oerrors.ErrNotFound},
		{name: "no cephadmlib", opts: Options{SourceDir: noLib, Dest: filepath.Join(destDir, "cephadm")}, wantErr: oerrors.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNewSelectsBundler(t *testing.T) {
	e := newEnv(t)
	assert.Nil(t, e.orchestrator(t, config.NewBuildConfig(config.ModeNone, config.VenvAuto, py311), nil).bundler)
	assert.Equal(t, "rpm", e.orchestrator(t, config.NewBuildConfig(config.ModeRPM, config.VenvAuto, py311), nil).bundler.Name())
	assert.NotEmpty(t, e.orchestrator(t, config.NewBuildConfig(config.ModePip, config.VenvAuto, py311), nil).ID())
}

type emitFunc func(ctx context.Context, dir, dest string) error

func (f emitFunc) Emit(ctx context.Context, dir, dest string) error { return f(ctx, dir, dest) }
