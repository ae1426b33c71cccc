package bundler

import (
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ceph/cephadm-build/internal/config"
	"github.com/ceph/cephadm-build/internal/python"
	"github.com/ceph/cephadm-build/internal/testutil"
)

var py311 = python.Version{Major: 3, Minor: 11, Patch: 4}

func testOptions(r *testutil.FakeRunner) Options {
	return Options{
		Runner: r,
		Python: "/usr/bin/python3",
		Logger: log.New(io.Discard),
	}
}

func testScratch(t *testing.T) Scratch {
	t.Helper()
	root := t.TempDir()
	return Scratch{Root: root, LibDir: root}
}

func TestNew(t *testing.T) {
	tests := []struct {
		mode config.DependencyMode
		want string
	}{
		{mode: config.ModePip, want: "pip"},
		{mode: config.ModeRPM, want: "rpm"},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			b, err := New(config.NewBuildConfig(tt.mode, config.VenvAuto, py311), testOptions(testutil.NewFakeRunner()))
			require.NoError(t, err)
			require.NotNil(t, b)
			assert.Equal(t, tt.want, b.Name())
		})
	}

	t.Run("none", func(t *testing.T) {
		b, err := New(config.NewBuildConfig(config.ModeNone, config.VenvAuto, py311), testOptions(testutil.NewFakeRunner()))
		require.NoError(t, err)
		assert.Nil(t, b)
	})
}

func TestScratchVenvDir(t *testing.T) {
	s := Scratch{Root: "/tmp/x.cephadm.build", LibDir: "/tmp/x.cephadm.build"}
	assert.Equal(t, "/tmp/x.cephadm.build/_venv_", s.VenvDir())
}
