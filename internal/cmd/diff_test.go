package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	oerrors "github.com/ceph/cephadm-build/internal/errors"
)

func TestDiff(t *testing.T) {
	isolateConfig(t)

	a := buildArchive(t, "-S", "CEPH_RELEASE=19.2.0")
	b := buildArchive(t, "-S", "CEPH_RELEASE=19.2.0")
	c := buildArchive(t, "-S", "CEPH_RELEASE=19.2.1")

	t.Run("identical builds", func(t *testing.T) {
		out, err := execute(t, "diff", a, b)
		require.NoError(t, err)
		assert.Contains(t, out, "No differences")
	})

	t.Run("changed version var", func(t *testing.T) {
		out, err := execute(t, "diff", a, c)
		require.NoError(t, err)
		assert.Contains(t, out, "19.2.0")
		assert.Contains(t, out, "19.2.1")
	})

	t.Run("wrong arg count", func(t *testing.T) {
		_, err := execute(t, "diff", a)
		require.Error(t, err)
		assert.Equal(t, oerrors.ExitValidationError, oerrors.ExitCodeFromError(err))
	})
}
