package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ceph/cephadm-build/internal/version"
)

func TestVersionCmd(t *testing.T) {
	isolateConfig(t)

	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "cephadm-build "+version.Version)
	assert.Contains(t, out, "Go:")
}
