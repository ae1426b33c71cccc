package metadata

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ceph/cephadm-build/internal/config"
)

func TestPyRepr(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain", input: "19.2.0", want: `'19.2.0'`},
		{name: "empty", input: "", want: `''`},
		{name: "single quote switches to double", input: "it's", want: `"it's"`},
		{name: "both quotes escape single", input: `it's "x"`, want: `'it\'s "x"'`},
		{name: "backslash", input: `a\b`, want: `'a\\b'`},
		{name: "whitespace escapes", input: "a\tb\nc\r", want: `'a\tb\nc\r'`},
		{name: "control byte", input: "a\x01b\x7f", want: `'a\x01b\x7f'`},
		{name: "printable unicode kept", input: "squid-ü", want: `'squid-ü'`},
		{name: "non-printable latin1", input: "a\u00a0b", want: `'a\xa0b'`},
		{name: "non-printable bmp", input: "a\u2028b", want: `'a\u2028b'`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PyRepr(tt.input)
			assert.Equal(t, tt.want, got)

			back, err := PyUnquote(got)
			require.NoError(t, err)
			assert.Equal(t, tt.input, back)
		})
	}
}

func TestPyReprInvalidUTF8(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "lone high byte", input: "v\xff1", want: `'v\xff1'`},
		{name: "truncated sequence", input: "a\xc3", want: `'a\xc3'`},
		{name: "valid rune next to invalid byte", input: "ü\x80", want: `'ü\x80'`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PyRepr(tt.input)
			assert.Equal(t, tt.want, got)
			assert.NotContains(t, got, "\uFFFD")
		})
	}
}

func TestPyUnquoteErrors(t *testing.T) {
	for _, lit := range []string{"", "'", "abc", `'abc"`, `'a\'`, `'\q'`, `'\x1'`} {
		t.Run(lit, func(t *testing.T) {
			_, err := PyUnquote(lit)
			assert.Error(t, err)
		})
	}
}

func TestRenderVersionFile(t *testing.T) {
	vars := []config.VersionVar{
		{Key: "CEPH_GIT_VER", Value: "3f2bc4ee3a6b3c2b53a8c9d1f0e0e5a2b1c4d5e6"},
		{Key: "CEPH_RELEASE", Value: "19.2.0"},
		{Key: "CEPH_RELEASE_NAME", Value: "squid"},
	}

	want := "# GENERATED FILE -- do not edit\n" +
		"CEPH_GIT_VER = '3f2bc4ee3a6b3c2b53a8c9d1f0e0e5a2b1c4d5e6'\n" +
		"CEPH_RELEASE = '19.2.0'\n" +
		"CEPH_RELEASE_NAME = 'squid'\n"
	assert.Equal(t, want, string(RenderVersionFile(vars)))

	parsed, err := ParseVersionFile(RenderVersionFile(vars))
	require.NoError(t, err)
	assert.Equal(t, vars, parsed)
}

func TestRenderVersionFileEmpty(t *testing.T) {
	assert.Equal(t, "# GENERATED FILE -- do not edit\n", string(RenderVersionFile(nil)))
}

func TestWriteVersionFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "version.py")
	require.NoError(t, WriteVersionFile(path, []config.VersionVar{{Key: "CEPH_RELEASE_TYPE", Value: "stable"}}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "CEPH_RELEASE_TYPE = 'stable'\n")
}
