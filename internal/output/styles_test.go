package output

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatCheckmark(t *testing.T) {
	out := FormatCheckmark("archive written")
	assert.Contains(t, out, "✔")
	assert.Contains(t, out, "archive written")
}

func TestFormatField(t *testing.T) {
	out := FormatField("Interpreter", "/usr/bin/python3")
	assert.Contains(t, out, "Interpreter:")
	assert.Contains(t, out, "/usr/bin/python3")
}
