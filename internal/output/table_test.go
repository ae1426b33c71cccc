package output

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTable(t *testing.T) {
	out := NewTable("NAME", "VERSION").
		Row("Jinja2", "3.1.4").
		Row("MarkupSafe", "2.1.5").
		String()

	for _, s := range []string{"NAME", "VERSION", "Jinja2", "3.1.4", "MarkupSafe", "2.1.5"} {
		assert.Contains(t, out, s)
	}
	assert.Less(t, strings.Index(out, "Jinja2"), strings.Index(out, "MarkupSafe"), "rows keep insertion order")
}

func TestTableHeadersOnly(t *testing.T) {
	out := NewTable("VARIABLE", "VALUE").String()
	assert.Contains(t, out, "VARIABLE")
	assert.NotContains(t, out, "Jinja2")
}
