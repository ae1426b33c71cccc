package metadata

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ceph/cephadm-build/internal/config"
)

// generatedHeader marks the version module as machine written.
const generatedHeader = "# GENERATED FILE -- do not edit"

// RenderVersionFile returns the version module source for vars, one
// `KEY = 'value'` assignment per pair in the given order.
func RenderVersionFile(vars []config.VersionVar) []byte {
	var b bytes.Buffer
	b.WriteString(generatedHeader)
	b.WriteByte('\n')
	for _, v := range vars {
		fmt.Fprintf(&b, "%s = %s\n", v.Key, PyRepr(v.Value))
	}
	return b.Bytes()
}

// WriteVersionFile writes the version module for vars to path.
func WriteVersionFile(path string, vars []config.VersionVar) error {
	if err := os.WriteFile(path, RenderVersionFile(vars), 0o644); err != nil {
		return fmt.Errorf("writing version file: %w", err)
	}
	return nil
}

// ParseVersionFile reads the assignments back out of a generated version
// module. Lines that are not simple string assignments are skipped.
func ParseVersionFile(data []byte) ([]config.VersionVar, error) {
	var vars []config.VersionVar
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, lit, ok := strings.Cut(line, " = ")
		if !ok {
			continue
		}
		value, err := PyUnquote(lit)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", key, err)
		}
		vars = append(vars, config.VersionVar{Key: key, Value: value})
	}
	return vars, sc.Err()
}

// PyRepr quotes s the way Python's repr() quotes a str, so generated
// modules match those written by the Python tooling byte for byte.
func PyRepr(s string) string {
	quote := '\''
	if strings.ContainsRune(s, '\'') && !strings.ContainsRune(s, '"') {
		quote = '"'
	}

	var b strings.Builder
	b.WriteRune(quote)
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		i += size
		switch {
		case r == utf8.RuneError && size == 1:
			// undecodable byte
			fmt.Fprintf(&b, `\x%02x`, s[i-1])
		case r == quote || r == '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		case r == '\t':
			b.WriteString(`\t`)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\r':
			b.WriteString(`\r`)
		case r < ' ' || r == 0x7f:
			fmt.Fprintf(&b, `\x%02x`, r)
		case r < 0x7f:
			b.WriteRune(r)
		case unicode.IsPrint(r):
			b.WriteRune(r)
		case r <= 0xff:
			fmt.Fprintf(&b, `\x%02x`, r)
		case r <= 0xffff:
			fmt.Fprintf(&b, `\u%04x`, r)
		default:
			fmt.Fprintf(&b, `\U%08x`, r)
		}
	}
	b.WriteRune(quote)
	return b.String()
}

// PyUnquote decodes a single- or double-quoted Python string literal as
// produced by PyRepr.
func PyUnquote(lit string) (string, error) {
	if len(lit) < 2 {
		return "", fmt.Errorf("invalid string literal %q", lit)
	}
	quote := lit[0]
	if (quote != '\'' && quote != '"') || lit[len(lit)-1] != quote {
		return "", fmt.Errorf("invalid string literal %q", lit)
	}
	body := lit[1 : len(lit)-1]

	var b strings.Builder
	for i := 0; i < len(body); {
		c := body[i]
		if c != '\\' {
			r, size := utf8.DecodeRuneInString(body[i:])
			b.WriteRune(r)
			i += size
			continue
		}
		if i+1 >= len(body) {
			return "", fmt.Errorf("trailing backslash in %q", lit)
		}
		esc := body[i+1]
		i += 2
		switch esc {
		case '\\', '\'', '"':
			b.WriteByte(esc)
		case 't':
			b.WriteByte('\t')
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 'x', 'u', 'U':
			width := map[byte]int{'x': 2, 'u': 4, 'U': 8}[esc]
			if i+width > len(body) {
				return "", fmt.Errorf("short escape in %q", lit)
			}
			n, err := strconv.ParseUint(body[i:i+width], 16, 32)
			if err != nil {
				return "", fmt.Errorf("invalid escape in %q: %w", lit, err)
			}
			b.WriteRune(rune(n))
			i += width
		default:
			return "", fmt.Errorf("unsupported escape \\%c in %q", esc, lit)
		}
	}
	return b.String(), nil
}
