// Package lit formats ECMAScript literals.
package lit

import (
	"fmt"
	"strings"

	"github.com/UCNot/esgen-sub001/safeid"
)

// Quote returns s as a single-quoted string literal.
func Quote(s string) string {
	var out strings.Builder
	out.Grow(len(s) + 2)
	out.WriteByte('\'')

	for _, r := range s {
		switch r {
		case '\'':
			out.WriteString(`\'`)
		case '\\':
			out.WriteString(`\\`)
		case '\n':
			out.WriteString(`\n`)
		case '\r':
			out.WriteString(`\r`)
		case '\t':
			out.WriteString(`\t`)
		case '\b':
			out.WriteString(`\b`)
		case '\f':
			out.WriteString(`\f`)
		case '\v':
			out.WriteString(`\v`)
		case '\u2028', '\u2029':
			fmt.Fprintf(&out, `\u%04X`, r)
		default:
			if r < 0x20 || r == 0x7f {
				fmt.Fprintf(&out, `\x%02X`, r)
			} else {
				out.WriteRune(r)
			}
		}
	}

	out.WriteByte('\'')
	return out.String()
}

// Key returns s as an object property key: bare when it is a valid
// identifier name, quoted otherwise.
func Key(s string) string {
	if safeid.IsName(s) {
		return s
	}
	return Quote(s)
}

// Member returns a member access expression of key on target:
// target.key when key is a valid identifier name, target['key'] otherwise.
func Member(target, key string) string {
	if safeid.IsName(key) {
		return target + "." + key
	}
	return target + "[" + Quote(key) + "]"
}
