// Package safeid converts arbitrary strings to safe ECMAScript identifiers.
//
// The conversion is deterministic and injective:
//
//	""        -> "__$__"
//	"if"      -> "__if__"      (reserved word)
//	"__if__"  -> "$__if__"     (would collide with a wrapped reserved word)
//	"a$b"     -> "a$$b"        ($ is the escape character)
//	"a-b"     -> "a$u2D$b"     (invalid code point)
//	"1st"     -> "$u31$st"     (invalid first code point)
//	"name"    -> "name"
//
// Outside of the "$$" escape, a converted identifier never contains '$'
// followed by a decimal digit, so it never collides with a converted
// identifier disambiguated by a "$N" suffix.
package safeid

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// EmptyPlaceholder is the safe identifier of an empty string.
const EmptyPlaceholder = "__$__"

const escapeChar = '$'

// Safe converts id to a safe identifier.
func Safe(id string) string {
	id = norm.NFC.String(id)

	if id == "" {
		return EmptyPlaceholder
	}
	if IsReserved(id) {
		return "__" + id + "__"
	}
	if isWrappedReserved(id) {
		return string(escapeChar) + id
	}

	var (
		out     strings.Builder
		changed bool
	)
	out.Grow(len(id) + 4)

	for i, r := range id {
		switch {
		case r == escapeChar:
			out.WriteRune(escapeChar)
			out.WriteRune(escapeChar)
			changed = true
		case i == 0 && isIDStart(r), i > 0 && isIDPart(r):
			out.WriteRune(r)
		default:
			out.WriteRune(escapeChar)
			out.WriteByte('u')
			out.WriteString(strings.ToUpper(strconv.FormatInt(int64(r), 16)))
			out.WriteRune(escapeChar)
			changed = true
		}
	}

	if !changed {
		return id
	}
	return out.String()
}

// IsSafe reports whether id can be used as a binding identifier as is:
// it is a syntactically valid identifier and not a reserved word.
func IsSafe(id string) bool {
	return IsName(id) && !IsReserved(id)
}

// IsName reports whether id is a syntactically valid identifier name.
// Reserved words are valid names, e.g. of properties.
func IsName(id string) bool {
	if id == "" {
		return false
	}
	for i, r := range id {
		if i == 0 {
			if !isIDStart(r) {
				return false
			}
		} else if !isIDPart(r) {
			return false
		}
	}
	return true
}

func isWrappedReserved(id string) bool {
	if len(id) < 5 || !strings.HasPrefix(id, "__") || !strings.HasSuffix(id, "__") {
		return false
	}
	return IsReserved(id[2 : len(id)-2])
}

func isIDStart(r rune) bool {
	return r == '$' || r == '_' || unicode.IsLetter(r) || unicode.Is(unicode.Nl, r)
}

func isIDPart(r rune) bool {
	return isIDStart(r) ||
		unicode.In(r, unicode.Mn, unicode.Mc, unicode.Nd, unicode.Pc) ||
		r == '\u200c' || r == '\u200d'
}
