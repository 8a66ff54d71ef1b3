package manifest

import (
	"regexp"
	"strings"

	"github.com/UCNot/esgen-sub001/errors"
	"github.com/UCNot/esgen-sub001/gen"
)

// template is a line of code with {{name}} placeholders referring to symbols
type template struct {
	raw      string
	segments []segment
}

// segment is either literal code or a placeholder
type segment struct {
	literal bool
	content string // for literal: the code; for placeholder: the symbol name
}

// Match {{name}} with optional inner spaces
var placeholderPattern = regexp.MustCompile(`\{\{\s*([A-Za-z_$][A-Za-z0-9_$]*)\s*\}\}`)

// parseTemplate splits raw into literal and placeholder segments.
func parseTemplate(raw string) *template {
	t := &template{raw: raw}

	lastEnd := 0
	for _, match := range placeholderPattern.FindAllStringSubmatchIndex(raw, -1) {
		start, end := match[0], match[1]
		if start > lastEnd {
			t.segments = append(t.segments, segment{literal: true, content: raw[lastEnd:start]})
		}
		t.segments = append(t.segments, segment{content: raw[match[2]:match[3]]})
		lastEnd = end
	}
	if lastEnd < len(raw) {
		t.segments = append(t.segments, segment{literal: true, content: raw[lastEnd:]})
	}

	return t
}

// placeholders returns the distinct placeholder names in order of appearance.
func (t *template) placeholders() []string {
	var names []string
	seen := make(map[string]bool)
	for _, seg := range t.segments {
		if !seg.literal && !seen[seg.content] {
			seen[seg.content] = true
			names = append(names, seg.content)
		}
	}
	return names
}

// resolver finds the symbol a placeholder refers to
type resolver func(name string) (gen.Symbol, bool)

// line builds a single line of code, placeholders replaced by symbols.
func (t *template) line(resolve resolver) (*gen.Code, error) {
	parts := make([]gen.Snippet, 0, len(t.segments))
	for _, seg := range t.segments {
		if seg.literal {
			parts = append(parts, seg.content)
			continue
		}
		sym, ok := resolve(seg.content)
		if !ok {
			return nil, errors.WithHint(
				errors.Newf("unknown symbol {{%s}} in %q", seg.content, t.raw),
				"placeholders refer to imports, consts, functions, classes or function arguments")
		}
		parts = append(parts, sym)
	}
	return gen.NewCode().Line(parts...), nil
}

// lines builds code of raw lines, one line each.
func lines(raw []string, resolve resolver) (*gen.Code, error) {
	code := gen.NewCode()
	for _, r := range raw {
		// a blank line is kept as is
		if strings.TrimSpace(r) == "" {
			code.Write("")
			continue
		}
		line, err := parseTemplate(r).line(resolve)
		if err != nil {
			return nil, err
		}
		code.Write(line)
	}
	return code, nil
}
