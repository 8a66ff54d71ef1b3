// Package printer assembles generated source text.
//
// An Output accumulates records: literal lines and nested printables.
// Records are rendered lazily, so a printable may still change until the
// output is rendered. Rendering normalizes blank lines: leading and trailing
// blank lines are dropped and a run of blank lines collapses into one.
//
//	out := printer.New()
//	out.Print("function f() {")
//	out.Indent(func(body *printer.Output) {
//	    body.Print("return 1;")
//	})
//	out.Print("}")
//	text, err := out.Text() // "function f() {\n  return 1;\n}\n"
package printer

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/UCNot/esgen-sub001/errors"
)

// DefaultIndent is the prefix Indent uses when none is given.
const DefaultIndent = "  "

// Printable is anything that can print itself to an output.
//
// PrintTo may block, e.g. while awaiting an asynchronously produced fragment.
// It must be repeatable: rendering the same output twice calls it twice.
type Printable interface {
	PrintTo(out *Output) error
}

// PrintableFunc adapts a function to Printable.
type PrintableFunc func(out *Output) error

// PrintTo calls f(out).
func (f PrintableFunc) PrintTo(out *Output) error {
	return f(out)
}

type outputMode int

const (
	modeInherit outputMode = iota // follows the mode of the output it is printed to
	modeInline                    // records join on a single physical line
	modeIndent                    // records start on own lines, prefixed
)

// Output is a line-oriented text assembler. It is safe for concurrent use.
type Output struct {
	mu      sync.Mutex
	mode    outputMode
	prefix  string
	records []record
	err     error // first Print failure, returned by Lines
}

type record struct {
	text   string
	nested Printable
	child  *Output
}

// New creates an empty output.
func New() *Output {
	return &Output{}
}

// Print appends records, each on its own line.
//
// A record is a string, a Printable or a fmt.Stringer. An empty string, or a
// call without records, requests a blank line. Printing the output into
// itself, or a record of any other type, fails the output: the error is
// returned when it is rendered.
func (o *Output) Print(records ...any) *Output {
	if len(records) == 0 {
		records = []any{""}
	}

	added := make([]record, 0, len(records))
	var err error
	for _, r := range records {
		switch r := r.(type) {
		case string:
			added = append(added, record{text: r})
		case *Output:
			if r == o {
				err = errors.Wrap(errors.ErrSelfInsertion, "printing output into itself")
				continue
			}
			added = append(added, record{child: r})
		case Printable:
			added = append(added, record{nested: r})
		case fmt.Stringer:
			added = append(added, record{text: r.String()})
		case nil:
		default:
			err = errors.AssertionFailedf("unsupported record type %T", r)
		}
	}

	o.mu.Lock()
	o.records = append(o.records, added...)
	if o.err == nil {
		o.err = err
	}
	o.mu.Unlock()

	return o
}

// Indent runs build against a child output, every line of which is prefixed
// with prefix (DefaultIndent when omitted). Indented lines always start on a
// new line, even when printed inside an inline output.
func (o *Output) Indent(build func(out *Output), prefix ...string) *Output {
	child := &Output{mode: modeIndent, prefix: DefaultIndent}
	if len(prefix) > 0 {
		child.prefix = prefix[0]
	}
	build(child)
	return o.Print(child)
}

// Line runs build against a child output in inline mode: its records are
// joined on a single line. Indented content inside it still breaks lines,
// and joining resumes after it.
func (o *Output) Line(build func(out *Output)) *Output {
	child := &Output{mode: modeInline}
	build(child)
	return o.Print(child)
}

// PrintTo prints this output as a nested record of target.
// The output itself is not modified.
func (o *Output) PrintTo(target *Output) error {
	if target == o {
		return errors.Wrap(errors.ErrSelfInsertion, "printing output into itself")
	}
	target.Print(o)
	return nil
}

// Lines renders the output to physical lines, without line terminators.
func (o *Output) Lines() ([]string, error) {
	c := &collector{rendering: make(map[any]struct{})}
	if err := c.child(o, "", false); err != nil {
		return nil, err
	}
	c.breakLine()
	return c.lines, nil
}

// Text renders the output to text. Every line is terminated by a newline.
// An empty output renders as a single newline.
func (o *Output) Text() (string, error) {
	lines, err := o.Lines()
	if err != nil {
		return "", err
	}
	if len(lines) == 0 {
		return "\n", nil
	}
	return strings.Join(lines, "\n") + "\n", nil
}

func (o *Output) snapshot() ([]record, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]record(nil), o.records...), o.err
}

// collector accumulates rendered lines and normalizes blank lines.
type collector struct {
	lines   []string
	partial strings.Builder
	open    bool // partial line started
	blank   bool // blank line requested after the last line

	// outputs and printables being rendered, to detect one nested in itself
	rendering map[any]struct{}
}

// enter marks v as being rendered. Returns a function unmarking it, or
// ErrSelfInsertion when v is rendered already.
func (c *collector) enter(v any) (func(), error) {
	if _, ok := c.rendering[v]; ok {
		return nil, errors.Wrapf(errors.ErrSelfInsertion, "rendering %T inside itself", v)
	}
	c.rendering[v] = struct{}{}
	return func() { delete(c.rendering, v) }, nil
}

func (c *collector) commit(line string) {
	if c.blank && len(c.lines) > 0 {
		c.lines = append(c.lines, "")
	}
	c.blank = false
	c.lines = append(c.lines, line)
}

func (c *collector) breakLine() {
	if c.open {
		c.open = false
		line := c.partial.String()
		c.partial.Reset()
		c.commit(line)
	}
}

func (c *collector) blankLine() {
	c.breakLine()
	if len(c.lines) > 0 {
		c.blank = true
	}
}

func (c *collector) line(line string) {
	c.breakLine()
	c.commit(line)
}

func (c *collector) inline(prefix, text string) {
	if !c.open {
		c.open = true
		c.partial.WriteString(prefix)
	}
	c.partial.WriteString(text)
}

func (c *collector) child(o *Output, prefix string, inline bool) error {
	leave, err := c.enter(o)
	if err != nil {
		return err
	}
	defer leave()

	switch o.mode {
	case modeIndent:
		c.breakLine()
		if err := c.render(o, prefix+o.prefix, false); err != nil {
			return err
		}
		c.breakLine()
		return nil
	case modeInline:
		if !inline {
			c.breakLine()
		}
		if err := c.render(o, prefix, true); err != nil {
			return err
		}
		if !inline {
			c.breakLine()
		}
		return nil
	default:
		return c.render(o, prefix, inline)
	}
}

func (c *collector) render(o *Output, prefix string, inline bool) error {
	records, err := o.snapshot()
	if err != nil {
		return err
	}
	for _, r := range records {
		switch {
		case r.child != nil:
			if err := c.child(r.child, prefix, inline); err != nil {
				return err
			}
		case r.nested != nil:
			if err := c.nested(r.nested, prefix, inline); err != nil {
				return err
			}
		case inline:
			for i, part := range strings.Split(r.text, "\n") {
				if i > 0 {
					c.breakLine()
				}
				if part != "" {
					c.inline(prefix, part)
				}
			}
		case r.text == "":
			c.blankLine()
		default:
			for _, part := range strings.Split(r.text, "\n") {
				if part == "" {
					c.blankLine()
				} else {
					c.line(prefix + part)
				}
			}
		}
	}
	return nil
}

func (c *collector) nested(p Printable, prefix string, inline bool) error {
	// Only pointers identify a printable. Other kinds may not even be
	// comparable.
	if reflect.ValueOf(p).Kind() == reflect.Pointer {
		leave, err := c.enter(p)
		if err != nil {
			return err
		}
		defer leave()
	}

	sub := New()
	if err := p.PrintTo(sub); err != nil {
		return err
	}
	return c.render(sub, prefix, inline)
}
