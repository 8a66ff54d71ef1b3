package shape

import (
	"strings"
	"sync"

	"github.com/UCNot/esgen-sub001/errors"
	"github.com/UCNot/esgen-sub001/gen"
	"github.com/UCNot/esgen-sub001/lit"
	"github.com/UCNot/esgen-sub001/safeid"
)

// ClassOptions configures a class.
type ClassOptions struct {
	Export bool

	// Extends is the base class. It is declared before the class.
	Extends gen.Symbol

	Refs    []gen.Symbol
	Comment string
}

// Class is a top-level class declaration built from members.
//
// Members can be added until the class is declared, i.e. until its symbol
// is first referred.
type Class struct {
	opts   ClassOptions
	symbol *gen.DeclaredSymbol

	mu      sync.Mutex
	members []Member
	byKey   map[memberKey]Member
}

type memberKey struct {
	name   string
	static bool
}

// NewClass creates a class.
func NewClass(requested string, opts ClassOptions) *Class {
	c := &Class{
		opts:  opts,
		byKey: make(map[memberKey]Member),
	}

	refs := append([]gen.Symbol(nil), opts.Refs...)
	if opts.Extends != nil {
		refs = append(refs, opts.Extends)
	}
	c.symbol = gen.NewDeclaredSymbol(requested, c.declare, gen.DeclareOptions{
		Exported: opts.Export,
		Refs:     refs,
		Comment:  opts.Comment,
	})

	return c
}

// Symbol returns the class symbol.
func (c *Class) Symbol() *gen.DeclaredSymbol { return c.symbol }

// Extends returns the base class symbol, or nil.
func (c *Class) Extends() gen.Symbol { return c.opts.Extends }

// Members returns the class members in the order they were added.
func (c *Class) Members() []Member {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Member(nil), c.members...)
}

// Member returns the member declared under name, or nil.
func (c *Class) Member(name string, static bool) Member {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.byKey[memberKey{name: name, static: static}]
}

// Add adds members to the class.
//
// Adding the same member again has no effect. Adding a different member under
// the name of an existing one fails with ErrMemberConflict.
func (c *Class) Add(members ...Member) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, m := range members {
		key := memberKey{name: m.MemberName(), static: m.IsStatic()}
		if prior, ok := c.byKey[key]; ok {
			if prior == m {
				continue
			}
			return errors.WithDetailf(
				errors.Wrapf(errors.ErrMemberConflict, "%s %s", m.MemberKind(), describeKey(key)),
				"already declared as %s", prior.MemberKind())
		}
		if _, isCtor := m.(*Constructor); isCtor && key.static {
			return errors.Wrap(errors.ErrMemberConflict, "static constructor")
		}
		c.byKey[key] = m
		c.members = append(c.members, m)
	}
	return nil
}

func describeKey(key memberKey) string {
	if key.static {
		return "static " + key.name
	}
	return key.name
}

// ClassContext is passed to members declaring themselves.
type ClassContext struct {
	Class       *Class
	Declaration *gen.Declaration
}

func (c *Class) declare(d *gen.Declaration) gen.Snippet {
	cls := &ClassContext{Class: c, Declaration: d}

	heading := []gen.Snippet{d.Prefix(), "class ", d.Name()}
	if c.opts.Extends != nil {
		heading = append(heading, " extends ", c.opts.Extends)
	}
	heading = append(heading, " {")

	body := gen.NewCode()
	for _, m := range c.Members() {
		body.Write(m.Declare(cls))
	}

	return gen.NewCode().Block(
		gen.NewCode().Line(heading...),
		gen.NewCode().Indent(body),
		"}",
	)
}

// propertyKey formats a member name: a private name, an identifier name, or
// a quoted string.
func propertyKey(name string) string {
	if strings.HasPrefix(name, "#") && safeid.IsName(name[1:]) {
		return name
	}
	return lit.Key(name)
}
