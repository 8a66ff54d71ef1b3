package shape

import (
	"github.com/UCNot/esgen-sub001/gen"
)

// MemberKind distinguishes class members.
type MemberKind int

const (
	KindField MemberKind = iota
	KindProperty
	KindMethod
	KindConstructor
)

func (k MemberKind) String() string {
	switch k {
	case KindProperty:
		return "property"
	case KindMethod:
		return "method"
	case KindConstructor:
		return "constructor"
	default:
		return "field"
	}
}

// Member is a class member.
type Member interface {
	MemberName() string
	MemberKind() MemberKind
	IsStatic() bool

	// Declare produces the member declaration within the class body.
	Declare(cls *ClassContext) gen.Snippet
}

// Field is a class field: "name = value;" or "name;".
type Field struct {
	Name   string
	Static bool
	Value  gen.Snippet
}

func (f *Field) MemberName() string     { return f.Name }
func (f *Field) MemberKind() MemberKind { return KindField }
func (f *Field) IsStatic() bool         { return f.Static }

func (f *Field) Declare(*ClassContext) gen.Snippet {
	parts := []gen.Snippet{staticPrefix(f.Static), propertyKey(f.Name)}
	if f.Value != nil {
		parts = append(parts, " = ", f.Value)
	}
	parts = append(parts, ";")
	return gen.NewCode().Line(parts...)
}

// Setter is the setter of a property.
type Setter struct {
	// Arg is the setter argument. Defaults to a symbol named "value".
	Arg  *gen.LocalSymbol
	Body gen.Snippet
}

// Property is an accessor property with a getter, a setter, or both.
type Property struct {
	Name   string
	Static bool
	Get    gen.Snippet // getter body
	Set    *Setter
}

func (p *Property) MemberName() string     { return p.Name }
func (p *Property) MemberKind() MemberKind { return KindProperty }
func (p *Property) IsStatic() bool         { return p.Static }

func (p *Property) Declare(*ClassContext) gen.Snippet {
	code := gen.NewCode()
	key := propertyKey(p.Name)

	if p.Get != nil {
		code.Write(accessor(staticPrefix(p.Static)+"get "+key, MustSignature(), p.Get))
	}
	if p.Set != nil {
		arg := p.Set.Arg
		if arg == nil {
			arg = gen.NewLocalSymbol("value")
		}
		sig := &Signature{
			args:   []Arg{{Name: arg.RequestedName()}},
			syms:   []*gen.LocalSymbol{arg},
			byName: map[string]int{arg.RequestedName(): 0},
		}
		code.Write(accessor(staticPrefix(p.Static)+"set "+key, sig, p.Set.Body))
	}

	return code
}

// Method is a class method.
type Method struct {
	Name      string
	Static    bool
	Async     bool
	Generator bool
	Signature *Signature
	Body      gen.Snippet
}

func (m *Method) MemberName() string     { return m.Name }
func (m *Method) MemberKind() MemberKind { return KindMethod }
func (m *Method) IsStatic() bool         { return m.Static }

func (m *Method) Declare(*ClassContext) gen.Snippet {
	heading := staticPrefix(m.Static)
	if m.Async {
		heading += "async "
	}
	if m.Generator {
		heading += "*"
	}
	heading += propertyKey(m.Name)

	return gen.NewCode().Scope(
		gen.ScopeConfig{Kind: gen.ScopeFunction, Async: gen.Bool(m.Async), Generator: gen.Bool(m.Generator)},
		methodCode(heading, m.Signature, m.Body),
	)
}

// Constructor is the class constructor.
type Constructor struct {
	Signature *Signature
	Body      gen.Snippet
}

func (c *Constructor) MemberName() string     { return "constructor" }
func (c *Constructor) MemberKind() MemberKind { return KindConstructor }
func (c *Constructor) IsStatic() bool         { return false }

func (c *Constructor) Declare(*ClassContext) gen.Snippet {
	return accessor("constructor", c.Signature, c.Body)
}

func accessor(heading string, sig *Signature, body gen.Snippet) gen.Snippet {
	return gen.NewCode().Scope(gen.ScopeConfig{Kind: gen.ScopeFunction}, methodCode(heading, sig, body))
}

func methodCode(heading string, sig *Signature, body gen.Snippet) *gen.Code {
	if sig == nil {
		sig = MustSignature()
	}
	return gen.NewCode().
		Line(heading, sig.Declare(), " {").
		Indent(body).
		Write("}")
}

func staticPrefix(static bool) string {
	if static {
		return "static "
	}
	return ""
}
