package shape

import (
	"github.com/UCNot/esgen-sub001/errors"
	"github.com/UCNot/esgen-sub001/gen"
)

// Arg describes a function argument.
type Arg struct {
	Name    string
	Rest    bool
	Default gen.Snippet
	Comment string
}

// Signature is a list of function arguments. Each argument is a local symbol
// bound in the function scope the signature is declared in.
type Signature struct {
	args   []Arg
	syms   []*gen.LocalSymbol
	byName map[string]int
}

// NewSignature creates a signature. Argument names must be distinct, and
// only the last argument may be a rest one.
func NewSignature(args ...Arg) (*Signature, error) {
	s := &Signature{
		args:   append([]Arg(nil), args...),
		syms:   make([]*gen.LocalSymbol, len(args)),
		byName: make(map[string]int, len(args)),
	}
	for i, arg := range args {
		if _, dup := s.byName[arg.Name]; dup {
			return nil, errors.Newf("duplicate argument %q", arg.Name)
		}
		if arg.Rest && i != len(args)-1 {
			return nil, errors.Newf("rest argument %q must be the last one", arg.Name)
		}
		if arg.Rest && arg.Default != nil {
			return nil, errors.Newf("rest argument %q can not have a default value", arg.Name)
		}
		s.byName[arg.Name] = i
		s.syms[i] = gen.NewLocalSymbol(arg.Name, arg.Comment)
	}
	return s, nil
}

// MustSignature is like NewSignature but panics on error.
func MustSignature(args ...Arg) *Signature {
	s, err := NewSignature(args...)
	if err != nil {
		panic(err)
	}
	return s
}

// Args returns the argument descriptions.
func (s *Signature) Args() []Arg {
	return append([]Arg(nil), s.args...)
}

// Arg returns the symbol of the named argument, or nil.
func (s *Signature) Arg(name string) *gen.LocalSymbol {
	i, ok := s.byName[name]
	if !ok {
		return nil
	}
	return s.syms[i]
}

// Declare writes the parenthesized argument list, e.g. "(a, b = 1, ...rest)",
// binding the arguments in the scope it is emitted to.
func (s *Signature) Declare() gen.Source {
	return func(code *gen.Code, scope *gen.Scope) error {
		parts := []gen.Snippet{"("}
		for i, arg := range s.args {
			if _, err := scope.Namespace().AddSymbol(s.syms[i]); err != nil {
				return errors.Wrapf(err, "declaring argument %s", arg.Name)
			}
			if i > 0 {
				parts = append(parts, ", ")
			}
			if arg.Rest {
				parts = append(parts, "...")
			}
			parts = append(parts, s.syms[i])
			if arg.Default != nil {
				parts = append(parts, " = ", arg.Default)
			}
		}
		parts = append(parts, ")")
		code.Line(parts...)
		return nil
	}
}

// Call writes the parenthesized argument values of a call, e.g. "(x, y)".
// Values are matched to arguments by name. Missing arguments followed by
// given ones are passed as undefined, and a rest argument value is spread.
func (s *Signature) Call(values map[string]gen.Snippet) gen.Snippet {
	last := -1
	for i, arg := range s.args {
		if _, ok := values[arg.Name]; ok {
			last = i
		}
	}

	parts := []gen.Snippet{"("}
	for i := 0; i <= last; i++ {
		arg := s.args[i]
		if i > 0 {
			parts = append(parts, ", ")
		}
		value, ok := values[arg.Name]
		switch {
		case !ok:
			parts = append(parts, "undefined")
		case arg.Rest:
			parts = append(parts, "...", value)
		default:
			parts = append(parts, value)
		}
	}
	parts = append(parts, ")")

	return gen.NewCode().Line(parts...)
}
