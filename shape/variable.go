// Package shape builds common ECMAScript constructs on top of gen:
// variables, function signatures, functions and classes.
package shape

import (
	"github.com/UCNot/esgen-sub001/gen"
)

// Const declares a top-level constant initialized with value.
func Const(requested string, value gen.Snippet, opts gen.DeclareOptions) *gen.DeclaredSymbol {
	return gen.NewDeclaredSymbol(requested, func(d *gen.Declaration) gen.Snippet {
		return gen.NewCode().Line(d.Prefix(), "const ", d.Name(), " = ", value, ";")
	}, opts)
}

// Let declares a local variable in the scope the code is emitted to.
// The value may be nil.
func Let(sym *gen.LocalSymbol, value gen.Snippet) gen.Source {
	return local("let", sym, value)
}

// LocalConst declares a local constant in the scope the code is emitted to.
func LocalConst(sym *gen.LocalSymbol, value gen.Snippet) gen.Source {
	return local("const", sym, value)
}

func local(keyword string, sym *gen.LocalSymbol, value gen.Snippet) gen.Source {
	return func(code *gen.Code, scope *gen.Scope) error {
		if _, err := scope.Namespace().AddSymbol(sym); err != nil {
			return err
		}
		if value == nil {
			code.Line(keyword, " ", sym, ";")
		} else {
			code.Line(keyword, " ", sym, " = ", value, ";")
		}
		return nil
	}
}
