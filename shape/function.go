package shape

import (
	"github.com/UCNot/esgen-sub001/gen"
)

// FunctionOptions configures a declared function.
type FunctionOptions struct {
	Export    bool
	Async     bool
	Generator bool
	Refs      []gen.Symbol
	Comment   string
}

func (o FunctionOptions) keyword() string {
	switch {
	case o.Async && o.Generator:
		return "async function* "
	case o.Async:
		return "async function "
	case o.Generator:
		return "function* "
	default:
		return "function "
	}
}

// Function declares a top-level function with the given signature and body.
// The body is emitted to the function scope, where the signature arguments
// are visible.
func Function(requested string, sig *Signature, body gen.Snippet, opts FunctionOptions) *gen.DeclaredSymbol {
	if sig == nil {
		sig = MustSignature()
	}
	return gen.NewDeclaredSymbol(requested, func(d *gen.Declaration) gen.Snippet {
		return gen.NewCode().Scope(
			gen.ScopeConfig{
				Kind:      gen.ScopeFunction,
				Async:     gen.Bool(opts.Async),
				Generator: gen.Bool(opts.Generator),
			},
			gen.NewCode().Line(d.Prefix(), opts.keyword(), d.Name(), sig.Declare(), " {"),
			gen.NewCode().Indent(body),
			"}",
		)
	}, gen.DeclareOptions{Exported: opts.Export, Refs: opts.Refs, Comment: opts.Comment})
}

// Lambda writes an arrow function expression in a nested function scope.
func Lambda(sig *Signature, body gen.Snippet, async bool) gen.Snippet {
	if sig == nil {
		sig = MustSignature()
	}
	prefix := ""
	if async {
		prefix = "async "
	}
	return gen.NewCode().Scope(
		gen.ScopeConfig{Kind: gen.ScopeFunction, Async: gen.Bool(async)},
		gen.NewCode().Line(prefix, sig.Declare(), " => {"),
		gen.NewCode().Indent(body),
		"}",
	)
}
