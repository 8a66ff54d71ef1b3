// Package gen generates ECMAScript code.
//
// Code is emitted to a Bundle through spans. Each span collects emissions of
// emitters in order, even though emitters may complete asynchronously. Once
// the bundle is done and every emitter settled, the bundle prints imports,
// top-level declarations, body and exports according to its format.
//
// Symbols are bound to names by namespaces. A symbol declared at the top
// level is declared once, the first time it is referred, after the symbols
// it depends on. Names never conflict: a name taken in a namespace, in any of
// its ancestors, or in any of its descendants gets a "$N" suffix.
//
//	greet := gen.NewDeclaredSymbol("greet", func(d *gen.Declaration) gen.Snippet {
//	    return d.Prefix() + "function " + d.Name() + "() { return 'hello'; }"
//	}, gen.DeclareOptions{Exported: true})
//
//	text, err := gen.Generate(ctx, gen.GenerateOptions{},
//	    gen.NewCode().Line("console.log(", greet, "());"))
//
// produces
//
//	export function greet() { return 'hello'; }
//	console.log(greet());
package gen
