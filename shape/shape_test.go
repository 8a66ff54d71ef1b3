package shape

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/UCNot/esgen-sub001/errors"
	"github.com/UCNot/esgen-sub001/gen"
)

func generate(t *testing.T, snippets ...gen.Snippet) string {
	t.Helper()
	text, err := gen.Generate(context.Background(), gen.GenerateOptions{
		Modules: gen.NewModuleRegistry(),
		Logger:  zaptest.NewLogger(t).Sugar(),
	}, snippets...)
	require.NoError(t, err)
	return text
}

func refer(symbols ...gen.Symbol) gen.Source {
	return func(_ *gen.Code, scope *gen.Scope) error {
		for _, sym := range symbols {
			if _, err := scope.Namespace().Refer(sym); err != nil {
				return err
			}
		}
		return nil
	}
}

func TestConst(t *testing.T) {
	answer := Const("answer", "42", gen.DeclareOptions{Exported: true})
	doubled := Const("doubled", gen.NewCode().Line(answer, " * 2"), gen.DeclareOptions{Refs: []gen.Symbol{answer}})

	text := generate(t, gen.NewCode().Line("console.log(", doubled, ");"))
	assert.Equal(t, "export const answer = 42;\nconst doubled = answer * 2;\nconsole.log(doubled);\n", text)
}

func TestLet(t *testing.T) {
	x := gen.NewLocalSymbol("x")
	y := gen.NewLocalSymbol("y")

	text := generate(t, Let(x, "1"), LocalConst(y, nil), gen.NewCode().Line(x, " += ", y, ";"))
	assert.Equal(t, "let x = 1;\nconst y;\nx += y;\n", text)
}

func TestNewSignature_Invalid(t *testing.T) {
	_, err := NewSignature(Arg{Name: "a"}, Arg{Name: "a"})
	assert.ErrorContains(t, err, "duplicate argument")

	_, err = NewSignature(Arg{Name: "rest", Rest: true}, Arg{Name: "b"})
	assert.ErrorContains(t, err, "must be the last one")

	_, err = NewSignature(Arg{Name: "rest", Rest: true, Default: "[]"})
	assert.ErrorContains(t, err, "default value")

	assert.Panics(t, func() { MustSignature(Arg{Name: "a"}, Arg{Name: "a"}) })
}

func TestFunction(t *testing.T) {
	sig := MustSignature(Arg{Name: "a"}, Arg{Name: "b", Default: "1"}, Arg{Name: "rest", Rest: true})
	sum := Function("sum", sig,
		gen.NewCode().Line("return ", sig.Arg("a"), " + ", sig.Arg("b"), " + ", sig.Arg("rest"), ".length;"),
		FunctionOptions{Export: true})

	text := generate(t, gen.NewCode().Line(
		"console.log(", sum, sig.Call(map[string]gen.Snippet{"a": "1", "rest": "items"}), ");"))

	assert.Equal(t, `export function sum(a, b = 1, ...rest) {
  return a + b + rest.length;
}
console.log(sum(1, undefined, ...items));
`, text)
	assert.Nil(t, sig.Arg("missing"))
	assert.Len(t, sig.Args(), 3)
}

func TestFunction_ArgumentShadowsDeclaration(t *testing.T) {
	a := Const("a", "1", gen.DeclareOptions{})
	sig := MustSignature(Arg{Name: "a"})
	f := Function("f", sig,
		gen.NewCode().Line("return ", sig.Arg("a"), " + ", a, ";"),
		FunctionOptions{Refs: []gen.Symbol{a}})

	text := generate(t, refer(f))
	assert.Equal(t, "const a = 1;\nfunction f(a$0) {\n  return a$0 + a;\n}\n", text)
}

func TestFunction_Kinds(t *testing.T) {
	tests := []struct {
		name string
		opts FunctionOptions
		want string
	}{
		{"plain", FunctionOptions{}, "function f() {\n}\n"},
		{"async", FunctionOptions{Async: true}, "async function f() {\n}\n"},
		{"generator", FunctionOptions{Generator: true}, "function* f() {\n}\n"},
		{"async generator", FunctionOptions{Async: true, Generator: true}, "async function* f() {\n}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, generate(t, refer(Function("f", nil, nil, tt.opts))))
		})
	}
}

func TestFunction_ScopeFlags(t *testing.T) {
	var async, generator bool
	inspect := gen.Source(func(_ *gen.Code, scope *gen.Scope) error {
		async, generator = scope.IsAsync(), scope.IsGenerator()
		return nil
	})

	generate(t, refer(Function("f", nil, inspect, FunctionOptions{Async: true})))
	assert.True(t, async)
	assert.False(t, generator)
}

func TestLambda(t *testing.T) {
	sig := MustSignature(Arg{Name: "x"})

	text := generate(t, gen.NewCode().Line("const f = ", Lambda(sig, gen.NewCode().Line("return ", sig.Arg("x"), ";"), true), ";"))
	assert.Equal(t, "const f = async (x) => {\n  return x;\n};\n", text)
}

func TestClass(t *testing.T) {
	base := NewClass("Base", ClassOptions{})
	sig := MustSignature(Arg{Name: "name"})
	greeter := NewClass("Greeter", ClassOptions{Export: true, Extends: base.Symbol()})

	require.NoError(t, greeter.Add(
		&Field{Name: "count", Static: true, Value: "0"},
		&Field{Name: "#name"},
		&Constructor{
			Signature: sig,
			Body: gen.NewCode().
				Write("super();").
				Line("this.#name = ", sig.Arg("name"), ";"),
		},
		&Property{Name: "name", Get: "return this.#name;"},
		&Method{Name: "greet", Async: true, Body: "return 'Hello, ' + this.#name;"},
	))

	text := generate(t, refer(greeter.Symbol()))
	assert.Equal(t, `class Base {
}
export class Greeter extends Base {
  static count = 0;
  #name;
  constructor(name) {
    super();
    this.#name = name;
  }
  get name() {
    return this.#name;
  }
  async greet() {
    return 'Hello, ' + this.#name;
  }
}
`, text)
	assert.Same(t, base.Symbol(), greeter.Extends())
}

func TestClass_PropertyAccessors(t *testing.T) {
	cls := NewClass("Box", ClassOptions{})
	arg := gen.NewLocalSymbol("next")

	require.NoError(t, cls.Add(
		&Property{
			Name: "value",
			Get:  "return this._value;",
			Set:  &Setter{Arg: arg, Body: gen.NewCode().Line("this._value = ", arg, ";")},
		},
		&Property{Name: "default-value", Static: true, Set: &Setter{}},
		&Method{Name: "items", Generator: true, Signature: MustSignature(Arg{Name: "limit"})},
	))

	text := generate(t, refer(cls.Symbol()))
	assert.Equal(t, `class Box {
  get value() {
    return this._value;
  }
  set value(next) {
    this._value = next;
  }
  static set 'default-value'(value) {
  }
  *items(limit) {
  }
}
`, text)
}

func TestClass_MemberConflict(t *testing.T) {
	cls := NewClass("C", ClassOptions{})
	field := &Field{Name: "x"}

	require.NoError(t, cls.Add(field))
	require.NoError(t, cls.Add(field), "adding the same member again")
	require.NoError(t, cls.Add(&Field{Name: "x", Static: true}))

	err := cls.Add(&Method{Name: "x"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrMemberConflict))
	assert.Contains(t, err.Error(), "Member declaration conflict")

	require.NoError(t, cls.Add(&Constructor{}))
	assert.True(t, errors.Is(cls.Add(&Constructor{}), errors.ErrMemberConflict))

	assert.Len(t, cls.Members(), 3)
	assert.Same(t, field, cls.Member("x", false))
	assert.Nil(t, cls.Member("y", false))
}
