package gen

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UCNot/esgen-sub001/errors"
)

func TestGenerate_ESM(t *testing.T) {
	text, err := Generate(context.Background(), testOptions(t, FormatESM), "const a = 'test';")
	require.NoError(t, err)
	assert.Equal(t, "const a = 'test';\n", text)
}

func TestGenerate_IIFE(t *testing.T) {
	text, err := Generate(context.Background(), testOptions(t, FormatIIFE), "const a = 'test';")
	require.NoError(t, err)
	assert.Equal(t, "(async () => {\n  const a = 'test';\n})()\n", text)
}

func TestGenerate_Empty(t *testing.T) {
	tests := []struct {
		format Format
		want   string
	}{
		{FormatESM, "\n"},
		{FormatIIFE, "(async () => {\n})()\n"},
		{FormatScript, "\n"},
	}

	for _, tt := range tests {
		t.Run(tt.format.String(), func(t *testing.T) {
			text, err := Generate(context.Background(), testOptions(t, tt.format))
			require.NoError(t, err)
			assert.Equal(t, tt.want, text)
		})
	}
}

func TestGenerate_ExportCollision(t *testing.T) {
	first := constant("test", "1", DeclareOptions{Exported: true})
	second := constant("test", "2", DeclareOptions{Exported: true})

	text, err := Generate(context.Background(), testOptions(t, FormatESM), referAll(first, second))
	require.NoError(t, err)
	assert.Equal(t, "export const test = 1;\nconst test$0 = 2;\nexport {\n  test$0 as test,\n};\n", text)
}

func TestGenerate_IIFEExports(t *testing.T) {
	first := constant("test", "1", DeclareOptions{Exported: true})
	second := constant("test", "2", DeclareOptions{Exported: true})

	text, err := Generate(context.Background(), testOptions(t, FormatIIFE), referAll(first, second))
	require.NoError(t, err)
	assert.Equal(t, `(async () => {
  const test = 1;
  const test$0 = 2;
  return {
    test,
    test: test$0,
  };
})()
`, text)
}

func TestGenerate_ReservedWord(t *testing.T) {
	sym := NewLocalSymbol("if")

	text, err := Generate(context.Background(), testOptions(t, FormatESM),
		NewCode().Line("const ", sym, " = 1;"))
	require.NoError(t, err)
	assert.Equal(t, "const __if__ = 1;\n", text)
}

func TestGenerate_ExportedReservedWord(t *testing.T) {
	sym := constant("default", "1", DeclareOptions{Exported: true})

	text, err := Generate(context.Background(), testOptions(t, FormatESM), referAll(sym))
	require.NoError(t, err)
	assert.Equal(t, "const __default__ = 1;\nexport {\n  __default__ as default,\n};\n", text)
}

func TestGenerate_UnsafeExport(t *testing.T) {
	sym := constant("my-value", "1", DeclareOptions{Exported: true})

	_, err := Generate(context.Background(), testOptions(t, FormatESM), referAll(sym))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrUnsafeExport))
}

func TestGenerate_ScriptCanNotExport(t *testing.T) {
	sym := constant("value", "1", DeclareOptions{Exported: true})

	_, err := Generate(context.Background(), testOptions(t, FormatScript), referAll(sym))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrExportFormat))
	assert.NotEmpty(t, errors.GetAllHints(err))
}

func TestGenerate_ScriptCanNotImport(t *testing.T) {
	opts := testOptions(t, FormatScript)
	sym := opts.Modules.Module("node:fs").Import("readFile")

	_, err := Generate(context.Background(), opts, referAll(sym))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrImportFormat))
}

func TestGenerate_Imports(t *testing.T) {
	modules := NewModuleRegistry()
	fs := modules.Module("node:fs")
	readFile := fs.Import("readFile")
	write := NewImportedSymbol(fs, "writeFile", "write")
	join := modules.Module("node:path").Import("join")

	body := func() *Code {
		return NewCode().
			Line("await ", readFile, "(", join, "('a', 'b'));").
			Line(write, "();")
	}

	t.Run("ESM", func(t *testing.T) {
		opts := testOptions(t, FormatESM)
		opts.Modules = modules

		text, err := Generate(context.Background(), opts, body())
		require.NoError(t, err)
		assert.Equal(t, `import { readFile, writeFile as write } from 'node:fs';
import { join } from 'node:path';
await readFile(join('a', 'b'));
write();
`, text)
	})

	t.Run("IIFE", func(t *testing.T) {
		opts := testOptions(t, FormatIIFE)
		opts.Modules = modules

		text, err := Generate(context.Background(), opts, body())
		require.NoError(t, err)
		assert.Equal(t, `(async () => {
  const { readFile, writeFile: write } = await import('node:fs');
  const { join } = await import('node:path');
  await readFile(join('a', 'b'));
  write();
})()
`, text)
	})
}

func TestGenerate_SameImportSharesBinding(t *testing.T) {
	opts := testOptions(t, FormatESM)
	fs := opts.Modules.Module("node:fs")
	first := fs.Import("readFile")
	second := NewImportedSymbol(fs, "readFile", "")

	text, err := Generate(context.Background(), opts, NewCode().Line(first, "(", second, ");"))
	require.NoError(t, err)
	assert.Equal(t, "import { readFile } from 'node:fs';\nreadFile(readFile);\n", text)
}

func TestGenerate_ModuleIdentity(t *testing.T) {
	opts := testOptions(t, FormatESM)
	first := opts.Modules.Module("lib").Import("x")
	second := NewModuleRegistry().Module("lib").Import("x")

	text, err := Generate(context.Background(), opts, NewCode().Line(first, ", ", second, ";"))
	require.NoError(t, err)
	assert.Equal(t, "import { x } from 'lib';\nimport { x as x$0 } from 'lib';\nx, x$0;\n", text)
}

func TestGenerate_ImportConflictsWithDeclaration(t *testing.T) {
	opts := testOptions(t, FormatESM)
	local := constant("join", "(...args) => args.join('/')", DeclareOptions{})
	imported := opts.Modules.Module("node:path").Import("join")

	text, err := Generate(context.Background(), opts, NewCode().Line(local, "(", imported, ");"))
	require.NoError(t, err)
	assert.Equal(t, `import { join as join$0 } from 'node:path';
const join = (...args) => args.join('/');
join(join$0);
`, text)
}

func TestGenerate_DeclarationRefs(t *testing.T) {
	base := constant("base", "1", DeclareOptions{})
	derived := NewDeclaredSymbol("derived", func(d *Declaration) Snippet {
		return NewCode().Line(d.Prefix(), "const ", d.Name(), " = ", base, " + 1;")
	}, DeclareOptions{Refs: []Symbol{base}})

	text, err := Generate(context.Background(), testOptions(t, FormatESM),
		NewCode().Line("console.log(", derived, ");"))
	require.NoError(t, err)
	assert.Equal(t, "const base = 1;\nconst derived = base + 1;\nconsole.log(derived);\n", text)
}

func TestGenerate_DeclaredOnce(t *testing.T) {
	sym := constant("value", "1", DeclareOptions{})

	text, err := Generate(context.Background(), testOptions(t, FormatESM),
		NewCode().Line(sym, ";").Line(sym, ";"))
	require.NoError(t, err)
	assert.Equal(t, "const value = 1;\nvalue;\nvalue;\n", text)
}

func TestGenerate_SelfReferringDeclaration(t *testing.T) {
	var fact *DeclaredSymbol
	fact = NewDeclaredSymbol("fact", func(d *Declaration) Snippet {
		return NewCode().
			Line(d.Prefix(), "function ", d.Name(), "(n) {").
			Indent(NewCode().Line("return n < 2 ? 1 : n * ", fact, "(n - 1);")).
			Write("}")
	}, DeclareOptions{Exported: true})

	text, err := Generate(context.Background(), testOptions(t, FormatESM), referAll(fact))
	require.NoError(t, err)
	assert.Equal(t, "export function fact(n) {\n  return n < 2 ? 1 : n * fact(n - 1);\n}\n", text)
}

func TestGenerate_DeclarationCycle(t *testing.T) {
	a := constant("a", "b", DeclareOptions{})
	b := constant("b", "a", DeclareOptions{Refs: []Symbol{a}})
	a.AddRefs(b)

	_, err := Generate(context.Background(), testOptions(t, FormatESM), referAll(a))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrDeclarationCycle))
	assert.Contains(t, err.Error(), "a -> b -> a")
}

func TestGenerate_DeclarationBodyCycle(t *testing.T) {
	var a *DeclaredSymbol
	x := NewDeclaredSymbol("x", func(d *Declaration) Snippet {
		return NewCode().Line("const ", d.Name(), " = () => ", a, ";")
	}, DeclareOptions{})
	a = constant("a", "1", DeclareOptions{Refs: []Symbol{x}})

	done := make(chan error, 1)
	go func() {
		_, err := Generate(context.Background(), testOptions(t, FormatESM), referAll(a))
		done <- err
	}()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrDeclarationCycle))
		assert.Contains(t, err.Error(), "a -> x -> a")
	case <-time.After(5 * time.Second):
		t.Fatal("generation did not finish")
	}
}

func TestGenerate_AsyncDeclarationBody(t *testing.T) {
	var a *DeclaredSymbol
	x := NewDeclaredSymbol("x", func(d *Declaration) Snippet {
		return AsyncSource(func(_ context.Context, code *Code, _ *Scope) error {
			code.Line("const ", d.Name(), " = () => ", a, ";")
			return nil
		})
	}, DeclareOptions{})
	a = constant("a", "1", DeclareOptions{Refs: []Symbol{x}})

	text, err := Generate(context.Background(), testOptions(t, FormatESM), referAll(a))
	require.NoError(t, err)
	assert.Equal(t, "const x = () => a;\nconst a = 1;\n", text)
}

func TestGenerate_SourceError(t *testing.T) {
	failure := errors.New("source failed")

	_, err := Generate(context.Background(), testOptions(t, FormatESM),
		"const a = 1;",
		Source(func(*Code, *Scope) error { return failure }))
	require.Error(t, err)
	assert.True(t, errors.Is(err, failure))
}

func TestGenerate_AsyncErrorsCombined(t *testing.T) {
	errA := errors.New("a failed")
	errB := errors.New("b failed")
	var started sync.WaitGroup
	started.Add(2)

	fail := func(err error) AsyncSource {
		return func(context.Context, *Code, *Scope) error {
			started.Done()
			started.Wait()
			return err
		}
	}

	_, err := Generate(context.Background(), testOptions(t, FormatESM), fail(errA), "ok", fail(errB))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errA) || errors.Is(err, errB))

	verbose := fmt.Sprintf("%+v", err)
	assert.Contains(t, verbose, "a failed")
	assert.Contains(t, verbose, "b failed")
}

func TestGenerate_AsyncOrder(t *testing.T) {
	secondDone := make(chan struct{})

	first := AsyncSource(func(_ context.Context, code *Code, _ *Scope) error {
		<-secondDone
		code.Write("first();")
		return nil
	})
	second := AsyncSource(func(_ context.Context, code *Code, _ *Scope) error {
		code.Write("second();")
		close(secondDone)
		return nil
	})

	text, err := Generate(context.Background(), testOptions(t, FormatESM), first, second, "third();")
	require.NoError(t, err)
	assert.Equal(t, "first();\nsecond();\nthird();\n", text)
}

func TestGenerate_ConcurrentRefer(t *testing.T) {
	sym := constant("shared", "{}", DeclareOptions{Exported: true})
	const workers = 32

	text, err := Generate(context.Background(), testOptions(t, FormatESM),
		Source(func(_ *Code, scope *Scope) error {
			namings := make([]*Naming, workers)
			errs := make([]error, workers)
			var wg sync.WaitGroup
			for i := 0; i < workers; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					namings[i], errs[i] = scope.Namespace().Refer(sym)
				}(i)
			}
			wg.Wait()

			for i := 0; i < workers; i++ {
				if errs[i] != nil {
					return errs[i]
				}
				if namings[i] != namings[0] {
					return errors.Newf("worker %d got a distinct naming", i)
				}
			}
			return nil
		}))
	require.NoError(t, err)
	assert.Equal(t, "export const shared = {};\n", text)
}

func TestGenerate_Golden(t *testing.T) {
	modules := NewModuleRegistry()
	readFile := modules.Module("node:fs/promises").Import("readFile")
	join := modules.Module("node:path").Import("join")

	root := constant("root", "process.cwd()", DeclareOptions{})
	load := NewDeclaredSymbol("load", func(d *Declaration) Snippet {
		name := NewLocalSymbol("name")
		file := NewLocalSymbol("file")
		return NewCode().Scope(ScopeConfig{Kind: ScopeFunction, Async: Bool(true)},
			NewCode().Line(d.Prefix(), "async function ", d.Name(), "(", name, ") {"),
			NewCode().Indent(
				NewCode().Line("const ", file, " = ", join, "(", root, ", ", name, ");"),
				NewCode().Line("return ", readFile, "(", file, ", 'utf8');"),
			),
			"}",
		)
	}, DeclareOptions{Exported: true, Refs: []Symbol{root}})
	readFileExport := NewDeclaredSymbol("readFile", func(d *Declaration) Snippet {
		return NewCode().Line(d.Prefix(), "const ", d.Name(), " = ", load, ";")
	}, DeclareOptions{Exported: true, Refs: []Symbol{load}})

	g := goldie.New(t, goldie.WithFixtureDir("testdata"), goldie.WithNameSuffix(".golden"))

	for _, format := range []Format{FormatESM, FormatIIFE} {
		t.Run(format.String(), func(t *testing.T) {
			opts := testOptions(t, format)
			opts.Modules = modules

			text, err := Generate(context.Background(), opts,
				NewCode().Line("await ", readFileExport, "('README.md');"))
			require.NoError(t, err)
			g.Assert(t, "bundle_"+format.String(), []byte(text))
		})
	}
}

func TestGenerate_Indent(t *testing.T) {
	opts := testOptions(t, FormatIIFE)
	opts.Indent = "\t"
	value := constant("value", "1", DeclareOptions{Exported: true})

	text, err := Generate(context.Background(), opts,
		referAll(value),
		NewCode().Line("if (", value, ") {").Indent("run();").Write("}"))
	require.NoError(t, err)
	assert.Equal(t, "(async () => {\n\tconst value = 1;\n\tif (value) {\n\t\trun();\n\t}\n\treturn {\n\t\tvalue,\n\t};\n})()\n", text)
}
