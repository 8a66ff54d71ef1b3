package gen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UCNot/esgen-sub001/errors"
	"github.com/UCNot/esgen-sub001/printer"
)

func TestNamespace_Refer(t *testing.T) {
	b := newTestBundle(t, FormatESM)
	ns := b.Namespace()
	sym := NewLocalSymbol("value")

	first, err := ns.Refer(sym)
	require.NoError(t, err)
	second, err := ns.Refer(sym)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, "value", first.Name())
	assert.Equal(t, sym, first.Symbol())
	assert.Same(t, ns, first.Namespace())
}

func TestNamespace_ConflictSuffixes(t *testing.T) {
	b := newTestBundle(t, FormatESM)
	ns := b.Namespace()

	var names []string
	for i := 0; i < 4; i++ {
		naming, err := ns.Refer(NewLocalSymbol("test"))
		require.NoError(t, err)
		names = append(names, naming.Name())
	}

	assert.Equal(t, []string{"test", "test$0", "test$1", "test$2"}, names)
}

func TestNamespace_SafeNames(t *testing.T) {
	b := newTestBundle(t, FormatESM)
	ns := b.Namespace()

	tests := map[string]string{
		"class": "__class__",
		"a-b":   "a$u2D$b",
		"":      "__$__",
	}
	for requested, want := range tests {
		naming, err := ns.Refer(NewLocalSymbol(requested))
		require.NoError(t, err)
		assert.Equal(t, want, naming.Name())
	}
}

func TestNamespace_NestedSeesEnclosing(t *testing.T) {
	b := newTestBundle(t, FormatESM)
	root := b.Namespace()
	nested := root.Nest(NamespaceConfig{Comment: "function"})

	outer := NewLocalSymbol("x")
	rootNaming, err := root.Refer(outer)
	require.NoError(t, err)

	found, err := nested.Refer(outer)
	require.NoError(t, err)
	assert.Same(t, rootNaming, found)

	inner, err := nested.Refer(NewLocalSymbol("x"))
	require.NoError(t, err)
	assert.Equal(t, "x$0", inner.Name())
}

func TestNamespace_EnclosingAvoidsNested(t *testing.T) {
	b := newTestBundle(t, FormatESM)
	root := b.Namespace()
	nested := root.Nest(NamespaceConfig{})

	inner, err := nested.Refer(NewLocalSymbol("x"))
	require.NoError(t, err)
	assert.Equal(t, "x", inner.Name())

	outer, err := root.Refer(NewLocalSymbol("x"))
	require.NoError(t, err)
	assert.Equal(t, "x$0", outer.Name())
}

func TestNamespace_SiblingsShareNames(t *testing.T) {
	b := newTestBundle(t, FormatESM)
	root := b.Namespace()

	first, err := root.Nest(NamespaceConfig{}).Refer(NewLocalSymbol("x"))
	require.NoError(t, err)
	second, err := root.Nest(NamespaceConfig{}).Refer(NewLocalSymbol("x"))
	require.NoError(t, err)

	assert.Equal(t, "x", first.Name())
	assert.Equal(t, "x", second.Name())
}

func TestNamespace_UniqueSymbolsBindInBundle(t *testing.T) {
	b := newTestBundle(t, FormatESM)
	nested := b.Namespace().Nest(NamespaceConfig{}).Nest(NamespaceConfig{})
	sym := constant("value", "1", DeclareOptions{})

	naming, err := nested.Refer(sym)
	require.NoError(t, err)

	assert.Same(t, b.Namespace(), naming.Namespace())
	assert.Same(t, naming, b.Namespace().FindSymbol(sym))
}

func TestNamespace_AddSymbolShadows(t *testing.T) {
	b := newTestBundle(t, FormatESM)
	root := b.Namespace()
	nested := root.Nest(NamespaceConfig{})
	sym := NewLocalSymbol("arg")

	outer, err := root.AddSymbol(sym)
	require.NoError(t, err)
	inner, err := nested.AddSymbol(sym)
	require.NoError(t, err)

	assert.NotSame(t, outer, inner)
	assert.Equal(t, "arg", outer.Name())
	assert.Equal(t, "arg$0", inner.Name())
	assert.Same(t, inner, nested.FindSymbol(sym))
	assert.Same(t, outer, root.FindSymbol(sym))

	again, err := nested.AddSymbol(sym)
	require.NoError(t, err)
	assert.Same(t, inner, again)
}

func TestNamespace_AddUniqueSymbol(t *testing.T) {
	b := newTestBundle(t, FormatESM)

	_, err := b.Namespace().AddSymbol(constant("value", "1", DeclareOptions{}))
	require.Error(t, err)
	assert.True(t, errors.HasAssertionFailure(err))
}

func TestNamespace_FindSymbol(t *testing.T) {
	b := newTestBundle(t, FormatESM)
	sym := NewLocalSymbol("value")

	assert.Nil(t, b.Namespace().FindSymbol(sym))

	_, err := b.Namespace().Refer(sym)
	require.NoError(t, err)
	assert.NotNil(t, b.Namespace().FindSymbol(sym))
}

func TestNamespace_SymbolOf(t *testing.T) {
	b := newTestBundle(t, FormatESM)
	root := b.Namespace()
	nested := root.Nest(NamespaceConfig{})
	sym := NewLocalSymbol("value")

	_, err := root.Refer(sym)
	require.NoError(t, err)

	assert.Equal(t, sym, nested.SymbolOf("value"))
	assert.Nil(t, nested.SymbolOf("other"))
}

func TestNamespace_ReserveName(t *testing.T) {
	b := newTestBundle(t, FormatESM)
	ns := b.Namespace()

	tmp, err := ns.ReserveName("tmp")
	require.NoError(t, err)
	assert.Equal(t, "tmp", tmp)
	assert.Nil(t, ns.SymbolOf("tmp"))

	naming, err := ns.Refer(NewLocalSymbol("tmp"))
	require.NoError(t, err)
	assert.Equal(t, "tmp$0", naming.Name())
}

func TestNamespace_ReservedNames(t *testing.T) {
	b := NewBundle(t.Context(), BundleConfig{
		Namespace: func(b *Bundle) *Namespace {
			return NewNamespace(b, NamespaceConfig{Comment: "globals", Reserved: []string{"console"}})
		},
	})

	naming, err := b.Namespace().Refer(NewLocalSymbol("console"))
	require.NoError(t, err)
	assert.Equal(t, "console$0", naming.Name())
}

func TestNamespace_FrozenAfterDeclarationsPrinted(t *testing.T) {
	b := newTestBundle(t, FormatESM)
	root := b.Namespace()
	nested := root.Nest(NamespaceConfig{Comment: "function"})

	bound := NewLocalSymbol("bound")
	_, err := root.Refer(bound)
	require.NoError(t, err)

	require.NoError(t, b.Declarations().PrintTo(printer.New()))

	_, err = root.Refer(NewLocalSymbol("late"))
	assert.True(t, errors.Is(err, errors.ErrDeclarationsPrinted))
	assert.Contains(t, err.Error(), "Declarations already printed")

	_, err = nested.Refer(NewLocalSymbol("late"))
	assert.True(t, errors.Is(err, errors.ErrNamespaceFrozen))

	_, err = root.Refer(constant("late", "1", DeclareOptions{}))
	assert.True(t, errors.Is(err, errors.ErrDeclarationsPrinted))

	_, err = root.ReserveName("tmp")
	assert.True(t, errors.Is(err, errors.ErrDeclarationsPrinted))

	// existing bindings are still visible
	naming, err := nested.Refer(bound)
	require.NoError(t, err)
	assert.Equal(t, "bound", naming.Name())
}

func TestNamespace_ImportsFrozenAfterPrinted(t *testing.T) {
	b := newTestBundle(t, FormatESM)

	require.NoError(t, b.Imports().PrintTo(printer.New()))

	_, err := b.Namespace().Refer(b.Modules().Module("lib").Import("x"))
	assert.True(t, errors.Is(err, errors.ErrDeclarationsPrinted))
	assert.Nil(t, b.Namespace().SymbolOf("x"))
}

func TestNamespace_String(t *testing.T) {
	b := newTestBundle(t, FormatESM)
	nested := b.Namespace().Nest(NamespaceConfig{Comment: "function"})

	assert.Equal(t, "bundle / function", nested.String())
}

func TestNamespace_FailedDeclarationUnbound(t *testing.T) {
	b := newTestBundle(t, FormatESM)
	failure := errors.New("declaration failed")
	sym := NewDeclaredSymbol("broken", func(*Declaration) Snippet {
		return Source(func(*Code, *Scope) error { return failure })
	}, DeclareOptions{Exported: true})

	_, err := b.Namespace().Refer(sym)
	require.Error(t, err)
	assert.True(t, errors.Is(err, failure))

	assert.Nil(t, b.Namespace().FindSymbol(sym))
	assert.Empty(t, b.Declarations().ExportNames())

	_, err = b.Namespace().Refer(sym)
	assert.True(t, errors.Is(err, failure))
}
