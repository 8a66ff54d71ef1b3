package gen

import (
	"context"
	"testing"

	"go.uber.org/zap/zaptest"
)

func testOptions(t *testing.T, format Format) GenerateOptions {
	t.Helper()
	return GenerateOptions{
		Format:  format,
		Modules: NewModuleRegistry(),
		Logger:  zaptest.NewLogger(t).Sugar(),
	}
}

func newTestBundle(t *testing.T, format Format) *Bundle {
	t.Helper()
	return NewBundle(context.Background(), BundleConfig{
		Format:  format,
		Modules: NewModuleRegistry(),
		Logger:  zaptest.NewLogger(t).Sugar(),
	})
}

// constant declares "const name = value;".
func constant(requested, value string, opts DeclareOptions) *DeclaredSymbol {
	return NewDeclaredSymbol(requested, func(d *Declaration) Snippet {
		return d.Prefix() + "const " + d.Name() + " = " + value + ";"
	}, opts)
}

// referAll refers symbols without writing any code.
func referAll(symbols ...Symbol) Source {
	return func(_ *Code, scope *Scope) error {
		for _, sym := range symbols {
			if _, err := scope.Namespace().Refer(sym); err != nil {
				return err
			}
		}
		return nil
	}
}
