package gen

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/UCNot/esgen-sub001/errors"
	"github.com/UCNot/esgen-sub001/logger"
	"github.com/UCNot/esgen-sub001/printer"
)

// Format is the output format of a bundle.
type Format int

const (
	// FormatESM is an ES module with static imports and exports.
	FormatESM Format = iota

	// FormatIIFE is an immediately invoked async function expression.
	// Imports are dynamic, and exports are returned as an object.
	FormatIIFE

	// FormatScript is a plain script. It can neither import nor export.
	FormatScript
)

// DefaultImportFunc is the dynamic import expression of IIFE bundles.
const DefaultImportFunc = "import"

// ParseFormat parses a format name: "esm", "iife" or "script".
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "esm", "module", "es2015":
		return FormatESM, nil
	case "iife":
		return FormatIIFE, nil
	case "script":
		return FormatScript, nil
	default:
		return FormatESM, errors.WithHint(
			errors.Newf("unknown bundle format %q", name),
			"use one of: esm, iife, script")
	}
}

func (f Format) String() string {
	switch f {
	case FormatIIFE:
		return "IIFE"
	case FormatScript:
		return "script"
	default:
		return "ESM"
	}
}

// CanExport reports whether bundles of this format export symbols.
func (f Format) CanExport() bool { return f != FormatScript }

// CanImport reports whether bundles of this format import modules.
func (f Format) CanImport() bool { return f != FormatScript }

// BundleConfig configures a bundle.
type BundleConfig struct {
	Format Format

	// Namespace creates the bundle namespace.
	Namespace func(b *Bundle) *Namespace

	// Imports creates the imports registry.
	Imports func(b *Bundle) *Imports

	// Declarations creates the declarations registry.
	Declarations func(b *Bundle) *Declarations

	// Modules resolves external modules. Defaults to DefaultModules.
	Modules *ModuleRegistry

	// ImportFunc is the dynamic import expression of IIFE bundles.
	// Defaults to DefaultImportFunc.
	ImportFunc string

	// Indent is the indentation unit of generated code.
	// Defaults to printer.DefaultIndent.
	Indent string

	// Logger defaults to the global one.
	Logger *zap.SugaredLogger
}

// Bundle is the top-level scope of generated code.
//
// Code is emitted to the bundle by spans. Once Done is called, no new spans
// can be started, though already started ones still accept emitters until
// they are printed.
type Bundle struct {
	*Scope

	id         string
	ctx        context.Context
	format     Format
	modules    *ModuleRegistry
	importFunc string
	indent     string
	log        *zap.SugaredLogger
	created    time.Time

	completion   *completion
	imports      *Imports
	declarations *Declarations

	nsMu     sync.Mutex
	nsFrozen bool

	doneOnce sync.Once
	doneErr  error
}

// NewBundle creates a bundle.
func NewBundle(ctx context.Context, cfg BundleConfig) *Bundle {
	b := &Bundle{
		id:         uuid.NewString(),
		ctx:        ctx,
		format:     cfg.Format,
		modules:    cfg.Modules,
		importFunc: cfg.ImportFunc,
		indent:     cfg.Indent,
		created:    time.Now(),
		completion: newCompletion(),
	}
	if b.modules == nil {
		b.modules = DefaultModules
	}
	if b.importFunc == "" {
		b.importFunc = DefaultImportFunc
	}
	if b.indent == "" {
		b.indent = printer.DefaultIndent
	}

	log := cfg.Logger
	if log == nil {
		log = logger.ComponentLogger("gen")
	}
	b.log = log.With(logger.FieldBundleID, b.id, logger.FieldFormat, b.format.String())

	b.Scope = &Scope{
		kind:   ScopeBundle,
		bundle: b,
		// top-level await is permitted in both modules and async IIFE
		async: b.format != FormatScript,
	}
	if cfg.Namespace != nil {
		b.ns = cfg.Namespace(b)
	} else {
		b.ns = NewNamespace(b, NamespaceConfig{Comment: "bundle"})
	}
	if cfg.Imports != nil {
		b.imports = cfg.Imports(b)
	} else {
		b.imports = NewImports(b)
	}
	if cfg.Declarations != nil {
		b.declarations = cfg.Declarations(b)
	} else {
		b.declarations = NewDeclarations(b)
	}

	b.log.Debugw("Bundle created")
	return b
}

// ID returns the unique identifier of the bundle, used in diagnostics.
func (b *Bundle) ID() string { return b.id }

// Format returns the bundle format.
func (b *Bundle) Format() Format { return b.format }

// Indent returns the indentation unit of generated code.
func (b *Bundle) Indent() string { return b.indent }

// Modules returns the module registry of the bundle.
func (b *Bundle) Modules() *ModuleRegistry { return b.modules }

// Imports returns the imports registry.
func (b *Bundle) Imports() *Imports { return b.imports }

// Declarations returns the declarations registry.
func (b *Bundle) Declarations() *Declarations { return b.declarations }

// Done completes the bundle: no new spans can be started afterwards.
// Blocks until every emitter settled, including those started by other
// emitters meanwhile, and returns their combined error.
//
// Subsequent calls return the same result.
func (b *Bundle) Done() error {
	b.doneOnce.Do(func() {
		b.completion.deactivate()
		b.doneErr = b.completion.wait()

		if b.doneErr != nil {
			b.log.Debugw("Bundle failed",
				logger.FieldError, b.doneErr.Error(),
				logger.FieldDurationMS, time.Since(b.created).Milliseconds())
		} else {
			b.log.Debugw("Bundle done",
				logger.FieldDurationMS, time.Since(b.created).Milliseconds())
		}
	})
	return b.doneErr
}

func (b *Bundle) freezeNamespaces() {
	b.nsMu.Lock()
	b.nsFrozen = true
	b.nsMu.Unlock()
}

// Print composes the bundle output around body according to the format.
//
// ES module:
//
//	imports
//	declarations
//	body
//	export clause
//
// IIFE:
//
//	(async () => {
//	  dynamic imports
//	  declarations
//	  body
//	  return { exports };
//	})()
//
// The output is rendered lazily. It should be rendered after Done.
func (b *Bundle) Print(body printer.Printable) *printer.Output {
	out := printer.New()

	switch b.format {
	case FormatIIFE:
		out.Print("(async () => {")
		out.Indent(func(fn *printer.Output) {
			fn.Print(b.imports, b.declarations, body, b.declarations.Exports())
		}, b.indent)
		out.Print("})()")
	case FormatScript:
		out.Print(b.declarations, body)
	default:
		out.Print(b.imports, b.declarations, body, b.declarations.Exports())
	}

	return out
}
