package gen

import (
	"sync"

	"github.com/UCNot/esgen-sub001/errors"
	"github.com/UCNot/esgen-sub001/lit"
	"github.com/UCNot/esgen-sub001/logger"
	"github.com/UCNot/esgen-sub001/printer"
	"github.com/UCNot/esgen-sub001/safeid"
)

// DeclareFunc produces the code declaring a symbol at the top level of the
// bundle, e.g. "const name = value;". The code should start with d.Prefix().
type DeclareFunc func(d *Declaration) Snippet

// DeclareOptions configures a declared symbol.
type DeclareOptions struct {
	// Exported symbols are exported from the bundle under their requested
	// name.
	Exported bool

	// Refs are symbols the declaration depends on. They are declared first.
	Refs []Symbol

	Comment string
}

// DeclaredSymbol is declared once at the top level of a bundle, the first
// time it is referred.
type DeclaredSymbol struct {
	symbolBase
	declare  DeclareFunc
	exported bool

	mu   sync.Mutex
	refs []Symbol
}

// NewDeclaredSymbol creates a symbol declared by declare.
func NewDeclaredSymbol(requested string, declare DeclareFunc, opts DeclareOptions) *DeclaredSymbol {
	return &DeclaredSymbol{
		symbolBase: symbolBase{requested: requested, comment: opts.Comment},
		declare:    declare,
		exported:   opts.Exported,
		refs:       append([]Symbol(nil), opts.Refs...),
	}
}

// IsExported reports whether the symbol is exported from the bundle.
func (s *DeclaredSymbol) IsExported() bool { return s.exported }

// Refs returns the symbols the declaration depends on.
func (s *DeclaredSymbol) Refs() []Symbol {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Symbol(nil), s.refs...)
}

// AddRefs adds declaration dependencies. Refs added after the symbol was
// declared in a bundle take effect in bundles declaring it later.
func (s *DeclaredSymbol) AddRefs(refs ...Symbol) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refs = append(s.refs, refs...)
}

func (s *DeclaredSymbol) String() string {
	if s.exported {
		return s.describe("export")
	}
	return s.describe("declared")
}

func (s *DeclaredSymbol) unique() bool { return true }

func (s *DeclaredSymbol) bind(ns *Namespace, chain *referral) (*Naming, error) {
	for _, ref := range s.Refs() {
		if _, err := ns.refer(ref, chain); err != nil {
			return nil, errors.Wrapf(err, "declaring %s", s.requested)
		}
	}
	return ns.bundle.declarations.declare(ns, s, chain)
}

// Declaration is passed to DeclareFunc.
type Declaration struct {
	naming *Naming
	prefix string
	bundle *Bundle
}

// Naming returns the naming of the declared symbol.
func (d *Declaration) Naming() *Naming { return d.naming }

// Name returns the declared name.
func (d *Declaration) Name() string { return d.naming.name }

// Prefix returns "export " when the declaration exports the symbol itself,
// and an empty string otherwise.
func (d *Declaration) Prefix() string { return d.prefix }

// Bundle returns the bundle the symbol is declared in.
func (d *Declaration) Bundle() *Bundle { return d.bundle }

type exportEntry struct {
	local  string
	export string
	inline bool
}

// Declarations is the registry of top-level declarations of a bundle.
//
// Declarations are printed in the order their symbols were first referred,
// dependencies first. Once printed, no more symbols can be bound in the
// bundle.
type Declarations struct {
	bundle *Bundle
	span   *Span

	mu          sync.Mutex
	exports     []exportEntry
	exportNames map[string]struct{}
	printed     bool
}

// NewDeclarations creates the declarations registry of b.
func NewDeclarations(b *Bundle) *Declarations {
	return &Declarations{
		bundle:      b,
		span:        &Span{scope: b.Scope},
		exportNames: make(map[string]struct{}),
	}
}

func (d *Declarations) declare(ns *Namespace, sym *DeclaredSymbol, chain *referral) (*Naming, error) {
	format := d.bundle.format
	if sym.exported {
		if !format.CanExport() {
			return nil, errors.WithHintf(
				errors.Wrapf(errors.ErrExportFormat, "exporting %s", sym.requested),
				"%s bundles can not export symbols", format)
		}
		if !safeid.IsName(sym.requested) {
			return nil, errors.Wrapf(errors.ErrUnsafeExport, "exporting %s", lit.Quote(sym.requested))
		}
	}

	naming, err := ns.commit(sym, sym.requested)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	if d.printed {
		d.mu.Unlock()
		return nil, errors.DeclarationsPrinted("declaring %s", sym.requested)
	}
	decl := &Declaration{naming: naming, bundle: d.bundle}
	if sym.exported {
		_, used := d.exportNames[sym.requested]
		entry := exportEntry{
			local:  naming.name,
			export: sym.requested,
			inline: format == FormatESM && !used && naming.name == sym.requested,
		}
		if entry.inline {
			decl.prefix = "export "
		}
		d.exports = append(d.exports, entry)
		d.exportNames[sym.requested] = struct{}{}
	}
	d.mu.Unlock()

	d.bundle.log.Debugw("Symbol declared",
		logger.FieldSymbol, sym.String(),
		logger.FieldName, naming.name,
		logger.FieldExported, sym.exported,
		logger.FieldRefs, len(sym.refs))

	err = d.span.Emit(EmitterFunc(func(scope *Scope) *Emission {
		return NewCode().Write(sym.declare(decl)).Emit(scope.referring(chain))
	}))
	if err != nil {
		d.revoke(ns, naming)
		if errors.Is(err, errors.ErrPrintedAlready) {
			return nil, errors.DeclarationsPrinted("declaring %s", sym.requested)
		}
		return nil, errors.Wrapf(err, "declaring %s", sym.requested)
	}

	return naming, nil
}

// revoke unbinds a symbol whose declaration failed to emit. Its name stays
// reserved.
func (d *Declarations) revoke(ns *Namespace, naming *Naming) {
	ns.bundle.nsMu.Lock()
	delete(ns.namings, naming.symbol)
	ns.names[naming.name] = nil
	ns.bundle.nsMu.Unlock()

	d.mu.Lock()
	defer d.mu.Unlock()
	for i, entry := range d.exports {
		if entry.local == naming.name {
			d.exports = append(d.exports[:i], d.exports[i+1:]...)
			delete(d.exportNames, entry.export)
			break
		}
	}
}

// PrintTo prints the declarations. Binding new symbols in the bundle fails
// afterwards.
func (d *Declarations) PrintTo(out *printer.Output) error {
	d.bundle.freezeNamespaces()

	d.mu.Lock()
	d.printed = true
	d.mu.Unlock()

	return d.span.PrintTo(out)
}

// Exports returns the printable of the bundle exports: an export clause for
// ES modules, or a return statement for IIFE bundles.
func (d *Declarations) Exports() printer.Printable {
	return printer.PrintableFunc(func(out *printer.Output) error {
		d.mu.Lock()
		entries := append([]exportEntry(nil), d.exports...)
		d.mu.Unlock()

		switch d.bundle.format {
		case FormatESM:
			printESMExports(out, entries, d.bundle.indent)
		case FormatIIFE:
			printIIFEExports(out, entries, d.bundle.indent)
		}
		return nil
	})
}

func printESMExports(out *printer.Output, entries []exportEntry, indent string) {
	var aliases []string
	for _, entry := range entries {
		if entry.inline {
			continue
		}
		if entry.local == entry.export {
			aliases = append(aliases, entry.local+",")
		} else {
			aliases = append(aliases, entry.local+" as "+entry.export+",")
		}
	}
	if len(aliases) == 0 {
		return
	}
	out.Print("export {")
	out.Indent(func(clause *printer.Output) {
		for _, alias := range aliases {
			clause.Print(alias)
		}
	}, indent)
	out.Print("};")
}

func printIIFEExports(out *printer.Output, entries []exportEntry, indent string) {
	if len(entries) == 0 {
		return
	}
	out.Print("return {")
	out.Indent(func(object *printer.Output) {
		for _, entry := range entries {
			if entry.local == entry.export {
				object.Print(entry.local + ",")
			} else {
				object.Print(lit.Key(entry.export) + ": " + entry.local + ",")
			}
		}
	}, indent)
	out.Print("};")
}

// ExportNames returns the exported names in declaration order.
func (d *Declarations) ExportNames() []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	names := make([]string, 0, len(d.exports))
	for _, entry := range d.exports {
		names = append(names, entry.export)
	}
	return names
}
