package gen

import (
	"strings"
	"sync"

	"github.com/UCNot/esgen-sub001/errors"
	"github.com/UCNot/esgen-sub001/lit"
	"github.com/UCNot/esgen-sub001/logger"
	"github.com/UCNot/esgen-sub001/printer"
	"github.com/UCNot/esgen-sub001/safeid"
)

// Module is a source of imported symbols.
type Module interface {
	// ModuleID returns the identity key of the module. Imports from modules
	// with equal keys are grouped together.
	ModuleID() any

	// ImportFrom returns the module specifier, e.g. "node:fs".
	ImportFrom() string
}

// ExternalModule is a module imported by its specifier.
type ExternalModule struct {
	name string

	mu      sync.Mutex
	symbols map[string]*ImportedSymbol
}

// ModuleID returns the module itself.
func (m *ExternalModule) ModuleID() any { return m }

// ImportFrom returns the module name.
func (m *ExternalModule) ImportFrom() string { return m.name }

func (m *ExternalModule) String() string { return m.name }

// Import returns the symbol imported from the module under name.
// The same symbol is returned for the same name.
func (m *ExternalModule) Import(name string) *ImportedSymbol {
	m.mu.Lock()
	defer m.mu.Unlock()

	if sym, ok := m.symbols[name]; ok {
		return sym
	}
	sym := NewImportedSymbol(m, name, "")
	m.symbols[name] = sym
	return sym
}

// ModuleRegistry caches external modules by name.
type ModuleRegistry struct {
	mu      sync.Mutex
	modules map[string]*ExternalModule
}

// DefaultModules is the process-wide module registry.
var DefaultModules = NewModuleRegistry()

// NewModuleRegistry creates an empty module registry.
func NewModuleRegistry() *ModuleRegistry {
	return &ModuleRegistry{modules: make(map[string]*ExternalModule)}
}

// Module returns the external module with the given name.
func (r *ModuleRegistry) Module(name string) *ExternalModule {
	r.mu.Lock()
	defer r.mu.Unlock()

	if m, ok := r.modules[name]; ok {
		return m
	}
	m := &ExternalModule{name: name, symbols: make(map[string]*ImportedSymbol)}
	r.modules[name] = m
	return m
}

// ImportedSymbol is a symbol imported from a module.
type ImportedSymbol struct {
	symbolBase
	module     Module
	importName string
}

// NewImportedSymbol creates a symbol importing name from module. The symbol
// is bound under as, or under name when as is empty.
//
// Distinct symbols importing the same name from the same module share the
// same binding.
func NewImportedSymbol(module Module, name, as string) *ImportedSymbol {
	requested := as
	if requested == "" {
		requested = name
	}
	return &ImportedSymbol{
		symbolBase: symbolBase{requested: requested, comment: "from " + module.ImportFrom()},
		module:     module,
		importName: name,
	}
}

// Module returns the module the symbol is imported from.
func (s *ImportedSymbol) Module() Module { return s.module }

// ImportName returns the name the symbol is exported from its module under.
func (s *ImportedSymbol) ImportName() string { return s.importName }

func (s *ImportedSymbol) String() string {
	return "import " + s.importName + " from " + lit.Quote(s.module.ImportFrom())
}

func (s *ImportedSymbol) unique() bool { return true }

func (s *ImportedSymbol) bind(ns *Namespace, _ *referral) (*Naming, error) {
	return ns.bundle.imports.add(ns, s)
}

type moduleImports struct {
	module  Module
	entries []importEntry
	byName  map[string]string
}

type importEntry struct {
	name  string
	local string
}

// Imports is the registry of module imports of a bundle.
//
// Imports from the same module are grouped into one import statement, in the
// order the module was first imported from.
type Imports struct {
	bundle *Bundle

	mu      sync.Mutex
	modules []*moduleImports
	byID    map[any]*moduleImports
	printed bool
}

// NewImports creates the imports registry of b.
func NewImports(b *Bundle) *Imports {
	return &Imports{
		bundle: b,
		byID:   make(map[any]*moduleImports),
	}
}

func (im *Imports) add(ns *Namespace, sym *ImportedSymbol) (*Naming, error) {
	if !im.bundle.format.CanImport() {
		return nil, errors.WithHintf(
			errors.Wrapf(errors.ErrImportFormat, "importing %s", sym.importName),
			"%s bundles can not import modules", im.bundle.format)
	}

	naming, err := ns.commitName(sym, func() (string, error) {
		im.mu.Lock()
		defer im.mu.Unlock()

		if im.printed {
			return "", errors.DeclarationsPrinted("importing %s", sym.importName)
		}

		mi := im.byID[sym.module.ModuleID()]
		if mi == nil {
			mi = &moduleImports{module: sym.module, byName: make(map[string]string)}
			im.byID[sym.module.ModuleID()] = mi
			im.modules = append(im.modules, mi)
		}
		if local, ok := mi.byName[sym.importName]; ok {
			return local, nil
		}

		local := ns.reserveLocked(safeid.Safe(sym.requested))
		mi.byName[sym.importName] = local
		mi.entries = append(mi.entries, importEntry{name: sym.importName, local: local})
		return local, nil
	})
	if err != nil {
		return nil, err
	}

	im.bundle.log.Debugw("Symbol imported",
		logger.FieldModule, sym.module.ImportFrom(),
		logger.FieldSymbol, sym.importName,
		logger.FieldName, naming.name)

	return naming, nil
}

// PrintTo prints import statements. Importing fails afterwards.
func (im *Imports) PrintTo(out *printer.Output) error {
	im.mu.Lock()
	im.printed = true
	modules := append([]*moduleImports(nil), im.modules...)
	im.mu.Unlock()

	for _, mi := range modules {
		from := lit.Quote(mi.module.ImportFrom())
		switch im.bundle.format {
		case FormatESM:
			out.Print("import { " + importClause(mi.entries, " as ") + " } from " + from + ";")
		case FormatIIFE:
			out.Print("const { " + importClause(mi.entries, ": ") + " } = await " + im.bundle.importFunc + "(" + from + ");")
		}
	}
	return nil
}

func importClause(entries []importEntry, alias string) string {
	specifiers := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.name == entry.local {
			specifiers = append(specifiers, entry.local)
		} else {
			specifiers = append(specifiers, lit.Key(entry.name)+alias+entry.local)
		}
	}
	return strings.Join(specifiers, ", ")
}
