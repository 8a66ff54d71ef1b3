package gen

import (
	"strconv"
	"strings"

	"github.com/UCNot/esgen-sub001/errors"
	"github.com/UCNot/esgen-sub001/logger"
	"github.com/UCNot/esgen-sub001/safeid"
)

// NamespaceConfig configures a namespace.
type NamespaceConfig struct {
	// Comment describes the namespace in diagnostics.
	Comment string

	// Reserved names are never bound to symbols in the namespace or its
	// descendants, e.g. globals the generated code relies on.
	Reserved []string
}

// Namespace binds symbols to names unique within it.
//
// A name is free in a namespace unless it is bound in it, in any of its
// ancestors, or in any of its descendants. Conflicting names get a "$N"
// suffix, N counting from zero per preferred name.
//
// All namespaces of a bundle share a lock, so names are reserved atomically
// across the whole tree.
type Namespace struct {
	bundle    *Bundle
	enclosing *Namespace
	comment   string

	names    map[string]Symbol // bound or reserved names, nil symbol for reserved ones
	nested   map[string]struct{}
	namings  map[Symbol]*Naming
	counters map[string]int

	// unique symbols being bound, root namespace only
	pending map[Symbol]*pendingBinding
}

type pendingBinding struct {
	done chan struct{}
	err  error
}

// NewNamespace creates the root namespace of a bundle.
func NewNamespace(b *Bundle, cfg NamespaceConfig) *Namespace {
	ns := newNamespace(b, nil, cfg)
	ns.pending = make(map[Symbol]*pendingBinding)
	return ns
}

func newNamespace(b *Bundle, enclosing *Namespace, cfg NamespaceConfig) *Namespace {
	ns := &Namespace{
		bundle:    b,
		enclosing: enclosing,
		comment:   cfg.Comment,
		names:     make(map[string]Symbol),
		nested:    make(map[string]struct{}),
		namings:   make(map[Symbol]*Naming),
		counters:  make(map[string]int),
	}
	for _, name := range cfg.Reserved {
		ns.registerLocked(name, nil)
	}
	return ns
}

// Nest creates a nested namespace.
func (ns *Namespace) Nest(cfg NamespaceConfig) *Namespace {
	ns.bundle.nsMu.Lock()
	defer ns.bundle.nsMu.Unlock()
	return newNamespace(ns.bundle, ns, cfg)
}

// Bundle returns the bundle the namespace belongs to.
func (ns *Namespace) Bundle() *Bundle { return ns.bundle }

// Enclosing returns the enclosing namespace, or nil for the root one.
func (ns *Namespace) Enclosing() *Namespace { return ns.enclosing }

func (ns *Namespace) String() string {
	var parts []string
	for n := ns; n != nil; n = n.enclosing {
		comment := n.comment
		if comment == "" {
			comment = "namespace"
		}
		parts = append(parts, comment)
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, " / ")
}

func (ns *Namespace) root() *Namespace {
	root := ns
	for root.enclosing != nil {
		root = root.enclosing
	}
	return root
}

// Refer returns the naming of sym visible from this namespace, binding it
// when none exists yet.
//
// Referring the same symbol repeatedly returns the same naming. A declared or
// imported symbol is bound in the bundle namespace, any other symbol in this
// one. Code emitted for a declaration should use Scope.Refer instead, which
// detects cycles through the declaration being bound.
func (ns *Namespace) Refer(sym Symbol) (*Naming, error) {
	return ns.refer(sym, nil)
}

func (ns *Namespace) refer(sym Symbol, chain *referral) (*Naming, error) {
	if naming := ns.FindSymbol(sym); naming != nil {
		return naming, nil
	}
	if !sym.unique() {
		return sym.bind(ns, chain)
	}
	return ns.root().bindUnique(sym, chain)
}

// bindUnique binds sym in the root namespace exactly once, even when referred
// concurrently.
func (ns *Namespace) bindUnique(sym Symbol, chain *referral) (*Naming, error) {
	mu := &ns.bundle.nsMu
	for {
		mu.Lock()
		if naming := ns.namings[sym]; naming != nil {
			mu.Unlock()
			return naming, nil
		}
		if p := ns.pending[sym]; p != nil {
			mu.Unlock()
			if chain.has(sym) {
				return nil, errors.Wrapf(errors.ErrDeclarationCycle, "%s", chain.path(sym))
			}
			<-p.done
			if p.err != nil {
				return nil, p.err
			}
			continue
		}
		if err := ns.checkOpenLocked(); err != nil {
			mu.Unlock()
			return nil, err
		}
		p := &pendingBinding{done: make(chan struct{})}
		ns.pending[sym] = p
		mu.Unlock()

		naming, err := sym.bind(ns, &referral{symbol: sym, prev: chain})

		mu.Lock()
		delete(ns.pending, sym)
		p.err = err
		close(p.done)
		mu.Unlock()

		return naming, err
	}
}

// AddSymbol binds a local symbol in this namespace, shadowing its bindings
// in enclosing namespaces, if any.
func (ns *Namespace) AddSymbol(sym Symbol) (*Naming, error) {
	if sym.unique() {
		return nil, errors.AssertionFailedf("%s can only be bound in bundle namespace", sym)
	}
	return sym.bind(ns, nil)
}

// FindSymbol returns the naming of sym visible from this namespace without
// binding it. Returns nil when sym is not bound.
func (ns *Namespace) FindSymbol(sym Symbol) *Naming {
	ns.bundle.nsMu.Lock()
	defer ns.bundle.nsMu.Unlock()

	for n := ns; n != nil; n = n.enclosing {
		if naming := n.namings[sym]; naming != nil {
			return naming
		}
	}
	return nil
}

// SymbolOf returns the symbol bound to name visible from this namespace,
// or nil.
func (ns *Namespace) SymbolOf(name string) Symbol {
	ns.bundle.nsMu.Lock()
	defer ns.bundle.nsMu.Unlock()

	for n := ns; n != nil; n = n.enclosing {
		if sym := n.names[name]; sym != nil {
			return sym
		}
	}
	return nil
}

// ReserveName reserves a name not bound to any symbol, e.g. for a temporary
// variable. Returns the reserved name, which may differ from preferred.
func (ns *Namespace) ReserveName(preferred string) (string, error) {
	ns.bundle.nsMu.Lock()
	defer ns.bundle.nsMu.Unlock()

	if err := ns.checkOpenLocked(); err != nil {
		return "", err
	}
	name := ns.reserveLocked(safeid.Safe(preferred))
	ns.registerLocked(name, nil)
	return name, nil
}

// commit binds sym to a name derived from preferred.
func (ns *Namespace) commit(sym Symbol, preferred string) (*Naming, error) {
	return ns.commitName(sym, func() (string, error) {
		return ns.reserveLocked(safeid.Safe(preferred)), nil
	})
}

// commitName binds sym to the name chosen by choose, called with the
// namespace lock held.
func (ns *Namespace) commitName(sym Symbol, choose func() (string, error)) (*Naming, error) {
	ns.bundle.nsMu.Lock()
	if naming := ns.namings[sym]; naming != nil {
		ns.bundle.nsMu.Unlock()
		return naming, nil
	}
	if err := ns.checkOpenLocked(); err != nil {
		ns.bundle.nsMu.Unlock()
		return nil, err
	}

	name, err := choose()
	if err != nil {
		ns.bundle.nsMu.Unlock()
		return nil, err
	}
	if _, taken := ns.names[name]; !taken {
		ns.registerLocked(name, sym)
	}
	naming := &Naming{name: name, symbol: sym, ns: ns}
	ns.namings[sym] = naming
	ns.bundle.nsMu.Unlock()

	ns.bundle.log.Debugw("Symbol bound",
		logger.FieldSymbol, sym.String(),
		logger.FieldName, name,
		logger.FieldScope, ns.String())

	return naming, nil
}

func (ns *Namespace) checkOpenLocked() error {
	if !ns.bundle.nsFrozen {
		return nil
	}
	if ns.enclosing == nil {
		return errors.DeclarationsPrinted("binding in %s", ns)
	}
	return errors.Wrapf(errors.ErrNamespaceFrozen, "binding in %s", ns)
}

func (ns *Namespace) reserveLocked(preferred string) string {
	if ns.isFreeLocked(preferred) {
		return preferred
	}
	for i := ns.counters[preferred]; ; i++ {
		candidate := preferred + "$" + strconv.Itoa(i)
		if ns.isFreeLocked(candidate) {
			ns.counters[preferred] = i + 1
			return candidate
		}
	}
}

func (ns *Namespace) isFreeLocked(name string) bool {
	if _, taken := ns.names[name]; taken {
		return false
	}
	if _, taken := ns.nested[name]; taken {
		return false
	}
	for n := ns.enclosing; n != nil; n = n.enclosing {
		if _, taken := n.names[name]; taken {
			return false
		}
	}
	return true
}

func (ns *Namespace) registerLocked(name string, sym Symbol) {
	ns.names[name] = sym
	for n := ns.enclosing; n != nil; n = n.enclosing {
		n.nested[name] = struct{}{}
	}
}
