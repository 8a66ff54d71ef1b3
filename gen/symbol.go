package gen

import (
	"strings"
)

// Symbol is a logical identifier. Symbols are compared by identity: two
// symbols with the same requested name are distinct and get distinct names
// when visible from the same namespace.
//
// Symbols are created by NewLocalSymbol, NewDeclaredSymbol and
// ExternalModule.Import.
type Symbol interface {
	// RequestedName returns the preferred name of the symbol.
	RequestedName() string

	// Comment returns an optional human-readable description.
	Comment() string

	String() string

	// unique symbols are bound in the bundle namespace, others in the
	// namespace they are referred from.
	unique() bool

	bind(ns *Namespace, chain *referral) (*Naming, error)
}

type symbolBase struct {
	requested string
	comment   string
}

func (s symbolBase) RequestedName() string { return s.requested }

func (s symbolBase) Comment() string { return s.comment }

func (s symbolBase) describe(kind string) string {
	var b strings.Builder
	b.WriteString(kind)
	b.WriteString(" ")
	b.WriteString(s.requested)
	if s.comment != "" {
		b.WriteString(" /* ")
		b.WriteString(s.comment)
		b.WriteString(" */")
	}
	return b.String()
}

// LocalSymbol is bound in the namespace it is first referred from or added
// to, e.g. a variable or a function argument.
type LocalSymbol struct {
	symbolBase
}

// NewLocalSymbol creates a local symbol.
func NewLocalSymbol(requested string, comment ...string) *LocalSymbol {
	return &LocalSymbol{symbolBase{requested: requested, comment: strings.Join(comment, " ")}}
}

func (s *LocalSymbol) String() string { return s.describe("local") }

func (s *LocalSymbol) unique() bool { return false }

func (s *LocalSymbol) bind(ns *Namespace, _ *referral) (*Naming, error) {
	return ns.commit(s, s.requested)
}

// Naming is the binding of a symbol to a concrete name within a namespace.
type Naming struct {
	name   string
	symbol Symbol
	ns     *Namespace
}

// Name returns the bound name.
func (n *Naming) Name() string { return n.name }

// Symbol returns the named symbol.
func (n *Naming) Symbol() Symbol { return n.symbol }

// Namespace returns the namespace the symbol is bound in.
func (n *Naming) Namespace() *Namespace { return n.ns }

func (n *Naming) String() string { return n.name }

// referral is the chain of declarations being bound by a single Refer call.
type referral struct {
	symbol Symbol
	prev   *referral
}

func (r *referral) has(sym Symbol) bool {
	for ; r != nil; r = r.prev {
		if r.symbol == sym {
			return true
		}
	}
	return false
}

// path renders the chain from its root, ending at sym.
func (r *referral) path(sym Symbol) string {
	names := []string{sym.RequestedName()}
	for ; r != nil; r = r.prev {
		names = append(names, r.symbol.RequestedName())
	}
	for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
		names[i], names[j] = names[j], names[i]
	}
	return strings.Join(names, " -> ")
}
