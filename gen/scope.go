package gen

import (
	"context"

	"go.uber.org/zap"

	"github.com/UCNot/esgen-sub001/errors"
	"github.com/UCNot/esgen-sub001/printer"
)

// ScopeKind distinguishes scopes.
type ScopeKind int

const (
	ScopeBlock    ScopeKind = iota // block statement
	ScopeFunction                  // function body
	ScopeBundle                    // top level of a bundle
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeFunction:
		return "function"
	case ScopeBundle:
		return "bundle"
	default:
		return "block"
	}
}

// ScopeConfig configures a nested scope.
type ScopeConfig struct {
	Kind ScopeKind

	// Async and Generator override the flags otherwise taken from the
	// enclosing scope. A function scope is neither async nor generator
	// unless configured so.
	Async     *bool
	Generator *bool

	// Namespace creates the scope namespace. Defaults to a namespace nested
	// in the enclosing one.
	Namespace func(enclosing *Namespace) *Namespace
}

// Bool returns a pointer to v, for ScopeConfig flags.
func Bool(v bool) *bool {
	return &v
}

// Scope is a region of generated code with its own namespace.
//
// All scopes of a bundle share its lifecycle: once the bundle is done,
// no scope accepts new spans.
type Scope struct {
	kind      ScopeKind
	enclosing *Scope
	bundle    *Bundle
	ns        *Namespace
	async     bool
	generator bool

	// declarations being bound while code is emitted to the scope
	chain *referral
}

// Kind returns the kind of the scope.
func (s *Scope) Kind() ScopeKind { return s.kind }

// Enclosing returns the enclosing scope, or nil for a bundle scope.
func (s *Scope) Enclosing() *Scope { return s.enclosing }

// Bundle returns the bundle the scope belongs to.
func (s *Scope) Bundle() *Bundle { return s.bundle }

// Namespace returns the scope namespace.
func (s *Scope) Namespace() *Namespace { return s.ns }

// IsAsync reports whether await is permitted in the scope.
func (s *Scope) IsAsync() bool { return s.async }

// IsGenerator reports whether yield is permitted in the scope.
func (s *Scope) IsGenerator() bool { return s.generator }

// IsActive reports whether the scope accepts new spans.
func (s *Scope) IsActive() bool { return s.bundle.completion.isActive() }

// Context returns the context of the generation the scope belongs to.
func (s *Scope) Context() context.Context { return s.bundle.ctx }

// Logger returns the bundle logger.
func (s *Scope) Logger() *zap.SugaredLogger { return s.bundle.log }

// FunctionOrBundle returns the nearest function or bundle scope, possibly
// this one.
func (s *Scope) FunctionOrBundle() *Scope {
	for scope := s; ; scope = scope.enclosing {
		if scope.kind != ScopeBlock || scope.enclosing == nil {
			return scope
		}
	}
}

// Nest creates a nested scope.
func (s *Scope) Nest(cfg ScopeConfig) *Scope {
	nested := &Scope{
		kind:      cfg.Kind,
		enclosing: s,
		bundle:    s.bundle,
		chain:     s.chain,
	}
	if nested.kind == ScopeBundle {
		nested.kind = ScopeBlock
	}

	if nested.kind == ScopeFunction {
		nested.async, nested.generator = false, false
	} else {
		nested.async, nested.generator = s.async, s.generator
	}
	if cfg.Async != nil {
		nested.async = *cfg.Async
	}
	if cfg.Generator != nil {
		nested.generator = *cfg.Generator
	}

	if cfg.Namespace != nil {
		nested.ns = cfg.Namespace(s.ns)
	} else {
		nested.ns = s.ns.Nest(NamespaceConfig{Comment: nested.kind.String()})
	}

	return nested
}

// Refer returns the naming of sym visible from the scope namespace, binding
// it when none exists yet. Unlike Namespace.Refer, a reference cycle through
// the declarations being emitted fails with ErrDeclarationCycle.
func (s *Scope) Refer(sym Symbol) (*Naming, error) {
	return s.ns.refer(sym, s.chain)
}

// referring returns a copy of the scope that binds symbols on behalf of
// the declarations in chain.
func (s *Scope) referring(chain *referral) *Scope {
	if s.chain == chain {
		return s
	}
	scope := *s
	scope.chain = chain
	return &scope
}

// Span starts a new span of code in this scope and emits to it.
//
// Fails with ErrAllEmitted once the bundle is done.
func (s *Scope) Span(emitters ...Emitter) (*Span, error) {
	if !s.IsActive() {
		return nil, errors.Wrapf(errors.ErrAllEmitted, "starting span in %s scope", s.kind)
	}

	span := &Span{scope: s}
	if err := span.Emit(emitters...); err != nil {
		return span, err
	}
	return span, nil
}

// Async produces a fragment on its own goroutine. The bundle does not
// complete until it is produced.
func (s *Scope) Async(produce func(ctx context.Context) (printer.Printable, error)) *Emission {
	return s.bundle.completion.async(s.bundle.ctx, produce)
}
