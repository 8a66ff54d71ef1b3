package gen

import (
	"context"
	"sync"

	"github.com/UCNot/esgen-sub001/errors"
	"github.com/UCNot/esgen-sub001/printer"
)

// Snippet is a piece of code accepted by Code:
//
//   - a string: a line of code, or a fragment of it inside Line
//   - a *Code
//   - a Symbol: the name the symbol is bound to in the current scope
//   - a Source or AsyncSource, or a function of the same signature
//   - an Emitter
//   - a printer.Printable
//
// A nil snippet is ignored.
type Snippet any

// Source writes code in the scope it is emitted to.
type Source func(code *Code, scope *Scope) error

// AsyncSource writes code on its own goroutine. The bundle does not complete
// until it returns.
type AsyncSource func(ctx context.Context, code *Code, scope *Scope) error

type recordKind int

const (
	recordSnippet recordKind = iota
	recordLine
	recordIndent
	recordScope
)

type codeRecord struct {
	kind    recordKind
	snippet Snippet
	body    *Code
	scope   ScopeConfig
}

// Code is a code fragment builder.
//
// Code is emitted lazily: snippets are evaluated each time the code is
// emitted to a scope. Snippets written after the code was emitted are
// emitted too, unless the code has been printed already.
//
// Errors are sticky: the first one fails every later emission and is
// returned by Err.
type Code struct {
	mu      sync.Mutex
	records []codeRecord
	spans   []*Span
	err     error
}

// NewCode creates an empty code fragment.
func NewCode() *Code {
	return &Code{}
}

// Err returns the first error of the code, if any.
func (c *Code) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Write appends snippets, each on its own line.
func (c *Code) Write(snippets ...Snippet) *Code {
	for _, snippet := range snippets {
		if snippet == nil {
			continue
		}
		if nested, ok := snippet.(*Code); ok {
			if nested == c || nested.contains(c) {
				c.fail(errors.Wrap(errors.ErrSelfInsertion, "writing code"))
				continue
			}
		}
		c.add(codeRecord{kind: recordSnippet, snippet: snippet})
	}
	return c
}

// Line appends snippets joined on a single line.
func (c *Code) Line(snippets ...Snippet) *Code {
	return c.group(recordLine, ScopeConfig{}, snippets)
}

// Indent appends indented snippets.
func (c *Code) Indent(snippets ...Snippet) *Code {
	return c.group(recordIndent, ScopeConfig{}, snippets)
}

// Block appends snippets emitted to a nested block scope.
func (c *Code) Block(snippets ...Snippet) *Code {
	return c.group(recordScope, ScopeConfig{Kind: ScopeBlock}, snippets)
}

// Scope appends snippets emitted to a nested scope configured by cfg.
func (c *Code) Scope(cfg ScopeConfig, snippets ...Snippet) *Code {
	return c.group(recordScope, cfg, snippets)
}

func (c *Code) group(kind recordKind, cfg ScopeConfig, snippets []Snippet) *Code {
	body := NewCode().Write(snippets...)
	if err := body.Err(); err != nil {
		c.fail(err)
		return c
	}
	if body.contains(c) {
		c.fail(errors.Wrap(errors.ErrSelfInsertion, "writing code"))
		return c
	}
	c.add(codeRecord{kind: kind, body: body, scope: cfg})
	return c
}

func (c *Code) add(r codeRecord) {
	c.mu.Lock()
	if c.err != nil {
		c.mu.Unlock()
		return
	}
	c.records = append(c.records, r)
	spans := append([]*Span(nil), c.spans...)
	c.mu.Unlock()

	for _, span := range spans {
		if err := span.Emit(r.emitter()); err != nil {
			c.fail(err)
		}
	}
}

func (c *Code) fail(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err == nil {
		c.err = err
	}
}

// contains reports whether target is nested in c.
func (c *Code) contains(target *Code) bool {
	c.mu.Lock()
	records := append([]codeRecord(nil), c.records...)
	c.mu.Unlock()

	for _, r := range records {
		nested := r.body
		if r.kind == recordSnippet {
			nested, _ = r.snippet.(*Code)
		}
		if nested != nil && (nested == target || nested.contains(target)) {
			return true
		}
	}
	return false
}

// Emit emits the code to scope.
func (c *Code) Emit(scope *Scope) *Emission {
	c.mu.Lock()
	if c.err != nil {
		err := c.err
		c.mu.Unlock()
		return EmissionFailed(err)
	}
	span := &Span{scope: scope}
	records := append([]codeRecord(nil), c.records...)
	c.spans = append(c.spans, span)
	c.mu.Unlock()

	for _, r := range records {
		if err := span.Emit(r.emitter()); err != nil {
			return EmissionFailed(err)
		}
	}

	return Emitted(span)
}

func (r codeRecord) emitter() Emitter {
	return EmitterFunc(func(scope *Scope) *Emission {
		switch r.kind {
		case recordLine:
			return r.body.Emit(scope).Map(func(p printer.Printable) printer.Printable {
				return printer.New().Line(func(line *printer.Output) { line.Print(p) })
			})
		case recordIndent:
			return r.body.Emit(scope).Map(func(p printer.Printable) printer.Printable {
				return printer.New().Indent(func(indented *printer.Output) { indented.Print(p) }, scope.Bundle().Indent())
			})
		case recordScope:
			return r.body.Emit(scope.Nest(r.scope))
		default:
			return emitSnippet(scope, r.snippet)
		}
	})
}

func emitSnippet(scope *Scope, snippet Snippet) *Emission {
	switch s := snippet.(type) {
	case string:
		return EmittedText(s)
	case *Code:
		return s.Emit(scope)
	case Symbol:
		naming, err := scope.Refer(s)
		if err != nil {
			return EmissionFailed(err)
		}
		return EmittedText(naming.Name())
	case Source:
		return emitSource(scope, s)
	case func(code *Code, scope *Scope) error:
		return emitSource(scope, s)
	case AsyncSource:
		return emitAsyncSource(scope, s)
	case func(ctx context.Context, code *Code, scope *Scope) error:
		return emitAsyncSource(scope, s)
	case Emitter:
		return s.Emit(scope)
	case printer.Printable:
		return Emitted(s)
	default:
		return EmissionFailed(errors.AssertionFailedf("unsupported snippet type %T", snippet))
	}
}

func emitSource(scope *Scope, src Source) *Emission {
	code := NewCode()
	if err := src(code, scope); err != nil {
		return EmissionFailed(err)
	}
	return code.Emit(scope)
}

func emitAsyncSource(scope *Scope, src AsyncSource) *Emission {
	// Async code does not hold up the declaration being bound.
	scope = scope.referring(nil)
	return scope.Async(func(ctx context.Context) (printer.Printable, error) {
		code := NewCode()
		if err := src(ctx, code, scope); err != nil {
			return nil, err
		}
		return code.Emit(scope).Await()
	})
}
