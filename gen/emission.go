package gen

import (
	"context"
	"fmt"
	"sync"

	"github.com/UCNot/esgen-sub001/errors"
	"github.com/UCNot/esgen-sub001/printer"
)

// Emission is a possibly pending result of an emitter: a printable or an error.
//
// Emissions are awaited by spans only. The printer never awaits them.
type Emission struct {
	done      chan struct{}
	printable printer.Printable
	err       error

	// set for emissions derived from another one by Map
	source    *Emission
	transform func(printer.Printable) printer.Printable
}

func newEmission() *Emission {
	return &Emission{done: make(chan struct{})}
}

// Emitted returns an emission resolved to p.
func Emitted(p printer.Printable) *Emission {
	e := newEmission()
	e.resolve(p, nil)
	return e
}

// EmittedText returns an emission resolved to the given lines.
func EmittedText(lines ...string) *Emission {
	out := printer.New()
	for _, line := range lines {
		out.Print(line)
	}
	return Emitted(out)
}

// EmissionFailed returns an emission failed with err.
func EmissionFailed(err error) *Emission {
	e := newEmission()
	e.resolve(nil, err)
	return e
}

func (e *Emission) resolve(p printer.Printable, err error) {
	e.printable = p
	e.err = err
	close(e.done)
}

// Await blocks until the emission is resolved.
func (e *Emission) Await() (printer.Printable, error) {
	if e.source != nil {
		p, err := e.source.Await()
		if err != nil {
			return nil, err
		}
		return e.transform(p), nil
	}
	<-e.done
	return e.printable, e.err
}

// Map derives an emission resolved to transform(p) once this one resolves to p.
// Failures pass through unchanged.
func (e *Emission) Map(transform func(printer.Printable) printer.Printable) *Emission {
	return &Emission{source: e, transform: transform}
}

// settled reports whether the emission is resolved, and its error if so.
func (e *Emission) settled() (bool, error) {
	if e.source != nil {
		return e.source.settled()
	}
	select {
	case <-e.done:
		return true, e.err
	default:
		return false, nil
	}
}

// Emitter contributes code to a span.
type Emitter interface {
	Emit(scope *Scope) *Emission
}

// EmitterFunc adapts a function to Emitter.
type EmitterFunc func(scope *Scope) *Emission

// Emit calls f(scope).
func (f EmitterFunc) Emit(scope *Scope) *Emission {
	return f(scope)
}

// completion is the lifecycle shared by a bundle and all of its nested scopes.
//
// It joins a dynamically growing set of asynchronous emitters: an emitter may
// spawn more of them while the bundle is already completing.
type completion struct {
	mu      sync.Mutex
	settled *sync.Cond
	active  bool
	pending int
	errs    []error
}

func newCompletion() *completion {
	c := &completion{active: true}
	c.settled = sync.NewCond(&c.mu)
	return c
}

func (c *completion) isActive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// deactivate forbids new spans. It reports whether this call deactivated.
func (c *completion) deactivate() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	was := c.active
	c.active = false
	return was
}

func (c *completion) track() {
	c.mu.Lock()
	c.pending++
	c.mu.Unlock()
}

func (c *completion) settle(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failLocked(err)
	c.pending--
	if c.pending == 0 {
		c.settled.Broadcast()
	}
}

func (c *completion) fail(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failLocked(err)
}

func (c *completion) failLocked(err error) {
	if err == nil {
		return
	}
	for _, known := range c.errs {
		if known == err {
			return
		}
	}
	c.errs = append(c.errs, err)
}

// wait blocks until every tracked emitter settled and returns their combined error.
func (c *completion) wait() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for c.pending > 0 {
		c.settled.Wait()
	}
	var err error
	for _, e := range c.errs {
		err = errors.CombineErrors(err, e)
	}
	return err
}

// async runs produce on its own goroutine, tracked by the completion.
func (c *completion) async(ctx context.Context, produce func(ctx context.Context) (printer.Printable, error)) *Emission {
	e := newEmission()
	c.track()

	go func() {
		var (
			p   printer.Printable
			err error
		)
		defer func() {
			if r := recover(); r != nil {
				err = errors.Newf("emitter panicked: %v", fmt.Sprint(r))
			}
			e.resolve(p, err)
			c.settle(err)
		}()
		p, err = produce(ctx)
	}()

	return e
}
