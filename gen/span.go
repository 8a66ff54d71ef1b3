package gen

import (
	"sync"

	"github.com/UCNot/esgen-sub001/errors"
	"github.com/UCNot/esgen-sub001/printer"
)

// Span is a contiguous sequence of emissions within a scope.
//
// Emitters are invoked immediately when emitted. Their results are printed in
// emission order, regardless of the order in which they resolve. Once the
// span printed, it accepts no more emitters.
type Span struct {
	scope *Scope

	mu      sync.Mutex
	slots   []*slot
	printed bool
}

// slot reserves the position of an emission before its emitter runs, so that
// emitters invoked by other emitters land after them.
type slot struct {
	set      chan struct{}
	emission *Emission
}

func (s *slot) fill(e *Emission) {
	s.emission = e
	close(s.set)
}

func (s *slot) await() (printer.Printable, error) {
	<-s.set
	return s.emission.Await()
}

// Scope returns the scope the span belongs to.
func (sp *Span) Scope() *Scope { return sp.scope }

// Emit invokes emitters and appends their results to the span.
//
// Fails with ErrPrintedAlready once the span printed. An emitter that fails
// immediately fails the emission, and its error is also reported when the
// bundle completes.
func (sp *Span) Emit(emitters ...Emitter) error {
	var firstErr error
	for _, emitter := range emitters {
		if err := sp.emit(emitter); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (sp *Span) emit(emitter Emitter) error {
	sp.mu.Lock()
	if sp.printed {
		sp.mu.Unlock()
		return errors.PrintedAlready("emitting to %s scope span", sp.scope.kind)
	}
	s := &slot{set: make(chan struct{})}
	sp.slots = append(sp.slots, s)
	sp.mu.Unlock()

	e := emitter.Emit(sp.scope)
	if e == nil {
		e = Emitted(nil)
	}
	s.fill(e)

	if done, err := e.settled(); done && err != nil {
		sp.scope.bundle.completion.fail(err)
		return err
	}
	return nil
}

// Printer returns the printable of the span.
func (sp *Span) Printer() printer.Printable {
	return sp
}

// PrintTo awaits every emission of the span and prints them in order.
// The span accepts no more emitters afterwards.
func (sp *Span) PrintTo(out *printer.Output) error {
	sp.mu.Lock()
	sp.printed = true
	slots := append([]*slot(nil), sp.slots...)
	sp.mu.Unlock()

	for _, s := range slots {
		p, err := s.await()
		if err != nil {
			return err
		}
		if p != nil {
			out.Print(p)
		}
	}
	return nil
}

// IsPrinted reports whether the span printed already.
func (sp *Span) IsPrinted() bool {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	return sp.printed
}
