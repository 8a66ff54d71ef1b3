// Package eval generates code and runs it in an embedded ECMAScript VM.
//
// Snippets are generated as an IIFE bundle. Its imports are served by host
// modules, i.e. Go values exposed to the VM under a module name, and the
// exported symbols are returned as a map.
package eval

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dop251/goja"
	"go.uber.org/zap"

	"github.com/UCNot/esgen-sub001/errors"
	"github.com/UCNot/esgen-sub001/gen"
	"github.com/UCNot/esgen-sub001/logger"
)

// ImportFunc is the host function dynamic imports of evaluated bundles call.
const ImportFunc = "__esgen_import__"

// HostModules maps module names to their exports.
type HostModules map[string]map[string]any

// Options configures Evaluate.
type Options struct {
	// Modules is the module registry symbols are imported from.
	// Defaults to gen.DefaultModules.
	Modules *gen.ModuleRegistry

	// Host provides the modules the evaluated code imports.
	Host HostModules

	// Timeout interrupts evaluation running for too long. Zero means no timeout.
	Timeout time.Duration

	// Console receives console.log output. Console is not defined when nil.
	Console io.Writer

	Logger *zap.SugaredLogger
}

// Error is an evaluation failure.
type Error struct {
	// Source is the evaluated code.
	Source string

	// Syntax is set when the code failed to compile.
	Syntax bool

	Cause error
}

func (e *Error) Error() string {
	if e.Syntax {
		return fmt.Sprintf("syntax error in generated code: %v", e.Cause)
	}
	return fmt.Sprintf("evaluation failed: %v", e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

// Evaluate generates snippets as an IIFE bundle, runs it and returns the
// values of exported symbols by their export names.
//
// Evaluation is interrupted when ctx is done or the timeout elapses.
func Evaluate(ctx context.Context, opts Options, snippets ...gen.Snippet) (map[string]any, error) {
	log := opts.Logger
	if log == nil {
		log = logger.ComponentLogger("eval")
	}

	source, err := gen.Generate(ctx, gen.GenerateOptions{
		Format:     gen.FormatIIFE,
		Modules:    opts.Modules,
		ImportFunc: ImportFunc,
		Logger:     log,
	}, snippets...)
	if err != nil {
		return nil, err
	}

	return Run(ctx, opts, source)
}

// Run runs IIFE bundle source generated with ImportFunc as the import function.
func Run(ctx context.Context, opts Options, source string) (map[string]any, error) {
	log := opts.Logger
	if log == nil {
		log = logger.ComponentLogger("eval")
	}
	start := time.Now()

	program, err := goja.Compile("bundle.js", source, true)
	if err != nil {
		return nil, &Error{Source: source, Syntax: true, Cause: err}
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	vm := goja.New()
	if err := opts.Host.install(vm); err != nil {
		return nil, errors.Wrap(err, "installing host modules")
	}
	if opts.Console != nil {
		if err := installConsole(vm, opts.Console); err != nil {
			return nil, errors.Wrap(err, "installing console")
		}
	}

	stop := context.AfterFunc(ctx, func() {
		vm.Interrupt(ctx.Err())
	})
	defer stop()

	value, err := vm.RunProgram(program)
	if err != nil {
		var interrupted *goja.InterruptedError
		if errors.As(err, &interrupted) {
			return nil, &Error{Source: source, Cause: errors.Wrap(ctx.Err(), "evaluation interrupted")}
		}
		return nil, &Error{Source: source, Cause: err}
	}

	result, err := settle(value)
	if err != nil {
		return nil, &Error{Source: source, Cause: err}
	}

	log.Debugw("Code evaluated",
		logger.FieldCount, len(result),
		logger.FieldDurationMS, time.Since(start).Milliseconds())

	return result, nil
}

// settle extracts the exports from the promise the bundle evaluates to.
// Promise jobs run before RunProgram returns, so a pending promise awaits
// something that never resolves.
func settle(value goja.Value) (map[string]any, error) {
	promise, ok := value.Export().(*goja.Promise)
	if !ok {
		return exports(value)
	}

	switch promise.State() {
	case goja.PromiseStateFulfilled:
		return exports(promise.Result())
	case goja.PromiseStateRejected:
		reason := promise.Result()
		if obj, ok := reason.(*goja.Object); ok {
			if stack := obj.Get("stack"); stack != nil && !goja.IsUndefined(stack) {
				return nil, errors.Newf("%s", strings.TrimSpace(stack.String()))
			}
		}
		return nil, errors.Newf("%s", reason.String())
	default:
		return nil, errors.New("evaluation did not settle")
	}
}

func exports(value goja.Value) (map[string]any, error) {
	if value == nil || goja.IsUndefined(value) || goja.IsNull(value) {
		return map[string]any{}, nil
	}
	obj, ok := value.Export().(map[string]any)
	if !ok {
		return nil, errors.Newf("unexpected bundle result: %s", value.String())
	}
	return obj, nil
}

func (h HostModules) install(vm *goja.Runtime) error {
	return vm.Set(ImportFunc, func(call goja.FunctionCall) goja.Value {
		name := call.Argument(0).String()
		promise, resolve, reject := vm.NewPromise()

		if module, ok := h[name]; ok {
			resolve(vm.ToValue(module))
		} else {
			reject(vm.NewTypeError("Cannot find module '%s'", name))
		}

		return vm.ToValue(promise)
	})
}

func installConsole(vm *goja.Runtime, out io.Writer) error {
	console := vm.NewObject()
	if err := console.Set("log", func(call goja.FunctionCall) goja.Value {
		parts := make([]string, len(call.Arguments))
		for i, arg := range call.Arguments {
			parts[i] = arg.String()
		}
		fmt.Fprintln(out, strings.Join(parts, " "))
		return goja.Undefined()
	}); err != nil {
		return err
	}
	return vm.Set("console", console)
}
