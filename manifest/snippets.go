package manifest

import (
	"strings"

	"github.com/UCNot/esgen-sub001/errors"
	"github.com/UCNot/esgen-sub001/gen"
	"github.com/UCNot/esgen-sub001/shape"
)

// builder turns a manifest into symbols. Symbols are created first, and
// their code is filled once every placeholder can be resolved.
type builder struct {
	modules  *gen.ModuleRegistry
	symbols  map[string]gen.Symbol
	exported []gen.Symbol
	fills    []func() error
}

// Snippets builds the bundle code: the manifest body preceded by references
// to exported symbols, so that they are declared even when unused.
//
// Symbols are imported from modules, or from gen.DefaultModules when nil.
func (m *Manifest) Snippets(modules *gen.ModuleRegistry) ([]gen.Snippet, error) {
	if modules == nil {
		modules = gen.DefaultModules
	}
	b := &builder{
		modules: modules,
		symbols: make(map[string]gen.Symbol),
	}

	for _, imp := range m.Imports {
		b.addImport(imp)
	}
	for _, c := range m.Consts {
		b.addConst(c)
	}
	for _, f := range m.Functions {
		if err := b.addFunction(f); err != nil {
			return nil, err
		}
	}
	if err := b.addClasses(m.Classes); err != nil {
		return nil, err
	}

	for _, fill := range b.fills {
		if err := fill(); err != nil {
			return nil, err
		}
	}

	body, err := lines(m.Body, b.resolve)
	if err != nil {
		return nil, errors.Wrap(err, "body")
	}

	exported := b.exported
	referExported := gen.Source(func(_ *gen.Code, scope *gen.Scope) error {
		for _, sym := range exported {
			if _, err := scope.Refer(sym); err != nil {
				return err
			}
		}
		return nil
	})

	return []gen.Snippet{referExported, body}, nil
}

func (b *builder) resolve(name string) (gen.Symbol, bool) {
	sym, ok := b.symbols[name]
	return sym, ok
}

func (b *builder) addImport(imp Import) {
	module := b.modules.Module(imp.Module)
	if imp.As == "" {
		b.symbols[imp.Key()] = module.Import(imp.Name)
	} else {
		b.symbols[imp.Key()] = gen.NewImportedSymbol(module, imp.Name, imp.As)
	}
}

func (b *builder) addConst(c Const) {
	value := gen.NewCode()
	sym := shape.Const(c.Name, value, gen.DeclareOptions{Exported: c.Export, Comment: c.Comment})
	b.define(c.Name, sym, c.Export)

	b.fills = append(b.fills, func() error {
		tpl := parseTemplate(c.Value)
		line, err := tpl.line(b.resolve)
		if err != nil {
			return errors.Wrapf(err, "const %s", c.Name)
		}
		value.Write(line)
		sym.AddRefs(b.refs(tpl, c.Name)...)
		return nil
	})
}

func (b *builder) addFunction(f Function) error {
	sig, fillSig, err := b.signature(f.Args)
	if err != nil {
		return errors.Wrapf(err, "function %s", f.Name)
	}
	body := gen.NewCode()
	sym := shape.Function(f.Name, sig, body, shape.FunctionOptions{
		Export:    f.Export,
		Async:     f.Async,
		Generator: f.Generator,
		Comment:   f.Comment,
	})
	b.define(f.Name, sym, f.Export)

	b.fills = append(b.fills, func() error {
		if err := fillSig(); err != nil {
			return errors.Wrapf(err, "function %s", f.Name)
		}
		code, err := lines(f.Body, b.scoped(sig))
		if err != nil {
			return errors.Wrapf(err, "function %s", f.Name)
		}
		body.Write(code)
		return nil
	})
	return nil
}

// addClasses creates classes base ones first, as a class needs the symbol of
// its base class.
func (b *builder) addClasses(classes []Class) error {
	isClass := make(map[string]bool, len(classes))
	for _, c := range classes {
		isClass[c.Name] = true
	}

	pending := classes
	for len(pending) > 0 {
		var next []Class
		for _, c := range pending {
			var base gen.Symbol
			if c.Extends != "" {
				sym, ok := b.resolve(c.Extends)
				if !ok {
					if isClass[c.Extends] {
						next = append(next, c)
						continue
					}
					return errors.Newf("class %s extends unknown symbol %q", c.Name, c.Extends)
				}
				base = sym
			}
			if err := b.addClass(c, base); err != nil {
				return err
			}
		}
		if len(next) == len(pending) {
			names := make([]string, len(next))
			for i, c := range next {
				names[i] = c.Name
			}
			return errors.Wrapf(errors.ErrDeclarationCycle, "class inheritance: %s", strings.Join(names, ", "))
		}
		pending = next
	}
	return nil
}

func (b *builder) addClass(c Class, base gen.Symbol) error {
	cls := shape.NewClass(c.Name, shape.ClassOptions{
		Export:  c.Export,
		Extends: base,
		Comment: c.Comment,
	})
	b.define(c.Name, cls.Symbol(), c.Export)

	for _, field := range c.Fields {
		f := &shape.Field{Name: field.Name, Static: field.Static}
		if field.Value != "" {
			value := gen.NewCode()
			f.Value = value
			raw, static := field.Value, field.Static
			b.fills = append(b.fills, func() error {
				tpl := parseTemplate(raw)
				line, err := tpl.line(b.resolve)
				if err != nil {
					return errors.Wrapf(err, "class %s field %s", c.Name, f.Name)
				}
				value.Write(line)
				if static {
					cls.Symbol().AddRefs(b.refs(tpl, c.Name)...)
				}
				return nil
			})
		}
		if err := cls.Add(f); err != nil {
			return errors.Wrapf(err, "class %s", c.Name)
		}
	}

	if c.Constructor != nil {
		sig, body, err := b.method(c.Name, "constructor", *c.Constructor)
		if err != nil {
			return err
		}
		if err := cls.Add(&shape.Constructor{Signature: sig, Body: body}); err != nil {
			return errors.Wrapf(err, "class %s", c.Name)
		}
	}

	for _, m := range c.Methods {
		sig, body, err := b.method(c.Name, m.Name, m.Function)
		if err != nil {
			return err
		}
		if err := cls.Add(&shape.Method{
			Name:      m.Name,
			Static:    m.Static,
			Async:     m.Async,
			Generator: m.Generator,
			Signature: sig,
			Body:      body,
		}); err != nil {
			return errors.Wrapf(err, "class %s", c.Name)
		}
	}

	return nil
}

func (b *builder) method(class, name string, f Function) (*shape.Signature, *gen.Code, error) {
	sig, fillSig, err := b.signature(f.Args)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "class %s method %s", class, name)
	}
	body := gen.NewCode()
	b.fills = append(b.fills, func() error {
		if err := fillSig(); err != nil {
			return errors.Wrapf(err, "class %s method %s", class, name)
		}
		code, err := lines(f.Body, b.scoped(sig))
		if err != nil {
			return errors.Wrapf(err, "class %s method %s", class, name)
		}
		body.Write(code)
		return nil
	})
	return sig, body, nil
}

// signature parses argument declarations. Default values are filled later.
func (b *builder) signature(raw []string) (*shape.Signature, func() error, error) {
	args := make([]shape.Arg, len(raw))
	values := make(map[int]string)
	defaults := make(map[int]*gen.Code)

	for i, r := range raw {
		decl := strings.TrimSpace(r)
		if strings.HasPrefix(decl, "...") {
			args[i].Rest = true
			decl = strings.TrimSpace(decl[3:])
		}
		if name, value, ok := strings.Cut(decl, "="); ok {
			decl = strings.TrimSpace(name)
			value = strings.TrimSpace(value)
			code := gen.NewCode()
			args[i].Default = code
			defaults[i] = code
			values[i] = value
		}
		if decl == "" {
			return nil, nil, errors.Newf("argument %d has no name", i+1)
		}
		args[i].Name = decl
	}

	sig, err := shape.NewSignature(args...)
	if err != nil {
		return nil, nil, err
	}

	fill := func() error {
		for i, code := range defaults {
			line, err := parseTemplate(values[i]).line(b.resolve)
			if err != nil {
				return errors.Wrapf(err, "argument %s", args[i].Name)
			}
			code.Write(line)
		}
		return nil
	}
	return sig, fill, nil
}

// scoped resolves function arguments before manifest symbols.
func (b *builder) scoped(sig *shape.Signature) resolver {
	return func(name string) (gen.Symbol, bool) {
		if arg := sig.Arg(name); arg != nil {
			return arg, true
		}
		return b.resolve(name)
	}
}

// refs returns the symbols a template refers to, except the named one.
func (b *builder) refs(tpl *template, except string) []gen.Symbol {
	var refs []gen.Symbol
	for _, name := range tpl.placeholders() {
		if name == except {
			continue
		}
		if sym, ok := b.resolve(name); ok {
			refs = append(refs, sym)
		}
	}
	return refs
}

func (b *builder) define(name string, sym gen.Symbol, exported bool) {
	b.symbols[name] = sym
	if exported {
		b.exported = append(b.exported, sym)
	}
}
