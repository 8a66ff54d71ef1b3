// Package manifest describes generated code declaratively.
//
// A manifest is a YAML or TOML document listing imports, constants,
// functions and classes, and the body statements of the bundle:
//
//	format: esm
//	imports:
//	  - module: node:path
//	    name: join
//	consts:
//	  - name: root
//	    value: "{{join}}('/srv', 'app')"
//	    export: true
//	body:
//	  - "console.log({{root}});"
//
// Code lines refer to manifest symbols with {{name}} placeholders, which are
// replaced with the names the symbols are bound to.
package manifest

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/UCNot/esgen-sub001/errors"
	"github.com/UCNot/esgen-sub001/gen"
)

// Syntax is the document syntax of a manifest.
type Syntax string

const (
	SyntaxYAML Syntax = "yaml"
	SyntaxTOML Syntax = "toml"
)

// SyntaxOf detects the manifest syntax by file extension.
func SyntaxOf(path string) (Syntax, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return SyntaxYAML, nil
	case ".toml":
		return SyntaxTOML, nil
	default:
		return "", errors.WithHint(
			errors.Newf("unsupported manifest file %s", path),
			"use a .yaml, .yml or .toml file")
	}
}

// Manifest is a declarative description of a bundle.
type Manifest struct {
	// Format is the bundle format: esm, iife or script. Defaults to esm.
	Format string `yaml:"format,omitempty" toml:"format,omitempty"`

	Imports   []Import   `yaml:"imports,omitempty" toml:"imports,omitempty"`
	Consts    []Const    `yaml:"consts,omitempty" toml:"consts,omitempty"`
	Functions []Function `yaml:"functions,omitempty" toml:"functions,omitempty"`
	Classes   []Class    `yaml:"classes,omitempty" toml:"classes,omitempty"`

	// Body lists the statements of the bundle body.
	Body []string `yaml:"body,omitempty" toml:"body,omitempty"`
}

// Import imports a symbol from a module.
type Import struct {
	Module string `yaml:"module" toml:"module"`
	Name   string `yaml:"name" toml:"name"`

	// As is the local name to request. Defaults to Name.
	As string `yaml:"as,omitempty" toml:"as,omitempty"`
}

// Key returns the placeholder name of the imported symbol.
func (i Import) Key() string {
	if i.As != "" {
		return i.As
	}
	return i.Name
}

// Const declares a top-level constant.
// Symbols its value refers to are declared before it.
type Const struct {
	Name    string `yaml:"name" toml:"name"`
	Value   string `yaml:"value" toml:"value"`
	Export  bool   `yaml:"export,omitempty" toml:"export,omitempty"`
	Comment string `yaml:"comment,omitempty" toml:"comment,omitempty"`
}

// Function declares a top-level function.
//
// Args are written as in ECMAScript: "a", "b = 1" or "...rest".
// Body lines may refer to arguments with placeholders as well.
type Function struct {
	Name      string   `yaml:"name" toml:"name"`
	Args      []string `yaml:"args,omitempty" toml:"args,omitempty"`
	Body      []string `yaml:"body,omitempty" toml:"body,omitempty"`
	Export    bool     `yaml:"export,omitempty" toml:"export,omitempty"`
	Async     bool     `yaml:"async,omitempty" toml:"async,omitempty"`
	Generator bool     `yaml:"generator,omitempty" toml:"generator,omitempty"`
	Comment   string   `yaml:"comment,omitempty" toml:"comment,omitempty"`
}

// Class declares a top-level class.
type Class struct {
	Name string `yaml:"name" toml:"name"`

	// Extends names the base class symbol.
	Extends string `yaml:"extends,omitempty" toml:"extends,omitempty"`

	Export      bool      `yaml:"export,omitempty" toml:"export,omitempty"`
	Fields      []Field   `yaml:"fields,omitempty" toml:"fields,omitempty"`
	Constructor *Function `yaml:"constructor,omitempty" toml:"constructor,omitempty"`
	Methods     []Method  `yaml:"methods,omitempty" toml:"methods,omitempty"`
	Comment     string    `yaml:"comment,omitempty" toml:"comment,omitempty"`
}

// Field is a class field.
type Field struct {
	Name   string `yaml:"name" toml:"name"`
	Value  string `yaml:"value,omitempty" toml:"value,omitempty"`
	Static bool   `yaml:"static,omitempty" toml:"static,omitempty"`
}

// Method is a class method.
type Method struct {
	Function `yaml:",inline"`
	Static   bool `yaml:"static,omitempty" toml:"static,omitempty"`
}

// Load reads a manifest file. The syntax is detected by file extension.
func Load(path string) (*Manifest, error) {
	syntax, err := SyntaxOf(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read manifest %s", path)
	}

	m, err := Parse(data, syntax)
	if err != nil {
		return nil, errors.Wrapf(err, "manifest %s", path)
	}
	return m, nil
}

// Parse decodes and validates a manifest. Unknown fields are rejected.
func Parse(data []byte, syntax Syntax) (*Manifest, error) {
	var m Manifest

	switch syntax {
	case SyntaxYAML:
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true) // catches typos like "function:" vs "functions:"
		if err := decoder.Decode(&m); err != nil && !errors.Is(err, io.EOF) {
			return nil, errors.Wrap(err, "failed to parse YAML")
		}
	case SyntaxTOML:
		decoder := toml.NewDecoder(bytes.NewReader(data))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&m); err != nil {
			return nil, errors.Wrap(err, "failed to parse TOML")
		}
	default:
		return nil, errors.Newf("unknown manifest syntax %q", syntax)
	}

	if err := m.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid manifest")
	}
	return &m, nil
}

// Validate checks required fields and symbol name uniqueness.
func (m *Manifest) Validate() error {
	if _, err := gen.ParseFormat(m.Format); err != nil {
		return err
	}

	names := make(map[string]string)
	define := func(kind, name string) error {
		if name == "" {
			return errors.Newf("%s name is required", kind)
		}
		if prior, ok := names[name]; ok {
			return errors.Newf("%s %q conflicts with %s of the same name", kind, name, prior)
		}
		names[name] = kind
		return nil
	}

	for _, imp := range m.Imports {
		if imp.Module == "" {
			return errors.Newf("import %q: module is required", imp.Name)
		}
		if err := define("import", imp.Key()); err != nil {
			return err
		}
		if imp.Name == "" {
			return errors.Newf("import from %s: name is required", imp.Module)
		}
	}
	for _, c := range m.Consts {
		if err := define("const", c.Name); err != nil {
			return err
		}
		if c.Value == "" {
			return errors.Newf("const %q: value is required", c.Name)
		}
	}
	for _, f := range m.Functions {
		if err := define("function", f.Name); err != nil {
			return err
		}
	}
	for _, c := range m.Classes {
		if err := define("class", c.Name); err != nil {
			return err
		}
		for _, method := range c.Methods {
			if method.Name == "" {
				return errors.Newf("class %q: method name is required", c.Name)
			}
		}
	}

	return nil
}

// BundleFormat returns the parsed bundle format.
func (m *Manifest) BundleFormat() gen.Format {
	format, _ := gen.ParseFormat(m.Format)
	return format
}
