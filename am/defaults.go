package am

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/UCNot/esgen-sub001/gen"
	"github.com/UCNot/esgen-sub001/printer"
)

// Default values
const (
	DefaultFormat        = "esm"
	DefaultEvalTimeoutMS = 5000
	DefaultDebounceMS    = 200
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	// Generation defaults
	v.SetDefault("generate.format", DefaultFormat)
	v.SetDefault("generate.indent", printer.DefaultIndent)
	v.SetDefault("generate.import_func", gen.DefaultImportFunc)

	// Evaluation defaults
	v.SetDefault("eval.timeout_ms", DefaultEvalTimeoutMS) // Interrupts runaway code

	// Logging defaults
	v.SetDefault("log.json", false)
	v.SetDefault("log.verbosity", 0)

	// Watch defaults
	v.SetDefault("watch.debounce_ms", DefaultDebounceMS) // Editors often write a file in several steps
}

// BundleFormat returns the parsed generate.format
func (c *Config) BundleFormat() (gen.Format, error) {
	return gen.ParseFormat(c.Generate.Format)
}

// GetIndent returns the indentation unit of generated code
func (c *Config) GetIndent() string {
	if c.Generate.Indent == "" {
		return printer.DefaultIndent
	}
	return c.Generate.Indent
}

// String returns a string representation of the config
func (c *Config) String() string {
	return fmt.Sprintf("Config{Generate: {Format: %s}, Eval: {TimeoutMS: %d}, Watch: {DebounceMS: %d}}",
		c.Generate.Format, c.Eval.TimeoutMS, c.Watch.DebounceMS)
}
