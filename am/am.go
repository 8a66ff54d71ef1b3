// Package am holds the esgen configuration.
//
// Configuration is merged from, in increasing precedence: built-in defaults,
// /etc/esgen/esgen.toml, ~/.esgen/esgen.toml, the nearest esgen.toml found
// walking up from the working directory, and ESGEN_* environment variables
// (e.g. ESGEN_GENERATE_FORMAT).
package am

import "time"

// Config represents the esgen configuration
type Config struct {
	Generate GenerateConfig `mapstructure:"generate"`
	Eval     EvalConfig     `mapstructure:"eval"`
	Log      LogConfig      `mapstructure:"log"`
	Watch    WatchConfig    `mapstructure:"watch"`
}

// GenerateConfig configures code generation
type GenerateConfig struct {
	Format     string `mapstructure:"format"`      // Bundle format: esm, iife, script (default: esm)
	Indent     string `mapstructure:"indent"`      // Indentation unit of generated code (default: two spaces)
	ImportFunc string `mapstructure:"import_func"` // Dynamic import expression of IIFE bundles (default: import)
}

// EvalConfig configures evaluation of generated code
type EvalConfig struct {
	TimeoutMS int `mapstructure:"timeout_ms"` // Evaluation timeout: 0 = no timeout (default: 5000)
}

// LogConfig configures logging
type LogConfig struct {
	JSON      bool `mapstructure:"json"`      // JSON log output instead of console
	Verbosity int  `mapstructure:"verbosity"` // Same scale as the -v flag count (default: 0)
}

// WatchConfig configures the watch command
type WatchConfig struct {
	DebounceMS int `mapstructure:"debounce_ms"` // Delay before regenerating after a change (default: 200)
}

// Timeout returns the evaluation timeout, zero when disabled.
func (c EvalConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// Debounce returns the watch debounce period.
func (c WatchConfig) Debounce() time.Duration {
	return time.Duration(c.DebounceMS) * time.Millisecond
}

// Configuration file names and locations
const (
	ConfigFileName  = "esgen.toml"
	UserConfigDir   = ".esgen"
	SystemConfigDir = "/etc/esgen"
	EnvPrefix       = "ESGEN"
)

// File system constants
const (
	DefaultDirPermissions  = 0755 // Standard directory permissions (rwxr-xr-x)
	DefaultFilePermissions = 0644 // Standard file permissions (rw-r--r--)
)
