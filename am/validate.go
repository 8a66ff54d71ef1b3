package am

import (
	"strings"

	"github.com/UCNot/esgen-sub001/errors"
	"github.com/UCNot/esgen-sub001/safeid"
)

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if _, err := c.BundleFormat(); err != nil {
		return errors.Wrap(err, "generate.format")
	}

	// Indentation must not break lines; empty means the default
	if strings.ContainsAny(c.Generate.Indent, "\r\n") {
		return errors.Newf("generate.indent must not contain line breaks, got %q", c.Generate.Indent)
	}
	if strings.TrimSpace(c.Generate.Indent) != "" {
		return errors.Newf("generate.indent must be whitespace, got %q", c.Generate.Indent)
	}

	// Import function is written into generated code as is
	if c.Generate.ImportFunc != "" && !safeid.IsName(c.Generate.ImportFunc) {
		return errors.WithHint(
			errors.Newf("generate.import_func must be an identifier, got %q", c.Generate.ImportFunc),
			"omit it to use the dynamic import expression")
	}

	// Eval timeout: 0 = no timeout, negative = invalid
	if c.Eval.TimeoutMS < 0 {
		return errors.Newf("eval.timeout_ms must be >= 0, got %d", c.Eval.TimeoutMS)
	}

	// Watch debounce: 0 = regenerate on every event, negative = invalid
	if c.Watch.DebounceMS < 0 {
		return errors.Newf("watch.debounce_ms must be >= 0, got %d", c.Watch.DebounceMS)
	}

	if c.Log.Verbosity < 0 {
		return errors.Newf("log.verbosity must be >= 0, got %d", c.Log.Verbosity)
	}

	return nil
}
