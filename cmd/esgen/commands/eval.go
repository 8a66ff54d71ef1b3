package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"reflect"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/UCNot/esgen-sub001/am"
	"github.com/UCNot/esgen-sub001/errors"
	"github.com/UCNot/esgen-sub001/eval"
	"github.com/UCNot/esgen-sub001/logger"
)

// EvalCmd evaluates a manifest and prints its exports
var EvalCmd = &cobra.Command{
	Use:   "eval <manifest>",
	Short: "Evaluate a manifest and print its exports",
	Long: `Generate the code of a manifest as an async IIFE, evaluate it in an
embedded JavaScript runtime and print the exported values as JSON.

Imported modules are provided by a host file mapping module names to their
exports (YAML or JSON):

  node:path:
    sep: /
  ./config.js:
    port: 8080

Functions are printed as "[Function]".

Examples:
  esgen eval app.yaml                        # Evaluate without imports
  esgen eval app.yaml --host modules.yaml    # Provide imported modules
  esgen eval app.yaml --timeout 100          # Interrupt after 100ms`,
	Args: cobra.ExactArgs(1),
	RunE: runEval,
}

var (
	evalHost      string
	evalTimeoutMS int
)

func init() {
	EvalCmd.Flags().StringVar(&evalHost, "host", "", "File with the modules available to imports")
	EvalCmd.Flags().IntVar(&evalTimeoutMS, "timeout", -1, "Evaluation timeout in milliseconds, 0 = none (default: config eval.timeout_ms)")
}

func runEval(cmd *cobra.Command, args []string) error {
	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}

	host, err := loadHostModules(evalHost)
	if err != nil {
		return err
	}

	timeout := cfg.Eval.Timeout()
	if evalTimeoutMS >= 0 {
		timeout = am.EvalConfig{TimeoutMS: evalTimeoutMS}.Timeout()
	}

	// Evaluated bundles import through the host function, whatever the config says
	opts := renderOptionsFromConfig(cfg, "iife")
	opts.ImportFunc = eval.ImportFunc

	source, err := renderManifest(cmd.Context(), args[0], cfg, opts)
	if err != nil {
		return err
	}

	exports, err := eval.Run(cmd.Context(), eval.Options{
		Host:    host,
		Timeout: timeout,
		Console: cmd.ErrOrStderr(),
		Logger:  logger.ComponentLogger("eval").With(logger.FieldFile, args[0]),
	}, source)
	if err != nil {
		var evalErr *eval.Error
		if errors.As(err, &evalErr) && logger.ShouldOutput(Verbosity, logger.OutputSourceDump) {
			fmt.Fprintln(cmd.ErrOrStderr(), evalErr.Source)
		}
		return err
	}

	data, err := json.MarshalIndent(jsonValue(exports), "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal exports to JSON")
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}

// loadHostModules reads host modules from a YAML or JSON file
func loadHostModules(path string) (eval.HostModules, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read host modules %s", path)
	}
	var host eval.HostModules
	if err := yaml.Unmarshal(data, &host); err != nil {
		return nil, errors.WithHint(
			errors.Wrapf(err, "failed to parse host modules %s", path),
			"map module names to objects of exported values")
	}
	return host, nil
}

// jsonValue replaces values JSON can not represent, such as functions
func jsonValue(value any) any {
	if value == nil {
		return nil
	}
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[key] = jsonValue(item)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = jsonValue(item)
		}
		return out
	}
	switch reflect.TypeOf(value).Kind() {
	case reflect.Func:
		return "[Function]"
	case reflect.Chan, reflect.UnsafePointer:
		return fmt.Sprintf("[%T]", value)
	}
	return value
}
