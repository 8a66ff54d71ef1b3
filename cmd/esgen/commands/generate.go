package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/UCNot/esgen-sub001/am"
	"github.com/UCNot/esgen-sub001/errors"
	"github.com/UCNot/esgen-sub001/logger"
)

// GenerateCmd generates code from manifests
var GenerateCmd = &cobra.Command{
	Use:   "generate <manifest>...",
	Short: "Generate code from manifests",
	Long: `Generate ECMAScript code from declaration manifests (YAML or TOML).

With a single manifest and no --out, the code is printed to stdout.
With several manifests, each is written next to its manifest (app.yaml -> app.js),
or into the --out directory.

Examples:
  esgen generate app.yaml                 # Print ES module code
  esgen generate app.yaml -f iife         # Print an async IIFE
  esgen generate app.yaml -o dist/app.js  # Write to a file
  esgen generate *.toml -o dist           # Generate several manifests concurrently`,
	Args: cobra.MinimumNArgs(1),
	RunE: runGenerate,
}

var (
	generateFormat string
	generateOut    string
)

func init() {
	GenerateCmd.Flags().StringVarP(&generateFormat, "format", "f", "", "Bundle format: esm, iife, script (default: manifest, then config)")
	GenerateCmd.Flags().StringVarP(&generateOut, "out", "o", "", "Output file, or directory with several manifests")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	opts := renderOptionsFromConfig(cfg, generateFormat)

	outputs := make([]string, len(args))
	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, path := range args {
		g.Go(func() error {
			text, err := renderManifest(ctx, path, cfg, opts)
			if err != nil {
				return err
			}
			outputs[i] = text
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if len(args) == 1 && generateOut == "" {
		_, err := fmt.Fprint(cmd.OutOrStdout(), outputs[0])
		return err
	}

	for i, path := range args {
		target := outputTarget(path, generateOut, len(args) > 1)
		if err := writeOutput(target, outputs[i]); err != nil {
			return err
		}
		logger.Infow("Code written", logger.FieldFile, target, logger.FieldPath, path)
		if !logger.JSONOutput {
			pterm.Success.Printf("%s -> %s\n", path, target)
		}
	}
	return nil
}

// outputTarget resolves where the code of manifestPath goes
func outputTarget(manifestPath, out string, many bool) string {
	switch {
	case out == "":
		return outputPath(manifestPath)
	case many:
		return filepath.Join(out, filepath.Base(outputPath(manifestPath)))
	default:
		return out
	}
}

func writeOutput(path, text string) error {
	if err := os.MkdirAll(filepath.Dir(path), am.DefaultDirPermissions); err != nil {
		return errors.Wrapf(err, "failed to create directory for %s", path)
	}
	if err := os.WriteFile(path, []byte(text), am.DefaultFilePermissions); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return nil
}
