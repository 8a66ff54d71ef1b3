package main

import (
	"fmt"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/UCNot/esgen-sub001/am"
	"github.com/UCNot/esgen-sub001/cmd/esgen/commands"
	"github.com/UCNot/esgen-sub001/errors"
	"github.com/UCNot/esgen-sub001/logger"
)

var rootCmd = &cobra.Command{
	Use:   "esgen",
	Short: "esgen - ECMAScript code generator",
	Long: `esgen - ECMAScript code generator.

esgen generates ES modules and async IIFE bundles from declaration manifests:
imports, constants, functions and classes written in YAML or TOML, with
{{name}} placeholders referring to other declarations. Names are resolved
so that generated code never shadows or collides.

Available commands:
  generate - Generate code from manifests
  eval     - Evaluate a manifest and print its exports
  check    - Check that a generated file is up to date
  watch    - Regenerate code whenever a manifest changes
  config   - Manage esgen configuration

Examples:
  esgen generate app.yaml        # Print generated ES module
  esgen eval app.yaml            # Print the values app.yaml exports
  esgen config show              # Show current configuration`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbose, _ := cmd.Flags().GetCount("verbose")
		jsonOutput, _ := cmd.Flags().GetBool("json-log")

		// Broken config must not prevent fixing it
		if cmd.Parent() == nil || cmd.Parent().Name() != "config" {
			cfg, err := am.Load()
			if err != nil {
				return errors.Wrap(err, "failed to load config")
			}
			verbose = max(verbose, cfg.Log.Verbosity)
			jsonOutput = jsonOutput || cfg.Log.JSON
			defer func() {
				if logger.ShouldOutput(verbose, logger.OutputConfig) {
					logger.Debugw("Config loaded", "config", cfg.String())
				}
			}()
		}

		commands.Verbosity = verbose
		if err := logger.Initialize(jsonOutput, verbose); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logger.Debugw("Logger initialized", "verbosity", logger.LevelName(verbose))
		return nil
	},
}

func init() {
	// Add global flags
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv, -vvv)")
	rootCmd.PersistentFlags().Bool("json-log", false, "Write logs as JSON")

	// Add commands
	rootCmd.AddCommand(commands.GenerateCmd)
	rootCmd.AddCommand(commands.EvalCmd)
	rootCmd.AddCommand(commands.CheckCmd)
	rootCmd.AddCommand(commands.WatchCmd)
	rootCmd.AddCommand(commands.ConfigCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	err := rootCmd.Execute()
	logger.Cleanup()
	if err != nil {
		pterm.Error.Println(err)
		for _, hint := range errors.GetAllHints(err) {
			pterm.Info.Println(hint)
		}
		if logger.ShouldOutput(commands.Verbosity, logger.OutputSourceDump) {
			fmt.Fprintf(os.Stderr, "%+v\n", err)
		}
		os.Exit(1)
	}
}
