package commands

import (
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/UCNot/esgen-sub001/am"
	"github.com/UCNot/esgen-sub001/errors"
	"github.com/UCNot/esgen-sub001/logger"
)

// WatchCmd regenerates code whenever a manifest changes
var WatchCmd = &cobra.Command{
	Use:   "watch <manifest>",
	Short: "Regenerate code whenever a manifest changes",
	Long: `Generate the code of a manifest, then regenerate it each time the manifest
or the project configuration changes. Stop with Ctrl+C.

Examples:
  esgen watch app.yaml                  # Write app.js next to the manifest
  esgen watch app.yaml -o dist/app.js   # Write to another file`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

var (
	watchFormat string
	watchOut    string
)

func init() {
	WatchCmd.Flags().StringVarP(&watchFormat, "format", "f", "", "Bundle format: esm, iife, script")
	WatchCmd.Flags().StringVarP(&watchOut, "out", "o", "", "Output file (default: next to the manifest)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	path := args[0]
	target := outputTarget(path, watchOut, false)

	paths := []string{path}
	if project := am.FindProjectConfig(); project != "" {
		paths = append(paths, project)
	}

	watcher, err := am.NewWatcher(cfg.Watch.Debounce(), paths...)
	if err != nil {
		return err
	}
	defer watcher.Stop()
	am.SetGlobalWatcher(watcher)
	defer am.SetGlobalWatcher(nil)

	regenerate := func(cfg *am.Config) error {
		text, err := renderManifest(ctx, path, cfg, renderOptionsFromConfig(cfg, watchFormat))
		if err != nil {
			// Keep watching: the next save may fix the manifest
			pterm.Error.Println(err)
			return nil
		}
		if err := writeOutput(target, text); err != nil {
			return err
		}
		logger.Infow("Code written", logger.FieldFile, target, logger.FieldPath, path)
		pterm.Success.Printf("%s -> %s\n", path, target)
		return nil
	}

	manifestPath, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrapf(err, "failed to resolve %s", path)
	}
	watcher.OnChange(func(changed []string) error {
		for _, file := range changed {
			if file == manifestPath {
				current, err := am.Load()
				if err != nil {
					return err
				}
				return regenerate(current)
			}
		}
		return nil
	})
	watcher.OnConfigReload(regenerate)

	if err := regenerate(cfg); err != nil {
		return err
	}

	watcher.Start()
	pterm.Info.Printf("Watching %s (press Ctrl+C to stop)\n", path)

	<-ctx.Done()
	pterm.Info.Println("Stopped watching")
	return nil
}
