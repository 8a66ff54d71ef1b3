package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/UCNot/esgen-sub001/am"
	"github.com/UCNot/esgen-sub001/errors"
)

// ErrOutOfDate is returned by check when a generated file differs from its manifest
var ErrOutOfDate = errors.New("generated file is out of date")

// CheckCmd verifies generated files are up to date
var CheckCmd = &cobra.Command{
	Use:   "check <manifest> [file]",
	Short: "Check that a generated file is up to date",
	Long: `Regenerate the code of a manifest and compare it to a file generated before.
The file defaults to the one generate writes next to the manifest (app.yaml -> app.js).

Exits with a non-zero status when the file is missing or differs.

Examples:
  esgen check app.yaml               # Compare with app.js
  esgen check app.yaml dist/app.js   # Compare with another file`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runCheck,
}

var checkFormat string

func init() {
	CheckCmd.Flags().StringVarP(&checkFormat, "format", "f", "", "Bundle format the file was generated with")
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}

	target := outputPath(args[0])
	if len(args) > 1 {
		target = args[1]
	}

	expected, err := renderManifest(cmd.Context(), args[0], cfg, renderOptionsFromConfig(cfg, checkFormat))
	if err != nil {
		return err
	}

	actual, err := os.ReadFile(target)
	if err != nil {
		return errors.WithHint(
			errors.Wrapf(ErrOutOfDate, "%s: %v", target, err),
			fmt.Sprintf("run: esgen generate %s -o %s", args[0], target))
	}

	if line, ok := firstDifference(expected, string(actual)); !ok {
		pterm.Error.Printf("%s differs from %s at line %d\n", target, args[0], line)
		return errors.WithHint(
			errors.Wrapf(ErrOutOfDate, "%s line %d", target, line),
			fmt.Sprintf("run: esgen generate %s -o %s", args[0], target))
	}

	pterm.Success.Printf("%s is up to date\n", target)
	return nil
}

// firstDifference returns the 1-based number of the first line that differs,
// and false, or 0 and true when the texts are equal
func firstDifference(expected, actual string) (int, bool) {
	if expected == actual {
		return 0, true
	}
	expectedLines := strings.SplitAfter(expected, "\n")
	actualLines := strings.SplitAfter(actual, "\n")
	for i := range expectedLines {
		if i >= len(actualLines) || expectedLines[i] != actualLines[i] {
			return i + 1, false
		}
	}
	return len(expectedLines) + 1, false
}
