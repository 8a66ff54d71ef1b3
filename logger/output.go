package logger

// Output controls what categories of information are shown at each verbosity level.
//
// Unlike log levels (which filter by severity), output categories control
// WHAT types of information are displayed regardless of severity.

// OutputCategory defines a category of output that can be enabled/disabled
type OutputCategory int

const (
	// Level 0 (default) - Always shown
	OutputResults OutputCategory = iota // Generated code, evaluation results
	OutputErrors                        // Errors with hints

	// Level 1 (-v) - Informational
	OutputProgress // Files written, watch reloads
	OutputSummary  // Bundle summaries (declarations, imports)

	// Level 2 (-vv) - Detailed
	OutputTiming // Generation timing
	OutputConfig // Config values loaded/applied

	// Level 3 (-vvv) - Debug
	OutputBindings // Namespace bindings and renames

	// Level 4 (-vvvv) - Full dump
	OutputSourceDump // Full generated text of failed evaluations
)

// categoryLevels maps each output category to its minimum verbosity level
var categoryLevels = map[OutputCategory]int{
	OutputResults:    VerbosityUser,
	OutputErrors:     VerbosityUser,
	OutputProgress:   VerbosityInfo,
	OutputSummary:    VerbosityInfo,
	OutputTiming:     VerbosityDebug,
	OutputConfig:     VerbosityDebug,
	OutputBindings:   VerbosityTrace,
	OutputSourceDump: VerbosityAll,
}

// ShouldOutput returns true if the given category should be shown at the given verbosity
func ShouldOutput(verbosity int, category OutputCategory) bool {
	minLevel, ok := categoryLevels[category]
	if !ok {
		// Unknown category, default to highest verbosity required
		return verbosity >= VerbosityAll
	}
	return verbosity >= minLevel
}
