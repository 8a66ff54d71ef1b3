// Package commands implements the esgen CLI commands.
package commands

// Verbosity is the effective -v count, set by the root command before any command runs
var Verbosity int
