// Package errors provides error handling for esgen.
//
// This package re-exports github.com/cockroachdb/errors, providing:
//   - Stack traces for debugging generation failures
//   - Error wrapping and context
//   - User-facing hints
//
// Usage:
//
//	// Create new error
//	err := errors.New("something went wrong")
//
//	// Wrap with context
//	if err := span.Emit(emitter); err != nil {
//	    return errors.Wrap(err, "failed to emit body")
//	}
//
//	// Check errors
//	if errors.Is(err, errors.ErrPrintedAlready) {
//	    // code was added too late
//	}
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
	Mark         = crdb.Mark
)

// User-facing messages and details
var (
	WithHint           = crdb.WithHint
	WithHintf          = crdb.WithHintf
	WithDetail         = crdb.WithDetail
	WithDetailf        = crdb.WithDetailf
	WithSecondaryError = crdb.WithSecondaryError
	CombineErrors      = crdb.CombineErrors
)

// Error inspection
var (
	Is             = crdb.Is
	IsAny          = crdb.IsAny
	As             = crdb.As
	Unwrap         = crdb.Unwrap
	UnwrapOnce     = crdb.UnwrapOnce
	UnwrapAll      = crdb.UnwrapAll
	GetAllHints    = crdb.GetAllHints
	GetAllDetails  = crdb.GetAllDetails
	FlattenHints   = crdb.FlattenHints
	FlattenDetails = crdb.FlattenDetails
)

// Assertions and panics
var (
	AssertionFailedf                 = crdb.AssertionFailedf
	NewAssertionErrorWithWrappedErrf = crdb.NewAssertionErrorWithWrappedErrf
	HasAssertionFailure              = crdb.HasAssertionFailure
)

// Sentinel errors of the generation engine.
// Their messages are stable: callers and tests may rely on the text.
// Wrap these with errors.Wrap() to add context while preserving the identity.
var (
	// ErrPrintedAlready is returned when code is added to a span after it was printed
	ErrPrintedAlready = New("Code printed already")

	// ErrAllEmitted is returned when a span is requested from a completed bundle
	ErrAllEmitted = New("All code emitted already")

	// ErrSelfInsertion is returned when a code fragment is inserted into itself
	ErrSelfInsertion = New("Can not insert code fragment into itself")

	// ErrDeclarationsPrinted is returned when a new symbol is declared after
	// the declarations have been printed
	ErrDeclarationsPrinted = New("Declarations already printed")

	// ErrNamespaceFrozen is returned when a new symbol is bound in a frozen namespace
	ErrNamespaceFrozen = New("Namespace frozen")

	// ErrExportFormat is returned when a symbol is exported from a bundle
	// whose format can not export
	ErrExportFormat = New("Can not export from non-module bundle")

	// ErrImportFormat is returned when a module is imported into a bundle
	// whose format can not import
	ErrImportFormat = New("Can not import into non-module bundle")

	// ErrDeclarationCycle is returned when declarations refer to each other
	ErrDeclarationCycle = New("Declaration cycle")

	// ErrMemberConflict is returned when a class member is redeclared
	// inconsistently with its prior declaration
	ErrMemberConflict = New("Member declaration conflict")

	// ErrUnsafeExport is returned when an exported name is not a safe identifier
	ErrUnsafeExport = New("Can not export unsafe identifier")
)

// IsUsageError reports whether err is a programmer error of the engine:
// mutation of a frozen or printed structure, self-insertion or an invalid export.
func IsUsageError(err error) bool {
	return err != nil && IsAny(err,
		ErrPrintedAlready,
		ErrAllEmitted,
		ErrSelfInsertion,
		ErrDeclarationsPrinted,
		ErrNamespaceFrozen,
		ErrExportFormat,
		ErrImportFormat,
		ErrDeclarationCycle,
		ErrMemberConflict,
		ErrUnsafeExport,
	)
}

// Newf variants of the sentinels, keeping the sentinel identity while adding context.

// PrintedAlready marks a formatted error as ErrPrintedAlready.
func PrintedAlready(format string, args ...interface{}) error {
	return Wrapf(ErrPrintedAlready, format, args...)
}

// DeclarationsPrinted marks a formatted error as ErrDeclarationsPrinted.
func DeclarationsPrinted(format string, args ...interface{}) error {
	return Wrapf(ErrDeclarationsPrinted, format, args...)
}
