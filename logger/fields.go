package logger

import (
	"context"

	"go.uber.org/zap"
)

// Standard field names for consistent structured logging across esgen.
// Use these constants instead of raw strings to ensure consistency.
const (
	// Identity and context
	FieldBundleID  = "bundle_id"
	FieldRequestID = "request_id"

	// Components
	FieldComponent = "component"

	// Generation
	FieldFormat    = "format"
	FieldSymbol    = "symbol"
	FieldName      = "name"
	FieldModule    = "module"
	FieldScope     = "scope"
	FieldExported  = "exported"
	FieldRefs      = "refs"
	FieldSpans     = "spans"
	FieldEmitters  = "emitters"
	FieldOperation = "operation"

	// Timing
	FieldDurationMS = "duration_ms"

	// Errors
	FieldError     = "error"
	FieldErrorType = "error_type"

	// Counts and sizes
	FieldCount = "count"
	FieldLines = "lines"
	FieldSize  = "size"

	// Files and paths
	FieldFile = "file"
	FieldPath = "path"
)

// Context keys for propagating logging context
type contextKey string

const (
	bundleIDKey  contextKey = "logger_bundle_id"
	requestIDKey contextKey = "logger_request_id"
	componentKey contextKey = "logger_component"
)

// WithBundleID adds a bundle ID to the context for logging
func WithBundleID(ctx context.Context, bundleID string) context.Context {
	return context.WithValue(ctx, bundleIDKey, bundleID)
}

// WithRequestID adds a request ID to the context for logging
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// WithComponent adds a component name to the context for logging
func WithComponent(ctx context.Context, component string) context.Context {
	return context.WithValue(ctx, componentKey, component)
}

// FieldsFromContext extracts logging fields from context.
// Returns key-value pairs suitable for use with Infow/Errorw/etc.
func FieldsFromContext(ctx context.Context) []interface{} {
	var fields []interface{}

	if bundleID, ok := ctx.Value(bundleIDKey).(string); ok && bundleID != "" {
		fields = append(fields, FieldBundleID, bundleID)
	}
	if requestID, ok := ctx.Value(requestIDKey).(string); ok && requestID != "" {
		fields = append(fields, FieldRequestID, requestID)
	}
	if component, ok := ctx.Value(componentKey).(string); ok && component != "" {
		fields = append(fields, FieldComponent, component)
	}

	return fields
}

// LoggerFromContext returns a logger with fields extracted from context.
func LoggerFromContext(ctx context.Context) *zap.SugaredLogger {
	fields := FieldsFromContext(ctx)
	if len(fields) == 0 {
		return Logger
	}
	return Logger.With(fields...)
}

// ComponentLogger returns a named logger for a specific component.
// This is the preferred way to get a logger for dependency injection.
//
// Example:
//
//	type Bundle struct {
//	    log *zap.SugaredLogger
//	}
//
//	func NewBundle() *Bundle {
//	    return &Bundle{
//	        log: logger.ComponentLogger("gen.bundle"),
//	    }
//	}
func ComponentLogger(name string) *zap.SugaredLogger {
	return Logger.Named(name)
}

// ChildLogger creates a child logger with additional context.
//
// Example:
//
//	bundleLog := logger.ChildLogger(baseLogger, logger.FieldBundleID, bundle.ID())
func ChildLogger(parent *zap.SugaredLogger, keysAndValues ...interface{}) *zap.SugaredLogger {
	return parent.With(keysAndValues...)
}
