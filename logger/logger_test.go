package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestInitialize(t *testing.T) {
	tests := []struct {
		name       string
		jsonOutput bool
		verbosity  int
	}{
		{name: "JSON output mode", jsonOutput: true, verbosity: VerbosityInfo},
		{name: "Console output mode", jsonOutput: false, verbosity: VerbosityDebug},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() { Logger = zap.NewNop().Sugar() }()

			err := Initialize(tt.jsonOutput, tt.verbosity)
			require.NoError(t, err)
			require.NotNil(t, Logger)
			assert.Equal(t, tt.jsonOutput, JSONOutput)
		})
	}
}

func TestVerbosityToLevel(t *testing.T) {
	assert.Equal(t, zapcore.WarnLevel, VerbosityToLevel(VerbosityUser))
	assert.Equal(t, zapcore.InfoLevel, VerbosityToLevel(VerbosityInfo))
	assert.Equal(t, zapcore.DebugLevel, VerbosityToLevel(VerbosityDebug))
	assert.Equal(t, zapcore.DebugLevel, VerbosityToLevel(7))
	assert.Equal(t, zapcore.WarnLevel, VerbosityToLevel(-1))
}

func TestShouldOutput(t *testing.T) {
	assert.True(t, ShouldOutput(VerbosityUser, OutputResults))
	assert.False(t, ShouldOutput(VerbosityUser, OutputProgress))
	assert.True(t, ShouldOutput(VerbosityInfo, OutputProgress))
	assert.False(t, ShouldOutput(VerbosityDebug, OutputBindings))
	assert.True(t, ShouldOutput(VerbosityTrace, OutputBindings))
	assert.False(t, ShouldOutput(VerbosityTrace, OutputCategory(99)))
}

func TestLevelName(t *testing.T) {
	assert.Equal(t, "User", LevelName(0))
	assert.Equal(t, "Trace (-vvv)", LevelName(3))
	assert.Equal(t, "All (-vvvv+)", LevelName(9))
	assert.Equal(t, "Unknown", LevelName(-2))
}

func TestFieldsFromContext(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, FieldsFromContext(ctx))

	ctx = WithBundleID(ctx, "b-1")
	ctx = WithComponent(ctx, "gen.bundle")

	fields := FieldsFromContext(ctx)
	assert.Equal(t, []interface{}{FieldBundleID, "b-1", FieldComponent, "gen.bundle"}, fields)
}

func TestLoggerFromContextWithoutFields(t *testing.T) {
	assert.Same(t, Logger, LoggerFromContext(context.Background()))
}

func TestLoggingFunctionsWithNilLogger(t *testing.T) {
	saved := Logger
	Logger = nil
	defer func() { Logger = saved }()

	assert.NotPanics(t, func() {
		Infow("info", "k", "v")
		Warnw("warn")
		Errorw("error")
		Debugw("debug")
		Cleanup()
	})
}
