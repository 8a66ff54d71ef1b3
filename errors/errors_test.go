package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentinelMessages(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{ErrPrintedAlready, "Code printed already"},
		{ErrAllEmitted, "All code emitted already"},
		{ErrSelfInsertion, "Can not insert code fragment into itself"},
		{ErrDeclarationsPrinted, "Declarations already printed"},
		{ErrExportFormat, "Can not export from non-module bundle"},
		{ErrImportFormat, "Can not import into non-module bundle"},
		{ErrDeclarationCycle, "Declaration cycle"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestWrappedSentinelKeepsIdentity(t *testing.T) {
	err := PrintedAlready("span %d", 3)

	assert.True(t, Is(err, ErrPrintedAlready))
	assert.Contains(t, err.Error(), "span 3")
	assert.Contains(t, err.Error(), "Code printed already")
}

func TestIsUsageError(t *testing.T) {
	assert.True(t, IsUsageError(Wrap(ErrSelfInsertion, "inserting body")))
	assert.True(t, IsUsageError(DeclarationsPrinted("symbol %q", "x")))
	assert.False(t, IsUsageError(New("emitter failed")))
	assert.False(t, IsUsageError(nil))
}

func TestCombineErrors(t *testing.T) {
	first := New("first emitter")
	second := New("second emitter")

	combined := CombineErrors(first, second)
	require.NotNil(t, combined)
	assert.True(t, Is(combined, first))
	assert.Nil(t, CombineErrors(nil, nil))
	assert.Equal(t, second, CombineErrors(nil, second))
}

func TestWithHint(t *testing.T) {
	err := WithHint(ErrExportFormat, "generate with the esm format")

	hints := GetAllHints(err)
	require.Len(t, hints, 1)
	assert.Equal(t, "generate with the esm format", hints[0])
	assert.True(t, Is(err, ErrExportFormat))
}

func TestStackTrace(t *testing.T) {
	err := New("with stack")

	detailed := fmt.Sprintf("%+v", err)
	assert.Contains(t, detailed, "errors_test.go")
}

func TestNilHandling(t *testing.T) {
	assert.Nil(t, Wrap(nil, "context"))
	assert.Nil(t, Wrapf(nil, "context %d", 1))
	assert.Nil(t, WithStack(nil))
	assert.Nil(t, WithHint(nil, "hint"))
}

func ExampleWrap() {
	err := Wrap(ErrAllEmitted, "failed to add body")
	fmt.Println(err)
	// Output: failed to add body: All code emitted already
}
