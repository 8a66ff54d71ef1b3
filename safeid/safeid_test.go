package safeid

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSafe(t *testing.T) {
	tests := []struct {
		name string
		id   string
		want string
	}{
		{name: "plain identifier", id: "value", want: "value"},
		{name: "underscore", id: "_private", want: "_private"},
		{name: "unicode letters", id: "значение", want: "значение"},
		{name: "digits after start", id: "a1", want: "a1"},
		{name: "empty", id: "", want: "__$__"},
		{name: "reserved word", id: "if", want: "__if__"},
		{name: "reserved in module code", id: "await", want: "__await__"},
		{name: "natural wrapped reserved word", id: "__if__", want: "$__if__"},
		{name: "wrapped non-reserved", id: "__foo__", want: "__foo__"},
		{name: "dollar", id: "a$b", want: "a$$b"},
		{name: "leading dollar", id: "$", want: "$$"},
		{name: "dash", id: "a-b", want: "a$u2D$b"},
		{name: "space", id: "a b", want: "a$u20$b"},
		{name: "leading digit", id: "1st", want: "$u31$st"},
		{name: "emoji", id: "x🙂", want: "x$u1F642$"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Safe(tt.id)
			assert.Equal(t, tt.want, got)
			assert.True(t, IsSafe(got), "Safe(%q) = %q is not safe", tt.id, got)
		})
	}
}

func TestSafe_Stable(t *testing.T) {
	for _, id := range []string{"if", "a-b", "", "x y z"} {
		assert.Equal(t, Safe(id), Safe(id))
	}
}

func TestSafe_NormalizesUnicode(t *testing.T) {
	// "e" followed by a combining acute accent composes to "é"
	assert.Equal(t, "caf\u00e9", Safe("cafe\u0301"))
}

func TestSafe_Injective(t *testing.T) {
	inputs := []string{
		"", "__$__", "if", "__if__", "$__if__", "$", "$$", "a$b", "a$$b",
		"a-b", "a$u2D$b", "1st", "$u31$st", "a b", "ab",
	}
	seen := make(map[string]string)
	for _, id := range inputs {
		got := Safe(id)
		if prev, ok := seen[got]; ok {
			t.Fatalf("Safe(%q) and Safe(%q) both produce %q", prev, id, got)
		}
		seen[got] = id
	}
}

func TestSafe_NeverLooksSuffixed(t *testing.T) {
	for _, id := range []string{"a$0", "x$1", "$9", "a-0"} {
		got := Safe(id)
		for i := 0; i+1 < len(got); i++ {
			if got[i] == '$' && got[i+1] >= '0' && got[i+1] <= '9' {
				// only an escaped "$$" may precede a digit
				assert.True(t, i > 0 && got[i-1] == '$', "Safe(%q) = %q", id, got)
			}
		}
	}
}

func TestIsSafe(t *testing.T) {
	assert.True(t, IsSafe("abc"))
	assert.True(t, IsSafe("$el"))
	assert.False(t, IsSafe(""))
	assert.False(t, IsSafe("class"))
	assert.False(t, IsSafe("1a"))
	assert.False(t, IsSafe("a.b"))
}

func TestIsName(t *testing.T) {
	assert.True(t, IsName("class"))
	assert.True(t, IsName("x"))
	assert.False(t, IsName("a-b"))
	assert.False(t, IsName(""))
}
