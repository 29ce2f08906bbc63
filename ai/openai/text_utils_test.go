package openai

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClipText(t *testing.T) {
	t.Run("short text unchanged", func(t *testing.T) {
		assert.Equal(t, "hello world", clipText("hello world", 100))
	})

	t.Run("clips at word boundary", func(t *testing.T) {
		got := clipText("one two three four", 12)
		assert.Equal(t, "one two", got)
	})

	t.Run("zero max disables clipping", func(t *testing.T) {
		long := strings.Repeat("x ", 500)
		assert.Equal(t, strings.TrimSpace(long), clipText(long, 0))
	})
}

func TestRepairJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"valid untouched", `{"bias": 0.5}`, `{"bias": 0.5}`},
		{"missing opening quote", `{bias": 0.5}`, `{"bias": 0.5}`},
		{"missing quote after comma", `{"a": 1, bias": 0.5}`, `{"a": 1, "bias": 0.5}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, repairJSON(tt.in))
		})
	}
}
