package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"lowercase passthrough", "reader@example.com", "reader@example.com"},
		{"case folded", "Reader@Example.COM", "reader@example.com"},
		{"trimmed", "  bookworm  ", "bookworm"},
		{"unicode folding", "Straße", "strasse"},
		{"compatibility forms", "ﬁrst", "first"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeKey(tt.input))
		})
	}
}
