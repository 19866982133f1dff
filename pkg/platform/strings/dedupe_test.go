package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeAndTrim(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{
			name:     "nil slice",
			input:    nil,
			expected: nil,
		},
		{
			name:     "empty slice",
			input:    []string{},
			expected: []string{},
		},
		{
			name:     "trims whitespace",
			input:    []string{"  Abu Nidal  ", "ANO  ", "  Black September"},
			expected: []string{"Abu Nidal", "ANO", "Black September"},
		},
		{
			name:     "removes duplicates preserving order",
			input:    []string{"ANO", "Abu Nidal", "ANO", "Black September", "Abu Nidal"},
			expected: []string{"ANO", "Abu Nidal", "Black September"},
		},
		{
			name:     "removes empty strings",
			input:    []string{"ANO", "", "  ", "Abu Nidal"},
			expected: []string{"ANO", "Abu Nidal"},
		},
		{
			name:     "preserves case",
			input:    []string{"Ano", "ano", "ANO"},
			expected: []string{"Ano", "ano", "ANO"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := DedupeAndTrim(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestDedupeAndTrimLower(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{
			name:     "nil slice",
			input:    nil,
			expected: nil,
		},
		{
			name:     "lowercases and dedupes",
			input:    []string{"EU", "eu", "Eu"},
			expected: []string{"eu"},
		},
		{
			name:     "trims, lowercases, and dedupes",
			input:    []string{"  EU ", "un", "Eu", "UN"},
			expected: []string{"eu", "un"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := DedupeAndTrimLower(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestSortedCopy(t *testing.T) {
	input := []string{"smith", "john", "abdul"}
	sorted := SortedCopy(input)

	assert.Equal(t, []string{"abdul", "john", "smith"}, sorted)
	assert.Equal(t, []string{"smith", "john", "abdul"}, input, "input must not be mutated")
}
