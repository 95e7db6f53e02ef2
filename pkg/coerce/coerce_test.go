package coerce

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNumeric(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected float64
	}{
		{"integer", "55", 55},
		{"decimal", "42.5", 42.5},
		{"padded", "  35 ", 35},
		{"thousands separator", "1,234,567", 1234567},
		{"negative", "-3", -3},
		{"empty", "", DefaultNumeric},
		{"whitespace only", "   ", DefaultNumeric},
		{"text", "heavy", DefaultNumeric},
		{"not a number", "NaN", DefaultNumeric},
		{"infinity", "Inf", DefaultNumeric},
		{"mixed", "12t", DefaultNumeric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Numeric(tt.raw, DefaultNumeric))
		})
	}
}

func TestInt(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		def      int64
		expected int64
	}{
		{"integer", "1480", DefaultNumeric, 1480},
		{"truncates fraction", "3025.9", DefaultNumeric, 3025},
		{"thousands separator", "7,450,000", DefaultNumeric, 7450000},
		{"empty uses default", "", DefaultNumeric, 13},
		{"garbage uses default", "n/a", DefaultNumeric, 13},
		{"custom default", "", 0, 0},
		{"too large", "1e30", DefaultNumeric, 13},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Int(tt.raw, tt.def))
		})
	}
}

func TestInt32(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected int32
	}{
		{"in range", "3025", 3025},
		{"max int32", "2147483647", 2147483647},
		{"min int32", "-2147483648", -2147483648},
		{"above int32", "9999999999", 13},
		{"below int32", "-2147483649", 13},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Int32(tt.raw, DefaultNumeric))
		})
	}
}

func TestText(t *testing.T) {
	assert.Equal(t, "Atlas AS7-D", Text("Atlas AS7-D", DefaultText))
	assert.Equal(t, "Clan", Text("  Clan\t", DefaultText))
	assert.Equal(t, DefaultText, Text("", DefaultText))
	assert.Equal(t, DefaultText, Text(" \t ", DefaultText))
	assert.Equal(t, "fallback", Text("", "fallback"))
}

func TestParseReportsSubstitution(t *testing.T) {
	_, ok := ParseNumeric("")
	assert.False(t, ok)

	v, ok := ParseNumeric("100")
	assert.True(t, ok)
	assert.Equal(t, 100.0, v)

	_, ok = ParseText("   ")
	assert.False(t, ok)
}
