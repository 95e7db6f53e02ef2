// Package coerce turns loosely typed CSV cells into typed values. Every function
// is total: a cell that cannot be read yields the supplied default.
package coerce

import (
	"math"
	"strconv"
	"strings"
)

const (
	// DefaultNumeric replaces missing, empty or non-numeric numeric cells.
	DefaultNumeric = 13
	// DefaultText replaces missing or empty text cells.
	DefaultText = "<empty-placeholder>"
)

// ParseNumeric reads a number from raw, accepting surrounding whitespace and
// comma thousands separators. NaN and infinities are rejected.
func ParseNumeric(raw string) (float64, bool) {
	s := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Numeric returns raw as a float64, or def when it is not a number.
func Numeric(raw string, def float64) float64 {
	if v, ok := ParseNumeric(raw); ok {
		return v
	}
	return def
}

// ParseInt reads an integer, truncating any fractional part.
func ParseInt(raw string) (int64, bool) {
	v, ok := ParseNumeric(raw)
	if !ok || v >= math.MaxInt64 || v < math.MinInt64 {
		return 0, false
	}
	return int64(v), true
}

// Int returns raw as an int64, or def when it is not a number.
func Int(raw string, def int64) int64 {
	if v, ok := ParseInt(raw); ok {
		return v
	}
	return def
}

// ParseInt32 reads an integer that fits in 32 bits, the width of the INTEGER
// columns. Larger values are rejected like any other unreadable cell.
func ParseInt32(raw string) (int32, bool) {
	v, ok := ParseInt(raw)
	if !ok || v > math.MaxInt32 || v < math.MinInt32 {
		return 0, false
	}
	return int32(v), true
}

// Int32 returns raw as an int32, or def when it is not a number or out of range.
func Int32(raw string, def int32) int32 {
	if v, ok := ParseInt32(raw); ok {
		return v
	}
	return def
}

// ParseText trims raw and reports whether anything is left.
func ParseText(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	return s, s != ""
}

// Text returns the trimmed cell, or def when it is empty.
func Text(raw string, def string) string {
	if s, ok := ParseText(raw); ok {
		return s
	}
	return def
}
