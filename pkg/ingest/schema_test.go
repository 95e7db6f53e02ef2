package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHeader_NormalisesNames(t *testing.T) {
	h := newHeader([]string{"  DBID", "Designe\u0301r ", "DBID"})

	assert.Equal(t, 0, h["DBID"])
	assert.Equal(t, 1, h["Design\u00e9r"])
	assert.Len(t, h, 2)
}

func TestHeader_Missing(t *testing.T) {
	h := newHeader([]string{"DBID", "Era", "Chassis"})
	assert.Equal(t, []string{"Name/Model", "Unit Type", "Technology"}, h.missing(RequiredColumns))
}

func TestHeader_Cell(t *testing.T) {
	h := newHeader([]string{"DBID", "Era"})

	v, ok := h.cell([]string{"1", "Jihad"}, "Era")
	assert.True(t, ok)
	assert.Equal(t, "Jihad", v)

	_, ok = h.cell([]string{"1"}, "Era")
	assert.False(t, ok)

	_, ok = h.cell([]string{"1", "Jihad"}, "Tonnage")
	assert.False(t, ok)
}
