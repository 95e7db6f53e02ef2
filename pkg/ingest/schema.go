package ingest

import (
	"strings"

	"github.com/Gobusters/ectolinq"
	"golang.org/x/text/unicode/norm"
)

const (
	ColumnDBID        = "DBID"
	ColumnName        = "Name/Model"
	ColumnUnitType    = "Unit Type"
	ColumnTechnology  = "Technology"
	ColumnChassis     = "Chassis"
	ColumnEra         = "Era"
	ColumnYear        = "Year"
	ColumnRulesLevel  = "Rules Level (Era)"
	ColumnTonnage     = "Tonnage"
	ColumnBattleValue = "Battle Value"
	ColumnPointValue  = "Point Value"
	ColumnCost        = "Cost"
	ColumnRating      = "Rating"
	ColumnDesigner    = "Designer"
)

// RequiredColumns must all appear in the header row.
var RequiredColumns = []string{
	ColumnDBID,
	ColumnName,
	ColumnUnitType,
	ColumnTechnology,
	ColumnChassis,
	ColumnEra,
}

// header maps a normalised column name to its position in a record.
type header map[string]int

func normaliseColumn(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

// newHeader indexes the header row. The first occurrence of a repeated column wins.
func newHeader(row []string) header {
	h := make(header, len(row))
	for i, name := range row {
		key := normaliseColumn(name)
		if _, seen := h[key]; seen {
			continue
		}
		h[key] = i
	}
	return h
}

func (h header) missing(required []string) []string {
	return ectolinq.Filter(required, func(column string) bool {
		_, ok := h[column]
		return !ok
	})
}

// cell returns the value of column in record; ok is false when the column is
// absent from the header or the record is too short to hold it.
func (h header) cell(record []string, column string) (string, bool) {
	i, ok := h[column]
	if !ok || i >= len(record) {
		return "", false
	}
	return record[i], true
}
