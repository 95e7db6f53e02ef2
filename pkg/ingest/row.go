package ingest

import (
	"context"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/coerce"
	"github.com/Ramsey-B/fern/pkg/metrics"
	"github.com/Ramsey-B/fern/pkg/models"
)

// rowReader turns one CSV record into typed values, logging every default it substitutes.
type rowReader struct {
	ctx    context.Context
	logger ectologger.Logger
	header header
	record []string
	row    int
}

func (r *rowReader) substituted(column, raw string, def any) {
	metrics.RecordCoercionDefault(column)
	r.logger.WithContext(r.ctx).WithFields(map[string]any{
		"event":   "RowCoercionDefault",
		"row":     r.row,
		"column":  column,
		"raw":     raw,
		"default": def,
	}).Debug("Substituted default value")
}

func (r *rowReader) text(column string) string {
	raw, _ := r.header.cell(r.record, column)
	if v, ok := coerce.ParseText(raw); ok {
		return v
	}
	r.substituted(column, raw, coerce.DefaultText)
	return coerce.DefaultText
}

func (r *rowReader) number(column string) float64 {
	raw, _ := r.header.cell(r.record, column)
	if v, ok := coerce.ParseNumeric(raw); ok {
		return v
	}
	r.substituted(column, raw, coerce.DefaultNumeric)
	return coerce.DefaultNumeric
}

func (r *rowReader) integer(column string) int64 {
	raw, _ := r.header.cell(r.record, column)
	if v, ok := coerce.ParseInt(raw); ok {
		return v
	}
	r.substituted(column, raw, coerce.DefaultNumeric)
	return coerce.DefaultNumeric
}

// integer32 reads a column stored as a 32-bit INTEGER.
func (r *rowReader) integer32(column string) int {
	raw, _ := r.header.cell(r.record, column)
	if v, ok := coerce.ParseInt32(raw); ok {
		return int(v)
	}
	r.substituted(column, raw, coerce.DefaultNumeric)
	return coerce.DefaultNumeric
}

// externalID reads DBID under the same numeric default as every other field.
func (r *rowReader) externalID() int64 {
	return r.integer(ColumnDBID)
}

func (r *rowReader) attributes() models.UnitAttributes {
	cost := r.integer(ColumnCost)
	rating := r.text(ColumnRating)
	designer := r.text(ColumnDesigner)

	return models.UnitAttributes{
		Name:        r.text(ColumnName),
		UnitType:    r.text(ColumnUnitType),
		Technology:  r.text(ColumnTechnology),
		Chassis:     r.text(ColumnChassis),
		Era:         r.text(ColumnEra),
		Year:        r.integer32(ColumnYear),
		RulesLevel:  r.text(ColumnRulesLevel),
		Tonnage:     r.number(ColumnTonnage),
		BattleValue: r.integer32(ColumnBattleValue),
		PointValue:  r.integer32(ColumnPointValue),
		Cost:        &cost,
		Rating:      &rating,
		Designer:    &designer,
	}
}
