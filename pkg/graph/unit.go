package graph

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// Writer runs a single write statement.
type Writer interface {
	RunWrite(ctx context.Context, cypher string, params map[string]any) error
}

const projectUnitCypher = `
	MERGE (u:Unit {external_id: $external_id})
	SET u += $props
	MERGE (c:Chassis {name: $chassis})
	MERGE (u)-[:VARIANT_OF]->(c)
	MERGE (e:Era {name: $era})
	MERGE (u)-[:FIELDED_IN]->(e)
`

// UnitService writes canonical units as (:Unit)-[:VARIANT_OF]->(:Chassis) and
// (:Unit)-[:FIELDED_IN]->(:Era).
type UnitService struct {
	writer Writer
	logger ectologger.Logger
}

func NewUnitService(writer Writer, logger ectologger.Logger) *UnitService {
	return &UnitService{
		writer: writer,
		logger: logger,
	}
}

func unitParams(unit *models.CanonicalUnit) map[string]any {
	props := map[string]any{
		"id":             unit.ID.String(),
		"external_id":    unit.ExternalID,
		"staged_unit_id": unit.StagedUnitID.String(),
		"name":           unit.Name,
		"unit_type":      unit.UnitType,
		"technology":     unit.Technology,
		"year":           int64(unit.Year),
		"rules_level":    unit.RulesLevel,
		"tonnage":        unit.Tonnage,
		"battle_value":   int64(unit.BattleValue),
		"point_value":    int64(unit.PointValue),
	}
	if unit.Cost != nil {
		props["cost"] = *unit.Cost
	}
	if unit.Rating != nil {
		props["rating"] = *unit.Rating
	}
	if unit.Designer != nil {
		props["designer"] = *unit.Designer
	}

	return map[string]any{
		"external_id": unit.ExternalID,
		"chassis":     unit.Chassis,
		"era":         unit.Era,
		"props":       props,
	}
}

// ProjectUnit upserts the unit node and its chassis and era edges.
func (s *UnitService) ProjectUnit(ctx context.Context, unit *models.CanonicalUnit) error {
	ctx, span := tracing.StartSpan(ctx, "graph.UnitService.ProjectUnit")
	defer span.End()

	log := s.logger.WithContext(ctx).WithFields(map[string]any{
		"unit_id":     unit.ID,
		"external_id": unit.ExternalID,
	})

	if err := s.writer.RunWrite(ctx, projectUnitCypher, unitParams(unit)); err != nil {
		log.WithError(err).Error("Failed to project unit into graph")
		return fmt.Errorf("failed to project unit into graph: %w", err)
	}

	log.Debug("Projected unit into graph")
	return nil
}
