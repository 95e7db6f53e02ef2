// Package events handles event emission for unit lifecycle changes
package events

import (
	"context"
	"encoding/json"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/kafka"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// SchemaVersion is the current event schema version
const SchemaVersion = "1.0"

const (
	EventUnitStaged            = "unit.staged"
	EventUnitUpdated           = "unit.updated"
	EventUnitValidationChanged = "unit.validation_changed"
	EventUnitPromoted          = "unit.promoted"
	EventUnitRemoved           = "unit.removed"
	EventImportCompleted       = "import.completed"
)

const (
	kindStaged    = "staged_unit"
	kindCanonical = "canonical_unit"
	kindImport    = "import"
)

// Publisher sends a unit event to the broker.
type Publisher interface {
	PublishUnitEvent(ctx context.Context, event *kafka.UnitEvent) error
}

// Emitter handles event emission for fern
type Emitter struct {
	publisher Publisher
	logger    ectologger.Logger
}

// NewEmitter creates a new event emitter
func NewEmitter(publisher Publisher, logger ectologger.Logger) *Emitter {
	return &Emitter{
		publisher: publisher,
		logger:    logger,
	}
}

func (e *Emitter) emit(ctx context.Context, event *kafka.UnitEvent, payload any) error {
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		event.Data = data
	}
	event.SchemaVersion = SchemaVersion

	if err := e.publisher.PublishUnitEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Errorf("Failed to emit %s event", event.EventType)
		return err
	}
	return nil
}

func (e *Emitter) EmitUnitStaged(ctx context.Context, unit *models.StagedUnit) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitUnitStaged")
	defer span.End()

	return e.emit(ctx, &kafka.UnitEvent{
		EventType:  EventUnitStaged,
		UnitID:     unit.ID.String(),
		ExternalID: unit.ExternalID,
		Kind:       kindStaged,
	}, unit)
}

func (e *Emitter) EmitUnitUpdated(ctx context.Context, unit *models.StagedUnit) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitUnitUpdated")
	defer span.End()

	return e.emit(ctx, &kafka.UnitEvent{
		EventType:  EventUnitUpdated,
		UnitID:     unit.ID.String(),
		ExternalID: unit.ExternalID,
		Kind:       kindStaged,
	}, unit)
}

// EmitValidationChanged carries only the new flag, not the full unit.
func (e *Emitter) EmitValidationChanged(ctx context.Context, unit *models.StagedUnit) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitValidationChanged")
	defer span.End()

	return e.emit(ctx, &kafka.UnitEvent{
		EventType:  EventUnitValidationChanged,
		UnitID:     unit.ID.String(),
		ExternalID: unit.ExternalID,
		Kind:       kindStaged,
	}, map[string]any{"validated": unit.Validated})
}

func (e *Emitter) EmitUnitPromoted(ctx context.Context, unit *models.CanonicalUnit) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitUnitPromoted")
	defer span.End()

	return e.emit(ctx, &kafka.UnitEvent{
		EventType:  EventUnitPromoted,
		UnitID:     unit.ID.String(),
		ExternalID: unit.ExternalID,
		Kind:       kindCanonical,
	}, unit)
}

func (e *Emitter) EmitUnitRemoved(ctx context.Context, unit *models.StagedUnit) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitUnitRemoved")
	defer span.End()

	return e.emit(ctx, &kafka.UnitEvent{
		EventType:  EventUnitRemoved,
		UnitID:     unit.ID.String(),
		ExternalID: unit.ExternalID,
		Kind:       kindStaged,
	}, nil)
}

func (e *Emitter) EmitImportCompleted(ctx context.Context, source string, summary *models.ImportSummary) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitImportCompleted")
	defer span.End()

	return e.emit(ctx, &kafka.UnitEvent{
		EventType: EventImportCompleted,
		Kind:      kindImport,
	}, map[string]any{
		"source":  source,
		"summary": summary,
	})
}
