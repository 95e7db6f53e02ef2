package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/kafka"
	"github.com/Ramsey-B/fern/pkg/models"
)

type recordingPublisher struct {
	events []*kafka.UnitEvent
	err    error
}

func (p *recordingPublisher) PublishUnitEvent(_ context.Context, event *kafka.UnitEvent) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func newTestEmitter(p Publisher) *Emitter {
	return NewEmitter(p, ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {}))
}

func TestEmitter_UnitPromoted(t *testing.T) {
	pub := &recordingPublisher{}
	emitter := newTestEmitter(pub)
	unit := &models.CanonicalUnit{ID: uuid.New(), ExternalID: 12, UnitAttributes: models.UnitAttributes{Name: "Atlas AS7-D"}}

	require.NoError(t, emitter.EmitUnitPromoted(context.Background(), unit))
	require.Len(t, pub.events, 1)

	event := pub.events[0]
	assert.Equal(t, EventUnitPromoted, event.EventType)
	assert.Equal(t, unit.ID.String(), event.UnitID)
	assert.Equal(t, "canonical_unit", event.Kind)
	assert.Equal(t, SchemaVersion, event.SchemaVersion)

	var data models.CanonicalUnit
	require.NoError(t, json.Unmarshal(event.Data, &data))
	assert.Equal(t, "Atlas AS7-D", data.Name)
}

func TestEmitter_ValidationChangedCarriesFlag(t *testing.T) {
	pub := &recordingPublisher{}
	emitter := newTestEmitter(pub)

	require.NoError(t, emitter.EmitValidationChanged(context.Background(), &models.StagedUnit{ID: uuid.New(), Validated: true}))
	assert.JSONEq(t, `{"validated":true}`, string(pub.events[0].Data))
}

func TestEmitter_RemovedHasNoPayload(t *testing.T) {
	pub := &recordingPublisher{}
	emitter := newTestEmitter(pub)

	require.NoError(t, emitter.EmitUnitRemoved(context.Background(), &models.StagedUnit{ID: uuid.New(), ExternalID: 3}))
	assert.Nil(t, pub.events[0].Data)
	assert.Equal(t, int64(3), pub.events[0].ExternalID)
}

func TestEmitter_ImportCompleted(t *testing.T) {
	pub := &recordingPublisher{}
	emitter := newTestEmitter(pub)

	summary := &models.ImportSummary{Success: true, TotalRecords: 3, ImportedRecords: 2, SkippedRecords: 1}
	require.NoError(t, emitter.EmitImportCompleted(context.Background(), "mechs.csv", summary))

	event := pub.events[0]
	assert.Equal(t, EventImportCompleted, event.EventType)
	assert.Empty(t, event.UnitID)
	assert.Contains(t, string(event.Data), `"source":"mechs.csv"`)
}

func TestEmitter_PublishErrorReturned(t *testing.T) {
	emitter := newTestEmitter(&recordingPublisher{err: errors.New("unavailable")})

	err := emitter.EmitUnitStaged(context.Background(), &models.StagedUnit{ID: uuid.New()})
	assert.EqualError(t, err, "unavailable")
}
