package graph

import (
	"context"
	"errors"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/models"
)

type recordingWriter struct {
	cypher string
	params map[string]any
	err    error
}

func (w *recordingWriter) RunWrite(_ context.Context, cypher string, params map[string]any) error {
	w.cypher = cypher
	w.params = params
	return w.err
}

func newTestService(w Writer) *UnitService {
	return NewUnitService(w, ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {}))
}

func TestUnitService_ProjectUnit(t *testing.T) {
	writer := &recordingWriter{}
	rating := "B"
	unit := &models.CanonicalUnit{
		ID:           uuid.New(),
		ExternalID:   77,
		StagedUnitID: uuid.New(),
		UnitAttributes: models.UnitAttributes{
			Name:    "Marauder MAD-3R",
			Chassis: "Marauder",
			Era:     "Succession Wars",
			Tonnage: 75,
			Rating:  &rating,
		},
	}

	require.NoError(t, newTestService(writer).ProjectUnit(context.Background(), unit))

	assert.Contains(t, writer.cypher, "VARIANT_OF")
	assert.Contains(t, writer.cypher, "FIELDED_IN")
	assert.Equal(t, int64(77), writer.params["external_id"])
	assert.Equal(t, "Marauder", writer.params["chassis"])
	assert.Equal(t, "Succession Wars", writer.params["era"])

	props := writer.params["props"].(map[string]any)
	assert.Equal(t, "Marauder MAD-3R", props["name"])
	assert.Equal(t, "B", props["rating"])
	assert.NotContains(t, props, "cost")
	assert.NotContains(t, props, "designer")
}

func TestUnitService_ProjectUnitError(t *testing.T) {
	writer := &recordingWriter{err: errors.New("bolt closed")}

	err := newTestService(writer).ProjectUnit(context.Background(), &models.CanonicalUnit{ID: uuid.New()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bolt closed")
}

func TestConfigURI(t *testing.T) {
	assert.Equal(t, "bolt://memgraph:7687", Config{Host: "memgraph", Port: 7687}.URI())
}

func TestNewClient_ConnectsLazily(t *testing.T) {
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	client, err := NewClient(Config{Host: "localhost", Port: 1, Database: "units", MaxPoolSize: 2}, logger)
	require.NoError(t, err)
	assert.Equal(t, "units", client.database)
	require.NoError(t, client.Close(context.Background()))
}
