package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func headerValue(msg kafka.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func TestProducer_PublishUnitEvent(t *testing.T) {
	writer := &fakeWriter{}
	producer := NewProducerWithWriter(writer, "fern.units", testLogger())

	err := producer.PublishUnitEvent(context.Background(), &UnitEvent{
		EventType:     "unit.promoted",
		UnitID:        "abc",
		ExternalID:    42,
		Kind:          "canonical_unit",
		SchemaVersion: "1.0",
	})
	require.NoError(t, err)
	require.Len(t, writer.messages, 1)

	msg := writer.messages[0]
	assert.Equal(t, "fern.units", msg.Topic)
	assert.Equal(t, "abc", string(msg.Key))
	assert.Equal(t, "unit.promoted", headerValue(msg, "event_type"))
	assert.Equal(t, "canonical_unit", headerValue(msg, "kind"))

	var decoded UnitEvent
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, int64(42), decoded.ExternalID)
	assert.False(t, decoded.Timestamp.IsZero())
}

func TestProducer_KeyFallsBackToKind(t *testing.T) {
	writer := &fakeWriter{}
	producer := NewProducerWithWriter(writer, "fern.units", testLogger())

	require.NoError(t, producer.PublishUnitEvent(context.Background(), &UnitEvent{EventType: "import.completed", Kind: "import"}))
	assert.Equal(t, "import", string(writer.messages[0].Key))
}

func TestProducer_PublishUnitEventsBatch(t *testing.T) {
	writer := &fakeWriter{}
	producer := NewProducerWithWriter(writer, "fern.units", testLogger())

	require.NoError(t, producer.PublishUnitEvents(context.Background(), nil))
	assert.Empty(t, writer.messages)

	err := producer.PublishUnitEvents(context.Background(), []*UnitEvent{
		{EventType: "unit.staged", UnitID: "1", Kind: "staged_unit"},
		{EventType: "unit.staged", UnitID: "2", Kind: "staged_unit"},
	})
	require.NoError(t, err)
	assert.Len(t, writer.messages, 2)
}

func TestProducer_WriteErrorIsReturned(t *testing.T) {
	writer := &fakeWriter{err: errors.New("broker down")}
	producer := NewProducerWithWriter(writer, "fern.units", testLogger())

	err := producer.PublishUnitEvent(context.Background(), &UnitEvent{EventType: "unit.removed", UnitID: "x"})
	assert.EqualError(t, err, "broker down")

	require.NoError(t, producer.Close())
	assert.True(t, writer.closed)
}

func TestCompressionCodec(t *testing.T) {
	assert.Equal(t, kafka.Gzip, compressionCodec("gzip"))
	assert.Equal(t, kafka.Zstd, compressionCodec("zstd"))
	assert.Equal(t, kafka.Compression(0), compressionCodec("none"))
	assert.Equal(t, kafka.Snappy, compressionCodec(""))
}
