package exporters

import (
	"context"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestParseProtocol(t *testing.T) {
	for input, want := range map[string]Protocol{
		"":              ProtocolGRPC,
		"grpc":          ProtocolGRPC,
		"HTTP":          ProtocolHTTP,
		"http/protobuf": ProtocolHTTP,
	} {
		got, err := ParseProtocol(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}

	_, err := ParseProtocol("thrift")
	assert.Error(t, err)
}

func TestLogExporter(t *testing.T) {
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})

	provider := sdktrace.NewTracerProvider(sdktrace.WithSyncer(&LogExporter{Logger: logger}))
	_, span := provider.Tracer("test").Start(context.Background(), "import")
	span.SetAttributes(attribute.String("fern.import.source", "mechs.csv"))
	span.End()
	require.NoError(t, provider.Shutdown(context.Background()))
}

func TestLogExporter_NilLogger(t *testing.T) {
	exporter := &LogExporter{}
	assert.NoError(t, exporter.ExportSpans(context.Background(), nil))
	assert.NoError(t, exporter.Shutdown(context.Background()))
}
