package tracing

import (
	"context"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestKafkaTraceContextRoundTrip(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})
	tp := sdktrace.NewTracerProvider()
	defer tp.Shutdown(context.Background())

	ctx, span := tp.Tracer("test").Start(context.Background(), "publish")
	defer span.End()

	headers := InjectTraceContext(ctx, nil)
	assert.NotEmpty(t, headers)

	extracted := ExtractTraceContext(context.Background(), headers)
	assert.Equal(t, TraceID(ctx), TraceID(extracted))
	assert.NotEmpty(t, TraceID(extracted))
}

func TestKafkaHeaderCarrier_SetReplaces(t *testing.T) {
	c := &kafkaHeaderCarrier{headers: []kafka.Header{{Key: "traceparent", Value: []byte("old")}}}
	c.Set("traceparent", "new")
	c.Set("tracestate", "x")

	assert.Equal(t, "new", c.Get("traceparent"))
	assert.Equal(t, []string{"traceparent", "tracestate"}, c.Keys())
}

func TestTraceID_NoSpan(t *testing.T) {
	assert.Equal(t, "", TraceID(context.Background()))
}
