package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

// withRecorder 用内存Recorder替换全局Provider
func withRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(prev)
	})
	return recorder
}

func TestStartSpan(t *testing.T) {
	recorder := withRecorder(t)

	t.Run("子Span继承TraceID", func(t *testing.T) {
		ctx, root := StartSpan(context.Background(), "test", "Root")
		_, child := StartSpan(ctx, "test", "Child")

		assert.Equal(t, root.SpanContext().TraceID(), child.SpanContext().TraceID())
		assert.NotEqual(t, root.SpanContext().SpanID(), child.SpanContext().SpanID())
		assert.Equal(t, root.SpanContext().TraceID().String(), TraceID(ctx))

		child.End()
		root.End()
	})

	assert.Len(t, recorder.Ended(), 2)
}

func TestEndSpan(t *testing.T) {
	recorder := withRecorder(t)

	_, ok := StartSpan(context.Background(), "test", "Ok")
	EndSpan(ok, nil)

	_, failed := StartSpan(context.Background(), "test", "Failed")
	EndSpan(failed, errors.New("copy unavailable"))

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
	assert.Equal(t, codes.Error, spans[1].Status().Code)
	assert.Equal(t, "copy unavailable", spans[1].Status().Description)
	assert.Len(t, spans[1].Events(), 1)
}

func TestInbound(t *testing.T) {
	recorder := withRecorder(t)
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(prev) })

	t.Run("接上调用方的traceparent", func(t *testing.T) {
		carrier := propagation.MapCarrier{
			"traceparent": "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01",
		}
		ctx, span := Inbound(context.Background(), carrier, "POST /loans")
		span.End()

		assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", TraceID(ctx))
		spans := recorder.Ended()
		require.Len(t, spans, 1)
		assert.Equal(t, trace.SpanKindServer, spans[0].SpanKind())
		assert.Equal(t, "00f067aa0ba902b7", spans[0].Parent().SpanID().String())
		t.Log("✓ 入口Span成为调用方Span的子Span")
	})

	t.Run("没有traceparent时开新链路", func(t *testing.T) {
		ctx, span := Inbound(context.Background(), propagation.MapCarrier{}, "StatusOf")
		defer span.End()
		assert.NotEmpty(t, TraceID(ctx))
	})
}

func TestTraceID_NoSpan(t *testing.T) {
	assert.Empty(t, TraceID(context.Background()))
}

func TestSampler(t *testing.T) {
	assert.Equal(t, sdktrace.AlwaysSample().Description(), sampler(1).Description())
	assert.Equal(t, sdktrace.NeverSample().Description(), sampler(0).Description())
	assert.Contains(t, sampler(0.1).Description(), "TraceIDRatioBased")
}
