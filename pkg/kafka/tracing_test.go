package kafka

import (
	"context"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

func TestHeaderCarrier(t *testing.T) {
	tests := []struct {
		name     string
		headers  []kafka.Header
		set      map[string]string
		wantGet  map[string]string
		wantKeys []string
	}{
		{
			name:     "empty",
			wantGet:  map[string]string{"anything": ""},
			wantKeys: []string{},
		},
		{
			name:     "adds new key",
			headers:  []kafka.Header{{Key: HeaderEventType, Value: []byte("service.created")}},
			set:      map[string]string{"traceparent": "tp"},
			wantGet:  map[string]string{HeaderEventType: "service.created", "traceparent": "tp"},
			wantKeys: []string{HeaderEventType, "traceparent"},
		},
		{
			name:     "overwrites in place",
			headers:  []kafka.Header{{Key: "traceparent", Value: []byte("old")}},
			set:      map[string]string{"traceparent": "new"},
			wantGet:  map[string]string{"traceparent": "new"},
			wantKeys: []string{"traceparent"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := append([]kafka.Header(nil), tt.headers...)
			c := NewHeaderCarrier(&headers)
			for k, v := range tt.set {
				c.Set(k, v)
			}
			for k, want := range tt.wantGet {
				assert.Equal(t, want, c.Get(k), k)
			}
			assert.ElementsMatch(t, tt.wantKeys, c.Keys())
		})
	}
}

func TestHeaderCarrier_ExtractsInjectedContext(t *testing.T) {
	prop := propagation.TraceContext{}
	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))

	var headers []kafka.Header
	prop.Inject(ctx, NewHeaderCarrier(&headers))

	sc := trace.SpanContextFromContext(prop.Extract(context.Background(), NewHeaderCarrier(&headers)))
	assert.Equal(t, traceID, sc.TraceID())
	assert.Equal(t, spanID, sc.SpanID())
	assert.True(t, sc.IsSampled())
}
