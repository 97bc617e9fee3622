package kafka

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func headerMap(msg kafka.Message) map[string]string {
	out := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		out[h.Key] = string(h.Value)
	}
	return out
}

// --- Event tests ---

func TestNewEvent_Fields(t *testing.T) {
	type ratedData struct {
		ServiceID string `json:"serviceId"`
		Rate      int    `json:"rate"`
	}

	data := ratedData{ServiceID: "svc-1", Rate: 4}
	event, err := NewEvent("service.rated", "svc-1", "service", "services-api", data)
	require.NoError(t, err)

	assert.NotEmpty(t, event.EventID)
	assert.Equal(t, "service.rated", event.EventType)
	assert.Equal(t, "svc-1", event.AggregateID)
	assert.Equal(t, "service", event.AggregateType)
	assert.Equal(t, "services-api", event.Source)
	assert.Equal(t, envelopeVersion, event.Version)
	assert.WithinDuration(t, time.Now().UTC(), event.Timestamp, 2*time.Second)

	var got ratedData
	require.NoError(t, event.DecodeData(&got))
	assert.Equal(t, data, got)
}

func TestNewEvent_InvalidData(t *testing.T) {
	_, err := NewEvent("service.created", "svc-1", "service", "services-api", make(chan int))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "service.created")
}

func TestEvent_MessageOmitsEmptyCorrelationID(t *testing.T) {
	event, err := NewEvent("service.deleted", "svc-9", "service", "services-api", nil)
	require.NoError(t, err)

	msg, err := event.message("services.service.deleted")
	require.NoError(t, err)

	h := headerMap(msg)
	assert.Len(t, h, 2)
	assert.NotContains(t, h, HeaderCorrelationID)
}

func TestDecodeMessage(t *testing.T) {
	event, err := NewEvent("service.deleted", "svc-9", "service", "services-api", map[string]string{"serviceId": "svc-9"})
	require.NoError(t, err)
	event.WithCorrelationID("corr-abc")

	msg, err := event.message("services.service.deleted")
	require.NoError(t, err)

	restored, err := DecodeMessage(msg)
	require.NoError(t, err)
	assert.Equal(t, event.EventID, restored.EventID)
	assert.Equal(t, "corr-abc", restored.CorrelationID)
	assert.JSONEq(t, string(event.Data), string(restored.Data))

	_, err = DecodeMessage(kafka.Message{Topic: "t", Value: []byte(`{broken json`)})
	assert.Error(t, err)
}

// --- Producer tests ---

func TestDefaultProducerConfig(t *testing.T) {
	brokers := []string{"broker1:9092", "broker2:9092"}
	cfg := DefaultProducerConfig(brokers)

	assert.Equal(t, brokers, cfg.Brokers)
	assert.Equal(t, 1, cfg.BatchSize)
	assert.Equal(t, 2*time.Second, cfg.WriteTimeout)
	assert.False(t, cfg.Async)
}

func TestProducer_PublishSetsKeyAndHeaders(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w, nil, discardLogger())

	event, err := NewEvent("service.created", "svc-1", "service", "services-api", map[string]string{"title": "Plumbing"})
	require.NoError(t, err)
	event.WithCorrelationID("corr-1")

	require.NoError(t, p.Publish(context.Background(), Topic("service", "created"), event))
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "services.service.created", msg.Topic)
	assert.Equal(t, "svc-1", string(msg.Key))

	h := headerMap(msg)
	assert.Equal(t, "service.created", h[HeaderEventType])
	assert.Equal(t, "services-api", h[HeaderSource])
	assert.Equal(t, "corr-1", h[HeaderCorrelationID])

	decoded, err := DecodeMessage(msg)
	require.NoError(t, err)
	assert.Equal(t, event.EventID, decoded.EventID)
}

func TestProducer_PublishInjectsTraceContext(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(prev) })

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))

	w := &fakeWriter{}
	p := newProducer(w, nil, discardLogger())
	event, err := NewEvent("service.updated", "svc-1", "service", "services-api", nil)
	require.NoError(t, err)

	require.NoError(t, p.Publish(ctx, Topic("service", "updated"), event))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01", headerMap(w.msgs[0])["traceparent"])
}

func TestProducer_PublishError(t *testing.T) {
	w := &fakeWriter{err: errors.New("leader not available")}
	p := newProducer(w, nil, discardLogger())
	event, err := NewEvent("service.deleted", "svc-1", "service", "services-api", nil)
	require.NoError(t, err)

	err = p.Publish(context.Background(), Topic("service", "deleted"), event)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "services.service.deleted")
}

func TestProducer_Close(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w, nil, discardLogger())
	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestNewProducer_CreatesInstance(t *testing.T) {
	p := NewProducer(DefaultProducerConfig([]string{"localhost:19092"}), nil)
	require.NotNil(t, p)
	assert.Equal(t, []string{"localhost:19092"}, p.brokers)
	assert.NoError(t, p.Close())
}

func TestPingBrokers_NoBrokers(t *testing.T) {
	err := PingBrokers(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no brokers configured")
}

// --- Topic tests ---

func TestTopic(t *testing.T) {
	tests := []struct {
		domain, action, want string
	}{
		{"service", "created", "services.service.created"},
		{"service", "rated", "services.service.rated"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, Topic(tt.domain, tt.action))
		})
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
