package kafka

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPublisher struct {
	calls   atomic.Int32
	failing atomic.Bool
}

func (s *stubPublisher) Publish(context.Context, string, *Event) error {
	s.calls.Add(1)
	if s.failing.Load() {
		return errors.New("broker unavailable")
	}
	return nil
}

func testBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:         name,
		MaxRequests:  1,
		Interval:     60 * time.Second,
		Timeout:      5 * time.Second,
		FailureRatio: 0.5,
		MinRequests:  3,
	}
}

func testEvent(t *testing.T) *Event {
	t.Helper()
	ev, err := NewEvent("service.created", "svc-1", "service", "services-api", map[string]string{"serviceId": "svc-1"})
	require.NoError(t, err)
	return ev
}

func TestBreakerPublisher_ClosedForwards(t *testing.T) {
	next := &stubPublisher{}
	b := NewBreakerPublisher(next, testBreakerConfig("test-closed"), discardLogger())

	require.NoError(t, b.Publish(context.Background(), Topic("service", "created"), testEvent(t)))
	assert.Equal(t, int32(1), next.calls.Load())
	assert.Equal(t, gobreaker.StateClosed, b.State())
}

func TestBreakerPublisher_TripsAndRejects(t *testing.T) {
	next := &stubPublisher{}
	next.failing.Store(true)
	b := NewBreakerPublisher(next, testBreakerConfig("test-trip"), discardLogger())

	for i := 0; i < 3; i++ {
		require.Error(t, b.Publish(context.Background(), "t", testEvent(t)))
	}
	assert.Equal(t, gobreaker.StateOpen, b.State())
	assert.Equal(t, float64(2), testutil.ToFloat64(breakerState.WithLabelValues("test-trip")))

	before := next.calls.Load()
	err := b.Publish(context.Background(), "t", testEvent(t))
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, before, next.calls.Load())
}

func TestBreakerPublisher_Recovers(t *testing.T) {
	next := &stubPublisher{}
	next.failing.Store(true)
	cfg := testBreakerConfig("test-recover")
	cfg.Timeout = 100 * time.Millisecond
	b := NewBreakerPublisher(next, cfg, discardLogger())

	for i := 0; i < 3; i++ {
		_ = b.Publish(context.Background(), "t", testEvent(t))
	}
	require.Equal(t, gobreaker.StateOpen, b.State())

	time.Sleep(150 * time.Millisecond)
	next.failing.Store(false)

	require.NoError(t, b.Publish(context.Background(), "t", testEvent(t)))
	assert.Equal(t, gobreaker.StateClosed, b.State())
}

func TestDefaultBreakerConfig(t *testing.T) {
	cfg := DefaultBreakerConfig("kafka")
	assert.Equal(t, "kafka", cfg.Name)
	assert.Equal(t, uint32(1), cfg.MaxRequests)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, 0.5, cfg.FailureRatio)
	assert.Equal(t, uint32(5), cfg.MinRequests)
}

func TestRegisterMetrics_Idempotent(t *testing.T) {
	reg := prometheus.NewRegistry()

	require.NoError(t, RegisterMetrics(reg))
	require.NoError(t, RegisterMetrics(reg))
}
