package recorder_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/karteekpv77/loggateway/internal/recorder"
	"github.com/karteekpv77/loggateway/internal/registry"
)

func TestRecordOutcome_DroppedAfterEviction(t *testing.T) {
	reg := registry.New()
	require.NoError(t, reg.Admit("a1", "http://a1:9000", 1))

	rec := recorder.New(reg, registry.Thresholds{FailureThreshold: 3, SuccessThreshold: 3}, zap.NewNop())
	reg.Evict("a1")

	// Must not panic or otherwise error; the outcome is simply dropped.
	assert.NotPanics(t, func() {
		rec.RecordOutcome("a1", true, 5, registry.SourceDispatch)
	})
}

func TestRecordOutcome_DegradeAndRecoverCycle(t *testing.T) {
	reg := registry.New()
	require.NoError(t, reg.Admit("a1", "http://a1:9000", 1))
	rec := recorder.New(reg, registry.Thresholds{FailureThreshold: 3, SuccessThreshold: 3}, zap.NewNop())

	for i := 0; i < 3; i++ {
		rec.RecordOutcome("a1", false, 5, registry.SourceDispatch)
	}
	snap := reg.Snapshot()
	require.Len(t, snap, 1)
	assert.False(t, snap[0].Healthy)

	for i := 0; i < 3; i++ {
		rec.RecordOutcome("a1", true, 5, registry.SourceProbe)
	}
	snap = reg.Snapshot()
	assert.True(t, snap[0].Healthy)
}

func TestRecordOutcome_EmitsDegradedAndRecoveredEvents(t *testing.T) {
	reg := registry.New()
	require.NoError(t, reg.Admit("a1", "http://a1:9000", 1))
	rec := recorder.New(reg, registry.Thresholds{FailureThreshold: 1, SuccessThreshold: 1}, zap.NewNop())

	// Drain the Admitted event first.
	<-reg.Events

	rec.RecordOutcome("a1", false, 5, registry.SourceDispatch)
	ev := <-reg.Events
	assert.Equal(t, registry.Degraded, ev.Kind)

	rec.RecordOutcome("a1", true, 5, registry.SourceDispatch)
	ev = <-reg.Events
	assert.Equal(t, registry.Recovered, ev.Kind)
}
