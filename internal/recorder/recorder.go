// Package recorder implements the Outcome Recorder (C6): the single
// point that feeds dispatch and probe outcomes into the per-analyzer
// health state machine owned by internal/registry.
package recorder

import (
	"go.uber.org/zap"

	"github.com/karteekpv77/loggateway/internal/registry"
)

// Recorder records dispatch and probe outcomes against the registry.
type Recorder struct {
	reg        *registry.Registry
	thresholds registry.Thresholds
	logger     *zap.Logger
}

// New creates a Recorder bound to reg, evaluating health transitions
// against th.
func New(reg *registry.Registry, th registry.Thresholds, logger *zap.Logger) *Recorder {
	return &Recorder{reg: reg, thresholds: th, logger: logger}
}

// RecordOutcome applies a success/failure outcome for analyzer id. If
// the analyzer has since been evicted, the outcome is dropped without
// side effect, matching spec.md §3's invariant on in-flight sends that
// outlive their analyzer's removal.
func (r *Recorder) RecordOutcome(id string, success bool, rttMs int64, src registry.Source) {
	a, err := r.reg.Lookup(id)
	if err != nil {
		return
	}

	transition, changed := a.ApplyOutcome(success, rttMs, src, r.thresholds)
	if !changed {
		return
	}

	switch transition {
	case registry.Degraded:
		r.logger.Info("analyzer degraded", zap.String("analyzer_id", id))
		r.reg.Emit(registry.Event{Kind: registry.Degraded, ID: id})
	case registry.Recovered:
		r.logger.Info("analyzer recovered", zap.String("analyzer_id", id))
		r.reg.Emit(registry.Event{Kind: registry.Recovered, ID: id})
	}
}
