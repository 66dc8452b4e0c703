// Package selector implements the weighted-healthy selector (C2): given
// a registry snapshot, pick one healthy analyzer with probability
// proportional to its weight.
package selector

import (
	"fmt"
	"math/rand"
	"sort"
	"sync"

	"github.com/karteekpv77/loggateway/internal/gwerr"
	"github.com/karteekpv77/loggateway/internal/registry"
)

// Selector is stateless w.r.t. the registry: every call takes a fresh
// snapshot so concurrent admits/evicts never produce a torn read. The
// *rand.Rand it draws from is not safe for concurrent use on its own, so
// draws are serialized with mu — every dispatcher worker and per-message
// goroutine shares one Selector.
type Selector struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// New creates a Selector drawing from rng. Pass a seeded *rand.Rand in
// tests for reproducible distributions (spec.md §8 property 4).
func New(rng *rand.Rand) *Selector {
	return &Selector{rng: rng}
}

// Select picks one healthy analyzer from snapshot with probability
// proportional to weight, using a deterministic (lexicographic-by-id)
// CDF walk so a seeded rng reproduces the same sequence of picks.
func (s *Selector) Select(snapshot []registry.Snapshot) (registry.Snapshot, error) {
	healthy := make([]registry.Snapshot, 0, len(snapshot))
	for _, a := range snapshot {
		if a.Healthy {
			healthy = append(healthy, a)
		}
	}

	if len(healthy) == 0 {
		return registry.Snapshot{}, fmt.Errorf("select: %w", gwerr.ErrNoHealthyAnalyzer)
	}

	var total float64
	for _, a := range healthy {
		total += a.Weight
	}
	if total <= 0 {
		return registry.Snapshot{}, fmt.Errorf("select: %w", gwerr.ErrInvalidWeights)
	}
	if len(healthy) == 1 {
		return healthy[0], nil
	}

	sort.Slice(healthy, func(i, j int) bool { return healthy[i].ID < healthy[j].ID })

	s.mu.Lock()
	draw := s.rng.Float64()
	s.mu.Unlock()

	r := draw * total
	var cumulative float64
	for _, a := range healthy {
		cumulative += a.Weight
		if r < cumulative {
			return a, nil
		}
	}
	// Defensive fallback for floating-point drift at the tail of the walk.
	return healthy[len(healthy)-1], nil
}
