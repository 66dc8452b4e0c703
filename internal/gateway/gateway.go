// Package gateway wires the registry, selector, queue, dispatcher, and
// prober into the single orchestrator the API layer talks to. It plays
// the role the teacher's Distributor type plays, generalized from an
// in-process simulation to a real HTTP fan-out.
package gateway

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/karteekpv77/loggateway/internal/config"
	"github.com/karteekpv77/loggateway/internal/deadletter"
	"github.com/karteekpv77/loggateway/internal/dispatcher"
	"github.com/karteekpv77/loggateway/internal/gwerr"
	"github.com/karteekpv77/loggateway/internal/httpclient"
	"github.com/karteekpv77/loggateway/internal/metrics"
	"github.com/karteekpv77/loggateway/internal/models"
	"github.com/karteekpv77/loggateway/internal/prober"
	"github.com/karteekpv77/loggateway/internal/queue"
	"github.com/karteekpv77/loggateway/internal/recorder"
	"github.com/karteekpv77/loggateway/internal/registry"
	"github.com/karteekpv77/loggateway/internal/selector"
)

// AnalyzerStats is the external view of one analyzer record, returned
// from Stats and the /analyzers admin endpoint.
type AnalyzerStats struct {
	ID                   string
	Endpoint             string
	Weight               float64
	Healthy              bool
	ConsecutiveSuccesses int
	ConsecutiveFailures  int
	TotalChecks          int64
	TotalFailures        int64
	ProbeFailures        int64
	DispatchFailures     int64
	LastResponseTimeMs   int64
	LastSeen             time.Time
}

// Stats is the aggregate snapshot returned from GetStats, matching
// spec.md §3's aggregate counters plus the per-analyzer registry view.
type Stats struct {
	PacketsReceived  int64
	PacketsProcessed int64
	PacketsDropped   int64
	Errors           int64
	AvgLatencyMs     float64
	QueueSize        int
	QueueCapacity    int
	Analyzers        []AnalyzerStats
	Uptime           time.Duration
}

// Gateway is the dispatch engine's orchestrator: the component the API
// layer calls into.
type Gateway struct {
	cfg *config.Config

	reg        *registry.Registry
	q          *queue.Queue
	sel        *selector.Selector
	rec        *recorder.Recorder
	dispatcher *dispatcher.Dispatcher
	prober     *prober.Prober
	counters   *metrics.Counters
	dead       *deadletter.Store
	logger     *zap.Logger

	mu        sync.Mutex
	running   bool
	startTime time.Time
	cancel    context.CancelFunc
}

// New builds a Gateway from cfg, admitting every analyzer cfg names. It
// does not start any goroutines; call Start for that.
func New(cfg *config.Config, deadLetterPath string, logger *zap.Logger) (*Gateway, error) {
	reg := registry.New()
	for _, a := range cfg.Analyzers {
		if err := reg.Admit(a.ID, a.Endpoint, a.Weight); err != nil {
			return nil, fmt.Errorf("admitting analyzer %q: %w", a.ID, err)
		}
	}

	counters := &metrics.Counters{}
	th := registry.Thresholds{
		FailureThreshold: cfg.FailureThreshold,
		SuccessThreshold: cfg.SuccessThreshold,
	}
	rec := recorder.New(reg, th, logger)
	sel := selector.New(rand.New(rand.NewSource(time.Now().UnixNano())))
	q := queue.New(cfg.MaxQueueSize)
	client := httpclient.New()
	dead := deadletter.New(deadLetterPath)

	workerCount := cfg.BatchSize / 4
	if workerCount < 1 {
		workerCount = 1
	}

	disp := dispatcher.New(dispatcher.Config{
		WorkerCount:        workerCount,
		BatchSize:          cfg.BatchSize,
		ProcessingInterval: cfg.ProcessingInterval,
		SendTimeout:        cfg.SendTimeout,
		RetryOnFailure:     cfg.RetryOnFailure,
	}, q, reg, sel, rec, client, dead, counters, logger)

	prb := prober.New(prober.Config{
		Interval: cfg.HealthCheckInterval,
		Timeout:  cfg.HealthCheckTimeout,
	}, reg, rec, client, logger)

	return &Gateway{
		cfg:        cfg,
		reg:        reg,
		q:          q,
		sel:        sel,
		rec:        rec,
		dispatcher: disp,
		prober:     prb,
		counters:   counters,
		dead:       dead,
		logger:     logger,
	}, nil
}

// Start begins the dispatcher workers and the health prober.
func (g *Gateway) Start() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.running {
		return fmt.Errorf("gateway already running")
	}

	ctx, cancel := context.WithCancel(context.Background())
	g.cancel = cancel
	g.startTime = time.Now()
	g.running = true

	g.dispatcher.Start(ctx)
	g.prober.Start(ctx)
	return nil
}

// Stop cancels the dispatch and probe loops and waits for in-flight work
// to drain up to the caller's context deadline.
func (g *Gateway) Stop(ctx context.Context) error {
	g.mu.Lock()
	if !g.running {
		g.mu.Unlock()
		return fmt.Errorf("gateway is not running")
	}
	g.running = false
	cancel := g.cancel
	g.mu.Unlock()

	cancel()
	g.prober.Stop()

	done := make(chan struct{})
	go func() {
		g.dispatcher.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		dropped := len(g.q.DrainBatch(g.q.Capacity()))
		g.counters.AddPacketsDropped(int64(dropped))
		g.logger.Warn("shutdown grace period expired with workers still draining",
			zap.Int("packets_dropped", dropped),
		)
	}
	return nil
}

// SubmitPacket enqueues packet for dispatch, or rejects it with
// ErrQueueFull if the dispatch queue is saturated (spec.md §4.3), or
// ErrShutdown if the gateway is not currently running (spec.md §5: new
// enqueues stop as soon as shutdown begins).
func (g *Gateway) SubmitPacket(packet models.Packet) error {
	g.mu.Lock()
	running := g.running
	g.mu.Unlock()
	if !running {
		return fmt.Errorf("packet %q: %w", packet.ID, gwerr.ErrShutdown)
	}

	packet.EnqueuedAt = time.Now()
	g.counters.IncPacketsReceived()

	if !g.q.TryEnqueue(packet) {
		g.counters.IncPacketsDropped()
		return fmt.Errorf("packet %q: %w", packet.ID, gwerr.ErrQueueFull)
	}

	g.dispatcher.Signal()
	return nil
}

// AdmitAnalyzer adds or replaces an analyzer record.
func (g *Gateway) AdmitAnalyzer(id, endpoint string, weight float64) error {
	return g.reg.Admit(id, endpoint, weight)
}

// EvictAnalyzer removes an analyzer record. Idempotent.
func (g *Gateway) EvictAnalyzer(id string) {
	g.reg.Evict(id)
}

// TriggerProbe runs one synchronous health probe against id.
func (g *Gateway) TriggerProbe(ctx context.Context, id string) error {
	return g.prober.TriggerProbe(ctx, id)
}

// Ready reports whether at least one analyzer is currently healthy.
func (g *Gateway) Ready() bool {
	for _, a := range g.reg.Snapshot() {
		if a.Healthy {
			return true
		}
	}
	return false
}

// DeadLetters returns every permanently-failed message recorded so far.
func (g *Gateway) DeadLetters() ([]deadletter.Entry, error) {
	return g.dead.List()
}

// GetStats returns a point-in-time snapshot of aggregate and
// per-analyzer statistics.
func (g *Gateway) GetStats() Stats {
	snapshot := g.reg.Snapshot()
	analyzers := make([]AnalyzerStats, 0, len(snapshot))
	for _, a := range snapshot {
		analyzers = append(analyzers, AnalyzerStats{
			ID:                   a.ID,
			Endpoint:             a.Endpoint,
			Weight:               a.Weight,
			Healthy:              a.Healthy,
			ConsecutiveSuccesses: a.ConsecutiveSuccesses,
			ConsecutiveFailures:  a.ConsecutiveFailures,
			TotalChecks:          a.TotalChecks,
			TotalFailures:        a.TotalFailures,
			ProbeFailures:        a.ProbeFailures,
			DispatchFailures:     a.DispatchFailures,
			LastResponseTimeMs:   a.LastResponseTimeMs,
			LastSeen:             a.LastSeen,
		})
	}

	g.mu.Lock()
	uptime := time.Since(g.startTime)
	g.mu.Unlock()

	return Stats{
		PacketsReceived:  g.counters.PacketsReceived(),
		PacketsProcessed: g.counters.PacketsProcessed(),
		PacketsDropped:   g.counters.PacketsDropped(),
		Errors:           g.counters.Errors(),
		AvgLatencyMs:     g.counters.AvgLatencyMs(),
		QueueSize:        g.q.Len(),
		QueueCapacity:    g.q.Capacity(),
		Analyzers:        analyzers,
		Uptime:           uptime,
	}
}
