// Package dispatcher implements the dispatch workers (C4): they drain
// the queue in bounded batches and, for every message, select a
// healthy analyzer, send it over HTTP, and record the outcome.
package dispatcher

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/karteekpv77/loggateway/internal/deadletter"
	"github.com/karteekpv77/loggateway/internal/metrics"
	"github.com/karteekpv77/loggateway/internal/models"
	"github.com/karteekpv77/loggateway/internal/queue"
	"github.com/karteekpv77/loggateway/internal/recorder"
	"github.com/karteekpv77/loggateway/internal/registry"
	"github.com/karteekpv77/loggateway/internal/selector"
)

// Config configures worker behavior. Zero values fall back to spec.md
// §6 defaults via config.Config before reaching here.
type Config struct {
	WorkerCount        int
	BatchSize          int
	ProcessingInterval time.Duration
	SendTimeout        time.Duration
	RetryOnFailure     bool
}

// Dispatcher drains a queue.Queue and routes each message to a selected
// analyzer over HTTP.
type Dispatcher struct {
	cfg      Config
	q        *queue.Queue
	reg      *registry.Registry
	sel      *selector.Selector
	rec      *recorder.Recorder
	client   *http.Client
	logger   *zap.Logger
	counters *metrics.Counters
	dead     *deadletter.Store

	wakeup chan struct{}
	wg     sync.WaitGroup
}

// New creates a Dispatcher. dead may be nil, in which case messages that
// exhaust retries are dropped without a dead-letter record.
func New(cfg Config, q *queue.Queue, reg *registry.Registry, sel *selector.Selector, rec *recorder.Recorder, client *http.Client, dead *deadletter.Store, counters *metrics.Counters, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		cfg:      cfg,
		q:        q,
		reg:      reg,
		sel:      sel,
		rec:      rec,
		client:   client,
		logger:   logger,
		counters: counters,
		dead:     dead,
		wakeup:   make(chan struct{}, 1),
	}
}

// Signal wakes an idle worker to drain the queue immediately, instead of
// waiting for the next processingInterval tick. Non-blocking: a pending
// signal coalesces with any other already queued.
func (d *Dispatcher) Signal() {
	select {
	case d.wakeup <- struct{}{}:
	default:
	}
}

// Start launches the configured number of worker goroutines. Each runs
// until ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i := 0; i < d.cfg.WorkerCount; i++ {
		d.wg.Add(1)
		go d.worker(ctx)
	}
}

// Stop waits for all workers to exit. Callers must cancel the context
// passed to Start first.
func (d *Dispatcher) Stop() {
	d.wg.Wait()
}

func (d *Dispatcher) worker(ctx context.Context) {
	defer d.wg.Done()

	ticker := time.NewTicker(d.cfg.ProcessingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-d.wakeup:
		case <-ticker.C:
		}
		d.drainAndProcess(ctx)
	}
}

func (d *Dispatcher) drainAndProcess(ctx context.Context) {
	for {
		batch := d.q.DrainBatch(d.cfg.BatchSize)
		if len(batch) == 0 {
			return
		}
		for _, packet := range batch {
			d.processPacket(ctx, packet)
		}
	}
}

// processPacket attempts delivery of every message in packet. Messages
// are dispatched concurrently within the packet (spec.md §4.4); a
// per-message failure never aborts the packet, and the packet is
// considered processed once every message has been attempted at least
// once.
func (d *Dispatcher) processPacket(ctx context.Context, packet models.Packet) {
	var wg sync.WaitGroup
	for _, msg := range packet.Messages {
		wg.Add(1)
		go func(msg models.Message) {
			defer wg.Done()
			d.dispatchMessage(ctx, packet.ID, msg, "")
		}(msg)
	}
	wg.Wait()

	latencyMs := time.Since(packet.EnqueuedAt).Milliseconds()
	d.counters.RecordPacketProcessed(latencyMs)
}

// dispatchMessage selects an analyzer, sends msg, and records the
// outcome. excludeID, if non-empty, is skipped during selection (used
// for the single allowed retry-on-a-different-analyzer attempt).
func (d *Dispatcher) dispatchMessage(ctx context.Context, packetID string, msg models.Message, excludeID string) {
	snapshot := d.reg.Snapshot()
	if excludeID != "" {
		filtered := snapshot[:0]
		for _, a := range snapshot {
			if a.ID != excludeID {
				filtered = append(filtered, a)
			}
		}
		snapshot = filtered
	}

	analyzer, err := d.sel.Select(snapshot)
	if err != nil {
		d.logger.Error("no healthy analyzer for message",
			zap.String("packet_id", packetID),
			zap.String("message_id", msg.ID),
		)
		d.counters.IncErrors()
		return
	}

	success, rttMs, rejected := d.send(ctx, analyzer.DispatchURL(), msg)
	if !rejected {
		d.rec.RecordOutcome(analyzer.ID, success, rttMs, registry.SourceDispatch)
	}

	if success {
		return
	}

	d.counters.IncErrors()

	if rejected {
		// 4xx: message-level failure, not a health signal, no retry.
		return
	}

	if d.cfg.RetryOnFailure && excludeID == "" {
		d.dispatchMessage(ctx, packetID, msg, analyzer.ID)
		return
	}

	if d.dead != nil {
		_ = d.dead.Record(deadletter.Entry{
			Message:    msg,
			AnalyzerID: analyzer.ID,
			Error:      "analyzer failure",
			FailedAt:   time.Now(),
		})
	}
}

// send POSTs msg to url and classifies the outcome. rejected is true for
// a 4xx response, which is a message failure but not a health signal.
func (d *Dispatcher) send(ctx context.Context, url string, msg models.Message) (success bool, rttMs int64, rejected bool) {
	body, err := json.Marshal(msg)
	if err != nil {
		return false, 0, false
	}

	reqCtx, cancel := context.WithTimeout(ctx, d.cfg.SendTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return false, 0, false
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := d.client.Do(req)
	rttMs = time.Since(start).Milliseconds()
	if err != nil {
		return false, rttMs, false
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return true, rttMs, false
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return false, rttMs, true
	default:
		return false, rttMs, false
	}
}
