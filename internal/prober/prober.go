// Package prober implements the health prober (C5): periodic active
// liveness checks against each analyzer's health endpoint, feeding
// outcomes into the same state machine dispatch outcomes do.
package prober

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/karteekpv77/loggateway/internal/gwerr"
	"github.com/karteekpv77/loggateway/internal/recorder"
	"github.com/karteekpv77/loggateway/internal/registry"
)

// Config configures probing cadence and per-request timeout.
type Config struct {
	Interval time.Duration
	Timeout  time.Duration
}

// Prober periodically GETs {endpoint}/health on every registered
// analyzer, concurrently, and records the outcome via the recorder.
type Prober struct {
	cfg    Config
	reg    *registry.Registry
	rec    *recorder.Recorder
	client *http.Client
	logger *zap.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a Prober.
func New(cfg Config, reg *registry.Registry, rec *recorder.Recorder, client *http.Client, logger *zap.Logger) *Prober {
	return &Prober{cfg: cfg, reg: reg, rec: rec, client: client, logger: logger}
}

// Start begins the periodic probe loop. It is safe to call once; Stop is
// idempotent.
func (p *Prober) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})

	go func() {
		defer close(p.done)
		ticker := time.NewTicker(p.cfg.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				p.probeAll(ctx)
			}
		}
	}()
}

// Stop cancels the probe loop and waits for it to exit. Idempotent.
func (p *Prober) Stop() {
	if p.cancel == nil {
		return
	}
	p.cancel()
	<-p.done
	p.cancel = nil
}

// probeAll issues one GET per analyzer, each in its own errgroup
// goroutine with its own timeout, so a single slow analyzer cannot delay
// the others; it returns once every probe has finished.
func (p *Prober) probeAll(ctx context.Context) {
	snapshot := p.reg.Snapshot()

	g, gctx := errgroup.WithContext(ctx)
	for _, a := range snapshot {
		a := a
		g.Go(func() error {
			p.probeOne(gctx, a)
			return nil
		})
	}
	_ = g.Wait()
}

func (p *Prober) probeOne(ctx context.Context, a registry.Snapshot) {
	success, rttMs := p.doProbe(ctx, a.ProbeURL())
	p.rec.RecordOutcome(a.ID, success, rttMs, registry.SourceProbe)
}

func (p *Prober) doProbe(ctx context.Context, url string) (success bool, rttMs int64) {
	reqCtx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return false, 0
	}

	start := time.Now()
	resp, err := p.client.Do(req)
	rttMs = time.Since(start).Milliseconds()
	if err != nil {
		return false, rttMs
	}
	defer resp.Body.Close()

	return resp.StatusCode >= 200 && resp.StatusCode < 300, rttMs
}

// TriggerProbe runs one synchronous probe against id and returns once
// the outcome has been recorded.
func (p *Prober) TriggerProbe(ctx context.Context, id string) error {
	snapshot := p.reg.Snapshot()
	for _, a := range snapshot {
		if a.ID == id {
			p.probeOne(ctx, a)
			return nil
		}
	}
	return fmt.Errorf("analyzer %q: %w", id, gwerr.ErrNotFound)
}
