package bridge

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nerrad567/dirigera-bridge/internal/hub"
)

// Poll defaults applied when configuration values are missing.
const (
	defaultPollInterval = 5 * time.Minute
	defaultPollTimeout  = 10 * time.Second
)

// DeviceLister fetches the full device inventory. Implemented by the hub
// REST client.
type DeviceLister interface {
	ListDevices(ctx context.Context) ([]hub.Device, error)
}

// Poller periodically sweeps the full device inventory through the engine.
//
// The sweep is the bridge's safety net: it repairs whatever the push feed
// missed (dropped events, reconnect gaps, a hub that was down at startup)
// and drives heartbeat re-emission for devices whose state never changes.
// A failed sweep is logged and retried at the next tick; the poller never
// gives up and never tears the process down.
type Poller struct {
	engine   *Engine
	lister   DeviceLister
	interval time.Duration
	timeout  time.Duration
	logger   Logger

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	// Statistics (atomic access)
	sweeps        atomic.Uint64
	sweepFailures atomic.Uint64
}

// NewPoller creates a poller.
//
// Parameters:
//   - engine: Reconciliation engine receiving observations
//   - lister: REST surface for the device inventory
//   - interval: Time between sweeps (defaulted when <= 0)
//   - timeout: Per-sweep fetch bound (defaulted when <= 0)
//   - logger: Optional diagnostics
func NewPoller(engine *Engine, lister DeviceLister, interval, timeout time.Duration, logger Logger) *Poller {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	if timeout <= 0 {
		timeout = defaultPollTimeout
	}
	return &Poller{
		engine:   engine,
		lister:   lister,
		interval: interval,
		timeout:  timeout,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Start launches the poll loop. The first sweep runs immediately so the
// full inventory publishes at startup rather than one interval later.
func (p *Poller) Start(ctx context.Context) {
	p.wg.Add(1)
	go p.run(ctx)
}

func (p *Poller) run(ctx context.Context) {
	defer p.wg.Done()

	p.sweep(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.done:
			return
		case <-ticker.C:
			p.sweep(ctx)
		}
	}
}

// sweep fetches the inventory and feeds every device through the engine.
func (p *Poller) sweep(ctx context.Context) {
	fetchCtx, cancel := context.WithTimeout(ctx, p.timeout)
	devices, err := p.lister.ListDevices(fetchCtx)
	cancel()

	if err != nil {
		if ctx.Err() != nil {
			return // shutting down, not a sweep failure
		}
		p.sweepFailures.Add(1)
		logWarn(p.logger, "device sweep failed, retrying next tick", "error", err)
		return
	}

	for _, d := range devices {
		p.engine.Process(SourcePoll, d)
	}

	p.sweeps.Add(1)
	logDebug(p.logger, "device sweep complete", "devices", len(devices))
}

// Stop halts the poll loop, waiting for an in-flight sweep to finish.
// Safe to call multiple times.
func (p *Poller) Stop() {
	p.stopOnce.Do(func() { close(p.done) })
	p.wg.Wait()
}

// Sweeps returns the number of completed sweeps.
func (p *Poller) Sweeps() uint64 {
	return p.sweeps.Load()
}

// SweepFailures returns the number of failed sweeps.
func (p *Poller) SweepFailures() uint64 {
	return p.sweepFailures.Load()
}
