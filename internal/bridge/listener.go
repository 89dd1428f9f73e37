package bridge

import (
	"context"
	"time"

	"github.com/nerrad567/dirigera-bridge/internal/hub"
)

// defaultFetchTimeout bounds the per-event state fetch when no timeout is
// configured.
const defaultFetchTimeout = 10 * time.Second

// DeviceFetcher fetches a single device's full state. Implemented by the
// hub REST client.
type DeviceFetcher interface {
	GetDevice(ctx context.Context, deviceID string) (*hub.Device, error)
}

// Listener feeds push events into the engine.
//
// Event frames carry partial attribute deltas only, so the listener
// materialises the full device record over REST before observing it -
// feeding a delta through the engine would make the missing fields look
// like state changes. When the fetch fails the event is dropped with a
// warning; the next poll sweep republishes whatever was missed.
type Listener struct {
	engine  *Engine
	fetcher DeviceFetcher
	timeout time.Duration
	logger  Logger
}

// NewListener creates a listener.
//
// Parameters:
//   - engine: Reconciliation engine receiving observations
//   - fetcher: REST surface for materialising full device records
//   - timeout: Per-event fetch bound (defaulted when <= 0)
//   - logger: Optional diagnostics
func NewListener(engine *Engine, fetcher DeviceFetcher, timeout time.Duration, logger Logger) *Listener {
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	return &Listener{
		engine:  engine,
		fetcher: fetcher,
		timeout: timeout,
		logger:  logger,
	}
}

// HandleEvent is wired as the event stream callback. Event types other
// than device state changes are ignored.
func (l *Listener) HandleEvent(ev hub.Event) {
	if ev.Type != hub.EventDeviceStateChanged {
		logDebug(l.logger, "ignoring event", "type", ev.Type)
		return
	}
	if ev.Data.ID == "" {
		logWarn(l.logger, "dropping event with no device id", "event_id", ev.ID)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	defer cancel()

	device, err := l.fetcher.GetDevice(ctx, ev.Data.ID)
	if err != nil {
		logWarn(l.logger, "could not materialise device state, dropping event",
			"device_id", ev.Data.ID,
			"error", err,
		)
		return
	}

	l.engine.Process(SourcePush, *device)
}
