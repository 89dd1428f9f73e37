package bridge

import (
	"encoding/json"
	"errors"
	"sync/atomic"
	"time"

	"github.com/nerrad567/dirigera-bridge/internal/hub"
)

// Source identifies which feed produced an observation. The emission
// decision is source-agnostic; the source appears in logs only.
type Source string

const (
	SourcePoll Source = "poll"
	SourcePush Source = "push"
)

// Sink publishes serialised records. Implemented by the infrastructure
// MQTT client.
type Sink interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// Archiver mirrors emitted records into a time-series store. Implemented
// by the infrastructure InfluxDB client; optional.
type Archiver interface {
	WriteDeviceState(deviceID, deviceType, room string, fields map[string]interface{}, ts time.Time)
}

// Logger is the logging interface for the engine. Matches the behaviour
// of log/slog without importing a concrete implementation.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Emission is one accepted observation, ready for publishing.
type Emission struct {
	Topic  string
	Record *Record
	Reason Reason
}

// EngineOptions configures a reconciliation engine.
type EngineOptions struct {
	// Sink receives serialised records. Required.
	Sink Sink

	// BaseTopic is the topic namespace root. Required.
	BaseTopic string

	// QoS and Retain apply to every published record.
	QoS    byte
	Retain bool

	// Window is the deduplication window; zero disables suppression.
	Window time.Duration

	// Archiver mirrors emissions to a time-series store. Optional.
	Archiver Archiver

	// Logger for emission decisions and publish failures. Optional.
	Logger Logger

	// Now overrides the clock, for tests. Defaults to time.Now.
	Now func() time.Time
}

// Engine is the reconciliation core: it funnels raw device observations
// from every source through normalisation and deduplication, and publishes
// whatever survives.
//
// Both feeds - push events and periodic polls - converge here, so a state
// change observed by both within the window publishes exactly once.
// Publishing happens outside the deduplication lock; a slow broker delays
// delivery but never blocks concurrent observations.
//
// Delivery is at-most-once by design: a failed publish is logged and
// dropped, and the state re-asserts itself on the next change or heartbeat.
type Engine struct {
	store     *Store
	sink      Sink
	archiver  Archiver
	baseTopic string
	qos       byte
	retain    bool
	logger    Logger
	now       func() time.Time

	// Statistics (atomic access)
	observed      atomic.Uint64
	emitted       atomic.Uint64
	suppressed    atomic.Uint64
	malformed     atomic.Uint64
	published     atomic.Uint64
	publishErrors atomic.Uint64
}

// NewEngine creates a reconciliation engine.
//
// Returns an error if required options are missing.
func NewEngine(opts EngineOptions) (*Engine, error) {
	if opts.Sink == nil {
		return nil, errors.New("bridge: sink is required")
	}
	if opts.BaseTopic == "" {
		return nil, errors.New("bridge: base topic is required")
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Engine{
		store:     NewStore(opts.Window),
		sink:      opts.Sink,
		archiver:  opts.Archiver,
		baseTopic: opts.BaseTopic,
		qos:       opts.QoS,
		retain:    opts.Retain,
		logger:    opts.Logger,
		now:       now,
	}, nil
}

// Observe runs one raw device record through normalisation and the
// deduplication gate.
//
// Returns the emission when the observation should be published, nil when
// suppressed, and ErrMissingIdentity when the record cannot be identified.
// The decision and the store update are atomic with respect to concurrent
// callers; two racing observations of identical state yield one emission.
func (e *Engine) Observe(raw hub.Device) (*Emission, error) {
	e.observed.Add(1)

	rec, err := Normalize(raw, e.now())
	if err != nil {
		e.malformed.Add(1)
		return nil, err
	}

	reason, emit := e.store.Evaluate(&rec, rec.Timestamp)
	if !emit {
		e.suppressed.Add(1)
		logDebug(e.logger, "suppressed unchanged state",
			"device_id", rec.DeviceID,
			"device_type", rec.DeviceType,
		)
		return nil, nil
	}

	e.emitted.Add(1)
	return &Emission{
		Topic:  StateTopic(e.baseTopic, DeviceType(rec.DeviceType), rec.DeviceID),
		Record: &rec,
		Reason: reason,
	}, nil
}

// Process observes raw and, when the observation is accepted, publishes
// and archives it. This is the entry point both feeds call per device.
//
// Malformed records and publish failures are logged, never propagated: one
// bad device must not stall a poll sweep or the event worker.
func (e *Engine) Process(source Source, raw hub.Device) {
	emission, err := e.Observe(raw)
	if err != nil {
		logWarn(e.logger, "skipping malformed device record",
			"source", string(source),
			"error", err,
		)
		return
	}
	if emission == nil {
		return
	}

	rec := emission.Record
	payload, err := json.Marshal(rec)
	if err != nil {
		logError(e.logger, "serialising record failed",
			"device_id", rec.DeviceID,
			"error", err,
		)
		return
	}

	if err := e.sink.Publish(emission.Topic, payload, e.qos, e.retain); err != nil {
		e.publishErrors.Add(1)
		logWarn(e.logger, "publish failed, state re-asserts on next change or heartbeat",
			"topic", emission.Topic,
			"device_id", rec.DeviceID,
			"error", err,
		)
	} else {
		e.published.Add(1)
		logInfo(e.logger, "published device state",
			"source", string(source),
			"reason", string(emission.Reason),
			"topic", emission.Topic,
			"device_id", rec.DeviceID,
			"state", rec.StateSummary(),
		)
	}

	if e.archiver != nil {
		e.archiver.WriteDeviceState(rec.DeviceID, rec.DeviceType, rec.Room, rec.ArchiveFields(), rec.Timestamp)
	}
}

// Metrics returns a snapshot of engine counters for logging and
// monitoring.
func (e *Engine) Metrics() map[string]interface{} {
	return map[string]interface{}{
		"observed":        e.observed.Load(),
		"emitted":         e.emitted.Load(),
		"suppressed":      e.suppressed.Load(),
		"malformed":       e.malformed.Load(),
		"published":       e.published.Load(),
		"publish_errors":  e.publishErrors.Load(),
		"tracked_devices": e.store.Size(),
	}
}

// Logging helpers - nil-safe wrappers shared by the engine, listener and
// poller, all of which treat their logger as optional.

func logDebug(logger Logger, msg string, keysAndValues ...any) {
	if logger != nil {
		logger.Debug(msg, keysAndValues...)
	}
}

func logInfo(logger Logger, msg string, keysAndValues ...any) {
	if logger != nil {
		logger.Info(msg, keysAndValues...)
	}
}

func logWarn(logger Logger, msg string, keysAndValues ...any) {
	if logger != nil {
		logger.Warn(msg, keysAndValues...)
	}
}

func logError(logger Logger, msg string, keysAndValues ...any) {
	if logger != nil {
		logger.Error(msg, keysAndValues...)
	}
}
