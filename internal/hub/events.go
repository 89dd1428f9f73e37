package hub

import (
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nerrad567/dirigera-bridge/internal/infrastructure/config"
)

// Connection management constants.
const (
	defaultHandshakeTimeout = 10 * time.Second // Websocket handshake timeout
	defaultWriteTimeout     = 5 * time.Second  // Deadline for control frames
	defaultReconnectDelay   = 5 * time.Second  // Initial reconnection delay
	maxReconnectDelay       = 2 * time.Minute  // Cap for exponential backoff
	backoffFactor           = 1.5              // Backoff multiplier per failed attempt
	pingInterval            = 30 * time.Second // Liveness probe interval
	eventQueueSize          = 100              // Buffered events before drop
)

// StreamState describes where the event stream is in its connection
// lifecycle.
type StreamState int32

const (
	// StateConnecting means a dial attempt is in progress. This is also the
	// state of a stream that has not been started yet.
	StateConnecting StreamState = iota

	// StateSubscribed means the websocket is established and frames are
	// being consumed.
	StateSubscribed

	// StateReconnecting means the last connection attempt or established
	// connection failed and the stream is waiting out its backoff delay.
	StateReconnecting

	// StateClosed means Close() was called. Terminal.
	StateClosed
)

// String returns a human-readable state name for logging.
func (s StreamState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateSubscribed:
		return "subscribed"
	case StateReconnecting:
		return "reconnecting"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Logger is the logging interface for the event stream. Matches the
// behaviour of log/slog without importing a concrete implementation.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// closeOnce wraps a channel with sync.Once to guarantee exactly-once close
// semantics, preventing panics from duplicate Close() calls.
type closeOnce struct {
	ch   chan struct{}
	once sync.Once
}

func newCloseOnce() *closeOnce {
	return &closeOnce{ch: make(chan struct{})}
}

func (c *closeOnce) Close() {
	c.once.Do(func() { close(c.ch) })
}

func (c *closeOnce) Done() <-chan struct{} {
	return c.ch
}

// streamStats holds internal atomic counters.
type streamStats struct {
	framesReceived  atomic.Uint64
	eventsDelivered atomic.Uint64
	eventsDropped   atomic.Uint64
	malformedFrames atomic.Uint64
	reconnects      atomic.Uint64
}

// StreamStats is a point-in-time snapshot of stream counters for
// monitoring and logging.
type StreamStats struct {
	FramesReceived  uint64 // Raw frames read from the websocket
	EventsDelivered uint64 // Events handed to the callback
	EventsDropped   uint64 // Events discarded because the queue was full
	MalformedFrames uint64 // Frames that failed JSON decoding
	Reconnects      uint64 // Established connections subsequently lost
	State           string // Current lifecycle state
}

// EventStream maintains a persistent websocket subscription to the hub's
// event feed.
//
// The stream supervises its own connection: it dials in the background,
// reconnects with exponential backoff when the connection drops, and sends
// periodic pings so a silently dead TCP connection is detected between
// events, which can be many minutes apart. A hub that is down at startup is
// retried indefinitely rather than treated as fatal; the periodic poll
// covers any state changes missed while disconnected.
//
// Events are delivered to the registered callback from a single worker
// goroutine, in arrival order. Handlers that re-fetch device state rely on
// that ordering to avoid publishing stale state over fresh.
type EventStream struct {
	cfg config.HubConfig
	url string

	dialer *websocket.Dialer

	// conn is the active websocket connection (nil when disconnected)
	conn   *websocket.Conn
	connMu sync.Mutex

	// state is the current StreamState, stored atomically
	state atomic.Int32

	// onEvent receives decoded event frames
	onEvent    func(Event)
	callbackMu sync.RWMutex

	// eventQueue decouples the read loop from slow callbacks
	eventQueue chan Event

	done      *closeOnce
	startOnce sync.Once
	wg        sync.WaitGroup

	logger   Logger
	loggerMu sync.RWMutex

	stats streamStats
}

// NewEventStream creates an event stream for the hub described by cfg.
// No connection is made until Start is called.
func NewEventStream(cfg config.HubConfig) *EventStream {
	return &EventStream{
		cfg: cfg,
		url: fmt.Sprintf("wss://%s:%d%s", cfg.Host, cfg.Port, apiBasePath),
		dialer: &websocket.Dialer{
			HandshakeTimeout: defaultHandshakeTimeout,
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: true, // #nosec G402 -- same self-signed certificate as the REST API
				MinVersion:         tls.VersionTLS12,
			},
		},
		eventQueue: make(chan Event, eventQueueSize),
		done:       newCloseOnce(),
	}
}

// SetOnEvent registers the callback invoked for each event frame.
// Register before calling Start; frames arriving while no callback is
// registered are discarded.
func (s *EventStream) SetOnEvent(fn func(Event)) {
	s.callbackMu.Lock()
	s.onEvent = fn
	s.callbackMu.Unlock()
}

// SetLogger attaches a logger for connection lifecycle and delivery
// diagnostics. Without one the stream runs silently.
func (s *EventStream) SetLogger(logger Logger) {
	s.loggerMu.Lock()
	s.logger = logger
	s.loggerMu.Unlock()
}

// Start launches the stream's supervision loop and delivery worker.
// Subsequent calls are no-ops.
func (s *EventStream) Start() {
	s.startOnce.Do(func() {
		s.wg.Add(2)
		go s.run()
		go s.eventWorker()
	})
}

// State returns the stream's current lifecycle state.
func (s *EventStream) State() StreamState {
	return StreamState(s.state.Load())
}

// Stats returns a snapshot of stream counters.
func (s *EventStream) Stats() StreamStats {
	return StreamStats{
		FramesReceived:  s.stats.framesReceived.Load(),
		EventsDelivered: s.stats.eventsDelivered.Load(),
		EventsDropped:   s.stats.eventsDropped.Load(),
		MalformedFrames: s.stats.malformedFrames.Load(),
		Reconnects:      s.stats.reconnects.Load(),
		State:           s.State().String(),
	}
}

// Close shuts the stream down and waits for its goroutines to exit.
// Safe to call multiple times.
func (s *EventStream) Close() error {
	s.done.Close()

	s.connMu.Lock()
	if s.conn != nil {
		_ = s.conn.Close() // unblocks the blocked read
		s.conn = nil
	}
	s.connMu.Unlock()

	s.wg.Wait()
	s.setState(StateClosed)
	return nil
}

// run is the supervision loop: dial, consume until failure, back off,
// repeat. Exits only when the stream is closed.
func (s *EventStream) run() {
	defer s.wg.Done()

	backoff := s.initialBackoff()
	for {
		if s.isClosed() {
			return
		}

		s.setState(StateConnecting)
		conn, err := s.dial()
		if err != nil {
			s.setState(StateReconnecting)
			s.logWarn("event stream connect failed",
				"error", err,
				"retry_in", backoff.String(),
			)
			if !s.sleep(backoff) {
				return
			}
			backoff = s.nextBackoff(backoff)
			continue
		}

		s.setConn(conn)
		if s.isClosed() {
			// Close() fired between dial and setConn and never saw this
			// connection, so it must be released here.
			s.clearConn(conn)
			return
		}
		s.setState(StateSubscribed)
		s.logInfo("event stream subscribed", "url", s.url)
		backoff = s.initialBackoff()

		readErr := s.consume(conn)
		s.clearConn(conn)

		if s.isClosed() {
			return
		}

		s.stats.reconnects.Add(1)
		s.setState(StateReconnecting)
		s.logWarn("event stream disconnected",
			"error", readErr,
			"retry_in", backoff.String(),
		)
		if !s.sleep(backoff) {
			return
		}
		backoff = s.nextBackoff(backoff)
	}
}

// dial establishes the websocket connection, classifying handshake
// rejections so auth failures are distinguishable from an unreachable hub.
func (s *EventStream) dial() (*websocket.Conn, error) {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+s.cfg.Token)

	conn, resp, err := s.dialer.Dial(s.url, header)
	if err != nil {
		if resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
			return nil, fmt.Errorf("%w: status %d", ErrAuthRejected, resp.StatusCode)
		}
		return nil, fmt.Errorf("%w: %v", ErrHubUnreachable, err)
	}
	return conn, nil
}

// consume reads frames until the connection fails, decoding and queueing
// events. A malformed frame is logged and skipped; only transport errors
// end the session.
func (s *EventStream) consume(conn *websocket.Conn) error {
	pingStop := make(chan struct{})
	var pingWG sync.WaitGroup
	pingWG.Add(1)
	go func() {
		defer pingWG.Done()
		s.pingLoop(conn, pingStop)
	}()
	defer func() {
		close(pingStop)
		pingWG.Wait()
	}()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		s.stats.framesReceived.Add(1)

		var ev Event
		if err := json.Unmarshal(payload, &ev); err != nil {
			s.stats.malformedFrames.Add(1)
			s.logWarn("discarding malformed event frame", "error", err)
			continue
		}
		s.dispatch(ev)
	}
}

// pingLoop probes connection liveness. A failed ping closes the connection,
// which errors out the read loop and triggers reconnection.
func (s *EventStream) pingLoop(conn *websocket.Conn, stop <-chan struct{}) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-s.done.Done():
			return
		case <-ticker.C:
			deadline := time.Now().Add(defaultWriteTimeout)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				s.logDebug("event stream ping failed", "error", err)
				_ = conn.Close()
				return
			}
		}
	}
}

// dispatch queues an event for the delivery worker. If the queue is full
// the event is dropped; the next poll republishes any state lost this way.
func (s *EventStream) dispatch(ev Event) {
	s.callbackMu.RLock()
	registered := s.onEvent != nil
	s.callbackMu.RUnlock()
	if !registered {
		return
	}

	select {
	case s.eventQueue <- ev:
	default:
		s.stats.eventsDropped.Add(1)
		s.logWarn("event queue full, dropping event",
			"device_id", ev.Data.ID,
			"queue_size", eventQueueSize,
		)
	}
}

// eventWorker delivers queued events to the callback. A single worker
// preserves arrival order.
func (s *EventStream) eventWorker() {
	defer s.wg.Done()

	for {
		select {
		case <-s.done.Done():
			s.drainEventQueue()
			return
		case ev := <-s.eventQueue:
			s.deliverEvent(ev)
		}
	}
}

// deliverEvent invokes the callback with panic recovery so a misbehaving
// handler cannot crash the stream.
func (s *EventStream) deliverEvent(ev Event) {
	defer func() {
		if r := recover(); r != nil {
			s.logError("event callback panicked",
				"panic", r,
				"device_id", ev.Data.ID,
			)
		}
	}()

	s.callbackMu.RLock()
	cb := s.onEvent
	s.callbackMu.RUnlock()

	if cb != nil {
		cb(ev)
		s.stats.eventsDelivered.Add(1)
	}
}

// drainEventQueue empties pending events during shutdown.
func (s *EventStream) drainEventQueue() {
	for {
		select {
		case <-s.eventQueue:
		default:
			return
		}
	}
}

// sleep waits for d, returning false if the stream closed while waiting.
func (s *EventStream) sleep(d time.Duration) bool {
	select {
	case <-s.done.Done():
		return false
	case <-time.After(d):
		return true
	}
}

func (s *EventStream) initialBackoff() time.Duration {
	if s.cfg.Reconnect.InitialDelay <= 0 {
		return defaultReconnectDelay
	}
	return time.Duration(s.cfg.Reconnect.InitialDelay) * time.Second
}

func (s *EventStream) maxBackoff() time.Duration {
	if s.cfg.Reconnect.MaxDelay <= 0 {
		return maxReconnectDelay
	}
	return time.Duration(s.cfg.Reconnect.MaxDelay) * time.Second
}

// nextBackoff grows the delay exponentially up to the configured cap.
func (s *EventStream) nextBackoff(cur time.Duration) time.Duration {
	next := time.Duration(float64(cur) * backoffFactor)
	if limit := s.maxBackoff(); next > limit {
		next = limit
	}
	return next
}

func (s *EventStream) setConn(conn *websocket.Conn) {
	s.connMu.Lock()
	s.conn = conn
	s.connMu.Unlock()
}

// clearConn releases the active connection after a read failure.
func (s *EventStream) clearConn(conn *websocket.Conn) {
	s.connMu.Lock()
	if s.conn == conn {
		s.conn = nil
	}
	s.connMu.Unlock()
	_ = conn.Close()
}

func (s *EventStream) setState(st StreamState) {
	s.state.Store(int32(st))
}

// isClosed returns true if the stream is shutting down.
func (s *EventStream) isClosed() bool {
	select {
	case <-s.done.Done():
		return true
	default:
		return false
	}
}

// Logging helpers - nil-safe wrappers around the optional logger.

func (s *EventStream) logDebug(msg string, keysAndValues ...any) {
	s.loggerMu.RLock()
	defer s.loggerMu.RUnlock()
	if s.logger != nil {
		s.logger.Debug(msg, keysAndValues...)
	}
}

func (s *EventStream) logInfo(msg string, keysAndValues ...any) {
	s.loggerMu.RLock()
	defer s.loggerMu.RUnlock()
	if s.logger != nil {
		s.logger.Info(msg, keysAndValues...)
	}
}

func (s *EventStream) logWarn(msg string, keysAndValues ...any) {
	s.loggerMu.RLock()
	defer s.loggerMu.RUnlock()
	if s.logger != nil {
		s.logger.Warn(msg, keysAndValues...)
	}
}

func (s *EventStream) logError(msg string, keysAndValues ...any) {
	s.loggerMu.RLock()
	defer s.loggerMu.RUnlock()
	if s.logger != nil {
		s.logger.Error(msg, keysAndValues...)
	}
}
