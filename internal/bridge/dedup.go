package bridge

import (
	"sync"
	"time"
)

// Reason classifies why an observation was emitted.
type Reason string

const (
	// ReasonInitial: first observation of this device since startup.
	ReasonInitial Reason = "initial"

	// ReasonChange: at least one state field differs from the last
	// emission.
	ReasonChange Reason = "change"

	// ReasonHeartbeat: state is unchanged but the suppression window has
	// lapsed, so the record is re-emitted as a liveness signal.
	ReasonHeartbeat Reason = "heartbeat"
)

// dedupEntry is the per-device memory: the last emitted state and when it
// was emitted.
type dedupEntry struct {
	state     *Record
	emittedAt time.Time
}

// Store remembers the last emitted state per device and decides whether a
// new observation should be emitted or suppressed.
//
// The emission policy:
//   - no prior entry for the device → emit (initial)
//   - any state field changed since the last emission → emit (change)
//   - unchanged, but more than the window has elapsed since the last
//     emission → emit (heartbeat)
//   - otherwise → suppress, leaving the entry untouched
//
// Suppression never advances the window anchor: the heartbeat clock runs
// from the last emission, not the last observation, so a quiet device
// re-emits on schedule no matter how often it is observed. A window of
// zero disables suppression entirely.
//
// Store is safe for concurrent use. The decision and the entry update
// happen under one lock, so two racing observations of identical state
// produce exactly one emission.
type Store struct {
	mu      sync.Mutex
	entries map[string]*dedupEntry
	window  time.Duration
}

// NewStore creates a deduplication store with the given suppression window.
func NewStore(window time.Duration) *Store {
	return &Store{
		entries: make(map[string]*dedupEntry),
		window:  window,
	}
}

// Evaluate applies the emission policy to rec, observed at now.
//
// When the observation should be emitted, the store records it as the
// device's last emitted state and returns the reason with true. When
// suppressed it returns ("", false) and the stored entry is untouched.
func (s *Store) Evaluate(rec *Record, now time.Time) (Reason, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[rec.DeviceID]
	if !ok {
		s.entries[rec.DeviceID] = &dedupEntry{state: rec, emittedAt: now}
		return ReasonInitial, true
	}

	if !rec.StateEquals(entry.state) {
		entry.state = rec
		entry.emittedAt = now
		return ReasonChange, true
	}

	if now.Sub(entry.emittedAt) > s.window {
		entry.state = rec
		entry.emittedAt = now
		return ReasonHeartbeat, true
	}

	return "", false
}

// Size returns the number of devices currently tracked.
func (s *Store) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// LastEmitted returns the most recently emitted record for a device, or
// nil if the device has never emitted.
func (s *Store) LastEmitted(deviceID string) *Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok := s.entries[deviceID]; ok {
		return entry.state
	}
	return nil
}
