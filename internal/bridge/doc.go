// Package bridge reconciles device state from the hub into MQTT topics.
//
// Two feeds converge on one engine:
//
//	┌──────────────┐  events   ┌──────────┐
//	│ EventStream  ├──────────►│ Listener ├──┐
//	└──────────────┘  (push)   └──────────┘  │   ┌────────┐   ┌──────┐
//	                                         ├──►│ Engine ├──►│ MQTT │
//	┌──────────────┐  inventory ┌─────────┐  │   └───┬────┘   └──────┘
//	│ REST client  ├───────────►│ Poller  ├──┘       │
//	└──────────────┘  (pull)    └─────────┘          ▼
//	                                             ┌────────┐
//	                                             │ Influx │
//	                                             └────────┘
//
// The engine normalises every raw observation into a canonical Record,
// deduplicates it against the last emitted state per device, and publishes
// survivors to {base}/{type}/{device_id}. Because both feeds pass through
// the same gate, a state change seen by push and then again by poll
// publishes once, not twice.
//
// # Emission policy
//
// A record is published when it is the first observation of its device,
// when any state field changed, or when the state is unchanged but the
// deduplication window has lapsed (heartbeat). Everything else is
// suppressed. Suppression never advances the heartbeat anchor, so a device
// observed every poll still heartbeats on schedule.
//
// The heartbeat keeps downstream consumers able to distinguish "unchanged"
// from "bridge dead" without subscribing to broker session state, and
// gives the time-series archive regular points for gap detection.
//
// # Delivery semantics
//
// At-most-once. A failed publish is logged and dropped; the record is not
// retried, and the state re-asserts itself on the next change or
// heartbeat. Publishing happens outside the deduplication lock, so a slow
// broker never blocks observation.
package bridge
