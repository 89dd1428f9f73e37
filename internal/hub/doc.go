// Package hub provides the two transport surfaces of the smart home hub:
// a REST client for device state and a websocket stream for push events.
//
// # Architecture
//
//	┌─────────────────────────────────────────────┐
//	│                    Hub                      │
//	│   REST :8443/v1          wss :8443/v1       │
//	└───────┬─────────────────────────┬───────────┘
//	        │                         │
//	   ┌────▼─────┐            ┌──────▼──────┐
//	   │  Client  │            │ EventStream │
//	   │ (pull)   │            │   (push)    │
//	   └──────────┘            └─────────────┘
//
// Client fetches full device records on demand. EventStream delivers
// deviceStateChanged frames as they happen, but those frames carry partial
// attribute deltas only - consumers call Client.GetDevice to materialise
// the complete record before acting on an event.
//
// # Connection Supervision
//
// EventStream owns its connection lifecycle: it dials in the background,
// probes liveness with periodic pings, and reconnects with exponential
// backoff (capped) when the connection drops. Its state is observable via
// State(): connecting → subscribed → reconnecting → (closed).
//
// # Authentication
//
// Both surfaces authenticate with the same bearer token, obtained once by
// pressing the hub's action button during pairing. The hub serves a
// self-signed TLS certificate, so certificate verification is disabled and
// the token is the effective trust anchor.
//
// # Usage
//
//	client := hub.NewClient(cfg.Hub)
//	devices, err := client.ListDevices(ctx)
//
//	stream := hub.NewEventStream(cfg.Hub)
//	stream.SetOnEvent(func(ev hub.Event) { ... })
//	stream.Start()
//	defer stream.Close()
package hub
