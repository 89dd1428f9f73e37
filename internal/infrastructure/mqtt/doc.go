// Package mqtt provides the MQTT publishing side of the DIRIGERA bridge.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees and bounded waits
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Architecture
//
// The bridge is a pure producer: device state flows from the hub, through
// the reconciliation engine, out to per-device topics. There is no
// subscribe surface — the bridge never accepts commands over MQTT.
//
//	DIRIGERA Hub → bridge → MQTT Broker → consumers (Home Assistant, Telegraf, ...)
//
// Bridge availability is visible on {base_topic}/bridge/status: "online" is
// published retained on every (re)connect, the broker publishes the LWT
// "offline" payload if the bridge dies, and a graceful shutdown publishes
// its own "offline" payload before disconnecting.
//
// # Security Considerations
//
//   - TLS is available for brokers off the trusted LAN (cfg.Broker.TLS=true)
//   - Credentials are optional; anonymous access is common on LAN brokers
//   - Message payloads are not encrypted beyond TLS transport
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	err = client.Publish("dirigera/sensor/abc123", payload, 1, false)
package mqtt
