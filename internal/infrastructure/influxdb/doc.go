// Package influxdb archives accepted device-state emissions to InfluxDB 2.x.
//
// The bridge's deduplication heartbeat exists so a time-series store can
// distinguish "no change" from "no data". This package is that store's
// in-process writer: every record accepted by the reconciliation engine is
// mirrored here as a point in the device_state measurement, tagged by
// device_id, device_type and room.
//
// # Features
//
//   - Non-blocking writes with configurable batching
//   - Async error reporting via callback
//   - Graceful degradation: a disconnected archive drops points silently
//     and never stalls the MQTT publish path
//
// # Configuration
//
//	influxdb:
//	  enabled: true
//	  url: "http://localhost:8086"
//	  token: "..."          # or INFLUXDB_TOKEN
//	  org: "home"
//	  bucket: "devices"
//	  batch_size: 100       # points per batch
//	  flush_interval: 10    # seconds
//
// The archive is optional. When disabled, Connect returns ErrDisabled and
// the bridge runs without it.
package influxdb
