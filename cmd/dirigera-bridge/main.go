// DIRIGERA Bridge - smart home state reconciliation
//
// This is the main entry point for the bridge. It mirrors device state from
// an IKEA DIRIGERA hub into MQTT topics, reconciling two feeds - push
// events from the hub's websocket and a periodic full-inventory poll -
// through one deduplicating engine, with optional archival to InfluxDB.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nerrad567/dirigera-bridge/internal/bridge"
	"github.com/nerrad567/dirigera-bridge/internal/hub"
	"github.com/nerrad567/dirigera-bridge/internal/infrastructure/config"
	"github.com/nerrad567/dirigera-bridge/internal/infrastructure/influxdb"
	"github.com/nerrad567/dirigera-bridge/internal/infrastructure/logging"
	"github.com/nerrad567/dirigera-bridge/internal/infrastructure/mqtt"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting DIRIGERA bridge",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	cfg, configPath, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if configPath != "" {
		log.Info("configuration loaded", "path", configPath)
	} else {
		log.Info("configuration loaded from environment")
	}

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Connect to MQTT broker
	mqttClient, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
		"base_topic", cfg.MQTT.BaseTopic,
	)

	// Set up MQTT logging callbacks
	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})
	mqttClient.SetLogger(log)

	// Connect to InfluxDB (optional archive)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
	} else {
		log.Info("InfluxDB archive disabled")
	}

	// Hub REST client - used by both the poller and the event listener
	hubClient := hub.NewClient(cfg.Hub)

	// Reconciliation engine - both feeds converge here
	engineOpts := bridge.EngineOptions{
		Sink:      mqttClient,
		BaseTopic: cfg.MQTT.BaseTopic,
		QoS:       byte(cfg.MQTT.QoS),
		Retain:    cfg.MQTT.Retain,
		Window:    cfg.GetDedupWindow(),
		Logger:    log,
	}
	if influxClient != nil {
		engineOpts.Archiver = influxClient
	}
	engine, err := bridge.NewEngine(engineOpts)
	if err != nil {
		return fmt.Errorf("creating engine: %w", err)
	}
	log.Info("reconciliation engine ready",
		"base_topic", cfg.MQTT.BaseTopic,
		"dedup_window", cfg.GetDedupWindow().String(),
	)

	// Push feed: websocket events, materialised via REST
	listener := bridge.NewListener(engine, hubClient, cfg.Hub.GetRequestTimeout(), log)
	stream := hub.NewEventStream(cfg.Hub)
	stream.SetLogger(log)
	stream.SetOnEvent(listener.HandleEvent)
	stream.Start()
	defer func() {
		log.Info("closing event stream")
		if closeErr := stream.Close(); closeErr != nil {
			log.Error("error closing event stream", "error", closeErr)
		}
	}()

	// Pull feed: periodic full-inventory sweep (first sweep is immediate)
	poller := bridge.NewPoller(engine, hubClient, cfg.GetPollInterval(), cfg.Hub.GetRequestTimeout(), log)
	poller.Start(ctx)
	defer func() {
		log.Info("stopping poller")
		poller.Stop()
	}()
	log.Info("poller started", "interval", cfg.GetPollInterval().String())

	// Verify infrastructure connections are healthy
	if err := healthCheck(ctx, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	// An unreachable hub is not fatal: the poller retries every tick and
	// the event stream reconnects with backoff.
	if err := hubClient.HealthCheck(ctx); err != nil {
		log.Warn("hub not reachable yet, feeds will keep retrying",
			"host", cfg.Hub.Host,
			"error", err,
		)
	} else {
		log.Info("hub reachable", "host", cfg.Hub.Host)
	}

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")
	log.Info("final statistics",
		"engine", engine.Metrics(),
		"stream_state", stream.State().String(),
		"events_delivered", stream.Stats().EventsDelivered,
		"sweeps", poller.Sweeps(),
		"sweep_failures", poller.SweepFailures(),
	)

	// Deferred calls run in reverse order:
	// 1. Poller (stop observing)
	// 2. Event stream
	// 3. InfluxDB (if enabled, flushes pending writes)
	// 4. MQTT (publishes offline status)

	log.Info("DIRIGERA bridge stopped")
	return nil
}

// loadConfig resolves the configuration source.
//
// An explicitly set DIRIGERA_BRIDGE_CONFIG must load or the error
// propagates; the default path is used when present; otherwise the bridge
// runs on environment variables alone.
//
// Returns the config, the file path used ("" when env-only), and any error.
func loadConfig() (*config.Config, string, error) {
	if path := os.Getenv("DIRIGERA_BRIDGE_CONFIG"); path != "" {
		cfg, err := config.Load(path)
		return cfg, path, err
	}
	if _, err := os.Stat(defaultConfigPath); err == nil {
		cfg, err := config.Load(defaultConfigPath)
		return cfg, defaultConfigPath, err
	}
	cfg, err := config.LoadFromEnv()
	return cfg, "", err
}

// healthCheck verifies infrastructure connections are healthy.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - mqttClient: MQTT client to check
//   - influxClient: InfluxDB client to check (may be nil if disabled)
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}
