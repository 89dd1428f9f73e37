package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the DIRIGERA bridge.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Hub      HubConfig      `yaml:"hub"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	Poll     PollConfig     `yaml:"poll"`
	Dedup    DedupConfig    `yaml:"dedup"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// HubConfig contains DIRIGERA hub connection settings.
type HubConfig struct {
	// Host is the IP address or hostname of the hub on the local network.
	Host string `yaml:"host"`

	// Port is the hub's HTTPS/websocket port. Default: 8443
	Port int `yaml:"port"`

	// Token is the bearer token obtained during hub pairing.
	// Prefer setting this via the DIRIGERA_TOKEN environment variable.
	Token string `yaml:"token"`

	// RequestTimeout bounds individual REST calls, in seconds.
	RequestTimeout int `yaml:"request_timeout"`

	// Reconnect controls event-stream reconnection backoff.
	Reconnect HubReconnectConfig `yaml:"reconnect"`
}

// HubReconnectConfig contains event-stream reconnection settings.
type HubReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	BaseTopic string              `yaml:"base_topic"`
	QoS       int                 `yaml:"qos"`
	Retain    bool                `yaml:"retain"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// PollConfig contains device-list polling settings.
type PollConfig struct {
	// Interval between full device-list fetches, in seconds.
	Interval int `yaml:"interval"`
}

// DedupConfig contains duplicate-suppression settings.
type DedupConfig struct {
	// Window is the minimum time between re-emissions of unchanged device
	// state, in seconds. Unchanged state is re-asserted once the window
	// lapses so downstream consumers still see liveness. 0 disables
	// suppression entirely.
	Window int `yaml:"window"`
}

// InfluxDBConfig contains InfluxDB archive settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables keep the names the bridge has always used in
// deployment: DIRIGERA_IP, DIRIGERA_TOKEN, MQTT_HOST, MQTT_PORT, MQTT_USER,
// MQTT_PASSWORD, MQTT_BASE_TOPIC, POLL_INTERVAL, DEDUP_WINDOW, LOG_LEVEL,
// INFLUXDB_TOKEN.
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// LoadFromEnv builds a configuration from defaults and environment variables
// alone, for deployments that run the bridge without a config file.
func LoadFromEnv() (*Config, error) {
	cfg := defaultConfig()
	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Hub: HubConfig{
			Port:           8443,
			RequestTimeout: 10,
			Reconnect: HubReconnectConfig{
				InitialDelay: 5,
				MaxDelay:     120,
			},
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "dirigera-bridge",
			},
			BaseTopic: "dirigera",
			QoS:       1,
			Retain:    false,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
		},
		Poll: PollConfig{
			Interval: 300,
		},
		Dedup: DedupConfig{
			Window: 5,
		},
		InfluxDB: InfluxDBConfig{
			Enabled:       false,
			BatchSize:     100,
			FlushInterval: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
func applyEnvOverrides(cfg *Config) {
	// Hub
	if v := os.Getenv("DIRIGERA_IP"); v != "" {
		cfg.Hub.Host = v
	}
	if v := os.Getenv("DIRIGERA_TOKEN"); v != "" {
		cfg.Hub.Token = v
	}

	// MQTT
	if v := os.Getenv("MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("MQTT_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.MQTT.Broker.Port = p
		}
	}
	if v := os.Getenv("MQTT_USER"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}
	if v := os.Getenv("MQTT_BASE_TOPIC"); v != "" {
		cfg.MQTT.BaseTopic = v
	}

	// Timing
	if v := os.Getenv("POLL_INTERVAL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Poll.Interval = n
		}
	}
	if v := os.Getenv("DEDUP_WINDOW"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Dedup.Window = n
		}
	}

	// Logging
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	// InfluxDB
	if v := os.Getenv("INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Hub validation
	if c.Hub.Host == "" {
		errs = append(errs, "hub.host is required (set DIRIGERA_IP environment variable)")
	}
	if c.Hub.Token == "" {
		errs = append(errs, "hub.token is required (set DIRIGERA_TOKEN environment variable)")
	}
	if c.Hub.Port < 1 || c.Hub.Port > 65535 {
		errs = append(errs, "hub.port must be between 1 and 65535")
	}
	if c.Hub.RequestTimeout < 1 {
		errs = append(errs, "hub.request_timeout must be at least 1 second")
	}
	if c.Hub.Reconnect.InitialDelay < 1 {
		errs = append(errs, "hub.reconnect.initial_delay must be at least 1 second")
	}
	if c.Hub.Reconnect.MaxDelay < c.Hub.Reconnect.InitialDelay {
		errs = append(errs, "hub.reconnect.max_delay must not be less than initial_delay")
	}

	// MQTT validation
	if c.MQTT.Broker.Host == "" {
		errs = append(errs, "mqtt.broker.host is required")
	}
	if c.MQTT.Broker.Port < 1 || c.MQTT.Broker.Port > 65535 {
		errs = append(errs, "mqtt.broker.port must be between 1 and 65535")
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.BaseTopic == "" {
		errs = append(errs, "mqtt.base_topic is required")
	} else if strings.ContainsAny(c.MQTT.BaseTopic, "+#") {
		errs = append(errs, "mqtt.base_topic must not contain wildcard characters")
	} else if strings.HasPrefix(c.MQTT.BaseTopic, "/") || strings.HasSuffix(c.MQTT.BaseTopic, "/") {
		errs = append(errs, "mqtt.base_topic must not start or end with '/'")
	}

	// Timing validation
	if c.Poll.Interval < 1 {
		errs = append(errs, "poll.interval must be at least 1 second")
	}
	if c.Dedup.Window < 0 {
		errs = append(errs, "dedup.window must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetRequestTimeout returns the hub REST request timeout as a Duration.
func (h HubConfig) GetRequestTimeout() time.Duration {
	return time.Duration(h.RequestTimeout) * time.Second
}

// GetPollInterval returns the device-list poll interval as a Duration.
func (c *Config) GetPollInterval() time.Duration {
	return time.Duration(c.Poll.Interval) * time.Second
}

// GetDedupWindow returns the duplicate-suppression window as a Duration.
func (c *Config) GetDedupWindow() time.Duration {
	return time.Duration(c.Dedup.Window) * time.Second
}
