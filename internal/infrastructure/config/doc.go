// Package config handles loading and validating the bridge configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables
//   - Validation of required fields
//   - Default value handling
//
// The environment variable names match the ones the bridge has always been
// deployed with (DIRIGERA_IP, DIRIGERA_TOKEN, MQTT_HOST, ...), so an
// existing container environment keeps working unchanged. A config file is
// optional: LoadFromEnv builds a configuration from defaults plus the
// environment alone.
//
// Security Considerations:
//   - Sensitive values (hub token, MQTT password) should be set via
//     environment variables rather than the config file
//   - If a config file is used it should have restricted permissions (0600)
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Hub.Host)
package config
