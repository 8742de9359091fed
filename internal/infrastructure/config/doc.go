// Package config handles loading and validating the LED bridge configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables
//   - Validation of the bridge address and group zone mapping
//   - Default value handling
//
// Security Considerations:
//   - Sensitive values (MQTT password, InfluxDB token) should be set via environment variables
//   - The config file should have restricted permissions (0600)
//
// Usage:
//
//	cfg, err := config.Load("configs/ledbridge.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, g := range cfg.Groups {
//	    fmt.Println(g.ID, g.Zone, g.LEDType)
//	}
package config
