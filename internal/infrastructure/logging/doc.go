// Package logging provides structured logging for the LED bridge service.
//
// It wraps log/slog so every component logs with the same default fields
// (service, version) and the same level filtering.
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// # Usage
//
//	logger := logging.New(cfg.Logging, version)
//	ibox.SetLogger(logger.Component("ibox"))
//	logger.Error("failed to connect", "error", err)
//
// Never log the MQTT password or the InfluxDB token.
package logging
