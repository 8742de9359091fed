// Package api implements the HTTP REST API of the LED bridge.
//
// This package provides:
//   - Group listing and direct group commands (sent to the wifi bridge)
//   - Frame preview and decode tools for commissioning and debugging
//   - Health and runtime metrics
//   - Middleware stack (request ID, logging, recovery, body limit)
//
// # Routes
//
//	GET  /api/v1/health
//	GET  /api/v1/metrics
//	GET  /api/v1/groups
//	GET  /api/v1/groups/{id}
//	POST /api/v1/groups/{id}/commands
//	POST /api/v1/frames/preview
//	POST /api/v1/frames/decode
//
// Commands over MQTT remain the primary control path; the API shares the
// same bridge, so both paths draw from one sequence counter.
//
// The server follows the same lifecycle pattern as other components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
package api
