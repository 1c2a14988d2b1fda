// Package config provides 12-factor configuration for tinyfs.
//
// Values come from three layers, later ones winning:
//  1. Default()
//  2. an optional TOML file (--config or TINYFS_CONFIG)
//  3. environment variables
//
// Configuration Sections:
//   - Workspace: root directory, history size, confirmation policy
//   - Server: HTTP listen address for `tinyfs serve`
//   - Logging: log level and output format
//   - RateLimit: per-IP rate limiting for the HTTP API
//   - Metrics: Prometheus /metrics endpoint
//
// Example file:
//
//	[workspace]
//	root = "/srv/agent"
//	history_size = 500
//	approval = "deny"
//
// Environment Variables:
//   - TINYFS_WORKSPACE, TINYFS_HISTORY_SIZE, TINYFS_AUTO_CONFIRM, TINYFS_APPROVAL
//   - PORT, HOST
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
//   - METRICS_ENABLED
package config
