// Package main is the standalone tinyfs HTTP daemon.
//
// It serves one workspace as a JSON API, configured the 12-factor way so it
// can run under a process supervisor or in a container. `tinyfs serve` runs
// the same server from the command line tool.
//
// Configuration:
//   - Environment variables (TINYFS_WORKSPACE, TINYFS_APPROVAL, PORT, ...)
//   - Optional TOML file (-config or TINYFS_CONFIG)
//   - CLI flags (override both)
//
// Usage:
//
//	TINYFS_WORKSPACE=/srv/sandbox TINYFS_APPROVAL=allow ./server -port 8085
//
//	# Development mode (colored logs, debug level)
//	./server -dev -workspace ./sandbox
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
