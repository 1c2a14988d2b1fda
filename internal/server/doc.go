// Package server assembles the tinyfs HTTP service.
//
// Server Lifecycle:
//  1. Validate configuration and build the logger
//  2. Register Prometheus collectors on a private registry
//  3. Open the workspace through fsclient
//  4. Install middleware (recovery, request ID, metrics, CORS, rate limit)
//  5. Mount the API, the /history/stream WebSocket and /metrics
//  6. Serve until the context is canceled, then drain
//
// Example Usage:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    return err
//	}
//	srv, err := server.NewServer(cfg, nil)
//	if err != nil {
//	    return err
//	}
//	return srv.Run(ctx)
package server
