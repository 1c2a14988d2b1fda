// Package middleware provides the gin middleware in front of the tinyfs
// HTTP API.
//
//   - CORS: cross-origin access, wrapping gin-contrib/cors
//   - RateLimit: per-IP token buckets with idle client eviction
//   - GlobalRateLimit: one token bucket shared by all clients
//   - RequestID: X-Request-ID propagation
//
// Example Usage:
//
//	router.Use(middleware.RequestID())
//	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
//	router.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))
package middleware
