/*
Package monitoring provides Prometheus metrics for tinyfs.

# Metrics

  - tinyfs_operations_total{operation,outcome}
  - tinyfs_operation_duration_seconds{operation}
  - tinyfs_security_violations_total{operation}
  - tinyfs_confirmations_total{decision}
  - tinyfs_history_entries
  - tinyfs_http_requests_total{method,route,status}
  - tinyfs_http_request_duration_seconds{method,route}

# Usage

	metrics := monitoring.NewMetrics(prometheus.DefaultRegisterer)
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
*/
package monitoring
