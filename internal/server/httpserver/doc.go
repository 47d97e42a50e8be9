// Package httpserver provides the admin HTTP listener of respkv.
//
// It serves GET /metrics (Prometheus exposition) and GET /healthz.
// Client traffic never goes through this listener.
package httpserver
