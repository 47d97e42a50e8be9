// Package connection provides the clients used by respkv-bench.
//
//   - client.go: RESP client speaking to the key-value port
//   - http.go: admin HTTP client for the health and version endpoints
package connection
