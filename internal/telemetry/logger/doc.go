// Package logger provides structured logging for respkv.
//
// This package wraps log/slog:
//
//   - logger.go: Logger interface, handler setup, dynamic level
//   - context.go: context propagation with connection IDs
//   - redact.go: client payload and secret redaction
//
// Client payloads (attributes named value, args or payload) are never
// written verbatim; they are replaced by a size summary.
package logger
