package logger

import (
	"fmt"
	"log/slog"
	"strings"
)

// Attribute keys that carry raw client data.
var payloadKeys = map[string]struct{}{
	"value":   {},
	"args":    {},
	"payload": {},
}

// Sensitive key patterns that should be redacted.
var sensitiveKeyPatterns = []string{
	"password",
	"secret",
	"token",
	"credential",
	"auth",
}

// redactedValue is the placeholder for redacted sensitive data.
const redactedValue = "***REDACTED***"

// redactSensitive replaces client payloads with a size summary and
// fully redacts values under sensitive key names.
func redactSensitive(a slog.Attr) slog.Attr {
	if _, ok := payloadKeys[strings.ToLower(a.Key)]; ok {
		return slog.String(a.Key, summarizePayload(a.Value))
	}

	if a.Value.Kind() == slog.KindString && IsSensitiveKey(a.Key) {
		if a.Value.String() != "" {
			return slog.String(a.Key, redactedValue)
		}
		return a
	}

	// Handle nested groups recursively
	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		newAttrs := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			newAttrs[i] = redactSensitive(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(newAttrs...)}
	}

	return a
}

// summarizePayload describes a payload by size only.
func summarizePayload(v slog.Value) string {
	switch v.Kind() {
	case slog.KindString:
		return fmt.Sprintf("<%d bytes>", len(v.String()))
	case slog.KindAny:
		switch p := v.Any().(type) {
		case []byte:
			return fmt.Sprintf("<%d bytes>", len(p))
		case [][]byte:
			total := 0
			for _, b := range p {
				total += len(b)
			}
			return fmt.Sprintf("<%d args, %d bytes>", len(p), total)
		case []string:
			total := 0
			for _, s := range p {
				total += len(s)
			}
			return fmt.Sprintf("<%d args, %d bytes>", len(p), total)
		}
	}
	return redactedValue
}

// IsSensitiveKey checks if a key name suggests sensitive content.
func IsSensitiveKey(key string) bool {
	keyLower := strings.ToLower(key)
	for _, pattern := range sensitiveKeyPatterns {
		if strings.Contains(keyLower, pattern) {
			return true
		}
	}
	return false
}
