package logger

import (
	"bytes"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"zero config", Config{}, false},
		{"json", Config{Level: "info", Format: "json"}, false},
		{"text", Config{Level: "debug", Format: "text"}, false},
		{"console alias", Config{Level: "info", Format: "console"}, false},
		{"upper case format", Config{Format: "JSON"}, false},
		{"unknown format", Config{Format: "logfmt"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && l == nil {
				t.Fatal("New() returned nil logger")
			}
		})
	}
}

func TestLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: "debug", Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	tests := []struct {
		level   string
		logFunc func(string, ...any)
	}{
		{"DEBUG", l.Debug},
		{"INFO", l.Info},
		{"WARN", l.Warn},
		{"ERROR", l.Error},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			buf.Reset()
			tt.logFunc("key expired", "component", "memory")

			var entry map[string]any
			if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
				t.Fatalf("Failed to parse JSON log %q: %v", buf.String(), err)
			}
			if entry["level"] != tt.level {
				t.Errorf("level = %v, want %s", entry["level"], tt.level)
			}
			if entry["msg"] != "key expired" {
				t.Errorf("msg = %v", entry["msg"])
			}
			if entry["component"] != "memory" {
				t.Errorf("component = %v", entry["component"])
			}
		})
	}
}

func TestLogger_With(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: "info", Output: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	l.With("component", "redisserver").With("conn_id", "c1").Info("connection opened")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to parse JSON log: %v", err)
	}
	if entry["component"] != "redisserver" || entry["conn_id"] != "c1" {
		t.Errorf("entry = %v, want component and conn_id attributes", entry)
	}
}

func TestSetLevel(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: "error", Output: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	l.Warn("filtered")
	if buf.Len() > 0 {
		t.Fatalf("warn logged at error level: %s", buf.String())
	}

	// A level change reaches loggers that were already built.
	SetLevel("debug")
	l.Debug("visible")
	if buf.Len() == 0 {
		t.Error("debug not logged after SetLevel(debug)")
	}
}

func TestCurrentLevel(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"debug", "debug"},
		{"DEBUG", "debug"},
		{"info", "info"},
		{"warn", "warn"},
		{"warning", "warn"},
		{"Error", "error"},
		{"verbose", "info"},
		{"", "info"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			SetLevel(tt.input)
			if got := CurrentLevel(); got != tt.want {
				t.Errorf("SetLevel(%q); CurrentLevel() = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
	SetLevel("info")
}

func TestDefault(t *testing.T) {
	if Default() == nil {
		t.Fatal("Default() returned nil before SetDefault")
	}

	prev := Default()
	t.Cleanup(func() { SetDefault(prev) })

	var buf bytes.Buffer
	l, err := New(Config{Level: "info", Output: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	SetDefault(l)

	Default().Info("from default")
	if !strings.Contains(buf.String(), "from default") {
		t.Errorf("Default() did not write to the installed logger: %q", buf.String())
	}
}

func TestLogger_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: "info", Format: "text", Output: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	l.Info("server listening", "address", "127.0.0.1:6379")

	output := buf.String()
	if !strings.Contains(output, "server listening") {
		t.Errorf("Text output should contain message, got: %s", output)
	}
	if !strings.Contains(output, "address=127.0.0.1:6379") {
		t.Errorf("Text output should contain address attribute, got: %s", output)
	}
}

func TestToSlog(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: "info", Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ToSlog(l).Info("via slog", "value", "secret-bytes")

	output := buf.String()
	if !strings.Contains(output, "via slog") {
		t.Errorf("ToSlog logger should share the handler, got: %s", output)
	}
	if strings.Contains(output, "secret-bytes") {
		t.Errorf("ToSlog logger should keep redaction, got: %s", output)
	}
}
