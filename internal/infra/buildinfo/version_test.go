package buildinfo

import (
	"runtime"
	"strings"
	"testing"
)

func TestGet(t *testing.T) {
	info := Get()

	tests := []struct {
		name  string
		value string
	}{
		{"Version", info.Version},
		{"Commit", info.Commit},
		{"BuildTime", info.BuildTime},
		{"GoVersion", info.GoVersion},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value == "" {
				t.Errorf("%s field should not be empty", tt.name)
			}
		})
	}

	if info.GoVersion != runtime.Version() {
		t.Errorf("GoVersion = %q, want %q", info.GoVersion, runtime.Version())
	}
}

func TestGet_LdflagsWin(t *testing.T) {
	oldCommit, oldTime := Commit, BuildTime
	t.Cleanup(func() { Commit, BuildTime = oldCommit, oldTime })

	Commit = "abc123"
	BuildTime = "2024-01-01T00:00:00Z"

	info := Get()
	if info.Commit != "abc123" || info.BuildTime != "2024-01-01T00:00:00Z" {
		t.Errorf("Get() = %+v, ldflags values should take precedence", info)
	}
}

func TestString(t *testing.T) {
	s := String()
	info := Get()

	expected := info.Version + " (" + info.Commit + ") built at " + info.BuildTime + " with " + info.GoVersion
	if s != expected {
		t.Errorf("String() = %q, want %q", s, expected)
	}
	if !strings.HasPrefix(s, Version) {
		t.Errorf("String() = %q should start with the version", s)
	}
}
