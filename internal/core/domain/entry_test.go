package domain

import (
	"testing"
	"time"
)

func TestNewEntry(t *testing.T) {
	now := time.Unix(1700000000, 0)

	e := NewEntry([]byte("v"), 0, now)
	if !e.ExpiresAt.IsZero() {
		t.Error("entry without ttl should have no expiry")
	}

	e = NewEntry([]byte("v"), -time.Second, now)
	if !e.ExpiresAt.IsZero() {
		t.Error("negative ttl should mean no expiry")
	}

	e = NewEntry([]byte("v"), 50*time.Millisecond, now)
	if !e.ExpiresAt.Equal(now.Add(50 * time.Millisecond)) {
		t.Errorf("ExpiresAt = %v, want %v", e.ExpiresAt, now.Add(50*time.Millisecond))
	}
}

func TestEntry_IsExpiredAt(t *testing.T) {
	now := time.Unix(1700000000, 0)
	e := NewEntry([]byte("v"), 50*time.Millisecond, now)

	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"before expiry", now.Add(49 * time.Millisecond), false},
		{"at expiry", now.Add(50 * time.Millisecond), true},
		{"after expiry", now.Add(time.Second), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := e.IsExpiredAt(tt.at); got != tt.want {
				t.Errorf("IsExpiredAt() = %v, want %v", got, tt.want)
			}
		})
	}

	persistent := NewEntry([]byte("v"), 0, now)
	if persistent.IsExpiredAt(now.Add(24 * time.Hour)) {
		t.Error("entry without expiry should never expire")
	}
}
