package domain

import "time"

// Entry is a value stored in the keyspace.
//
// A zero ExpiresAt means the entry never expires. Entries are treated as
// immutable once stored: a SET replaces the whole Entry rather than
// mutating it in place.
type Entry struct {
	Value     []byte
	ExpiresAt time.Time
}

// NewEntry creates an Entry holding value. A ttl <= 0 means no expiry.
func NewEntry(value []byte, ttl time.Duration, now time.Time) *Entry {
	e := &Entry{Value: value}
	if ttl > 0 {
		e.ExpiresAt = now.Add(ttl)
	}
	return e
}

// IsExpiredAt reports whether the entry is no longer live at now.
// An entry is live while its expiry is strictly in the future.
func (e *Entry) IsExpiredAt(now time.Time) bool {
	if e.ExpiresAt.IsZero() {
		return false
	}
	return !now.Before(e.ExpiresAt)
}

// Record is a key with its entry data, as produced by the snapshot
// loader and consumed when seeding the keyspace.
type Record struct {
	Key       string
	Value     []byte
	ExpiresAt time.Time
}
