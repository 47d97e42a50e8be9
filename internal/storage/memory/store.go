package memory

import (
	"time"

	"github.com/yndnr/respkv/internal/core/domain"
	"github.com/yndnr/respkv/pkg/cmap"
)

// Store is the shared keyspace.
type Store struct {
	entries  *cmap.Map[*domain.Entry]
	now      func() time.Time
	onExpire func(key string)
}

// Option configures the Store.
type Option func(*Store)

// WithShardCount sets the number of map shards. Must be a power of two;
// other values fall back to the default.
func WithShardCount(n int) Option {
	return func(s *Store) {
		s.entries = cmap.NewWithShards[*domain.Entry](n)
	}
}

// WithClock overrides the time source used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithExpireHook registers fn to be called once for every key removed
// by lazy expiry.
func WithExpireHook(fn func(key string)) Option {
	return func(s *Store) {
		s.onExpire = fn
	}
}

// New creates an empty keyspace.
func New(opts ...Option) *Store {
	s := &Store{
		entries: cmap.New[*domain.Entry](),
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Put stores value under key, replacing any existing entry and its TTL.
// A ttl <= 0 stores the value without expiry.
func (s *Store) Put(key string, value []byte, ttl time.Duration) {
	s.entries.Set(key, domain.NewEntry(value, ttl, s.now()))
}

// Get returns the live value for key. An expired entry is removed
// before Get reports it as missing.
func (s *Store) Get(key string) ([]byte, bool) {
	e, ok := s.entries.Get(key)
	if !ok {
		return nil, false
	}

	now := s.now()
	if !e.IsExpiredAt(now) {
		return e.Value, true
	}

	s.reclaim(key, now)
	return nil, false
}

// Keys returns the live keys at the moment of the call, in no particular
// order. Expired entries seen during the scan are reclaimed.
func (s *Store) Keys() []string {
	now := s.now()
	keys := make([]string, 0, s.entries.Count())
	var expired []string

	s.entries.Range(func(key string, e *domain.Entry) bool {
		if e.IsExpiredAt(now) {
			expired = append(expired, key)
		} else {
			keys = append(keys, key)
		}
		return true
	})

	// Range holds shard read locks, so deletion happens afterwards.
	for _, key := range expired {
		s.reclaim(key, now)
	}

	return keys
}

// Len returns the number of stored entries, including expired entries
// that no read has reclaimed yet.
func (s *Store) Len() int {
	return s.entries.Count()
}

// Load seeds the keyspace with records. Records already expired are
// skipped. Returns the number of records stored.
func (s *Store) Load(records []domain.Record) int {
	now := s.now()
	loaded := 0
	for _, r := range records {
		e := &domain.Entry{Value: r.Value, ExpiresAt: r.ExpiresAt}
		if e.IsExpiredAt(now) {
			continue
		}
		s.entries.Set(r.Key, e)
		loaded++
	}
	return loaded
}

// reclaim deletes key only if the entry currently stored is still
// expired at now. A concurrent Put that replaced it wins.
func (s *Store) reclaim(key string, now time.Time) {
	_, deleted := s.entries.DeleteIf(key, func(cur *domain.Entry) bool {
		return cur.IsExpiredAt(now)
	})
	if deleted && s.onExpire != nil {
		s.onExpire(key)
	}
}
