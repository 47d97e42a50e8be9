// Package snapshot reads RDB snapshot files to seed the keyspace at startup.
//
// Only the subset of the format needed for string keys is understood:
//
//	"REDIS" [version:4 ascii digits]
//	0xFA aux field       (two strings, skipped)
//	0xFE select db       (length)
//	0xFB resize db       (two lengths)
//	0xFD expire seconds  (uint32 LE), applies to the next key
//	0xFC expire millis   (uint64 LE), applies to the next key
//	0x00 string value    (key string, value string)
//	0xFF end of file     (8-byte checksum, not verified)
//
// Lengths use the usual RDB prefix encoding (6-bit, 14-bit, 32-bit and
// 64-bit big endian) and strings may be stored as int8/int16/int32
// integers. LZF compressed strings and non-string value types are
// reported as ErrUnsupported.
//
// Writes are never persisted back to disk; the snapshot is read once.
package snapshot
