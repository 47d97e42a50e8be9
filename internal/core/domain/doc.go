// Package domain defines the core domain models for respkv.
//
// Domain models are plain values without IO dependencies. This package
// contains:
//
//   - Entry: a stored value with an optional absolute expiry
//   - CommandError: the error kinds a client can trigger with a
//     well-framed but invalid command
package domain
