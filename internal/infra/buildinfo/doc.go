// Package buildinfo exposes build-time information injected via ldflags:
//
//   - Version: semantic version (e.g. "v1.0.0")
//   - Commit: git commit hash
//   - BuildTime: build timestamp
//
// The Go version and, when ldflags were not set, the VCS revision are
// read from the binary's embedded build info.
//
// Usage:
//
//	go build -ldflags "-X github.com/yndnr/respkv/internal/infra/buildinfo.Version=v1.0.0"
package buildinfo
