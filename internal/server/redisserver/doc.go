// Package redisserver implements the RESP front end of respkv.
//
// The package is split into three layers:
//
//   - resp.go: the protocol codec. ReadCommand decodes one request
//     (array of bulk strings, or an inline line) and WriteReply encodes
//     a typed Reply. ReadReply and WriteCommand are the client-side
//     counterparts used by the benchmark tool.
//   - command.go: the Dispatcher. It matches command names
//     case-insensitively, checks arity before touching the keyspace and
//     always produces exactly one Reply.
//   - server.go: the Listener and the per-connection handler loop.
//
// Supported commands: PING, ECHO, SET (PX/EX), GET, CONFIG GET, KEYS, QUIT.
//
// Malformed frames (ErrProtocol, ErrLimitExceeded) close only the
// offending connection. Command errors are replied and the connection
// stays open.
package redisserver
