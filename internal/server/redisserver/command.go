package redisserver

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/gobwas/glob"

	"github.com/yndnr/respkv/internal/core/domain"
	"github.com/yndnr/respkv/internal/telemetry/metric"
)

// Keyspace is the store surface the dispatcher executes against.
type Keyspace interface {
	Put(key string, value []byte, ttl time.Duration)
	Get(key string) ([]byte, bool)
	Keys() []string
}

// ConfigSource resolves CONFIG GET parameters.
type ConfigSource interface {
	Lookup(name string) (canonical, value string, ok bool)
}

type commandFunc func(d *Dispatcher, args [][]byte) Reply

// command describes one entry of the command table.
//
// arity follows the Redis convention: a positive value is the exact
// argument count including the command name, a negative value -N means
// at least N.
type command struct {
	name    string
	arity   int
	maxArgs int // 0 means unbounded
	quit    bool
	fn      commandFunc
}

func (c *command) arityOK(n int) bool {
	if c.arity > 0 {
		return n == c.arity
	}
	if n < -c.arity {
		return false
	}
	return c.maxArgs == 0 || n <= c.maxArgs
}

var commandTable = map[string]*command{
	"PING":   {name: "ping", arity: -1, maxArgs: 2, fn: cmdPing},
	"ECHO":   {name: "echo", arity: 2, fn: cmdEcho},
	"SET":    {name: "set", arity: -3, fn: cmdSet},
	"GET":    {name: "get", arity: 2, fn: cmdGet},
	"CONFIG": {name: "config", arity: -2, fn: cmdConfig},
	"KEYS":   {name: "keys", arity: 2, fn: cmdKeys},
	"QUIT":   {name: "quit", arity: -1, quit: true, fn: cmdQuit},
}

// Dispatcher validates and executes decoded commands.
type Dispatcher struct {
	keyspace Keyspace
	config   ConfigSource
	metrics  *metric.Registry
}

// NewDispatcher creates a Dispatcher. metrics may be nil.
func NewDispatcher(keyspace Keyspace, config ConfigSource, metrics *metric.Registry) *Dispatcher {
	return &Dispatcher{
		keyspace: keyspace,
		config:   config,
		metrics:  metrics,
	}
}

// Dispatch executes one command and returns exactly one reply. quit is
// true when the connection must be closed after the reply is written.
func (d *Dispatcher) Dispatch(args [][]byte) (reply Reply, quit bool) {
	if len(args) == 0 {
		return ErrorReply(domain.ErrEmptyCommand), false
	}

	start := time.Now()
	name := normalizeCommandName(args[0])

	cmd, ok := commandTable[name]
	if !ok {
		reply = ErrorReply(domain.UnknownCommand(string(args[0])))
		d.record("unknown", reply, start)
		return reply, false
	}

	if !cmd.arityOK(len(args)) {
		reply = ErrorReply(domain.WrongArity(name))
	} else {
		reply = cmd.fn(d, args)
	}
	d.record(cmd.name, reply, start)
	return reply, cmd.quit
}

func (d *Dispatcher) record(name string, reply Reply, start time.Time) {
	result := metric.ResultOK
	if reply.IsError() {
		result = metric.ResultError
	}
	d.metrics.RecordCommand(name, result, time.Since(start).Seconds())
}

func cmdPing(_ *Dispatcher, args [][]byte) Reply {
	if len(args) == 2 {
		return BulkString(args[1])
	}
	return replyPong
}

func cmdEcho(_ *Dispatcher, args [][]byte) Reply {
	return BulkString(args[1])
}

func cmdQuit(_ *Dispatcher, _ [][]byte) Reply {
	return replyOK
}

// cmdSet handles SET key value [PX ms | EX s].
func cmdSet(d *Dispatcher, args [][]byte) Reply {
	ttl, err := parseSetOptions(args[3:])
	if err != nil {
		return ErrorReply(err)
	}
	d.keyspace.Put(string(args[1]), args[2], ttl)
	return replyOK
}

// parseSetOptions reads the option pairs following key and value. At
// most one expiry option may be given.
func parseSetOptions(opts [][]byte) (time.Duration, error) {
	var ttl time.Duration
	seen := false

	for i := 0; i < len(opts); i++ {
		var unit time.Duration
		switch normalizeCommandName(opts[i]) {
		case "PX":
			unit = time.Millisecond
		case "EX":
			unit = time.Second
		default:
			return 0, domain.ErrSyntax
		}
		if seen || i+1 >= len(opts) {
			return 0, domain.ErrSyntax
		}
		i++

		n, err := strconv.ParseInt(string(opts[i]), 10, 64)
		if err != nil {
			return 0, domain.ErrNotInteger
		}
		if n <= 0 || n > math.MaxInt64/int64(unit) {
			return 0, domain.InvalidExpire("SET")
		}
		ttl = time.Duration(n) * unit
		seen = true
	}
	return ttl, nil
}

func cmdGet(d *Dispatcher, args [][]byte) Reply {
	v, ok := d.keyspace.Get(string(args[1]))
	if !ok {
		return NullBulk()
	}
	return BulkString(v)
}

// cmdConfig handles CONFIG GET parameter.
func cmdConfig(d *Dispatcher, args [][]byte) Reply {
	sub := normalizeCommandName(args[1])
	if sub != "GET" {
		return ErrorReply(domain.UnknownSubcommand("CONFIG", string(args[1])))
	}
	if len(args) != 3 {
		return ErrorReply(domain.WrongArity("CONFIG GET"))
	}

	name := string(args[2])
	if d.config == nil {
		return ErrorReply(domain.UnknownConfig(name))
	}
	canonical, value, ok := d.config.Lookup(name)
	if !ok {
		return ErrorReply(domain.UnknownConfig(name))
	}
	return StringArray(canonical, value)
}

// cmdKeys handles KEYS pattern. Expired keys are never listed.
func cmdKeys(d *Dispatcher, args [][]byte) Reply {
	match := compilePattern(string(args[1]))

	keys := d.keyspace.Keys()
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if match(k) {
			out = append(out, k)
		}
	}
	return StringArray(out...)
}

// compilePattern turns a Redis glob into a matcher. Patterns that fail
// to compile match only themselves.
func compilePattern(pattern string) func(string) bool {
	if pattern == "*" {
		return func(string) bool { return true }
	}
	g, err := glob.Compile(translateGlob(pattern))
	if err != nil {
		return func(s string) bool { return s == pattern }
	}
	return g.Match
}

// translateGlob rewrites Redis glob syntax into gobwas/glob syntax:
// "[^...]" becomes "[!...]" and brace alternation is escaped, since
// Redis treats braces literally.
func translateGlob(pattern string) string {
	var b strings.Builder
	b.Grow(len(pattern) + 4)

	inClass := false
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		switch {
		case c == '\\' && i+1 < len(pattern):
			b.WriteByte(c)
			i++
			b.WriteByte(pattern[i])
		case c == '[' && !inClass:
			inClass = true
			b.WriteByte(c)
			if i+1 < len(pattern) && pattern[i+1] == '^' {
				b.WriteByte('!')
				i++
			}
		case c == ']' && inClass:
			inClass = false
			b.WriteByte(c)
		case (c == '{' || c == '}') && !inClass:
			b.WriteByte('\\')
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
