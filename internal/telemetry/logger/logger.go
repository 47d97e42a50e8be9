package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

// Logger is the logging surface server components depend on.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	With(args ...any) Logger
}

// Config selects the level, encoding and destination of server logs.
type Config struct {
	Level  string    // debug, info, warn or error; anything else means info
	Format string    // json (default) or text
	Output io.Writer // os.Stderr when nil
}

// level is shared by every logger built with New so a reloaded
// log.level takes effect without rebuilding handlers.
var level = new(slog.LevelVar)

var levelNames = map[string]slog.Level{
	"debug":   slog.LevelDebug,
	"info":    slog.LevelInfo,
	"warn":    slog.LevelWarn,
	"warning": slog.LevelWarn,
	"error":   slog.LevelError,
}

type slogLogger struct {
	*slog.Logger
}

func (l *slogLogger) With(args ...any) Logger {
	return &slogLogger{l.Logger.With(args...)}
}

// New builds a logger writing cfg.Format records to cfg.Output. Value
// payloads are redacted before they reach the handler.
func New(cfg Config) (Logger, error) {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	level.Set(parseLevel(cfg.Level))

	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			return redactSensitive(a)
		},
	}

	var h slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "", "json":
		h = slog.NewJSONHandler(out, opts)
	case "text", "console":
		h = slog.NewTextHandler(out, opts)
	default:
		return nil, fmt.Errorf("logger: unknown format %q", cfg.Format)
	}
	return &slogLogger{slog.New(h)}, nil
}

func parseLevel(name string) slog.Level {
	if l, ok := levelNames[strings.ToLower(name)]; ok {
		return l
	}
	return slog.LevelInfo
}

// SetLevel changes the level of every logger built with New.
func SetLevel(name string) {
	level.Set(parseLevel(name))
}

// CurrentLevel returns the active level name in lower case.
func CurrentLevel() string {
	return strings.ToLower(level.Level().String())
}

// ToSlog returns the *slog.Logger behind l for libraries that take one.
// Loggers not built by New map to slog.Default().
func ToSlog(l Logger) *slog.Logger {
	if sl, ok := l.(*slogLogger); ok {
		return sl.Logger
	}
	return slog.Default()
}

var std atomic.Pointer[slogLogger]

func init() {
	l, _ := New(Config{})
	std.Store(l.(*slogLogger))
}

// SetDefault makes l the logger returned by Default and FromContext.
// Loggers not built by New are ignored.
func SetDefault(l Logger) {
	if sl, ok := l.(*slogLogger); ok {
		std.Store(sl)
	}
}

// Default returns the process-wide logger.
func Default() Logger {
	return std.Load()
}
