package redisserver

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/time/rate"

	"github.com/yndnr/respkv/internal/core/domain"
	"github.com/yndnr/respkv/internal/telemetry/logger"
	"github.com/yndnr/respkv/internal/telemetry/metric"
)

const (
	minAcceptBackoff = 5 * time.Millisecond
	maxAcceptBackoff = time.Second
)

// Error texts written by the connection handler itself.
const (
	errMaxClients    = "ERR max number of clients reached"
	errProtocol      = "ERR protocol error"
	errLimitExceeded = "ERR protocol limit exceeded"
)

// Config holds the RESP server configuration.
type Config struct {
	// Addr is the TCP listen address.
	Addr string
	// ReadTimeout bounds reading the rest of a request once its first
	// byte arrived. Zero disables it.
	ReadTimeout time.Duration
	// WriteTimeout bounds flushing replies. Zero disables it.
	WriteTimeout time.Duration
	// IdleTimeout closes connections idle between requests. Zero keeps
	// idle connections open indefinitely.
	IdleTimeout time.Duration
	// MaxConnections caps concurrent clients. Zero means unlimited.
	MaxConnections int
	// RateLimit is the per-connection command rate in commands per
	// second. Zero disables rate limiting.
	RateLimit int
	// RateBurst is the limiter bucket size; defaults to RateLimit.
	RateBurst int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Addr:         "0.0.0.0:6379",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// Server accepts RESP connections and serves each on its own goroutine.
type Server struct {
	cfg        *Config
	dispatcher *Dispatcher
	logger     logger.Logger
	metrics    *metric.Registry

	mu       sync.Mutex
	ln       net.Listener
	conns    map[*conn]struct{}
	shutdown bool

	running atomic.Bool
	wg      sync.WaitGroup
}

// conn is a single client connection.
type conn struct {
	netConn net.Conn
	br      *bufio.Reader
	bw      *bufio.Writer
	limiter *rate.Limiter

	closed atomic.Bool
}

func newConn(c net.Conn, limiter *rate.Limiter) *conn {
	return &conn{
		netConn: c,
		br:      bufio.NewReader(c),
		bw:      bufio.NewWriter(c),
		limiter: limiter,
	}
}

func (c *conn) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	return c.netConn.Close()
}

func (c *conn) RemoteAddr() net.Addr {
	return c.netConn.RemoteAddr()
}

// New creates a new RESP server. log and metrics may be nil.
func New(cfg *Config, dispatcher *Dispatcher, log logger.Logger, metrics *metric.Registry) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if log == nil {
		log = logger.Default()
	}
	return &Server{
		cfg:        cfg,
		dispatcher: dispatcher,
		logger:     log.With("component", "redisserver"),
		metrics:    metrics,
		conns:      make(map[*conn]struct{}),
	}
}

// Start binds the listener and serves it in the background. A bind
// failure is returned to the caller.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
	}

	go func() {
		if err := s.Serve(ctx, ln); err != nil {
			s.logger.Error("redis server stopped", "error", err)
		}
	}()
	return nil
}

// Serve accepts connections on ln until Shutdown is called. Serving
// after Shutdown closes ln and returns immediately.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	if s.shutdown {
		s.mu.Unlock()
		return ln.Close()
	}
	// The accept loop holds a slot so connection handlers are only
	// added while the counter is non-zero.
	s.wg.Add(1)
	s.running.Store(true)
	s.ln = ln
	s.mu.Unlock()
	defer s.wg.Done()

	s.logger.Info("redis server listening", "address", ln.Addr().String())
	defer s.logger.Info("redis server stopped accepting", "address", ln.Addr().String())

	return s.acceptLoop(ctx, ln)
}

// Addr returns the bound listener address, or nil before Serve.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Accepting reports whether the listener is accepting connections.
func (s *Server) Accepting() bool {
	return s.running.Load()
}

// Shutdown stops accepting, closes open connections and waits for their
// handlers to return.
func (s *Server) Shutdown(ctx context.Context) error {
	s.running.Store(false)

	var firstErr error

	s.mu.Lock()
	s.shutdown = true
	if s.ln != nil {
		if err := s.ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			firstErr = err
		}
	}
	for c := range s.conns {
		_ = c.Close()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	return firstErr
}

func (s *Server) acceptLoop(ctx context.Context, ln net.Listener) error {
	var backoff time.Duration
	for {
		nc, err := ln.Accept()
		if err != nil {
			if !s.running.Load() || errors.Is(err, net.ErrClosed) {
				return nil
			}
			if backoff == 0 {
				backoff = minAcceptBackoff
			} else {
				backoff = min(backoff*2, maxAcceptBackoff)
			}
			s.logger.Warn("accept failed", "error", err, "retry_in", backoff)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil
			}
			continue
		}
		backoff = 0

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.ServeConn(ctx, nc)
		}()
	}
}

// ServeConn serves a single accepted connection until it is closed. It
// is exported so connections obtained elsewhere (net.Pipe in tests) can
// be served directly.
func (s *Server) ServeConn(ctx context.Context, nc net.Conn) {
	c := newConn(nc, s.newLimiter())
	defer c.Close()

	switch err := s.track(c); {
	case errors.Is(err, errShuttingDown):
		return
	case err != nil:
		s.metrics.IncConnectionsRejected()
		s.logger.Debug("connection rejected", "remote", nc.RemoteAddr().String(), "max_connections", s.cfg.MaxConnections)
		s.setWriteDeadline(c)
		_ = WriteError(c.bw, errMaxClients)
		_ = c.bw.Flush()
		return
	}
	defer s.untrack(c)

	s.metrics.ConnectionOpened()
	defer s.metrics.ConnectionClosed()

	ctx = logger.WithConnID(logger.WithLogger(ctx, s.logger), ulid.Make().String())
	s.serve(ctx, c)
}

var (
	errShuttingDown   = errors.New("server shutting down")
	errTooManyClients = errors.New("too many clients")
)

func (s *Server) track(c *conn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.shutdown {
		return errShuttingDown
	}
	if s.cfg.MaxConnections > 0 && len(s.conns) >= s.cfg.MaxConnections {
		return errTooManyClients
	}
	s.conns[c] = struct{}{}
	return nil
}

func (s *Server) untrack(c *conn) {
	s.mu.Lock()
	delete(s.conns, c)
	s.mu.Unlock()
}

func (s *Server) newLimiter() *rate.Limiter {
	if s.cfg.RateLimit <= 0 {
		return nil
	}
	burst := s.cfg.RateBurst
	if burst <= 0 {
		burst = s.cfg.RateLimit
	}
	return rate.NewLimiter(rate.Limit(s.cfg.RateLimit), burst)
}

func (s *Server) serve(ctx context.Context, c *conn) {
	log := logger.L(ctx).With("remote", c.RemoteAddr().String())
	log.Debug("connection opened")
	defer log.Debug("connection closed")

	for {
		// Only wait with the idle deadline when nothing is pipelined.
		if c.br.Buffered() == 0 {
			if err := c.netConn.SetReadDeadline(deadline(s.cfg.IdleTimeout)); err != nil {
				return
			}
			if _, err := c.br.Peek(1); err != nil {
				s.logReadError(log, err)
				return
			}
		}

		// Once a request has started, bound how long the rest may take.
		if err := c.netConn.SetReadDeadline(deadline(s.cfg.ReadTimeout)); err != nil {
			return
		}

		args, err := ReadCommand(c.br)
		if err != nil {
			if errors.Is(err, ErrProtocol) || errors.Is(err, ErrLimitExceeded) {
				s.metrics.IncProtocolErrors()
				log.Debug("protocol error", "error", err)
				msg := errProtocol
				if errors.Is(err, ErrLimitExceeded) {
					msg = errLimitExceeded
				}
				s.setWriteDeadline(c)
				_ = WriteError(c.bw, msg)
				_ = c.bw.Flush()
				return
			}
			s.logReadError(log, err)
			return
		}

		var (
			reply Reply
			quit  bool
		)
		switch {
		case len(args) == 0:
			reply = ErrorReply(domain.ErrEmptyCommand)
		case c.limiter != nil && !c.limiter.Allow():
			reply = ErrorReply(domain.ErrRateLimited)
		default:
			reply, quit = s.dispatcher.Dispatch(args)
		}

		// Replies larger than the buffer reach the socket inside
		// WriteReply, so the deadline must be fresh before it.
		s.setWriteDeadline(c)
		if err := WriteReply(c.bw, reply); err != nil {
			log.Debug("write reply failed", "error", err)
			return
		}

		// Flush when the pipeline is drained so batched requests share
		// a single write.
		if quit || c.br.Buffered() == 0 {
			if err := c.bw.Flush(); err != nil {
				log.Debug("flush failed", "error", err)
				return
			}
		}
		if quit {
			return
		}
	}
}

func (s *Server) logReadError(log logger.Logger, err error) {
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
		return
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		log.Debug("connection timed out")
		return
	}
	log.Debug("connection read error", "error", err)
}

func (s *Server) setWriteDeadline(c *conn) {
	_ = c.netConn.SetWriteDeadline(deadline(s.cfg.WriteTimeout))
}

// deadline returns now+d, or the zero time (no deadline) when d is zero.
func deadline(d time.Duration) time.Time {
	if d <= 0 {
		return time.Time{}
	}
	return time.Now().Add(d)
}
