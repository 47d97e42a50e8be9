package connection

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/yndnr/respkv/internal/server/redisserver"
)

// ErrClosed is returned when using a closed client.
var ErrClosed = errors.New("connection: client closed")

// ServerError is an error reply returned by the server.
type ServerError struct {
	Message string
}

func (e *ServerError) Error() string {
	return e.Message
}

// Client is a RESP client bound to a single TCP connection. It is safe for
// concurrent use; requests are serialised.
type Client struct {
	addr    string
	timeout time.Duration

	mu     sync.Mutex
	conn   net.Conn
	br     *bufio.Reader
	bw     *bufio.Writer
	closed bool
}

// Dial connects to a RESP server. timeout bounds the dial and each
// request round trip; zero disables it.
func Dial(ctx context.Context, addr string, timeout time.Duration) (*Client, error) {
	d := net.Dialer{Timeout: timeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return NewClient(conn, timeout), nil
}

// NewClient wraps an established connection.
func NewClient(conn net.Conn, timeout time.Duration) *Client {
	addr := ""
	if ra := conn.RemoteAddr(); ra != nil {
		addr = ra.String()
	}
	return &Client{
		addr:    addr,
		timeout: timeout,
		conn:    conn,
		br:      bufio.NewReader(conn),
		bw:      bufio.NewWriter(conn),
	}
}

// Addr returns the remote address.
func (c *Client) Addr() string {
	return c.addr
}

// Do sends one command and waits for its reply. An error reply from the
// server is returned as a *ServerError along with the reply itself.
func (c *Client) Do(args ...string) (redisserver.Reply, error) {
	raw := make([][]byte, len(args))
	for i, a := range args {
		raw[i] = []byte(a)
	}
	return c.DoBytes(raw...)
}

// DoBytes is Do for binary arguments.
func (c *Client) DoBytes(args ...[]byte) (redisserver.Reply, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return redisserver.Reply{}, ErrClosed
	}
	if c.timeout > 0 {
		if err := c.conn.SetDeadline(time.Now().Add(c.timeout)); err != nil {
			return redisserver.Reply{}, err
		}
	}

	if err := redisserver.WriteCommand(c.bw, args...); err != nil {
		return redisserver.Reply{}, fmt.Errorf("write command: %w", err)
	}
	if err := c.bw.Flush(); err != nil {
		return redisserver.Reply{}, fmt.Errorf("write command: %w", err)
	}

	reply, err := redisserver.ReadReply(c.br)
	if err != nil {
		return redisserver.Reply{}, fmt.Errorf("read reply: %w", err)
	}
	if reply.IsError() {
		return reply, &ServerError{Message: reply.Str}
	}
	return reply, nil
}

// Ping sends PING and measures the round trip.
func (c *Client) Ping() (time.Duration, error) {
	start := time.Now()
	reply, err := c.Do("PING")
	if err != nil {
		return 0, err
	}
	if reply.Kind != redisserver.KindSimple || reply.Str != "PONG" {
		return 0, fmt.Errorf("unexpected PING reply %s", reply)
	}
	return time.Since(start), nil
}

// Set stores value under key.
func (c *Client) Set(key, value string) error {
	_, err := c.Do("SET", key, value)
	return err
}

// Get fetches key. ok is false when the key does not exist.
func (c *Client) Get(key string) (value string, ok bool, err error) {
	reply, err := c.Do("GET", key)
	if err != nil {
		return "", false, err
	}
	switch reply.Kind {
	case redisserver.KindNullBulk:
		return "", false, nil
	case redisserver.KindBulk:
		return string(reply.Bulk), true, nil
	default:
		return "", false, fmt.Errorf("unexpected GET reply %s", reply)
	}
}

// Close closes the connection. It is safe to call more than once.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.conn.Close()
}
