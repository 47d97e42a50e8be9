package redisserver

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Protocol limits to prevent DoS attacks.
const (
	// MaxArrayLen limits the number of elements in a RESP array.
	MaxArrayLen = 1024 * 1024

	// MaxBulkLen limits the size of a single bulk string (512MB).
	MaxBulkLen = 512 * 1024 * 1024

	// MaxInlineLen limits inline command line length (64KB).
	MaxInlineLen = 64 * 1024

	// maxHeaderLen bounds "*<n>\r\n" and "$<n>\r\n" lines.
	maxHeaderLen = 64

	// Declared lengths are not trusted for allocation. Bulk payloads
	// above bulkPreallocLen and arrays above arrayPreallocLen grow as
	// data actually arrives.
	bulkPreallocLen  = 64 * 1024
	arrayPreallocLen = 64
)

var (
	ErrProtocol      = errors.New("resp: protocol error")
	ErrLimitExceeded = errors.New("resp: limit exceeded")
)

// ReplyKind discriminates the wire type of a Reply.
type ReplyKind uint8

const (
	KindSimple ReplyKind = iota + 1
	KindError
	KindInteger
	KindBulk
	KindNullBulk
	KindArray
)

// Reply is a typed RESP value produced by a command handler.
type Reply struct {
	Kind  ReplyKind
	Str   string  // simple string or error text
	Int   int64   // integer
	Bulk  []byte  // bulk string payload
	Array []Reply // array elements
}

// SimpleString returns a "+text" reply.
func SimpleString(s string) Reply { return Reply{Kind: KindSimple, Str: s} }

// ErrorString returns a "-text" reply.
func ErrorString(s string) Reply { return Reply{Kind: KindError, Str: s} }

// ErrorReply renders err as an error reply.
func ErrorReply(err error) Reply { return ErrorString(err.Error()) }

// Integer returns a ":n" reply.
func Integer(n int64) Reply { return Reply{Kind: KindInteger, Int: n} }

// BulkString returns a bulk string reply. A nil payload is still a
// zero-length bulk string; use NullBulk for the null reply.
func BulkString(b []byte) Reply {
	if b == nil {
		b = []byte{}
	}
	return Reply{Kind: KindBulk, Bulk: b}
}

// NullBulk returns the "$-1" reply.
func NullBulk() Reply { return Reply{Kind: KindNullBulk} }

// Array returns an array reply.
func Array(elems ...Reply) Reply { return Reply{Kind: KindArray, Array: elems} }

// StringArray returns an array of bulk strings.
func StringArray(items ...string) Reply {
	elems := make([]Reply, len(items))
	for i, s := range items {
		elems[i] = BulkString([]byte(s))
	}
	return Array(elems...)
}

var (
	replyOK   = SimpleString("OK")
	replyPong = SimpleString("PONG")
)

// IsError reports whether r is an error reply.
func (r Reply) IsError() bool { return r.Kind == KindError }

// String renders the reply for diagnostics.
func (r Reply) String() string {
	switch r.Kind {
	case KindSimple:
		return r.Str
	case KindError:
		return "(error) " + r.Str
	case KindInteger:
		return "(integer) " + strconv.FormatInt(r.Int, 10)
	case KindBulk:
		return string(r.Bulk)
	case KindNullBulk:
		return "(nil)"
	case KindArray:
		parts := make([]string, len(r.Array))
		for i, e := range r.Array {
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, " ") + "]"
	default:
		return "(invalid)"
	}
}

// ReadCommand reads one request from r and returns its arguments.
//
// io.EOF is returned only when the stream ends before a new frame
// starts. A stream ending inside a frame yields an error wrapping
// ErrProtocol. An empty array ("*0" or "*-1") yields nil args.
func ReadCommand(r *bufio.Reader) ([][]byte, error) {
	b, err := r.Peek(1)
	if err != nil {
		return nil, err
	}

	var args [][]byte
	if b[0] == '*' {
		args, err = readArrayCommand(r)
	} else {
		args, err = readInlineCommand(r)
	}
	if err != nil {
		return nil, midFrame(err)
	}
	return args, nil
}

// midFrame converts end-of-stream inside a frame into a protocol error.
func midFrame(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %w", ErrProtocol, io.ErrUnexpectedEOF)
	}
	return err
}

// readInlineCommand handles "PING\r\n" style requests as sent by telnet
// and by redis-cli in some modes.
func readInlineCommand(r *bufio.Reader) ([][]byte, error) {
	line, err := readLine(r, MaxInlineLen)
	if err != nil {
		return nil, err
	}
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return nil, nil
	}
	out := make([][]byte, 0, len(parts))
	for _, p := range parts {
		out = append(out, []byte(p))
	}
	return out, nil
}

func readArrayCommand(r *bufio.Reader) ([][]byte, error) {
	line, err := readLine(r, maxHeaderLen)
	if err != nil {
		return nil, err
	}
	n, err := parseLength(line, '*')
	if err != nil {
		return nil, fmt.Errorf("%w: invalid array length", ErrProtocol)
	}
	if n == -1 || n == 0 {
		return nil, nil
	}
	if n < 0 {
		return nil, fmt.Errorf("%w: invalid array length", ErrProtocol)
	}
	if n > MaxArrayLen {
		return nil, fmt.Errorf("%w: array length %d exceeds limit %d", ErrLimitExceeded, n, MaxArrayLen)
	}

	out := make([][]byte, 0, min(n, arrayPreallocLen))
	for i := 0; i < n; i++ {
		arg, err := readBulkString(r)
		if err != nil {
			return nil, err
		}
		out = append(out, arg)
	}
	return out, nil
}

func readBulkString(r *bufio.Reader) ([]byte, error) {
	line, err := readLine(r, maxHeaderLen)
	if err != nil {
		return nil, err
	}
	n, err := parseLength(line, '$')
	if err != nil || n < 0 {
		return nil, fmt.Errorf("%w: invalid bulk length", ErrProtocol)
	}
	if n > MaxBulkLen {
		return nil, fmt.Errorf("%w: bulk length %d exceeds limit %d", ErrLimitExceeded, n, MaxBulkLen)
	}
	return readBulkPayload(r, n)
}

func readBulkPayload(r *bufio.Reader, n int) ([]byte, error) {
	var payload []byte
	if n <= bulkPreallocLen {
		payload = make([]byte, n)
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil, err
		}
	} else {
		var b bytes.Buffer
		b.Grow(bulkPreallocLen)
		if _, err := io.CopyN(&b, r, int64(n)); err != nil {
			return nil, err
		}
		payload = b.Bytes()[:n:n]
	}

	var crlf [2]byte
	if _, err := io.ReadFull(r, crlf[:]); err != nil {
		return nil, err
	}
	if crlf[0] != '\r' || crlf[1] != '\n' {
		return nil, fmt.Errorf("%w: invalid bulk terminator", ErrProtocol)
	}
	return payload, nil
}

// parseLength parses the integer after the type byte of a header line.
func parseLength(line string, prefix byte) (int, error) {
	if len(line) < 2 || line[0] != prefix {
		return 0, fmt.Errorf("%w: expected '%c'", ErrProtocol, prefix)
	}
	return strconv.Atoi(line[1:])
}

func readLine(r *bufio.Reader, maxLen int) (string, error) {
	if maxLen <= 0 {
		return "", fmt.Errorf("%w: invalid maxLen", ErrProtocol)
	}

	var buf []byte
	for {
		frag, err := r.ReadSlice('\n')
		if err == nil {
			buf = append(buf, frag...)
			break
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			buf = append(buf, frag...)
			if len(buf) > maxLen {
				return "", fmt.Errorf("%w: line length exceeds limit %d", ErrLimitExceeded, maxLen)
			}
			continue
		}
		return "", err
	}

	if len(buf) > maxLen {
		return "", fmt.Errorf("%w: line length exceeds limit %d", ErrLimitExceeded, maxLen)
	}
	if len(buf) < 2 || buf[len(buf)-2] != '\r' {
		return "", fmt.Errorf("%w: missing CRLF", ErrProtocol)
	}
	return string(buf[:len(buf)-2]), nil
}

// WriteReply encodes rep onto w. The caller flushes.
func WriteReply(w *bufio.Writer, rep Reply) error {
	switch rep.Kind {
	case KindSimple:
		return WriteSimpleString(w, rep.Str)
	case KindError:
		return WriteError(w, rep.Str)
	case KindInteger:
		return WriteInteger(w, rep.Int)
	case KindBulk:
		return WriteBulk(w, rep.Bulk)
	case KindNullBulk:
		return WriteNullBulk(w)
	case KindArray:
		if err := WriteArrayHeader(w, len(rep.Array)); err != nil {
			return err
		}
		for _, e := range rep.Array {
			if err := WriteReply(w, e); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown reply kind %d", ErrProtocol, rep.Kind)
	}
}

// WriteSimpleString writes "+s\r\n". CR and LF in s are replaced by
// spaces so the line framing cannot be broken.
func WriteSimpleString(w *bufio.Writer, s string) error {
	_, err := w.WriteString("+" + sanitizeLine(s) + "\r\n")
	return err
}

func WriteError(w *bufio.Writer, s string) error {
	_, err := w.WriteString("-" + sanitizeLine(s) + "\r\n")
	return err
}

func WriteInteger(w *bufio.Writer, n int64) error {
	_, err := w.WriteString(":" + strconv.FormatInt(n, 10) + "\r\n")
	return err
}

func WriteNullBulk(w *bufio.Writer) error {
	_, err := w.WriteString("$-1\r\n")
	return err
}

func WriteBulk(w *bufio.Writer, b []byte) error {
	if _, err := w.WriteString("$" + strconv.Itoa(len(b)) + "\r\n"); err != nil {
		return err
	}
	if _, err := w.Write(b); err != nil {
		return err
	}
	_, err := w.WriteString("\r\n")
	return err
}

func WriteArrayHeader(w *bufio.Writer, n int) error {
	_, err := w.WriteString("*" + strconv.Itoa(n) + "\r\n")
	return err
}

// WriteCommand encodes args as a request array of bulk strings.
func WriteCommand(w *bufio.Writer, args ...[]byte) error {
	if err := WriteArrayHeader(w, len(args)); err != nil {
		return err
	}
	for _, a := range args {
		if err := WriteBulk(w, a); err != nil {
			return err
		}
	}
	return nil
}

// ReadReply decodes one reply from r. It is the client-side counterpart
// of WriteReply.
func ReadReply(r *bufio.Reader) (Reply, error) {
	line, err := readLine(r, MaxInlineLen)
	if err != nil {
		return Reply{}, err
	}
	if line == "" {
		return Reply{}, fmt.Errorf("%w: empty reply line", ErrProtocol)
	}

	switch line[0] {
	case '+':
		return SimpleString(line[1:]), nil
	case '-':
		return ErrorString(line[1:]), nil
	case ':':
		n, err := strconv.ParseInt(line[1:], 10, 64)
		if err != nil {
			return Reply{}, fmt.Errorf("%w: invalid integer", ErrProtocol)
		}
		return Integer(n), nil
	case '$':
		n, err := parseLength(line, '$')
		if err != nil || n < -1 {
			return Reply{}, fmt.Errorf("%w: invalid bulk length", ErrProtocol)
		}
		if n == -1 {
			return NullBulk(), nil
		}
		if n > MaxBulkLen {
			return Reply{}, fmt.Errorf("%w: bulk length %d exceeds limit %d", ErrLimitExceeded, n, MaxBulkLen)
		}
		b, err := readBulkPayload(r, n)
		if err != nil {
			return Reply{}, midFrame(err)
		}
		return BulkString(b), nil
	case '*':
		n, err := parseLength(line, '*')
		if err != nil || n < -1 {
			return Reply{}, fmt.Errorf("%w: invalid array length", ErrProtocol)
		}
		if n == -1 {
			return Reply{Kind: KindArray}, nil
		}
		if n > MaxArrayLen {
			return Reply{}, fmt.Errorf("%w: array length %d exceeds limit %d", ErrLimitExceeded, n, MaxArrayLen)
		}
		elems := make([]Reply, 0, min(n, arrayPreallocLen))
		for i := 0; i < n; i++ {
			e, err := ReadReply(r)
			if err != nil {
				return Reply{}, midFrame(err)
			}
			elems = append(elems, e)
		}
		return Array(elems...), nil
	default:
		return Reply{}, fmt.Errorf("%w: unexpected reply type %q", ErrProtocol, line[0])
	}
}

func sanitizeLine(s string) string {
	if !strings.ContainsAny(s, "\r\n") {
		return s
	}
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
}

func normalizeCommandName(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	// Uppercase ASCII without allocating for already uppercased tokens.
	if bytes.ContainsAny(b, "abcdefghijklmnopqrstuvwxyz") {
		return strings.ToUpper(string(b))
	}
	return string(b)
}
