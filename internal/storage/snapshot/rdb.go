package snapshot

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/yndnr/respkv/internal/core/domain"
)

// Record is a key loaded from a snapshot. A zero ExpiresAt means no TTL.
type Record = domain.Record

var magicBytes = []byte("REDIS")

// Opcodes.
const (
	opAux      = 0xFA
	opResizeDB = 0xFB
	opExpireMs = 0xFC
	opExpire   = 0xFD
	opSelectDB = 0xFE
	opEOF      = 0xFF

	typeString = 0x00
)

// Length encoding (top two bits of the first byte).
const (
	len6Bit    = 0
	len14Bit   = 1
	lenExtra   = 2
	lenSpecial = 3

	len32Bit = 0x80
	len64Bit = 0x81

	encInt8  = 0
	encInt16 = 1
	encInt32 = 2
	encLZF   = 3
)

const maxStringLen = 512 * 1024 * 1024

var (
	ErrInvalidMagic = errors.New("snapshot: invalid magic bytes")
	ErrCorrupt      = errors.New("snapshot: corrupt file")
	ErrUnsupported  = errors.New("snapshot: unsupported encoding")
)

// Load reads dir/dbfilename. A missing file yields no records and no
// error, so a fresh server starts with an empty keyspace.
func Load(dir, dbfilename string) ([]Record, error) {
	f, err := os.Open(filepath.Join(dir, dbfilename))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("snapshot: open: %w", err)
	}
	defer f.Close()

	return Decode(f)
}

// Decode parses an RDB stream.
func Decode(r io.Reader) ([]Record, error) {
	d := &decoder{r: bufio.NewReader(r)}
	return d.decode()
}

type decoder struct {
	r *bufio.Reader
}

func (d *decoder) decode() ([]Record, error) {
	header := make([]byte, len(magicBytes)+4)
	if _, err := io.ReadFull(d.r, header); err != nil {
		return nil, corrupt("header", err)
	}
	if !bytes.Equal(header[:len(magicBytes)], magicBytes) {
		return nil, ErrInvalidMagic
	}
	if _, err := strconv.Atoi(string(header[len(magicBytes):])); err != nil {
		return nil, fmt.Errorf("%w: version %q", ErrCorrupt, header[len(magicBytes):])
	}

	var (
		records   []Record
		expiresAt time.Time
	)

	for {
		op, err := d.r.ReadByte()
		if err != nil {
			return nil, corrupt("opcode", err)
		}

		switch op {
		case opEOF:
			// Trailing checksum is optional in old versions and not verified.
			return records, nil

		case opAux:
			if _, err := d.readString(); err != nil {
				return nil, err
			}
			if _, err := d.readString(); err != nil {
				return nil, err
			}

		case opSelectDB:
			if _, err := d.readLength(); err != nil {
				return nil, err
			}

		case opResizeDB:
			if _, err := d.readLength(); err != nil {
				return nil, err
			}
			if _, err := d.readLength(); err != nil {
				return nil, err
			}

		case opExpireMs:
			var buf [8]byte
			if _, err := io.ReadFull(d.r, buf[:]); err != nil {
				return nil, corrupt("expire ms", err)
			}
			expiresAt = time.UnixMilli(int64(binary.LittleEndian.Uint64(buf[:])))

		case opExpire:
			var buf [4]byte
			if _, err := io.ReadFull(d.r, buf[:]); err != nil {
				return nil, corrupt("expire", err)
			}
			expiresAt = time.Unix(int64(binary.LittleEndian.Uint32(buf[:])), 0)

		case typeString:
			key, err := d.readString()
			if err != nil {
				return nil, err
			}
			value, err := d.readString()
			if err != nil {
				return nil, err
			}
			records = append(records, Record{Key: string(key), Value: value, ExpiresAt: expiresAt})
			expiresAt = time.Time{}

		default:
			return nil, fmt.Errorf("%w: value type 0x%02x", ErrUnsupported, op)
		}
	}
}

// readLength reads a length prefix that must not use the special
// integer encoding.
func (d *decoder) readLength() (uint64, error) {
	n, special, err := d.readLengthOrEncoding()
	if err != nil {
		return 0, err
	}
	if special {
		return 0, fmt.Errorf("%w: unexpected string encoding in length", ErrCorrupt)
	}
	return n, nil
}

// readLengthOrEncoding returns either a length, or (special=true) the
// string encoding type in n.
func (d *decoder) readLengthOrEncoding() (n uint64, special bool, err error) {
	b, err := d.r.ReadByte()
	if err != nil {
		return 0, false, corrupt("length", err)
	}

	switch b >> 6 {
	case len6Bit:
		return uint64(b & 0x3F), false, nil
	case len14Bit:
		next, err := d.r.ReadByte()
		if err != nil {
			return 0, false, corrupt("length", err)
		}
		return uint64(b&0x3F)<<8 | uint64(next), false, nil
	case lenExtra:
		switch b {
		case len32Bit:
			var buf [4]byte
			if _, err := io.ReadFull(d.r, buf[:]); err != nil {
				return 0, false, corrupt("length", err)
			}
			return uint64(binary.BigEndian.Uint32(buf[:])), false, nil
		case len64Bit:
			var buf [8]byte
			if _, err := io.ReadFull(d.r, buf[:]); err != nil {
				return 0, false, corrupt("length", err)
			}
			return binary.BigEndian.Uint64(buf[:]), false, nil
		default:
			return 0, false, fmt.Errorf("%w: length prefix 0x%02x", ErrCorrupt, b)
		}
	default:
		return uint64(b & 0x3F), true, nil
	}
}

func (d *decoder) readString() ([]byte, error) {
	n, special, err := d.readLengthOrEncoding()
	if err != nil {
		return nil, err
	}

	if special {
		switch n {
		case encInt8:
			b, err := d.r.ReadByte()
			if err != nil {
				return nil, corrupt("int8 string", err)
			}
			return strconv.AppendInt(nil, int64(int8(b)), 10), nil
		case encInt16:
			var buf [2]byte
			if _, err := io.ReadFull(d.r, buf[:]); err != nil {
				return nil, corrupt("int16 string", err)
			}
			return strconv.AppendInt(nil, int64(int16(binary.LittleEndian.Uint16(buf[:]))), 10), nil
		case encInt32:
			var buf [4]byte
			if _, err := io.ReadFull(d.r, buf[:]); err != nil {
				return nil, corrupt("int32 string", err)
			}
			return strconv.AppendInt(nil, int64(int32(binary.LittleEndian.Uint32(buf[:]))), 10), nil
		case encLZF:
			return nil, fmt.Errorf("%w: lzf compressed string", ErrUnsupported)
		default:
			return nil, fmt.Errorf("%w: string encoding %d", ErrCorrupt, n)
		}
	}

	if n > maxStringLen {
		return nil, fmt.Errorf("%w: string length %d", ErrCorrupt, n)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(d.r, buf); err != nil {
		return nil, corrupt("string", err)
	}
	return buf, nil
}

func corrupt(what string, err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: truncated %s", ErrCorrupt, what)
	}
	return fmt.Errorf("snapshot: read %s: %w", what, err)
}
