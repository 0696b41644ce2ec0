package telnet

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"
)

// Telnet command and option bytes (RFC 854, RFC 857, RFC 858).
const (
	IAC  byte = 255
	DONT byte = 254
	DO   byte = 253
	WONT byte = 252
	WILL byte = 251
	SB   byte = 250
	GA   byte = 249
	NOP  byte = 241
	SE   byte = 240

	OptEcho            byte = 1
	OptSuppressGoAhead byte = 3
)

// MaxLineLength bounds one input line. Pasted save documents must fit.
const MaxLineLength = 256 * 1024

// ErrLineTooLong is returned when a client sends more than MaxLineLength
// bytes without a line terminator.
var ErrLineTooLong = errors.New("input line too long")

// Conn is a Telnet client connection: option negotiation is consumed from the
// input stream, and output is written with CRLF line endings.
type Conn struct {
	raw    net.Conn
	in     *bufio.Reader
	wmu    sync.Mutex
	closed sync.Once

	readTimeout  time.Duration
	writeTimeout time.Duration
}

// NewConn wraps raw. Zero timeouts disable the corresponding deadline.
//
// Precondition: raw must be an open connection.
func NewConn(raw net.Conn, readTimeout, writeTimeout time.Duration) *Conn {
	return &Conn{
		raw:          raw,
		in:           bufio.NewReaderSize(raw, 4096),
		readTimeout:  readTimeout,
		writeTimeout: writeTimeout,
	}
}

// RemoteAddr returns the client address.
func (c *Conn) RemoteAddr() net.Addr {
	return c.raw.RemoteAddr()
}

// Close closes the underlying connection. It is safe to call more than once.
func (c *Conn) Close() error {
	var err error
	c.closed.Do(func() { err = c.raw.Close() })
	return err
}

// Negotiate announces that the server suppresses go-ahead.
func (c *Conn) Negotiate() error {
	return c.writeRaw([]byte{IAC, WILL, OptSuppressGoAhead})
}

// ReadLine returns the next line without its terminator. Telnet commands are
// consumed, and control characters other than tab are dropped.
//
// Postcondition: returns ErrLineTooLong once an unterminated line exceeds
// MaxLineLength bytes; the connection should then be dropped.
func (c *Conn) ReadLine() (string, error) {
	if c.readTimeout > 0 {
		_ = c.raw.SetReadDeadline(time.Now().Add(c.readTimeout))
	}
	var line strings.Builder
	for {
		b, err := c.in.ReadByte()
		if err != nil {
			return line.String(), err
		}
		switch {
		case b == IAC:
			lit, err := c.command()
			if err != nil {
				return line.String(), err
			}
			if lit {
				line.WriteByte(IAC)
			}
			continue
		case b == '\n':
			return line.String(), nil
		case b == '\r':
			if c.in.Buffered() == 0 {
				return line.String(), nil
			}
			if next, err := c.in.Peek(1); err == nil && (next[0] == '\n' || next[0] == 0) {
				_, _ = c.in.ReadByte()
			}
			return line.String(), nil
		case b < 32 && b != '\t':
			continue
		}
		if line.Len() >= MaxLineLength {
			return "", ErrLineTooLong
		}
		line.WriteByte(b)
	}
}

// command consumes the rest of a Telnet command after IAC. It reports
// whether the sequence was an escaped literal 0xFF.
func (c *Conn) command() (literal bool, err error) {
	cmd, err := c.in.ReadByte()
	if err != nil {
		return false, err
	}
	switch cmd {
	case IAC:
		return true, nil
	case WILL, WONT, DO, DONT:
		_, err = c.in.ReadByte()
		return false, err
	case SB:
		var prev byte
		for {
			b, err := c.in.ReadByte()
			if err != nil {
				return false, err
			}
			if prev == IAC && b == SE {
				return false, nil
			}
			prev = b
		}
	}
	return false, nil
}

// ReadPassword reads one line while asking the client not to echo it.
func (c *Conn) ReadPassword() (string, error) {
	if err := c.writeRaw([]byte{IAC, WILL, OptEcho}); err != nil {
		return "", err
	}
	line, err := c.ReadLine()
	_ = c.writeRaw([]byte{IAC, WONT, OptEcho})
	_ = c.writeRaw([]byte("\r\n"))
	return line, err
}

// WriteLine writes text and a CRLF. Embedded newlines become CRLF.
func (c *Conn) WriteLine(text string) error {
	return c.WriteText(text + "\n")
}

// Writef formats and writes one line.
func (c *Conn) Writef(format string, args ...any) error {
	return c.WriteLine(fmt.Sprintf(format, args...))
}

// WritePrompt writes text with no line ending.
func (c *Conn) WritePrompt(text string) error {
	return c.WriteText(text)
}

// WriteText writes text with every bare LF normalized to CRLF and every 0xFF
// doubled so it is not read as a Telnet command.
func (c *Conn) WriteText(text string) error {
	return c.writeRaw(Encode(text))
}

func (c *Conn) writeRaw(p []byte) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	if c.writeTimeout > 0 {
		_ = c.raw.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}
	_, err := c.raw.Write(p)
	return err
}

// Encode converts text to Telnet wire form: CRLF line endings and escaped IAC.
func Encode(text string) []byte {
	out := make([]byte, 0, len(text)+8)
	for i := 0; i < len(text); i++ {
		b := text[i]
		switch {
		case b == '\n' && (i == 0 || text[i-1] != '\r'):
			out = append(out, '\r', '\n')
		case b == IAC:
			out = append(out, IAC, IAC)
		default:
			out = append(out, b)
		}
	}
	return out
}
