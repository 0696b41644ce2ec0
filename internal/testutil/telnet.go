package testutil

import (
	"net"
	"strings"
	"testing"
	"time"
)

// TelnetClient is a line-oriented client for driving a telnet server in tests.
// Unmatched output is kept between ReadUntil calls.
type TelnetClient struct {
	conn   net.Conn
	t      *testing.T
	buffer string
}

// NewTelnetClient dials addr and closes the connection when the test ends.
//
// Precondition: addr must be a "host:port" with a listening server.
// Postcondition: Returns a connected TelnetClient or fails the test.
func NewTelnetClient(t *testing.T, addr string) *TelnetClient {
	t.Helper()
	start := time.Now()
	conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
	if err != nil {
		t.Fatalf("connecting to %s: %v [%s]", addr, err, time.Since(start))
	}
	t.Cleanup(func() { conn.Close() })
	return &TelnetClient{conn: conn, t: t}
}

// ReadUntil returns buffered and newly read output up to and including the
// first occurrence of substr, keeping the remainder for the next call.
//
// Precondition: substr must be non-empty.
// Postcondition: Fails the test if substr does not arrive before timeout.
func (c *TelnetClient) ReadUntil(substr string, timeout time.Duration) string {
	c.t.Helper()
	_ = c.conn.SetReadDeadline(time.Now().Add(timeout))
	tmp := make([]byte, 4096)
	for {
		if idx := strings.Index(c.buffer, substr); idx >= 0 {
			end := idx + len(substr)
			out := c.buffer[:end]
			c.buffer = c.buffer[end:]
			return out
		}
		n, err := c.conn.Read(tmp)
		c.buffer += string(tmp[:n])
		if err != nil && !strings.Contains(c.buffer, substr) {
			c.t.Fatalf("reading until %q: got %q, error: %v", substr, c.buffer, err)
		}
	}
}

// Send writes text followed by CRLF.
//
// Precondition: text should not contain trailing newline characters.
func (c *TelnetClient) Send(text string) {
	c.t.Helper()
	_ = c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if _, err := c.conn.Write([]byte(text + "\r\n")); err != nil {
		c.t.Fatalf("sending %q: %v", text, err)
	}
}

// Close closes the underlying connection.
func (c *TelnetClient) Close() {
	c.conn.Close()
}
