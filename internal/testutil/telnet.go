// Package testutil holds helpers shared by integration tests.
package testutil

import (
	"bytes"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/cory-johannsen/kniffel/internal/frontend/telnet"
)

// TelnetClient drives a kniffel Telnet session from a test. Server
// negotiation is stripped from everything it returns, and output received
// past a match is carried over to the next read.
type TelnetClient struct {
	t    *testing.T
	conn net.Conn
	buf  []byte
}

// NewTelnetClient connects to addr. The connection is closed when the test ends.
//
// Precondition: a server must be listening on addr.
func NewTelnetClient(t *testing.T, addr string) *TelnetClient {
	t.Helper()
	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		t.Fatalf("dialing %s: %v", addr, err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return &TelnetClient{t: t, conn: conn}
}

// ReadUntil returns the output up to and including the first occurrence of marker.
//
// Postcondition: fails the test if marker does not arrive within timeout.
func (c *TelnetClient) ReadUntil(marker string, timeout time.Duration) string {
	c.t.Helper()
	deadline := time.Now().Add(timeout)
	want := []byte(marker)
	for {
		if i := bytes.Index(c.buf, want); i >= 0 {
			end := i + len(want)
			out := string(c.buf[:end])
			c.buf = append(c.buf[:0], c.buf[end:]...)
			return out
		}
		if err := c.fill(deadline); err != nil {
			c.t.Fatalf("waiting for %q: have %q: %v", marker, c.buf, err)
		}
	}
}

// ReadUntilClosed returns everything the server sends before closing the
// connection.
func (c *TelnetClient) ReadUntilClosed(timeout time.Duration) string {
	c.t.Helper()
	deadline := time.Now().Add(timeout)
	for {
		err := c.fill(deadline)
		if errors.Is(err, io.EOF) {
			out := string(c.buf)
			c.buf = nil
			return out
		}
		if err != nil {
			c.t.Fatalf("waiting for the server to hang up: have %q: %v", c.buf, err)
		}
	}
}

// fill appends one read's worth of filtered output to the buffer.
func (c *TelnetClient) fill(deadline time.Time) error {
	_ = c.conn.SetReadDeadline(deadline)
	chunk := make([]byte, 1024)
	n, err := c.conn.Read(chunk)
	c.buf = append(c.buf, telnet.FilterIAC(chunk[:n])...)
	return err
}

// Command sends line and returns the reply up to the next prompt.
func (c *TelnetClient) Command(line, prompt string) string {
	c.t.Helper()
	c.Send(line)
	return c.ReadUntil(prompt, 5*time.Second)
}

// Send writes line terminated by CRLF.
func (c *TelnetClient) Send(line string) {
	c.t.Helper()
	c.write([]byte(line + "\r\n"))
}

// ReportWindowSize answers the server's NAWS request with width x height.
func (c *TelnetClient) ReportWindowSize(width, height uint16) {
	c.t.Helper()
	c.write([]byte{
		telnet.IAC, telnet.SB, telnet.OptNAWS,
		byte(width >> 8), byte(width), byte(height >> 8), byte(height),
		telnet.IAC, telnet.SE,
	})
}

func (c *TelnetClient) write(data []byte) {
	c.t.Helper()
	_ = c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if _, err := c.conn.Write(data); err != nil {
		c.t.Fatalf("writing %q: %v", data, err)
	}
}

// Close hangs up.
func (c *TelnetClient) Close() {
	_ = c.conn.Close()
}
