package telnet

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"net"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"
)

// Telnet command bytes (RFC 854).
const (
	IAC  byte = 255
	DONT byte = 254
	DO   byte = 253
	WONT byte = 252
	WILL byte = 251
	SB   byte = 250 // subnegotiation begin
	GA   byte = 249
	NOP  byte = 241
	SE   byte = 240 // subnegotiation end

	OptEcho            byte = 1
	OptSuppressGoAhead byte = 3
	OptNAWS            byte = 31 // window size, RFC 1073
	OptLinemode        byte = 34
)

// MaxLineLength caps a single input line; further bytes are dropped.
const MaxLineLength = 1024

// Conn is a line-oriented Telnet connection. Input has negotiation stripped
// and backspace applied; output lines end in CRLF.
type Conn struct {
	raw    net.Conn
	reader *bufio.Reader
	mu     sync.Mutex

	readTimeout  time.Duration
	writeTimeout time.Duration

	// width and height from NAWS, 0 until the client reports them.
	width  atomic.Int32
	height atomic.Int32
}

// NewConn wraps raw. Zero timeouts disable the per-call deadlines.
//
// Precondition: raw must be a valid, open network connection.
func NewConn(raw net.Conn, readTimeout, writeTimeout time.Duration) *Conn {
	return &Conn{
		raw:          raw,
		reader:       bufio.NewReaderSize(raw, 4096),
		readTimeout:  readTimeout,
		writeTimeout: writeTimeout,
	}
}

// Negotiate offers to suppress go-ahead and asks the client for its window size.
//
// Postcondition: Negotiation bytes are written to the connection.
func (c *Conn) Negotiate() error {
	return c.Write([]byte{
		IAC, WILL, OptSuppressGoAhead,
		IAC, DO, OptNAWS,
	})
}

// WindowSize returns the client's terminal size. ok is false until the
// client has answered the NAWS request.
func (c *Conn) WindowSize() (width, height int, ok bool) {
	w, h := int(c.width.Load()), int(c.height.Load())
	return w, h, w > 0
}

// ReadLine reads one line of input. Negotiation is consumed, backspace and
// DEL erase the previous rune, other control bytes except tab are dropped.
// Lines end at LF, CR LF, CR NUL or a bare CR.
//
// Postcondition: Returns the line without its terminator, or an error (including io.EOF).
func (c *Conn) ReadLine() (string, error) {
	if c.readTimeout > 0 {
		_ = c.raw.SetReadDeadline(time.Now().Add(c.readTimeout))
	}

	var line []byte
	for {
		b, err := c.reader.ReadByte()
		if err != nil {
			return string(line), err
		}

		switch {
		case b == IAC:
			if err := c.readCommand(); err != nil {
				return string(line), err
			}
		case b == '\n':
			return string(line), nil
		case b == '\r':
			if next, err := c.reader.Peek(1); err == nil && (next[0] == '\n' || next[0] == 0) {
				_, _ = c.reader.ReadByte()
			}
			return string(line), nil
		case b == '\b' || b == 0x7f:
			if len(line) > 0 {
				_, size := utf8.DecodeLastRune(line)
				line = line[:len(line)-size]
			}
		case b < 32 && b != '\t':
		case len(line) < MaxLineLength:
			line = append(line, b)
		}
	}
}

// readCommand consumes a command after IAC has been read.
func (c *Conn) readCommand() error {
	cmd, err := c.reader.ReadByte()
	if err != nil {
		return err
	}
	switch cmd {
	case WILL, WONT, DO, DONT:
		_, err = c.reader.ReadByte()
		return err
	case SB:
		payload, err := c.readSubnegotiation()
		if err != nil {
			return err
		}
		c.applySubnegotiation(payload)
	}
	return nil
}

// readSubnegotiation returns the bytes between IAC SB and IAC SE with
// escaped IAC IAC collapsed.
func (c *Conn) readSubnegotiation() ([]byte, error) {
	var payload []byte
	for {
		b, err := c.reader.ReadByte()
		if err != nil {
			return nil, err
		}
		if b != IAC {
			payload = append(payload, b)
			continue
		}
		next, err := c.reader.ReadByte()
		if err != nil {
			return nil, err
		}
		if next == SE {
			return payload, nil
		}
		if next == IAC {
			payload = append(payload, IAC)
		}
	}
}

func (c *Conn) applySubnegotiation(payload []byte) {
	if len(payload) == 5 && payload[0] == OptNAWS {
		c.width.Store(int32(binary.BigEndian.Uint16(payload[1:3])))
		c.height.Store(int32(binary.BigEndian.Uint16(payload[3:5])))
	}
}

// WriteLine sends text followed by CRLF.
func (c *Conn) WriteLine(text string) error {
	return c.Write([]byte(text + "\r\n"))
}

// WriteLines sends each line followed by CRLF in a single write.
//
// Postcondition: All lines are written, or the first error is returned.
func (c *Conn) WriteLines(lines []string) error {
	var buf bytes.Buffer
	for _, l := range lines {
		buf.WriteString(l)
		buf.WriteString("\r\n")
	}
	return c.Write(buf.Bytes())
}

// WritePrompt sends prompt without a line ending.
func (c *Conn) WritePrompt(prompt string) error {
	return c.Write([]byte(prompt))
}

// Write sends raw bytes under the write deadline.
func (c *Conn) Write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.writeTimeout > 0 {
		_ = c.raw.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}
	_, err := c.raw.Write(data)
	return err
}

// Close closes the underlying connection.
func (c *Conn) Close() error {
	return c.raw.Close()
}

// RemoteAddr returns the client's address.
func (c *Conn) RemoteAddr() net.Addr {
	return c.raw.RemoteAddr()
}

// FilterIAC strips Telnet commands from a byte slice the way ReadLine does
// on the wire: option commands and subnegotiations vanish, IAC IAC becomes
// one 0xFF byte and a truncated trailing sequence is dropped.
func FilterIAC(input []byte) []byte {
	out := make([]byte, 0, len(input))
	for i := 0; i < len(input); {
		if input[i] != IAC {
			out = append(out, input[i])
			i++
			continue
		}
		if i+1 >= len(input) {
			break
		}
		switch input[i+1] {
		case WILL, WONT, DO, DONT:
			i += 3
		case SB:
			i = skipSubnegotiation(input, i+2)
		case IAC:
			out = append(out, IAC)
			i += 2
		default:
			i += 2
		}
	}
	return out
}

// skipSubnegotiation returns the index after the IAC SE closing the
// subnegotiation whose payload starts at from, or len(input) if unterminated.
func skipSubnegotiation(input []byte, from int) int {
	for j := from; j+1 < len(input); j++ {
		if input[j] != IAC {
			continue
		}
		if input[j+1] == SE {
			return j + 2
		}
		j++ // IAC IAC inside the payload
	}
	return len(input)
}
