package telnet

import (
	"bufio"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// pipeConn returns a server Conn and the client end of an in-memory pipe.
func pipeConn(t *testing.T) (*Conn, net.Conn) {
	t.Helper()
	server, client := net.Pipe()
	t.Cleanup(func() {
		server.Close()
		client.Close()
	})
	return NewConn(server, 2*time.Second, 2*time.Second), client
}

func TestReadLine_FiltersNegotiation(t *testing.T) {
	conn, client := pipeConn(t)
	go func() {
		_, _ = client.Write([]byte{IAC, DO, OptSuppressGoAhead, 'r', 'o', 'l', 'l', '\r', '\n'})
	}()
	line, err := conn.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "roll", line)
}

func TestReadLine_SubNegotiationAndControlChars(t *testing.T) {
	conn, client := pipeConn(t)
	go func() {
		_, _ = client.Write([]byte{'s', 'e', IAC, SB, 24, 0, 'x', IAC, SE, 't', 0x07, '\n'})
	}()
	line, err := conn.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "set", line)
}

func TestReadLine_BareCarriageReturn(t *testing.T) {
	conn, client := pipeConn(t)
	go func() {
		_, _ = client.Write([]byte("sheet\rhelp\r\n"))
	}()
	first, err := conn.ReadLine()
	require.NoError(t, err)
	second, err := conn.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "sheet", first)
	assert.Equal(t, "help", second)
}

func TestReadLine_UTF8Name(t *testing.T) {
	conn, client := pipeConn(t)
	go func() {
		_, _ = client.Write([]byte("name 1 Jürgen\r\n"))
	}()
	line, err := conn.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "name 1 Jürgen", line)
}

func TestReadLine_ClosedReturnsError(t *testing.T) {
	conn, client := pipeConn(t)
	client.Close()
	_, err := conn.ReadLine()
	assert.Error(t, err)
}

func TestWriteLines(t *testing.T) {
	conn, client := pipeConn(t)
	go func() {
		_ = conn.WriteLines([]string{"a", "b"})
	}()
	r := bufio.NewReader(client)
	first, err := r.ReadString('\n')
	require.NoError(t, err)
	second, err := r.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "a\r\n", first)
	assert.Equal(t, "b\r\n", second)
}

func TestNegotiate(t *testing.T) {
	conn, client := pipeConn(t)
	go func() { _ = conn.Negotiate() }()
	buf := make([]byte, 6)
	_, err := io.ReadFull(client, buf)
	require.NoError(t, err)
	assert.Equal(t, []byte{IAC, WILL, OptSuppressGoAhead, IAC, DO, OptNAWS}, buf)
}

func TestReadLine_WindowSize(t *testing.T) {
	conn, client := pipeConn(t)
	_, _, ok := conn.WindowSize()
	assert.False(t, ok)

	go func() {
		_, _ = client.Write([]byte{IAC, WILL, OptNAWS, IAC, SB, OptNAWS, 0, 120, 0, 40, IAC, SE, 'd', '\r', '\n'})
	}()
	line, err := conn.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "d", line)

	w, h, ok := conn.WindowSize()
	assert.True(t, ok)
	assert.Equal(t, 120, w)
	assert.Equal(t, 40, h)
}

func TestReadLine_WindowSizeWithEscapedIAC(t *testing.T) {
	conn, client := pipeConn(t)
	go func() {
		// width 0x01FF needs its 0xFF byte doubled
		_, _ = client.Write([]byte{IAC, SB, OptNAWS, 1, IAC, IAC, 0, 24, IAC, SE, '\n'})
	}()
	_, err := conn.ReadLine()
	require.NoError(t, err)
	w, h, _ := conn.WindowSize()
	assert.Equal(t, 511, w)
	assert.Equal(t, 24, h)
}

func TestReadLine_Backspace(t *testing.T) {
	conn, client := pipeConn(t)
	go func() {
		_, _ = client.Write([]byte("rol\x7fll\bl\r\nJü\bu\r\n"))
	}()
	first, err := conn.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "roll", first)
	second, err := conn.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "Ju", second)
}

func TestReadLine_CarriageReturnNull(t *testing.T) {
	conn, client := pipeConn(t)
	go func() {
		_, _ = client.Write([]byte("dice\r\x00sheet\r\n"))
	}()
	first, err := conn.ReadLine()
	require.NoError(t, err)
	second, err := conn.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "dice", first)
	assert.Equal(t, "sheet", second)
}

func TestReadLine_LengthCap(t *testing.T) {
	conn, client := pipeConn(t)
	go func() {
		_, _ = client.Write([]byte(strings.Repeat("a", MaxLineLength+50) + "\n"))
	}()
	line, err := conn.ReadLine()
	require.NoError(t, err)
	assert.Len(t, line, MaxLineLength)
}

func TestFilterIAC_NoIAC(t *testing.T) {
	input := []byte("hello world")
	assert.Equal(t, input, FilterIAC(input))
}

func TestFilterIAC_Commands(t *testing.T) {
	cases := []struct {
		name  string
		input []byte
		want  []byte
	}{
		{"will", []byte{IAC, WILL, OptEcho, 'h', 'i'}, []byte("hi")},
		{"wont", []byte{IAC, WONT, OptSuppressGoAhead, 'o', 'k'}, []byte("ok")},
		{"do", []byte{'a', IAC, DO, OptLinemode, 'b'}, []byte("ab")},
		{"dont", []byte{IAC, DONT, OptEcho}, []byte{}},
		{"subnegotiation", []byte{IAC, SB, 24, 0, 'x', IAC, SE, 'z'}, []byte("z")},
		{"escaped", []byte{'a', IAC, IAC, 'b'}, []byte{'a', IAC, 'b'}},
		{"nop", []byte{'x', IAC, NOP, 'y'}, []byte("xy")},
		{"escaped inside subnegotiation", []byte{IAC, SB, OptNAWS, IAC, IAC, SE, IAC, SE, 'k'}, []byte("k")},
		{"trailing iac", []byte{'a', IAC}, []byte("a")},
		{"truncated option", []byte{'a', IAC, WILL}, []byte("a")},
		{"unterminated subnegotiation", []byte{'a', IAC, SB, OptNAWS, 0, 80}, []byte("a")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, FilterIAC(tc.input))
		})
	}
}

// Property: FilterIAC on input without any IAC bytes returns the input unchanged.
func TestPropertyFilterIAC_NoIACBytesPassThrough(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		input := rapid.SliceOf(rapid.ByteRange(0, 254)).Draw(t, "input")
		assert.Equal(t, input, FilterIAC(input))
	})
}

// Property: FilterIAC output length is always <= input length.
func TestPropertyFilterIAC_OutputNeverLongerThanInput(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		input := rapid.SliceOf(rapid.Byte()).Draw(t, "input")
		assert.LessOrEqual(t, len(FilterIAC(input)), len(input))
	})
}

// Property: a printable command followed by negotiation noise reads back intact.
func TestPropertyReadLineStripsNegotiation(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		text := rapid.StringMatching(`[a-z0-9 ]{0,30}`).Draw(rt, "text")
		opt := rapid.ByteRange(0, 254).Draw(rt, "option")
		verb := rapid.SampledFrom([]byte{WILL, WONT, DO, DONT}).Draw(rt, "verb")

		server, client := net.Pipe()
		defer server.Close()
		defer client.Close()
		conn := NewConn(server, 2*time.Second, 0)
		go func() {
			_, _ = client.Write(append([]byte{IAC, verb, opt}, []byte(text+"\r\n")...))
		}()
		line, err := conn.ReadLine()
		assert.NoError(rt, err)
		assert.Equal(rt, text, line)
	})
}
