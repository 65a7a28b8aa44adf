// Package telnet provides the Telnet transport for the text scorecard:
// an acceptor, IAC-filtering connections, and ANSI styling.
package telnet

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// SGR styles used by the scorecard renderer.
const (
	Reset   = "\033[0m"
	Bold    = "\033[1m"
	Dim     = "\033[2m"
	Reverse = "\033[7m"

	Red    = "\033[31m"
	Green  = "\033[32m"
	Yellow = "\033[33m"
	Cyan   = "\033[36m"

	BrightBlack  = "\033[90m"
	BrightYellow = "\033[93m"
	BrightCyan   = "\033[96m"
	BrightWhite  = "\033[97m"
)

// Colorize returns text in style, followed by Reset.
func Colorize(style, text string) string {
	return style + text + Reset
}

// Colorf is Colorize over fmt.Sprintf(format, args...).
func Colorf(style, format string, args ...any) string {
	return Colorize(style, fmt.Sprintf(format, args...))
}

// StripANSI removes CSI escape sequences (ESC [ params final) from s.
// An unterminated sequence at the end of s is kept as is.
func StripANSI(s string) string {
	if !strings.Contains(s, "\033[") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for {
		i := strings.Index(s, "\033[")
		if i < 0 {
			b.WriteString(s)
			return b.String()
		}
		end := csiEnd(s, i+2)
		if end < 0 {
			b.WriteString(s)
			return b.String()
		}
		b.WriteString(s[:i])
		s = s[end:]
	}
}

// csiEnd returns the index just past the final byte of a CSI sequence whose
// parameters start at from, or -1 if s ends first.
func csiEnd(s string, from int) int {
	for j := from; j < len(s); j++ {
		if s[j] >= 0x40 && s[j] <= 0x7e {
			return j + 1
		}
	}
	return -1
}

// Width is the number of runes in s once styling is removed.
func Width(s string) int {
	return utf8.RuneCountInString(StripANSI(s))
}

// PadRight left-aligns s in a field of width columns.
//
// Postcondition: Width(result) == max(width, Width(s)).
func PadRight(s string, width int) string {
	return s + strings.Repeat(" ", max(0, width-Width(s)))
}

// PadLeft right-aligns s in a field of width columns.
//
// Postcondition: Width(result) == max(width, Width(s)).
func PadLeft(s string, width int) string {
	return strings.Repeat(" ", max(0, width-Width(s))) + s
}
