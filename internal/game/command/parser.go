package command

import "strings"

// ParseResult holds the parsed command name and arguments from a text line.
type ParseResult struct {
	// Command is the first word of the input, lowercased.
	Command string
	// Args are the remaining words after the command.
	Args []string
	// RawArgs is the raw text after the command.
	RawArgs string
}

// Parse splits a text line into a command and arguments.
//
// Postcondition: Returns a ParseResult. If line is blank, Command is empty.
func Parse(line string) ParseResult {
	line = strings.TrimSpace(line)
	if line == "" {
		return ParseResult{}
	}

	cmd, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	res := ParseResult{Command: strings.ToLower(cmd), RawArgs: rest}
	if rest != "" {
		res.Args = strings.Fields(rest)
	}
	return res
}

// Tail returns the raw text after the first n arguments, preserving inner
// spacing. Used for free text such as player names.
//
// Postcondition: Returns "" when there are n or fewer arguments.
func (r ParseResult) Tail(n int) string {
	rest := r.RawArgs
	for i := 0; i < n; i++ {
		rest = strings.TrimLeft(rest, " \t")
		idx := strings.IndexAny(rest, " \t")
		if idx < 0 {
			return ""
		}
		rest = rest[idx:]
	}
	return strings.TrimSpace(rest)
}
