package command

import (
	"strings"
	"unicode"
)

// ParseResult holds the parsed command name and arguments from a text line.
type ParseResult struct {
	// Command is the first word of the input, lowercased.
	Command string
	// Args are the remaining words after the command.
	Args []string
	// RawArgs is the raw text after the command, with inner spacing intact so
	// pasted save documents survive.
	RawArgs string
}

// Arg returns the i-th argument lowercased, or "" when absent.
func (p ParseResult) Arg(i int) string {
	if i < 0 || i >= len(p.Args) {
		return ""
	}
	return strings.ToLower(p.Args[i])
}

// Parse splits a text line into a command and arguments.
//
// Postcondition: Returns a ParseResult. If line is blank, Command is empty.
func Parse(line string) ParseResult {
	line = strings.TrimSpace(line)
	if line == "" {
		return ParseResult{}
	}

	sep := strings.IndexFunc(line, unicode.IsSpace)
	if sep < 0 {
		return ParseResult{Command: strings.ToLower(line)}
	}

	rest := strings.TrimSpace(line[sep:])
	var args []string
	if rest != "" {
		args = strings.Fields(rest)
	}
	return ParseResult{
		Command: strings.ToLower(line[:sep]),
		Args:    args,
		RawArgs: rest,
	}
}
