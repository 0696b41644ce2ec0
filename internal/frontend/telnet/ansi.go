// Package telnet serves line-oriented clients over TCP with minimal Telnet
// option handling and ANSI styling.
package telnet

import (
	"fmt"
	"regexp"
)

// ANSI escape codes for terminal styling.
const (
	Reset = "\033[0m"
	Bold  = "\033[1m"
	Dim   = "\033[2m"

	Red     = "\033[31m"
	Green   = "\033[32m"
	Yellow  = "\033[33m"
	Blue    = "\033[34m"
	Magenta = "\033[35m"
	Cyan    = "\033[36m"
	White   = "\033[37m"

	BrightRed     = "\033[91m"
	BrightGreen   = "\033[92m"
	BrightYellow  = "\033[93m"
	BrightBlue    = "\033[94m"
	BrightMagenta = "\033[95m"
	BrightCyan    = "\033[96m"
	BrightWhite   = "\033[97m"
)

var ansiPattern = regexp.MustCompile("\033\\[[0-9;]*m")

// Colorize wraps text with color and a reset suffix.
//
// Postcondition: an empty color returns text unchanged.
func Colorize(color, text string) string {
	if color == "" {
		return text
	}
	return color + text + Reset
}

// Colorf formats and then colorizes.
func Colorf(color, format string, args ...any) string {
	return Colorize(color, fmt.Sprintf(format, args...))
}

// StripANSI removes SGR escape sequences, leaving the printable text.
func StripANSI(s string) string {
	return ansiPattern.ReplaceAllString(s, "")
}
