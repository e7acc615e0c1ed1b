package output

import (
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/solwick/cascade/internal/event"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorGray   = "\033[90m"
	colorBold   = "\033[1m"
)

// ColorMode determines when to use colored output.
type ColorMode int

const (
	ColorAuto   ColorMode = iota // Auto-detect based on TTY
	ColorAlways                  // Always use colors
	ColorNever                   // Never use colors
)

// isTerminal checks if the given file is a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// shouldColorize determines if output should be colorized based on mode and TTY detection.
func shouldColorize(mode ColorMode, w interface{}) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	case ColorAuto:
		if f, ok := w.(*os.File); ok {
			return isTerminal(f)
		}
		return false
	}
	return false
}

// ColorizeLine applies color to an entire log line based on its level.
func ColorizeLine(level event.Level, line string) string {
	switch level {
	case event.LevelTrace, event.LevelDebug:
		return colorGray + line + colorReset
	case event.LevelWarn:
		return colorYellow + line + colorReset
	case event.LevelError:
		return colorRed + line + colorReset
	case event.LevelFatal:
		return colorBold + colorRed + line + colorReset
	default:
		return line // INFO and UNKNOWN use default color
	}
}

// FormatResult formats a single parse result with optional coloring.
func FormatResult(r event.ParseResult, colorize bool) string {
	if colorize {
		return ColorizeLine(r.Event.Level, r.Event.Raw)
	}
	return r.Event.Raw
}

// WriteColoredResult writes a parse result to the writer with color
// based on ColorMode.
func (wr *Writer) WriteColoredResult(r event.ParseResult, mode ColorMode) error {
	colorize := shouldColorize(mode, wr.w)
	line := FormatResult(r, colorize)
	_, err := fmt.Fprintln(wr.w, line)
	return err
}
