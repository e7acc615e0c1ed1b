package format

import "github.com/solwick/cascade/internal/event"

// Parser is the common interface every auto-detecting format parser
// implements: a cheap gate (CanParse) and the actual parse.
type Parser interface {
	CanParse(line string) bool
	Parse(line string) event.ParseResult
	FormatType() event.FormatType
}
