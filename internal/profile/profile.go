// Package profile implements deterministic, user-defined or built-in
// parsers that bypass auto-detection entirely: regex and CSV profiles
// driven by configuration, plus the Apache, Nginx, and syslog built-ins.
package profile

import "github.com/solwick/cascade/internal/event"

// Profile is the common interface every profile parser implements. Unlike
// format.Parser, a Profile is matched authoritatively: once selected for a
// source, no further cascade runs on its failure.
type Profile interface {
	CanParse(line string) bool
	Parse(line string) event.ParseResult
	Kind() event.ProfileKind
	Validate() error
}
