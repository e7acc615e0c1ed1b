// Package event defines the canonical log event model shared by every
// parser, profile, and engine in cascade.
//
// A Canonical event is the single representation every format converges
// on: a normalized timestamp, an ordered severity level, a primary
// message, arbitrary structured fields, and the original raw line. See
// Canonical's doc comment for the preservation invariants callers may
// rely on.
package event

import "time"

// Level is a normalized, ordered log severity.
type Level int

// The six ordered severities, from least to most severe.
const (
	LevelUnknown Level = iota - 1
	LevelTrace
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

// String returns the canonical upper-case name of the level.
func (l Level) String() string {
	switch l {
	case LevelTrace:
		return "TRACE"
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelFatal:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a string to a Level using the alias table from the
// spec's level alias table (case-insensitive). Returns LevelUnknown if s
// does not match any known alias.
func ParseLevel(s string) Level {
	switch lower(s) {
	case "trace", "trc", "verbose":
		return LevelTrace
	case "debug", "dbg", "d":
		return LevelDebug
	case "info", "inf", "i", "notice", "note":
		return LevelInfo
	case "warn", "warning", "w":
		return LevelWarn
	case "error", "err", "e", "severe":
		return LevelError
	case "fatal", "crit", "critical", "f", "emerg", "emergency", "alert", "panic":
		return LevelFatal
	default:
		return LevelUnknown
	}
}

func lower(s string) string {
	b := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		b[i] = c
	}
	return string(b)
}

// ProfileKind discriminates between the user-defined or built-in profile
// parsers when FormatType is FormatProfile.
type ProfileKind int

const (
	ProfileRegex ProfileKind = iota
	ProfileCSV
	ProfileApache
	ProfileNginx
	ProfileSyslog
)

func (p ProfileKind) String() string {
	switch p {
	case ProfileRegex:
		return "regex"
	case ProfileCSV:
		return "csv"
	case ProfileApache:
		return "apache"
	case ProfileNginx:
		return "nginx"
	case ProfileSyslog:
		return "syslog"
	default:
		return "unknown"
	}
}

// FormatType discriminates which parser produced an event. Pattern and
// TimestampLevel are semantically equivalent (see spec.md §3); cascade
// canonicalizes on TimestampLevel and never emits Pattern, documenting
// the duality here instead of reproducing it.
type FormatType struct {
	kind    formatKind
	Profile ProfileKind
}

type formatKind int

const (
	formatJSON formatKind = iota
	formatLogfmt
	formatTimestampLevel
	formatPlainText
	formatProfile
)

var (
	FormatJSON           = FormatType{kind: formatJSON}
	FormatLogfmt         = FormatType{kind: formatLogfmt}
	FormatTimestampLevel = FormatType{kind: formatTimestampLevel}
	FormatPlainText      = FormatType{kind: formatPlainText}
)

// FormatProfile builds a FormatType tagging which profile parser produced
// the event.
func FormatProfile(kind ProfileKind) FormatType {
	return FormatType{kind: formatProfile, Profile: kind}
}

// IsProfile reports whether this FormatType was produced by a profile parser.
func (f FormatType) IsProfile() bool { return f.kind == formatProfile }

func (f FormatType) String() string {
	switch f.kind {
	case formatJSON:
		return "json"
	case formatLogfmt:
		return "logfmt"
	case formatTimestampLevel:
		return "timestamp_level"
	case formatPlainText:
		return "plain_text"
	case formatProfile:
		return "profile:" + f.Profile.String()
	default:
		return "unknown"
	}
}

// Source carries provenance metadata for an event; every field is
// optional.
type Source struct {
	File   string
	Stream string
	Host   string
	Offset *uint64
}

// Canonical is the uniform representation of one parsed log line.
//
// Invariants (spec.md §3):
//  1. Raw equals the bytes originally handed to the dispatcher (modulo
//     stream newline stripping).
//  2. If ParseError is true the event is still well-formed and carries Raw.
//  3. Timestamp, when set, is UTC.
//  4. Level, when set, is one of the six ordered values (never LevelUnknown).
//  5. FormatType is a profile tag only if a profile parser produced the event.
type Canonical struct {
	Timestamp   *time.Time
	Level       Level
	Message     string
	Fields      map[string]any
	Raw         string
	Source      Source
	ParseError  *bool
	FormatType  FormatType
}

// New creates a canonical event with the required fields populated.
func New(message, raw string, format FormatType) Canonical {
	return Canonical{
		Level:      LevelUnknown,
		Message:    message,
		Fields:     make(map[string]any),
		Raw:        raw,
		FormatType: format,
	}
}

// WithError creates a canonical event marked as having a parse error,
// carrying raw verbatim and the fallback message.
func WithError(raw, errorMessage string) Canonical {
	t := true
	return Canonical{
		Level:      LevelUnknown,
		Message:    errorMessage,
		Fields:     make(map[string]any),
		Raw:        raw,
		ParseError: &t,
		FormatType: FormatPlainText,
	}
}

// AddField sets a field in the event's structured data.
func (c *Canonical) AddField(key string, value any) {
	if c.Fields == nil {
		c.Fields = make(map[string]any)
	}
	c.Fields[key] = value
}

// SetTimestamp sets the canonical timestamp, normalizing to UTC.
func (c *Canonical) SetTimestamp(t time.Time) {
	u := t.UTC()
	c.Timestamp = &u
}

// SetLevel sets the canonical level.
func (c *Canonical) SetLevel(l Level) {
	c.Level = l
}

// MarkParseError flags the event as having recovered from a parse error.
func (c *Canonical) MarkParseError() {
	t := true
	c.ParseError = &t
}

// HasParseError reports whether ParseError is set to true.
func (c *Canonical) HasParseError() bool {
	return c.ParseError != nil && *c.ParseError
}

// ParseResult is the outcome of a single dispatch: the canonical event,
// whether it counts as a success, an optional typed error, the
// producing parser's self-reported confidence, and optional line number
// and processing time metadata.
type ParseResult struct {
	Success         bool
	Event           Canonical
	Err             error
	Confidence      float64
	LineNumber      *int
	ProcessingMicro *int64
}
