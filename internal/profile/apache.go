package profile

import (
	"regexp"
	"strconv"
	"time"

	"github.com/solwick/cascade/internal/event"
	"github.com/solwick/cascade/internal/parseerr"
)

var apacheCommonLogRe = regexp.MustCompile(`^(\S+) (\S+) (\S+) \[([^\]]+)\] "([^"]*)" (\d+) (\S+)`)

// Apache is the built-in parser for the Apache Common Log Format:
// `host ident authuser [timestamp] "request" status size`.
type Apache struct{}

// NewApache constructs the built-in Apache profile.
func NewApache() *Apache { return &Apache{} }

// Kind reports this is the Apache built-in profile.
func (p *Apache) Kind() event.ProfileKind { return event.ProfileApache }

// Validate always succeeds; the Apache profile has no configuration.
func (p *Apache) Validate() error { return nil }

// CanParse reports whether line matches the Apache Common Log Format.
func (p *Apache) CanParse(line string) bool { return apacheCommonLogRe.MatchString(line) }

// Parse extracts client IP, timestamp, request line, status, and size.
func (p *Apache) Parse(line string) event.ParseResult {
	start := time.Now()
	m := apacheCommonLogRe.FindStringSubmatch(line)
	if m == nil {
		err := &parseerr.PatternMatchError{Input: line, AttemptedPatterns: []string{apacheCommonLogRe.String()}}
		return failure(line, err, start)
	}

	evt := event.New("", line, event.FormatProfile(event.ProfileApache))
	evt.AddField("client_ip", m[1])

	if ts, err := time.Parse("02/Jan/2006:15:04:05 -0700", m[4]); err == nil {
		evt.SetTimestamp(ts.UTC())
	}

	evt.Message = m[5]
	evt.AddField("request", m[5])

	if status, err := strconv.Atoi(m[6]); err == nil {
		evt.AddField("status", status)
		evt.SetLevel(levelForStatus(status))
	}

	if size, err := strconv.ParseUint(m[7], 10, 64); err == nil {
		evt.AddField("size", size)
	}

	micro := time.Since(start).Microseconds()
	return event.ParseResult{Success: true, Event: evt, Confidence: 0.9, ProcessingMicro: &micro}
}

func levelForStatus(status int) event.Level {
	switch {
	case status >= 500:
		return event.LevelError
	case status >= 400:
		return event.LevelWarn
	default:
		return event.LevelInfo
	}
}
