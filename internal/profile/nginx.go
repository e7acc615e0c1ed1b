package profile

import (
	"regexp"
	"strconv"
	"time"

	"github.com/solwick/cascade/internal/event"
	"github.com/solwick/cascade/internal/parseerr"
)

var nginxCombinedRe = regexp.MustCompile(`^(\S+) - - \[([^\]]+)\] "([^"]*)" (\d+) (\S+) "([^"]*)" "([^"]*)"`)

// Nginx is the built-in parser for Nginx's default combined access log
// format: `host - - [timestamp] "request" status size "referer" "agent"`.
type Nginx struct{}

// NewNginx constructs the built-in Nginx profile.
func NewNginx() *Nginx { return &Nginx{} }

// Kind reports this is the Nginx built-in profile.
func (p *Nginx) Kind() event.ProfileKind { return event.ProfileNginx }

// Validate always succeeds; the Nginx profile has no configuration.
func (p *Nginx) Validate() error { return nil }

// CanParse reports whether line matches the combined log format.
func (p *Nginx) CanParse(line string) bool { return nginxCombinedRe.MatchString(line) }

// Parse extracts client IP, timestamp, request, status, size, referer, and user agent.
func (p *Nginx) Parse(line string) event.ParseResult {
	start := time.Now()
	m := nginxCombinedRe.FindStringSubmatch(line)
	if m == nil {
		err := &parseerr.PatternMatchError{Input: line, AttemptedPatterns: []string{nginxCombinedRe.String()}}
		return failure(line, err, start)
	}

	evt := event.New("", line, event.FormatProfile(event.ProfileNginx))
	evt.AddField("client_ip", m[1])

	if ts, err := time.Parse("02/Jan/2006:15:04:05 -0700", m[2]); err == nil {
		evt.SetTimestamp(ts.UTC())
	}

	evt.Message = m[3]
	evt.AddField("request", m[3])

	if status, err := strconv.Atoi(m[4]); err == nil {
		evt.AddField("status", status)
		evt.SetLevel(levelForStatus(status))
	}

	if size, err := strconv.ParseUint(m[5], 10, 64); err == nil {
		evt.AddField("size", size)
	}

	evt.AddField("referer", m[6])
	evt.AddField("user_agent", m[7])

	micro := time.Since(start).Microseconds()
	return event.ParseResult{Success: true, Event: evt, Confidence: 0.9, ProcessingMicro: &micro}
}
