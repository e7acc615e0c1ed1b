package format

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/solwick/cascade/internal/event"
	"github.com/solwick/cascade/internal/parseerr"
)

var (
	androidLogcatRe = regexp.MustCompile(`^(\d{2}-\d{2}\s+\d{2}:\d{2}:\d{2}\.\d+)\s+(\d+)\s+(\d+)\s+([VDIWEFA])\s+([^:]+):\s*(.*)$`)
	bracketedRe     = regexp.MustCompile(`^\[([^\]]+)\]\s*\[([^\]]+)\]\s*(.*)$`)
	spaceSeparatedRe = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2}:\d{2}(?:\.\d+)?(?:Z|[+-]\d{2}:?\d{2})?)\s+(\w+)\s+(.*)$`)
	syslogNoLevelRe = regexp.MustCompile(`^([A-Za-z]{3})\s+(\d{1,2})\s+(\d{2}:\d{2}:\d{2})\s+(\S+)\s+([^:]+):\s*(.*)$`)
)

// Pattern matches a handful of common timestamp+level line shapes, tried
// in order of specificity: Android logcat, bracketed `[ts] [level] msg`,
// ISO-timestamp-then-level, and finally RFC3164 syslog without a level.
type Pattern struct{}

// NewPattern constructs a pattern parser.
func NewPattern() *Pattern { return &Pattern{} }

// FormatType reports the format this parser produces.
func (p *Pattern) FormatType() event.FormatType { return event.FormatTimestampLevel }

// CanParse reports whether any of the four sub-patterns matches line.
func (p *Pattern) CanParse(line string) bool {
	return androidLogcatRe.MatchString(line) ||
		bracketedRe.MatchString(line) ||
		spaceSeparatedRe.MatchString(line) ||
		syslogNoLevelRe.MatchString(line)
}

// Parse tries each sub-pattern in priority order and returns the first match.
func (p *Pattern) Parse(line string) event.ParseResult {
	start := time.Now()
	var attempted []string

	if evt, ok := p.tryAndroidLogcat(line); ok {
		return success(evt, 0.90, start)
	}
	attempted = append(attempted, "android logcat pattern")

	if evt, ok := p.tryBracketed(line); ok {
		return success(evt, 0.85, start)
	}
	attempted = append(attempted, "bracketed pattern")

	if evt, ok := p.trySpaceSeparated(line); ok {
		return success(evt, 0.80, start)
	}
	attempted = append(attempted, "space-separated pattern")

	if evt, ok := p.trySyslogNoLevel(line); ok {
		return success(evt, 0.75, start)
	}
	attempted = append(attempted, "syslog pattern")

	err := &parseerr.PatternMatchError{Input: line, AttemptedPatterns: attempted}
	return failure(line, err, start)
}

func success(evt event.Canonical, confidence float64, start time.Time) event.ParseResult {
	micro := time.Since(start).Microseconds()
	return event.ParseResult{Success: true, Event: evt, Confidence: confidence, ProcessingMicro: &micro}
}

func (p *Pattern) tryAndroidLogcat(line string) (event.Canonical, bool) {
	m := androidLogcatRe.FindStringSubmatch(line)
	if m == nil {
		return event.Canonical{}, false
	}
	ts, ok := parseAndroidTimestamp(m[1])
	if !ok {
		return event.Canonical{}, false
	}
	lvl, ok := androidLevel(m[4])
	if !ok {
		return event.Canonical{}, false
	}
	evt := event.New(strings.TrimSpace(m[6]), line, event.FormatTimestampLevel)
	evt.SetTimestamp(ts)
	evt.SetLevel(lvl)
	if pid, err := strconv.Atoi(m[2]); err == nil {
		evt.AddField("pid", pid)
	}
	if tid, err := strconv.Atoi(m[3]); err == nil {
		evt.AddField("tid", tid)
	}
	evt.AddField("tag", strings.TrimSpace(m[5]))
	return evt, true
}

func androidLevel(c string) (event.Level, bool) {
	switch c {
	case "V":
		return event.LevelTrace, true
	case "D":
		return event.LevelDebug, true
	case "I":
		return event.LevelInfo, true
	case "W":
		return event.LevelWarn, true
	case "E":
		return event.LevelError, true
	case "F", "A":
		return event.LevelFatal, true
	default:
		return event.LevelUnknown, false
	}
}

func (p *Pattern) tryBracketed(line string) (event.Canonical, bool) {
	m := bracketedRe.FindStringSubmatch(line)
	if m == nil {
		return event.Canonical{}, false
	}
	ts, ok := ParseKnownTimestamp(m[1])
	if !ok {
		return event.Canonical{}, false
	}
	lvl := event.ParseLevel(m[2])
	if lvl == event.LevelUnknown {
		return event.Canonical{}, false
	}
	evt := event.New(m[3], line, event.FormatTimestampLevel)
	evt.SetTimestamp(ts)
	evt.SetLevel(lvl)
	return evt, true
}

func (p *Pattern) trySpaceSeparated(line string) (event.Canonical, bool) {
	m := spaceSeparatedRe.FindStringSubmatch(line)
	if m == nil {
		return event.Canonical{}, false
	}
	ts, ok := ParseKnownTimestamp(m[1])
	if !ok {
		return event.Canonical{}, false
	}
	lvl := event.ParseLevel(m[2])
	if lvl == event.LevelUnknown {
		return event.Canonical{}, false
	}
	evt := event.New(m[3], line, event.FormatTimestampLevel)
	evt.SetTimestamp(ts)
	evt.SetLevel(lvl)
	return evt, true
}

func (p *Pattern) trySyslogNoLevel(line string) (event.Canonical, bool) {
	m := syslogNoLevelRe.FindStringSubmatch(line)
	if m == nil {
		return event.Canonical{}, false
	}
	ts, ok := parseSyslogTimestampCurrentYear(m[1], m[2], m[3])
	if !ok {
		return event.Canonical{}, false
	}
	evt := event.New(m[6], line, event.FormatTimestampLevel)
	evt.SetTimestamp(ts)
	evt.AddField("hostname", m[4])
	evt.AddField("process", m[5])
	if pidMatch := syslogPidRe.FindStringSubmatch(m[5]); pidMatch != nil {
		if pid, err := strconv.Atoi(pidMatch[1]); err == nil {
			evt.AddField("pid", pid)
		}
	}
	return evt, true
}

var syslogPidRe = regexp.MustCompile(`\[(\d+)\]`)

func parseAndroidTimestamp(s string) (time.Time, bool) {
	year := time.Now().UTC().Year()
	candidate := strconv.Itoa(year) + "-" + s
	if t, err := time.Parse("2006-01-02 15:04:05.000", candidate); err == nil {
		return t.UTC(), true
	}
	if t, err := time.Parse("2006-01-02 15:04:05", candidate); err == nil {
		return t.UTC(), true
	}
	return time.Time{}, false
}

func parseSyslogTimestampCurrentYear(month, day, clock string) (time.Time, bool) {
	year := strconv.Itoa(time.Now().UTC().Year())
	candidate := month + " " + day + " " + clock + " " + year
	if t, err := time.Parse("Jan 2 15:04:05 2006", candidate); err == nil {
		return t.UTC(), true
	}
	normalized := strings.Join(strings.Fields(candidate), " ")
	if t, err := time.Parse("Jan 2 15:04:05 2006", normalized); err == nil {
		return t.UTC(), true
	}
	return time.Time{}, false
}

// ParseKnownTimestamp tries every timestamp layout cascade recognizes,
// in the priority order of the source cascade: RFC3339, ISO8601 variants,
// space-separated, Apache CLF, verbose weekday form, syslog-with-year,
// syslog-without-year (assumes current year).
func ParseKnownTimestamp(s string) (time.Time, bool) {
	layouts := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02T15:04:05.000",
		"2006-01-02 15:04:05",
		"02/Jan/2006:15:04:05 -0700",
		"Mon Jan 02 15:04:05 2006",
		"Jan 02 15:04:05 2006",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}

	year := strconv.Itoa(time.Now().UTC().Year())
	withYear := s + " " + year
	if t, err := time.Parse("Jan 2 15:04:05 2006", withYear); err == nil {
		return t.UTC(), true
	}
	normalized := strings.Join(strings.Fields(s), " ") + " " + year
	if t, err := time.Parse("Jan 2 15:04:05 2006", normalized); err == nil {
		return t.UTC(), true
	}

	return time.Time{}, false
}
