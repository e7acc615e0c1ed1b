package format

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/solwick/cascade/internal/event"
)

var (
	plainTimestampRe = regexp.MustCompile(`\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2}:\d{2}(?:\.\d+)?(?:Z|[+-]\d{2}:?\d{2})?`)
	plainFieldRe     = regexp.MustCompile(`([a-zA-Z0-9_.-]+)[:=]([^\s,;]+)`)
)

// PlainText is the guaranteed-success fallback parser: it never fails,
// opportunistically inferring a timestamp, level, and loose fields while
// always keeping the whole line as the message.
type PlainText struct{}

// NewPlainText constructs a plain-text parser.
func NewPlainText() *PlainText { return &PlainText{} }

// FormatType reports the format this parser produces.
func (p *PlainText) FormatType() event.FormatType { return event.FormatPlainText }

// CanParse always returns true; plain text is the universal fallback.
func (p *PlainText) CanParse(string) bool { return true }

// Parse never fails: it extracts whatever structure it can and keeps the
// entire line as the message.
func (p *PlainText) Parse(line string) event.ParseResult {
	start := time.Now()
	evt := event.New(line, line, event.FormatPlainText)

	confidence := 0.1

	if ts, ok := inferTimestamp(line); ok {
		evt.SetTimestamp(ts)
		confidence += 0.2
	}

	if lvl, ok := inferLevel(line); ok {
		evt.SetLevel(lvl)
		if lvl != event.LevelInfo {
			confidence += 0.1
		}
	}

	for k, v := range extractLooseFields(line) {
		evt.AddField(k, v)
	}
	if len(evt.Fields) > 0 {
		confidence += 0.1
	}

	micro := time.Since(start).Microseconds()
	return event.ParseResult{Success: true, Event: evt, Confidence: confidence, ProcessingMicro: &micro}
}

func inferTimestamp(line string) (time.Time, bool) {
	m := plainTimestampRe.FindString(line)
	if m == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339Nano, m); err == nil {
		return t.UTC(), true
	}
	if t, err := time.Parse("2006-01-02T15:04:05", m); err == nil {
		return t.UTC(), true
	}
	if t, err := time.Parse("2006-01-02 15:04:05", m); err == nil {
		return t.UTC(), true
	}
	return time.Time{}, false
}

func inferLevel(line string) (event.Level, bool) {
	upper := strings.ToUpper(line)
	switch {
	case strings.Contains(upper, "FATAL"), strings.Contains(upper, "CRITICAL"):
		return event.LevelFatal, true
	case strings.Contains(upper, "ERROR"), strings.Contains(upper, "ERR"):
		return event.LevelError, true
	case strings.Contains(upper, "WARN"), strings.Contains(upper, "WARNING"):
		return event.LevelWarn, true
	case strings.Contains(upper, "INFO"), strings.Contains(upper, "INFORMATION"):
		return event.LevelInfo, true
	case strings.Contains(upper, "DEBUG"), strings.Contains(upper, "DBG"):
		return event.LevelDebug, true
	case strings.Contains(upper, "TRACE"):
		return event.LevelTrace, true
	default:
		return event.LevelUnknown, false
	}
}

func extractLooseFields(line string) map[string]any {
	fields := make(map[string]any)
	for _, m := range plainFieldRe.FindAllStringSubmatch(line, -1) {
		key, value := m[1], m[2]
		fields[key] = inferScalar(value)
	}
	return fields
}

func inferScalar(value string) any {
	if n, err := strconv.ParseInt(value, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return f
	}
	if strings.EqualFold(value, "true") {
		return true
	}
	if strings.EqualFold(value, "false") {
		return false
	}
	return value
}
