// Package format implements the auto-detecting format parsers: JSON,
// logfmt, timestamp/level pattern matching, and the always-succeeding
// plain-text fallback. Each parser is stateless and safe for concurrent
// use once constructed.
package format

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/solwick/cascade/internal/event"
	"github.com/solwick/cascade/internal/parseerr"
)

var (
	jsonTimestampFields = []string{"ts", "time", "timestamp", "@timestamp"}
	jsonLevelFields     = []string{"level", "severity", "lvl", "log.level"}
	jsonMessageFields   = []string{"msg", "message", "log.message"}
)

// JSON parses structured JSON log lines, extracting the canonical
// timestamp/level/message via an ordered field-name search and flattening
// everything else into event fields.
type JSON struct{}

// NewJSON constructs a JSON parser.
func NewJSON() *JSON { return &JSON{} }

// FormatType reports the format this parser produces.
func (p *JSON) FormatType() event.FormatType { return event.FormatJSON }

// CanParse reports whether line looks like a JSON object and decodes cleanly.
func (p *JSON) CanParse(line string) bool {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "{") {
		return false
	}
	return json.Valid([]byte(line))
}

// Parse decodes line as a JSON object into a canonical event.
func (p *JSON) Parse(line string) event.ParseResult {
	start := time.Now()

	var probe any
	if err := json.Unmarshal([]byte(line), &probe); err != nil {
		return p.syntaxFailure(line, err, start)
	}
	if _, ok := probe.(map[string]any); !ok {
		err := &parseerr.JSONNotObject{ActualType: jsonValueTypeName(probe)}
		return failure(line, err, start)
	}

	parsed := gjson.Parse(line)

	var raw map[string]any
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return p.syntaxFailure(line, err, start)
	}

	evt := event.New("", line, event.FormatJSON)

	if ts, ok := extractJSONTimestamp(parsed); ok {
		evt.SetTimestamp(ts)
	}
	if lvl, ok := extractJSONLevel(parsed); ok {
		evt.SetLevel(lvl)
	}

	message := extractJSONString(parsed, jsonMessageFields)
	if message == "" {
		message = line
	}
	evt.Message = message

	flattenInto(raw, "", evt.Fields)
	for _, f := range append(append([]string{}, jsonTimestampFields...), append(jsonLevelFields, jsonMessageFields...)...) {
		delete(evt.Fields, f)
	}

	micro := time.Since(start).Microseconds()
	return event.ParseResult{Success: true, Event: evt, Confidence: 0.95, ProcessingMicro: &micro}
}

func (p *JSON) syntaxFailure(line string, cause error, start time.Time) event.ParseResult {
	var col *int
	var syn *json.SyntaxError
	if ok := asSyntaxError(cause, &syn); ok {
		c := int(syn.Offset)
		col = &c
	}
	lineNum := 1
	err := &parseerr.JSONSyntaxError{Message: cause.Error(), Line: &lineNum, Column: col}
	return failure(line, err, start)
}

func asSyntaxError(err error, target **json.SyntaxError) bool {
	if se, ok := err.(*json.SyntaxError); ok {
		*target = se
		return true
	}
	return false
}

func jsonValueTypeName(v any) string {
	switch v.(type) {
	case []any:
		return "array"
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "boolean"
	case nil:
		return "null"
	default:
		return "unknown"
	}
}

func extractJSONString(parsed gjson.Result, fields []string) string {
	for _, f := range fields {
		if v := parsed.Get(gjsonPath(f)); v.Exists() && v.Type == gjson.String {
			return v.String()
		}
	}
	return ""
}

func gjsonPath(field string) string {
	return strings.ReplaceAll(field, ".", "\\.")
}

func extractJSONLevel(parsed gjson.Result) (event.Level, bool) {
	for _, f := range jsonLevelFields {
		v := parsed.Get(gjsonPath(f))
		if v.Exists() && v.Type == gjson.String {
			if lvl := event.ParseLevel(v.String()); lvl != event.LevelUnknown {
				return lvl, true
			}
		}
	}
	return event.LevelUnknown, false
}

func extractJSONTimestamp(parsed gjson.Result) (time.Time, bool) {
	for _, f := range jsonTimestampFields {
		v := parsed.Get(gjsonPath(f))
		if !v.Exists() {
			continue
		}
		switch v.Type {
		case gjson.String:
			if t, ok := parseJSONTimestampString(v.String()); ok {
				return t, true
			}
		case gjson.Number:
			n := v.Int()
			if t, ok := epochToTime(n); ok {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

func parseJSONTimestampString(s string) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), true
	}
	if t, err := time.Parse("2006-01-02T15:04:05", s); err == nil {
		return t.UTC(), true
	}
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return t.UTC(), true
	}
	return time.Time{}, false
}

// epochToTime heuristically distinguishes second- and millisecond-epoch
// values the way the source implementation does: anything with a
// magnitude typical of milliseconds since 2001+ is treated as millis.
func epochToTime(n int64) (time.Time, bool) {
	if n == 0 {
		return time.Time{}, false
	}
	const msThreshold = 1_000_000_000_000 // ~ year 2001 in milliseconds
	if n > msThreshold {
		return time.UnixMilli(n).UTC(), true
	}
	return time.Unix(n, 0).UTC(), true
}

func flattenInto(obj map[string]any, prefix string, out map[string]any) {
	for k, v := range obj {
		full := k
		if prefix != "" {
			full = prefix + "." + k
		}
		switch vv := v.(type) {
		case map[string]any:
			flattenInto(vv, full, out)
		case []any:
			out[full] = fmt.Sprintf("%v", vv)
		default:
			out[full] = vv
		}
	}
}

func failure(line string, err error, start time.Time) event.ParseResult {
	micro := time.Since(start).Microseconds()
	return event.ParseResult{
		Success:         false,
		Event:           event.WithError(line, err.Error()),
		Err:             err,
		ProcessingMicro: &micro,
	}
}
