// Package classify implements the multi-stage format classifier: the
// contractual cascade that decides which auto-detecting format parser
// owns a line when no profile and no cache hint apply.
package classify

import (
	"strings"

	"github.com/solwick/cascade/internal/event"
	"github.com/solwick/cascade/internal/format"
)

// Classification is the outcome of running the cascade once: which
// format matched, the parser's self-reported confidence, and metadata
// (inferred timestamp format, field-name mappings) suitable for caching.
type Classification struct {
	FormatType      event.FormatType
	Result          event.ParseResult
	TimestampFormat string
	FieldMappings   map[string]string
}

// Classifier runs the JSON -> pattern(with timestamp) -> logfmt ->
// pattern(fallback) -> plain-text cascade against a line. The pattern
// parser's result is computed at most once per Classify call and reused
// for both the timestamp-gated stage and the fallback stage.
type Classifier struct {
	json      *format.JSON
	logfmt    *format.Logfmt
	pattern   *format.Pattern
	plaintext *format.PlainText
}

// New constructs a Classifier with its four stage parsers.
func New() *Classifier {
	return &Classifier{
		json:      format.NewJSON(),
		logfmt:    format.NewLogfmt(),
		pattern:   format.NewPattern(),
		plaintext: format.NewPlainText(),
	}
}

// Classify runs the five-stage cascade against line and returns the
// first stage to succeed. If every structured stage is attempted and
// fails, the first such failure's error is attached to the guaranteed
// plain-text result so callers can tell a genuine fallback from a
// recovered parse error.
func (c *Classifier) Classify(line string) Classification {
	trimmed := strings.TrimSpace(line)

	var lastErr error
	noteFailure := func(result event.ParseResult) {
		if lastErr == nil && result.Err != nil {
			lastErr = result.Err
		}
	}

	// Stage 1: JSON. Any line shaped like an object is handed to Parse
	// (not just CanParse) so a syntax error surfaces instead of being
	// silently swallowed by the gate.
	if strings.HasPrefix(trimmed, "{") {
		result := c.json.Parse(line)
		if result.Success {
			return Classification{
				FormatType: event.FormatJSON,
				Result:     result,
				TimestampFormat: tsFormatIfSet(result, "ISO8601"),
				FieldMappings: map[string]string{
					"timestamp_fields": "ts,time,timestamp,@timestamp",
					"level_fields":     "level,severity,lvl,log.level",
					"message_fields":   "msg,message,log.message",
				},
			}
		}
		noteFailure(result)
	}

	// Compute the pattern-parser result once; stages 2 and 4 share it.
	var patternResult event.ParseResult
	var patternComputed bool
	if c.pattern.CanParse(line) {
		patternResult = c.pattern.Parse(line)
		patternComputed = true
		if !patternResult.Success {
			noteFailure(patternResult)
		}
	}

	// Stage 2: pattern, only when it also produced a timestamp.
	if patternComputed && patternResult.Success && patternResult.Event.Timestamp != nil {
		return Classification{
			FormatType:      event.FormatTimestampLevel,
			Result:          patternResult,
			TimestampFormat: timestampFormatGuess(line),
			FieldMappings:   map[string]string{"pattern_type": "timestamp_level"},
		}
	}

	// Stage 3: logfmt.
	if c.logfmt.CanParse(line) {
		result := c.logfmt.Parse(line)
		if result.Success {
			return Classification{
				FormatType: event.FormatLogfmt,
				Result:     result,
				FieldMappings: map[string]string{
					"timestamp_fields": "ts,time,timestamp",
					"level_fields":     "level,severity,lvl",
					"message_fields":   "msg,message",
				},
			}
		}
		noteFailure(result)
	}

	// Stage 4: pattern fallback, reusing the already-computed result.
	if patternComputed && patternResult.Success {
		tsFormat := ""
		if patternResult.Event.Timestamp != nil {
			tsFormat = timestampFormatGuess(line)
		}
		return Classification{
			FormatType:      event.FormatTimestampLevel,
			Result:          patternResult,
			TimestampFormat: tsFormat,
			FieldMappings:   map[string]string{"pattern_type": "timestamp_level"},
		}
	}

	// Stage 5: plain text, the guaranteed default. If an earlier stage
	// was attempted and failed, that failure is the reason this line
	// fell all the way through, so it is surfaced on the final event.
	result := c.plaintext.Parse(line)
	if lastErr != nil {
		result.Event.MarkParseError()
		result.Err = lastErr
	}
	return Classification{
		FormatType: event.FormatPlainText,
		Result:     result,
	}
}

func tsFormatIfSet(result event.ParseResult, name string) string {
	if result.Event.Timestamp != nil {
		return name
	}
	return ""
}

// ParserFor returns the stage parser that produces formatType, for
// callers (the dispatcher) that want to retry a cached format directly
// without rerunning the whole cascade.
func (c *Classifier) ParserFor(formatType event.FormatType) format.Parser {
	switch formatType.String() {
	case event.FormatJSON.String():
		return c.json
	case event.FormatLogfmt.String():
		return c.logfmt
	case event.FormatTimestampLevel.String():
		return c.pattern
	default:
		return c.plaintext
	}
}

func timestampFormatGuess(line string) string {
	switch {
	case strings.Contains(line, "T") && (strings.Contains(line, "Z") || strings.Contains(line, "+")):
		return "ISO8601"
	case strings.Contains(line, "[") && strings.Contains(line, "]"):
		return "bracketed"
	default:
		return "space_separated"
	}
}
