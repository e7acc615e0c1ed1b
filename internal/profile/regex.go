package profile

import (
	"regexp"
	"strings"
	"time"

	"github.com/solwick/cascade/internal/event"
	"github.com/solwick/cascade/internal/format"
	"github.com/solwick/cascade/internal/parseerr"
)

// RegexConfig describes a user-defined regex profile: the pattern, a
// field-name-to-capture-group map, and which of those fields (if any)
// are the canonical timestamp/level/message.
type RegexConfig struct {
	Name            string
	Pattern         string
	FieldMappings   map[string]int // field name -> capture group index
	TimestampField  string
	LevelField      string
	MessageField    string
	TimestampFormat string
}

// Regex is a profile driven by a compiled regular expression and a
// field map, validated once at construction.
type Regex struct {
	config   RegexConfig
	compiled *regexp.Regexp
}

// defaultRegexCache is shared across every NewRegex call so CLI-
// supplied profiles (which may repeat the same pattern across several
// named profiles or config reloads) compile each distinct pattern
// only once.
var defaultRegexCache, _ = NewRegexCache(256)

// NewRegex compiles config.Pattern (via the shared RegexCache, so
// repeated patterns across profiles are compiled once) and validates
// the field mappings against its capture-group count.
func NewRegex(config RegexConfig) (*Regex, error) {
	compiled, err := defaultRegexCache.Compile(config.Pattern)
	if err != nil {
		return nil, err
	}
	p := &Regex{config: config, compiled: compiled}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Kind reports this is a regex profile.
func (p *Regex) Kind() event.ProfileKind { return event.ProfileRegex }

// CanParse reports whether the compiled pattern matches line.
func (p *Regex) CanParse(line string) bool { return p.compiled.MatchString(line) }

// Validate checks every field mapping references a capture group that
// exists in the compiled pattern, and that the timestamp format (if any)
// can parse a representative sample.
func (p *Regex) Validate() error {
	groups := p.compiled.NumSubexp()
	for name, idx := range p.config.FieldMappings {
		if idx > groups || idx < 0 {
			return &parseerr.ConfigurationError{
				Parameter:    "field_mappings." + name,
				ErrorMessage: "capture group does not exist in pattern",
			}
		}
	}
	if p.config.TimestampFormat != "" {
		if _, err := time.Parse(p.config.TimestampFormat, "2025-12-30T10:21:03Z"); err != nil {
			if _, err2 := time.Parse(p.config.TimestampFormat, "2025-12-30 10:21:03"); err2 != nil {
				return &parseerr.ConfigurationError{
					Parameter:    "timestamp_format",
					ErrorMessage: "invalid timestamp format: " + p.config.TimestampFormat,
				}
			}
		}
	}
	return nil
}

// Parse matches the compiled pattern against line and extracts fields.
func (p *Regex) Parse(line string) event.ParseResult {
	start := time.Now()
	m := p.compiled.FindStringSubmatch(line)
	if m == nil {
		err := &parseerr.PatternMatchError{Input: line, AttemptedPatterns: []string{p.config.Pattern}}
		return failure(line, err, start)
	}

	extracted := make(map[string]string, len(p.config.FieldMappings))
	for name, idx := range p.config.FieldMappings {
		if idx < len(m) {
			extracted[name] = m[idx]
		}
	}

	evt := event.New("", line, event.FormatProfile(event.ProfileRegex))

	if p.config.TimestampField != "" {
		if raw, ok := extracted[p.config.TimestampField]; ok {
			if ts, ok := p.parseTimestamp(raw); ok {
				evt.SetTimestamp(ts)
			}
		}
	}
	if p.config.LevelField != "" {
		if raw, ok := extracted[p.config.LevelField]; ok {
			if lvl := event.ParseLevel(raw); lvl != event.LevelUnknown {
				evt.SetLevel(lvl)
			}
		}
	}
	if p.config.MessageField != "" {
		if raw, ok := extracted[p.config.MessageField]; ok {
			evt.Message = raw
		}
	}
	if evt.Message == "" {
		var parts []string
		for _, v := range extracted {
			parts = append(parts, v)
		}
		evt.Message = strings.Join(parts, " ")
	}

	for k, v := range extracted {
		if k == p.config.TimestampField || k == p.config.LevelField || k == p.config.MessageField {
			continue
		}
		evt.AddField(k, v)
	}

	micro := time.Since(start).Microseconds()
	return event.ParseResult{Success: true, Event: evt, Confidence: 0.9, ProcessingMicro: &micro}
}

func (p *Regex) parseTimestamp(raw string) (time.Time, bool) {
	if p.config.TimestampFormat != "" {
		if t, err := time.Parse(p.config.TimestampFormat, raw); err == nil {
			return t.UTC(), true
		}
	}
	return format.ParseKnownTimestamp(raw)
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
