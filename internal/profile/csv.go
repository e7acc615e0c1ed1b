package profile

import (
	"strings"
	"time"

	"github.com/solwick/cascade/internal/event"
	"github.com/solwick/cascade/internal/format"
	"github.com/solwick/cascade/internal/parseerr"
)

// CSVConfig describes a delimiter-separated profile: the delimiter,
// whether the stream carries a header row, a column-name-to-index map,
// and which columns (if any) are canonical.
type CSVConfig struct {
	Delimiter       rune
	HasHeader       bool
	ColumnMappings  map[string]int // field name -> column index
	TimestampColumn string
	LevelColumn     string
	MessageColumn   string
	TimestampFormat string
}

// CSV is a profile driven by a fixed column layout, with quote-escaping
// matching RFC 4180-style `""` handling.
type CSV struct {
	config CSVConfig
}

// NewCSV validates config and returns a ready-to-use CSV profile.
func NewCSV(config CSVConfig) (*CSV, error) {
	p := &CSV{config: config}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Kind reports this is a CSV profile.
func (p *CSV) Kind() event.ProfileKind { return event.ProfileCSV }

// Validate checks the column mapping is non-empty and the timestamp
// format (if any) can parse a representative sample.
func (p *CSV) Validate() error {
	if len(p.config.ColumnMappings) == 0 {
		return &parseerr.ConfigurationError{
			Parameter:    "column_mappings",
			ErrorMessage: "at least one column mapping must be specified",
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

func (p *CSV) splitLine(line string) []string {
	var fields []string
	var current strings.Builder
	inQuotes := false
	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		switch {
		case c == '"' && !inQuotes:
			inQuotes = true
		case c == '"' && inQuotes:
			if i+1 < len(runes) && runes[i+1] == '"' {
				current.WriteRune('"')
				i++
			} else {
				inQuotes = false
			}
		case c == p.config.Delimiter && !inQuotes:
			fields = append(fields, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteRune(c)
		}
	}
	fields = append(fields, strings.TrimSpace(current.String()))
	return fields
}

// CanParse reports whether line has enough columns for every mapping.
func (p *CSV) CanParse(line string) bool {
	fields := p.splitLine(line)
	maxIdx := 0
	for _, idx := range p.config.ColumnMappings {
		if idx > maxIdx {
			maxIdx = idx
		}
	}
	return len(fields) > maxIdx
}

// Parse splits line on the configured delimiter and maps columns to fields.
func (p *CSV) Parse(line string) event.ParseResult {
	start := time.Now()
	fields := p.splitLine(line)

	evt := event.New("", line, event.FormatProfile(event.ProfileCSV))

	if p.config.TimestampColumn != "" {
		if idx, ok := p.config.ColumnMappings[p.config.TimestampColumn]; ok && idx < len(fields) {
			if ts, ok := p.parseTimestamp(fields[idx]); ok {
				evt.SetTimestamp(ts)
			}
		}
	}
	if p.config.LevelColumn != "" {
		if idx, ok := p.config.ColumnMappings[p.config.LevelColumn]; ok && idx < len(fields) {
			if lvl := event.ParseLevel(fields[idx]); lvl != event.LevelUnknown {
				evt.SetLevel(lvl)
			}
		}
	}
	if p.config.MessageColumn != "" {
		if idx, ok := p.config.ColumnMappings[p.config.MessageColumn]; ok && idx < len(fields) {
			evt.Message = fields[idx]
		}
	}
	if evt.Message == "" {
		evt.Message = strings.Join(fields, " ")
	}

	for name, idx := range p.config.ColumnMappings {
		if name == p.config.TimestampColumn || name == p.config.LevelColumn || name == p.config.MessageColumn {
			continue
		}
		if idx < len(fields) {
			evt.AddField(name, fields[idx])
		}
	}

	micro := time.Since(start).Microseconds()
	return event.ParseResult{Success: true, Event: evt, Confidence: 0.85, ProcessingMicro: &micro}
}

func (p *CSV) parseTimestamp(raw string) (time.Time, bool) {
	if p.config.TimestampFormat != "" {
		if t, err := time.Parse(p.config.TimestampFormat, raw); err == nil {
			return t.UTC(), true
		}
	}
	return format.ParseKnownTimestamp(raw)
}
