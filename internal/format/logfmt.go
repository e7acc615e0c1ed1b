package format

import (
	"regexp"
	"strings"
	"time"

	"github.com/solwick/cascade/internal/event"
	"github.com/solwick/cascade/internal/parseerr"
)

const logfmtMinPairs = 3

var logfmtPairRe = regexp.MustCompile(`([a-zA-Z0-9_.-]+)=(?:"((?:[^"\\]|\\.)*)"|(\S+))`)

var logfmtEscaper = strings.NewReplacer(
	`\"`, `"`,
	`\\`, `\`,
	`\n`, "\n",
	`\t`, "\t",
)

// Logfmt parses key=value formatted lines, requiring at least three pairs
// before it accepts a line as its own format.
type Logfmt struct{}

// NewLogfmt constructs a logfmt parser.
func NewLogfmt() *Logfmt { return &Logfmt{} }

// FormatType reports the format this parser produces.
func (p *Logfmt) FormatType() event.FormatType { return event.FormatLogfmt }

// ExtractPairs returns every key=value pair found in line.
func (p *Logfmt) ExtractPairs(line string) map[string]string {
	pairs := make(map[string]string)
	for _, m := range logfmtPairRe.FindAllStringSubmatch(line, -1) {
		key := m[1]
		var value string
		if strings.Contains(m[0], `="`) {
			value = logfmtEscaper.Replace(m[2])
		} else {
			value = m[3]
		}
		pairs[key] = value
	}
	return pairs
}

// CanParse reports whether line has at least the minimum key=value density.
func (p *Logfmt) CanParse(line string) bool {
	return len(logfmtPairRe.FindAllStringIndex(line, -1)) >= logfmtMinPairs
}

// Parse extracts every key=value pair in line into canonical fields.
func (p *Logfmt) Parse(line string) event.ParseResult {
	start := time.Now()
	pairs := p.ExtractPairs(line)

	if len(pairs) < logfmtMinPairs {
		err := &parseerr.LogfmtInsufficientPairs{FoundPairs: len(pairs), RequiredPairs: logfmtMinPairs}
		return failure(line, err, start)
	}

	evt := event.New(line, line, event.FormatLogfmt)
	for k, v := range pairs {
		evt.AddField(k, v)
	}

	confidence := 0.7
	if len(pairs) >= 5 {
		confidence = 0.9
	}

	micro := time.Since(start).Microseconds()
	return event.ParseResult{Success: true, Event: evt, Confidence: confidence, ProcessingMicro: &micro}
}
