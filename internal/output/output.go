// Package output renders canonical events as text, JSON, NDJSON, CSV,
// or raw lines, and provides TTY-aware coloring by severity.
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/solwick/cascade/internal/event"
)

// Format represents an output format type.
type Format string

const (
	FormatText   Format = "text"
	FormatJSON   Format = "json"
	FormatNDJSON Format = "ndjson"
	FormatTable  Format = "table"
	FormatCSV    Format = "csv"
	FormatRaw    Format = "raw"
)

// ParseFormat converts a string to a Format, defaulting to text.
func ParseFormat(s string) Format {
	switch strings.ToLower(s) {
	case "json":
		return FormatJSON
	case "ndjson":
		return FormatNDJSON
	case "table":
		return FormatTable
	case "csv":
		return FormatCSV
	case "raw":
		return FormatRaw
	default:
		return FormatText
	}
}

// Writer handles writing formatted events.
type Writer struct {
	w      io.Writer
	format Format
}

// New creates a new output Writer.
func New(w io.Writer, format Format) *Writer {
	return &Writer{w: w, format: format}
}

// jsonEvent is the wire shape for JSON/NDJSON output: Canonical's
// invariants (ParseError as *bool, a private format-kind tag) are
// flattened into plain, stable field names.
type jsonEvent struct {
	Timestamp  string         `json:"timestamp,omitempty"`
	Level      string         `json:"level"`
	Message    string         `json:"message"`
	Fields     map[string]any `json:"fields,omitempty"`
	Raw        string         `json:"raw"`
	Source     string         `json:"source,omitempty"`
	ParseError bool           `json:"parse_error"`
	Format     string         `json:"format"`
	Line       int            `json:"line,omitempty"`
}

func toJSONEvent(r event.ParseResult) jsonEvent {
	e := r.Event
	je := jsonEvent{
		Level:      e.Level.String(),
		Message:    e.Message,
		Fields:     e.Fields,
		Raw:        e.Raw,
		Source:     e.Source.File,
		ParseError: e.HasParseError(),
		Format:     e.FormatType.String(),
	}
	if e.Timestamp != nil {
		je.Timestamp = e.Timestamp.Format("2006-01-02T15:04:05.000Z07:00")
	}
	if r.LineNumber != nil {
		je.Line = *r.LineNumber
	}
	return je
}

// WriteResults outputs a slice of parse results in the configured format.
func (wr *Writer) WriteResults(results []event.ParseResult) error {
	switch wr.format {
	case FormatJSON:
		return wr.writeJSON(results)
	case FormatNDJSON:
		return wr.writeNDJSON(results)
	case FormatTable:
		return wr.writeTable(results)
	case FormatCSV:
		return wr.writeCSV(results)
	case FormatRaw:
		return wr.writeRaw(results)
	default:
		return wr.writeText(results)
	}
}

// WriteResult writes a single parse result in the configured format,
// for streaming/tail consumers that never hold a full slice.
func (wr *Writer) WriteResult(r event.ParseResult) error {
	return wr.WriteResults([]event.ParseResult{r})
}

// WriteJSON outputs any value as indented JSON, for results that don't
// fit the per-event shape (e.g. a statistics summary, or a map keyed by
// file path for multi-file search output).
func (wr *Writer) WriteJSON(v any) error {
	enc := json.NewEncoder(wr.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (wr *Writer) writeJSON(results []event.ParseResult) error {
	out := make([]jsonEvent, len(results))
	for i, r := range results {
		out[i] = toJSONEvent(r)
	}
	return wr.WriteJSON(out)
}

func (wr *Writer) writeNDJSON(results []event.ParseResult) error {
	enc := json.NewEncoder(wr.w)
	for _, r := range results {
		if err := enc.Encode(toJSONEvent(r)); err != nil {
			return err
		}
	}
	return nil
}

func (wr *Writer) writeText(results []event.ParseResult) error {
	for _, r := range results {
		fmt.Fprintln(wr.w, r.Event.Raw)
	}
	return nil
}

func (wr *Writer) writeRaw(results []event.ParseResult) error {
	for _, r := range results {
		fmt.Fprintln(wr.w, r.Event.Raw)
	}
	return nil
}

func (wr *Writer) writeTable(results []event.ParseResult) error {
	tw := tabwriter.NewWriter(wr.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "LINE\tLEVEL\tTIMESTAMP\tMESSAGE")
	fmt.Fprintln(tw, "----\t-----\t---------\t-------")

	for _, r := range results {
		e := r.Event
		ts := ""
		if e.Timestamp != nil {
			ts = e.Timestamp.Format("15:04:05")
		}

		msg := e.Message
		if msg == "" {
			msg = e.Raw
		}
		if len(msg) > 80 {
			msg = msg[:77] + "..."
		}

		line := 0
		if r.LineNumber != nil {
			line = *r.LineNumber
		}

		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", line, e.Level, ts, msg)
	}

	return tw.Flush()
}

func (wr *Writer) writeCSV(results []event.ParseResult) error {
	fieldSet := make(map[string]struct{})
	for _, r := range results {
		for k := range r.Event.Fields {
			fieldSet[k] = struct{}{}
		}
	}
	fieldNames := make([]string, 0, len(fieldSet))
	for k := range fieldSet {
		fieldNames = append(fieldNames, k)
	}
	sort.Strings(fieldNames)

	cw := csv.NewWriter(wr.w)
	header := append([]string{"line", "timestamp", "level", "message"}, fieldNames...)
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, r := range results {
		e := r.Event
		ts := ""
		if e.Timestamp != nil {
			ts = e.Timestamp.Format("2006-01-02T15:04:05Z07:00")
		}
		line := ""
		if r.LineNumber != nil {
			line = fmt.Sprintf("%d", *r.LineNumber)
		}
		row := []string{line, ts, e.Level.String(), e.Message}
		for _, name := range fieldNames {
			v := e.Fields[name]
			if v == nil {
				row = append(row, "")
				continue
			}
			row = append(row, fmt.Sprintf("%v", v))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
