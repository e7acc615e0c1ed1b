package format

import (
	"testing"

	"github.com/solwick/cascade/internal/event"
)

func TestPlainTextAlwaysSucceeds(t *testing.T) {
	p := NewPlainText()
	inputs := []string{
		"",
		"just some words",
		"{broken json",
		"level=info incomplete",
		"2025-01-26T10:00:00Z ERROR disk full path=/var status=500",
	}
	for _, in := range inputs {
		result := p.Parse(in)
		if !result.Success {
			t.Errorf("plain text parser must always succeed, failed on %q", in)
		}
		if result.Event.Raw != in {
			t.Errorf("expected raw preserved verbatim, got %q want %q", result.Event.Raw, in)
		}
		if result.Event.Message != in {
			t.Errorf("expected message to equal the whole line, got %q want %q", result.Event.Message, in)
		}
	}
}

func TestPlainTextCanParseAlwaysTrue(t *testing.T) {
	p := NewPlainText()
	if !p.CanParse("") {
		t.Error("expected CanParse to accept empty string")
	}
	if !p.CanParse("anything at all !!! {[") {
		t.Error("expected CanParse to accept arbitrary garbage")
	}
}

func TestPlainTextInfersTimestamp(t *testing.T) {
	p := NewPlainText()
	result := p.Parse("2025-01-26T10:00:00Z something happened")
	if result.Event.Timestamp == nil {
		t.Fatal("expected a timestamp to be inferred")
	}
	if result.Event.Timestamp.Year() != 2025 {
		t.Errorf("expected year 2025, got %d", result.Event.Timestamp.Year())
	}
}

func TestPlainTextInfersLevel(t *testing.T) {
	p := NewPlainText()
	cases := map[string]event.Level{
		"FATAL: everything is on fire": event.LevelFatal,
		"an ERROR occurred":            event.LevelError,
		"WARNING low disk":             event.LevelWarn,
		"INFO starting up":             event.LevelInfo,
		"DEBUG verbose detail":         event.LevelDebug,
		"no structure here at all":     event.LevelUnknown,
	}
	for in, want := range cases {
		result := p.Parse(in)
		if result.Event.Level != want {
			t.Errorf("Parse(%q).Event.Level = %v, want %v", in, result.Event.Level, want)
		}
	}
}

func TestPlainTextExtractsLooseFields(t *testing.T) {
	p := NewPlainText()
	result := p.Parse("request failed status=500 retries=3 ok=false path=/api/v1")
	if result.Event.Fields["status"] != int64(500) {
		t.Errorf("expected status parsed as int64, got %+v", result.Event.Fields["status"])
	}
	if result.Event.Fields["retries"] != int64(3) {
		t.Errorf("expected retries parsed as int64, got %+v", result.Event.Fields["retries"])
	}
	if result.Event.Fields["ok"] != false {
		t.Errorf("expected ok parsed as bool false, got %+v", result.Event.Fields["ok"])
	}
}

func TestPlainTextConfidenceIncreasesWithStructure(t *testing.T) {
	p := NewPlainText()
	bare := p.Parse("nothing structured here")
	rich := p.Parse("2025-01-26T10:00:00Z ERROR status=500 path=/api")
	if !(rich.Confidence > bare.Confidence) {
		t.Errorf("expected richer line to score higher confidence, got bare=%v rich=%v", bare.Confidence, rich.Confidence)
	}
}
