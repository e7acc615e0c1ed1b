package profile

import (
	"testing"

	"github.com/solwick/cascade/internal/event"
)

func TestNewRegexValidatesFieldMappings(t *testing.T) {
	_, err := NewRegex(RegexConfig{
		Name:    "bad",
		Pattern: `^(\w+) (\w+)$`,
		FieldMappings: map[string]int{
			"first":  1,
			"second": 5, // out of range: pattern only has 2 groups
		},
	})
	if err == nil {
		t.Fatal("expected validation error for out-of-range capture group")
	}
}

func TestNewRegexRejectsInvalidPattern(t *testing.T) {
	_, err := NewRegex(RegexConfig{Name: "broken", Pattern: `(unclosed`})
	if err == nil {
		t.Fatal("expected compile error for invalid pattern")
	}
}

func TestRegexParseExtractsMappedFields(t *testing.T) {
	p, err := NewRegex(RegexConfig{
		Name:    "svc",
		Pattern: `^(\S+) (\S+) - (.*)$`,
		FieldMappings: map[string]int{
			"timestamp": 1,
			"level":     2,
			"message":   3,
		},
		TimestampField: "timestamp",
		LevelField:     "level",
		MessageField:   "message",
	})
	if err != nil {
		t.Fatalf("NewRegex() error = %v", err)
	}

	result := p.Parse("2025-01-26T10:00:00Z ERROR - disk is full")
	if !result.Success {
		t.Fatalf("expected success, got err=%v", result.Err)
	}
	if result.Event.Level != event.LevelError {
		t.Errorf("expected LevelError, got %v", result.Event.Level)
	}
	if result.Event.Message != "disk is full" {
		t.Errorf("expected mapped message field, got %q", result.Event.Message)
	}
	if result.Event.Timestamp == nil {
		t.Fatal("expected a parsed timestamp")
	}
	if result.Event.FormatType.String() != "profile:regex" {
		t.Errorf("expected profile:regex format type, got %v", result.Event.FormatType)
	}
}

func TestRegexParseFailsWhenPatternDoesNotMatch(t *testing.T) {
	p, err := NewRegex(RegexConfig{
		Name:    "svc",
		Pattern: `^ONLY-THIS-SHAPE (\d+)$`,
		FieldMappings: map[string]int{
			"n": 1,
		},
	})
	if err != nil {
		t.Fatalf("NewRegex() error = %v", err)
	}

	result := p.Parse("completely different line")
	if result.Success {
		t.Fatal("expected failure for a non-matching line")
	}
	if !result.Event.HasParseError() {
		t.Error("expected fallback event to carry ParseError")
	}
}

func TestRegexParseJoinsUnmappedMessageFromExtractedFields(t *testing.T) {
	p, err := NewRegex(RegexConfig{
		Name:    "noisy",
		Pattern: `^(\S+)=(\S+)$`,
		FieldMappings: map[string]int{
			"key":   1,
			"value": 2,
		},
	})
	if err != nil {
		t.Fatalf("NewRegex() error = %v", err)
	}

	result := p.Parse("disk=full")
	if !result.Success {
		t.Fatalf("expected success, got err=%v", result.Err)
	}
	if result.Event.Message == "" {
		t.Error("expected a non-empty message joined from extracted fields")
	}
}
