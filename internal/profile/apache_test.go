package profile

import (
	"testing"

	"github.com/solwick/cascade/internal/event"
)

func TestApacheCanParse(t *testing.T) {
	p := NewApache()
	line := `127.0.0.1 - frank [26/Jan/2025:10:00:00 -0700] "GET /index.html HTTP/1.0" 200 2326`
	if !p.CanParse(line) {
		t.Error("expected Apache common log line to be recognized")
	}
	if p.CanParse("not an apache log line") {
		t.Error("expected unstructured line to be rejected")
	}
}

func TestApacheParse(t *testing.T) {
	p := NewApache()
	line := `127.0.0.1 - frank [26/Jan/2025:10:00:00 -0700] "GET /index.html HTTP/1.0" 200 2326`
	result := p.Parse(line)
	if !result.Success {
		t.Fatalf("expected success, got err=%v", result.Err)
	}
	if result.Event.Fields["client_ip"] != "127.0.0.1" {
		t.Errorf("expected client_ip field, got %+v", result.Event.Fields["client_ip"])
	}
	if result.Event.Message != "GET /index.html HTTP/1.0" {
		t.Errorf("expected request line as message, got %q", result.Event.Message)
	}
	if result.Event.Fields["status"] != 200 {
		t.Errorf("expected status 200, got %+v", result.Event.Fields["status"])
	}
	if result.Event.Level != event.LevelInfo {
		t.Errorf("expected LevelInfo for a 200 status, got %v", result.Event.Level)
	}
	if result.Event.Timestamp == nil {
		t.Fatal("expected a parsed timestamp")
	}
	if result.Event.FormatType.String() != "profile:apache" {
		t.Errorf("expected profile:apache format type, got %v", result.Event.FormatType)
	}
}

func TestApacheParseServerErrorLevel(t *testing.T) {
	p := NewApache()
	line := `10.0.0.1 - - [26/Jan/2025:10:00:00 -0700] "POST /api HTTP/1.1" 503 0`
	result := p.Parse(line)
	if !result.Success {
		t.Fatalf("expected success, got err=%v", result.Err)
	}
	if result.Event.Level != event.LevelError {
		t.Errorf("expected LevelError for a 503 status, got %v", result.Event.Level)
	}
}

func TestApacheParseFailsOnUnmatchedLine(t *testing.T) {
	p := NewApache()
	result := p.Parse("not a log line at all")
	if result.Success {
		t.Fatal("expected failure for a non-matching line")
	}
	if !result.Event.HasParseError() {
		t.Error("expected fallback event to carry ParseError")
	}
}
