package stats

import (
	"testing"

	"github.com/solwick/cascade/internal/event"
	"github.com/solwick/cascade/internal/parseerr"
)

func TestRecordSuccessUpdatesRatesAndTiming(t *testing.T) {
	m := New()
	m.RecordSuccess(event.FormatJSON, 100)
	m.RecordSuccess(event.FormatJSON, 300)

	snap := m.Statistics()
	if snap.TotalLines != 2 {
		t.Fatalf("expected 2 total lines, got %d", snap.TotalLines)
	}
	if snap.SuccessfulParses != 2 {
		t.Fatalf("expected 2 successful parses, got %d", snap.SuccessfulParses)
	}
	if snap.ProcessingTimeMicros.MinTime != 100 {
		t.Fatalf("expected min time 100, got %d", snap.ProcessingTimeMicros.MinTime)
	}
	if snap.ProcessingTimeMicros.MaxTime != 300 {
		t.Fatalf("expected max time 300, got %d", snap.ProcessingTimeMicros.MaxTime)
	}
	if snap.ProcessingTimeMicros.AvgTime != 200 {
		t.Fatalf("expected avg time 200, got %f", snap.ProcessingTimeMicros.AvgTime)
	}
	if snap.SuccessRate() != 100.0 {
		t.Fatalf("expected 100%% success rate, got %f", snap.SuccessRate())
	}
}

func TestRecordFailureTracksErrorDistribution(t *testing.T) {
	m := New()
	m.RecordFailure(&parseerr.JSONSyntaxError{Message: "unexpected end of input"}, 50)
	m.RecordFailure(&parseerr.JSONSyntaxError{Message: "bad token"}, 75)
	m.RecordFailure(&parseerr.LevelParseError{Input: "nope"}, 10)

	snap := m.Statistics()
	if snap.FailedParses != 3 {
		t.Fatalf("expected 3 failed parses, got %d", snap.FailedParses)
	}
	if snap.ErrorDistribution[parseerr.KindJSONSyntax.String()] != 2 {
		t.Fatalf("expected 2 JSON syntax errors, got %d", snap.ErrorDistribution[parseerr.KindJSONSyntax.String()])
	}
	if snap.ErrorDistribution[parseerr.KindLevelParse.String()] != 1 {
		t.Fatalf("expected 1 level parse error, got %d", snap.ErrorDistribution[parseerr.KindLevelParse.String()])
	}
}

func TestRecordPlainTextFallbackCountsAsSuccess(t *testing.T) {
	m := New()
	m.RecordPlainTextFallback(42)

	snap := m.Statistics()
	if snap.PlainTextFallbacks != 1 {
		t.Fatalf("expected 1 fallback, got %d", snap.PlainTextFallbacks)
	}
	if snap.SuccessfulParses != 1 {
		t.Fatalf("fallback should also count as a successful parse, got %d", snap.SuccessfulParses)
	}
	if snap.FormatDistribution[event.FormatPlainText.String()] != 1 {
		t.Fatalf("expected plain text format distribution entry")
	}
}

func TestResetClearsCounters(t *testing.T) {
	m := New()
	m.RecordSuccess(event.FormatJSON, 100)
	m.Reset()

	snap := m.Statistics()
	if snap.TotalLines != 0 {
		t.Fatalf("expected reset to zero total lines, got %d", snap.TotalLines)
	}
}

func TestSummaryStatusThresholds(t *testing.T) {
	m := New()
	for i := 0; i < 100; i++ {
		m.RecordSuccess(event.FormatJSON, 10)
	}
	summary := m.Summary()
	if summary.Status() != "healthy" {
		t.Fatalf("expected healthy status, got %s", summary.Status())
	}

	m2 := New()
	for i := 0; i < 80; i++ {
		m2.RecordSuccess(event.FormatJSON, 10)
	}
	for i := 0; i < 20; i++ {
		m2.RecordFailure(&parseerr.GenericError{Message: "boom"}, 10)
	}
	summary2 := m2.Summary()
	if summary2.Status() != "critical" {
		t.Fatalf("expected critical status at 20%% error rate, got %s", summary2.Status())
	}
}

func TestStatusLineFormat(t *testing.T) {
	m := New()
	m.RecordSuccess(event.FormatJSON, 10)
	line := m.StatusLine()
	if line == "" {
		t.Fatal("expected non-empty status line")
	}
}
