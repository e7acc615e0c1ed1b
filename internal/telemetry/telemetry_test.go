package telemetry

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/solwick/cascade/internal/event"
	"github.com/solwick/cascade/internal/stats"
)

func TestExporterRefreshPublishesCounters(t *testing.T) {
	m := stats.New()
	m.RecordSuccess(event.FormatJSON, 100)
	m.RecordFailure(testError{}, 200)
	m.RecordPlainTextFallback(50)

	e := New(m, DefaultConfig(), nil)
	e.refresh()

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{}).ServeHTTP(rec, req)

	body := rec.Body.String()
	for _, want := range []string{
		"cascade_lines_total",
		"cascade_lines_successful",
		"cascade_lines_failed",
		"cascade_lines_plain_text_fallback",
		"cascade_format_total",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected metrics output to contain %q, got:\n%s", want, body)
		}
	}
}

type testError struct{}

func (testError) Error() string { return "boom" }
