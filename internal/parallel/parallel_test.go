package parallel

import (
	"context"
	"sort"
	"strings"
	"testing"

	"github.com/solwick/cascade/internal/dispatch"
	"github.com/solwick/cascade/internal/stream"
)

func TestParseStreamsParallelPreservesPerStreamOrder(t *testing.T) {
	d := dispatch.New()
	e := New(d, WithConfig(Config{NumWorkers: 2, QueueCapacity: defaultQueueCapacity, StreamConfig: stream.DefaultConfig()}))

	inputs := []StreamInput{
		{Reader: strings.NewReader("a1\na2\na3\n"), Source: "a.log"},
		{Reader: strings.NewReader("b1\nb2\n"), Source: "b.log"},
	}

	results := e.ParseStreamsParallel(context.Background(), inputs)
	if len(results) != 2 {
		t.Fatalf("expected 2 stream results, got %d", len(results))
	}

	for _, r := range results {
		if r.Err != nil {
			t.Fatalf("stream %s failed: %v", r.Source, r.Err)
		}
	}

	byName := map[string]StreamResult{}
	for _, r := range results {
		byName[r.Source] = r
	}

	a := byName["a.log"]
	if len(a.Results) != 3 {
		t.Fatalf("expected 3 results for a.log, got %d", len(a.Results))
	}
	for i, r := range a.Results {
		if r.Event.Raw != []string{"a1", "a2", "a3"}[i] {
			t.Fatalf("a.log result %d out of order: got %q", i, r.Event.Raw)
		}
		if r.LineNumber == nil || *r.LineNumber != i+1 {
			t.Fatalf("a.log result %d has wrong line number: %v", i, r.LineNumber)
		}
	}

	b := byName["b.log"]
	if len(b.Results) != 2 {
		t.Fatalf("expected 2 results for b.log, got %d", len(b.Results))
	}
}

func TestParseLinesParallelCoversEveryItemExactlyOnce(t *testing.T) {
	d := dispatch.New()
	e := New(d, WithConfig(Config{NumWorkers: 4, QueueCapacity: 100}))

	var items []WorkItem
	for i := 1; i <= 50; i++ {
		items = append(items, WorkItem{
			Line:       "line content",
			Source:     "bulk.log",
			LineNumber: i,
		})
	}

	results := e.ParseLinesParallel(context.Background(), items)
	if len(results) != len(items) {
		t.Fatalf("expected %d results, got %d", len(items), len(results))
	}

	seen := make(map[int]bool, len(results))
	for _, r := range results {
		if r.LineNumber == nil {
			t.Fatal("expected every result to carry its original line number")
		}
		if seen[*r.LineNumber] {
			t.Fatalf("line number %d duplicated in results", *r.LineNumber)
		}
		seen[*r.LineNumber] = true
	}
	for i := 1; i <= 50; i++ {
		if !seen[i] {
			t.Fatalf("line number %d missing from results", i)
		}
	}
}

func TestParseLinesParallelSortedMatchesSequentialDispatch(t *testing.T) {
	d := dispatch.New()
	e := New(d, WithConfig(Config{NumWorkers: 3, QueueCapacity: 100}))

	lines := []string{
		`{"level":"info","msg":"one"}`,
		"key=value pairs=here",
		"plain unstructured text",
		`{"level":"error","msg":"two"}`,
	}
	var items []WorkItem
	for i, line := range lines {
		items = append(items, WorkItem{Line: line, Source: "mix.log", LineNumber: i + 1})
	}

	results := e.ParseLinesParallel(context.Background(), items)
	sort.Slice(results, func(i, j int) bool { return *results[i].LineNumber < *results[j].LineNumber })

	sequential := dispatch.New()
	for i, line := range lines {
		want := sequential.Dispatch(line, "mix.log")
		got := results[i]
		if got.Event.FormatType.String() != want.Event.FormatType.String() {
			t.Fatalf("line %d: format mismatch, got %s want %s", i+1, got.Event.FormatType, want.Event.FormatType)
		}
	}
}

func TestParseLinesParallelAutoDetectsWorkerCount(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.workers() <= 0 {
		t.Fatal("expected auto-detected worker count to be positive")
	}
}

func TestParseStreamsParallelReturnsResultForEveryInput(t *testing.T) {
	d := dispatch.New()
	e := New(d)

	var inputs []StreamInput
	for i := 0; i < 8; i++ {
		inputs = append(inputs, StreamInput{Reader: strings.NewReader("x\ny\n"), Source: "s"})
	}

	results := e.ParseStreamsParallel(context.Background(), inputs)
	if len(results) != len(inputs) {
		t.Fatalf("expected %d results, got %d", len(inputs), len(results))
	}
}
