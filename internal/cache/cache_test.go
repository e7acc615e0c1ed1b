package cache

import (
	"testing"
	"time"

	"github.com/solwick/cascade/internal/event"
)

func TestCacheMissOnEmpty(t *testing.T) {
	c := New()
	if _, ok := c.Get("app.log"); ok {
		t.Fatal("expected miss on an empty cache")
	}
	stats := c.Stats()
	if stats.Misses != 1 {
		t.Errorf("expected one recorded miss, got %d", stats.Misses)
	}
}

func TestCachePutThenGet(t *testing.T) {
	c := New()
	c.Put("app.log", event.FormatJSON, 0.9, "ISO8601", map[string]string{"level_fields": "level"})

	entry, ok := c.Get("app.log")
	if !ok {
		t.Fatal("expected a cache hit after Put")
	}
	if entry.FormatType.String() != event.FormatJSON.String() {
		t.Errorf("expected cached format json, got %s", entry.FormatType)
	}
	if entry.SampleCount != 1 {
		t.Errorf("expected sample count 1, got %d", entry.SampleCount)
	}
}

func TestCachePutAveragesConfidenceOnUpdate(t *testing.T) {
	c := New()
	c.Put("app.log", event.FormatJSON, 1.0, "", nil)
	c.Put("app.log", event.FormatJSON, 0.0, "", nil)

	entry, ok := c.Get("app.log")
	if !ok {
		t.Fatal("expected a cache hit")
	}
	if entry.Confidence != 0.5 {
		t.Errorf("expected averaged confidence 0.5, got %v", entry.Confidence)
	}
	if entry.SampleCount != 2 {
		t.Errorf("expected sample count 2, got %d", entry.SampleCount)
	}
}

func TestCacheRemove(t *testing.T) {
	c := New()
	c.Put("app.log", event.FormatJSON, 0.9, "", nil)
	if !c.Remove("app.log") {
		t.Fatal("expected Remove to report a removed entry")
	}
	if _, ok := c.Get("app.log"); ok {
		t.Fatal("expected entry to be gone after Remove")
	}
}

func TestCacheClearCountsEvictions(t *testing.T) {
	c := New()
	c.Put("a.log", event.FormatJSON, 0.9, "", nil)
	c.Put("b.log", event.FormatLogfmt, 0.9, "", nil)

	c.Clear()

	if c.Len() != 0 {
		t.Fatalf("expected empty cache after Clear, got %d entries", c.Len())
	}
	if c.Stats().Evictions != 2 {
		t.Errorf("expected 2 evictions recorded, got %d", c.Stats().Evictions)
	}
}

func TestCacheStaleEntryEvictedOnGet(t *testing.T) {
	c, err := NewWithSettings(10, time.Millisecond, 100)
	if err != nil {
		t.Fatalf("NewWithSettings() error = %v", err)
	}
	c.Put("app.log", event.FormatJSON, 0.9, "", nil)

	time.Sleep(5 * time.Millisecond)

	if _, ok := c.Get("app.log"); ok {
		t.Fatal("expected stale entry to be evicted on read")
	}
}

func TestCacheEvictStaleEntries(t *testing.T) {
	c, err := NewWithSettings(10, time.Millisecond, 100)
	if err != nil {
		t.Fatalf("NewWithSettings() error = %v", err)
	}
	c.Put("a.log", event.FormatJSON, 0.9, "", nil)
	c.Put("b.log", event.FormatLogfmt, 0.9, "", nil)

	time.Sleep(5 * time.Millisecond)

	dropped := c.EvictStaleEntries()
	if dropped != 2 {
		t.Errorf("expected 2 stale entries dropped, got %d", dropped)
	}
	if c.Len() != 0 {
		t.Errorf("expected empty cache after eviction, got %d", c.Len())
	}
}

func TestCacheUpdateRequiresExistingEntry(t *testing.T) {
	c := New()
	if c.Update("missing.log", 0.5, "", nil) {
		t.Fatal("expected Update to report false for an uncached source")
	}

	c.Put("app.log", event.FormatJSON, 0.5, "", nil)
	if !c.Update("app.log", 0.9, "ISO8601", map[string]string{"k": "v"}) {
		t.Fatal("expected Update to report true for a cached source")
	}
	entry, _ := c.Get("app.log")
	if entry.TimestampFormat != "ISO8601" {
		t.Errorf("expected timestamp format updated, got %q", entry.TimestampFormat)
	}
}

func TestCacheCapacityEvictsOldestQuarter(t *testing.T) {
	c, err := NewWithSettings(4, time.Hour, 0)
	if err != nil {
		t.Fatalf("NewWithSettings() error = %v", err)
	}
	for i, name := range []string{"a.log", "b.log", "c.log", "d.log"} {
		c.Put(name, event.FormatJSON, 0.9, "", nil)
		_ = i
	}
	// Putting a 5th distinct source should trigger capacity eviction.
	c.Put("e.log", event.FormatJSON, 0.9, "", nil)

	if c.Len() > 4 {
		t.Errorf("expected capacity to be respected, got %d entries", c.Len())
	}
}
