// Package cache implements the per-source format memoization cache: a
// hint the dispatcher consults before running the full classification
// cascade, never a constraint — a cached parser that fails is always
// re-cascaded.
package cache

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/solwick/cascade/internal/event"
)

// Entry records one source's most recently observed format, averaged
// confidence, and any metadata the classifier attached (timestamp
// format guess, field-name mappings).
type Entry struct {
	FormatType      event.FormatType
	Confidence      float64
	TimestampFormat string
	FieldMappings   map[string]string
	LastUpdated     time.Time
	SampleCount     int
}

func newEntry(format event.FormatType, confidence float64) *Entry {
	return &Entry{
		FormatType:    format,
		Confidence:    confidence,
		FieldMappings: make(map[string]string),
		LastUpdated:   time.Now(),
		SampleCount:   1,
	}
}

func (e *Entry) update(confidence float64) {
	e.Confidence = (e.Confidence + confidence) / 2
	e.LastUpdated = time.Now()
	e.SampleCount++
}

func (e *Entry) updateWithMetadata(confidence float64, timestampFormat string, fieldMappings map[string]string) {
	e.update(confidence)
	if timestampFormat != "" {
		e.TimestampFormat = timestampFormat
	}
	for k, v := range fieldMappings {
		e.FieldMappings[k] = v
	}
}

func (e *Entry) isStale(maxAge time.Duration, minSamples int) bool {
	return time.Since(e.LastUpdated) > maxAge && e.SampleCount < minSamples
}

// Stats reports cache performance counters for monitoring and adaptive tuning.
type Stats struct {
	Entries       int
	MaxEntries    int
	Hits          int64
	Misses        int64
	Evictions     int64
	HitRate       float64
	TotalSamples  int
}

const (
	defaultMaxEntries  = 1000
	defaultMaxAge      = time.Hour
	defaultMinSamples  = 5
)

// Cache is a source-keyed format memoization cache with TTL-and-
// confirmation staleness and LRU-style capacity eviction. It is the
// module's single shared mutable resource: every operation, including
// reads, takes the same exclusive lock, because a read mutates the
// hit/miss/eviction counters.
type Cache struct {
	mu         sync.Mutex
	entries    *lru.Cache[string, *Entry]
	maxEntries int
	maxAge     time.Duration
	minSamples int

	hits      int64
	misses    int64
	evictions int64
}

// New constructs a Cache with the default settings (1000 entries, 1 hour
// max age, 5 samples for stability).
func New() *Cache {
	c, _ := NewWithSettings(defaultMaxEntries, defaultMaxAge, defaultMinSamples)
	return c
}

// NewWithSettings constructs a Cache with custom capacity, TTL, and
// stability-sample-count settings.
func NewWithSettings(maxEntries int, maxAge time.Duration, minSamples int) (*Cache, error) {
	backing, err := lru.New[string, *Entry](maxEntries)
	if err != nil {
		return nil, err
	}
	return &Cache{
		entries:    backing,
		maxEntries: maxEntries,
		maxAge:     maxAge,
		minSamples: minSamples,
	}, nil
}

// Get returns the cache entry for source if present and not stale. A
// stale entry is evicted on read.
func (c *Cache) Get(source string) (*Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries.Get(source)
	if !ok {
		c.misses++
		return nil, false
	}
	if entry.isStale(c.maxAge, c.minSamples) {
		c.entries.Remove(source)
		c.evictions++
		c.misses++
		return nil, false
	}
	c.hits++
	return entry, true
}

// Put records a format detection result for source, updating an existing
// entry or creating a new one, evicting the oldest quarter of entries
// first if the cache is at capacity.
func (c *Cache) Put(source string, format event.FormatType, confidence float64, timestampFormat string, fieldMappings map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.entries.Len() >= c.maxEntries {
		if _, ok := c.entries.Get(source); !ok {
			c.evictOldestLocked()
		}
	}

	if entry, ok := c.entries.Get(source); ok {
		entry.FormatType = format
		entry.updateWithMetadata(confidence, timestampFormat, fieldMappings)
		return
	}

	entry := newEntry(format, confidence)
	entry.TimestampFormat = timestampFormat
	for k, v := range fieldMappings {
		entry.FieldMappings[k] = v
	}
	c.entries.Add(source, entry)
}

// Update refreshes metadata on an existing entry without changing its
// format, returning false if source is not cached.
func (c *Cache) Update(source string, confidence float64, timestampFormat string, fieldMappings map[string]string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries.Get(source)
	if !ok {
		return false
	}
	entry.updateWithMetadata(confidence, timestampFormat, fieldMappings)
	return true
}

// Remove deletes source's cache entry, if any.
func (c *Cache) Remove(source string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.Remove(source)
}

// Clear empties the cache, counting every dropped entry as an eviction.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.evictions += int64(c.entries.Len())
	c.entries.Purge()
}

// EvictStaleEntries removes every entry that fails the staleness check
// and returns how many were dropped.
func (c *Cache) EvictStaleEntries() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	var toRemove []string
	for _, source := range c.entries.Keys() {
		entry, ok := c.entries.Peek(source)
		if ok && entry.isStale(c.maxAge, c.minSamples) {
			toRemove = append(toRemove, source)
		}
	}
	for _, source := range toRemove {
		c.entries.Remove(source)
	}
	c.evictions += int64(len(toRemove))
	return len(toRemove)
}

// evictOldestLocked drops the oldest quarter of entries by last-updated
// time, matching the source cascade's capacity-eviction rule. Caller
// must hold c.mu.
func (c *Cache) evictOldestLocked() {
	evictCount := c.maxEntries / 4
	if evictCount < 1 {
		evictCount = 1
	}

	keys := c.entries.Keys()
	aged := make([]agedKey, 0, len(keys))
	for _, k := range keys {
		if entry, ok := c.entries.Peek(k); ok {
			aged = append(aged, agedKey{k, entry.LastUpdated})
		}
	}
	sortByLastUpdated(aged)

	if evictCount > len(aged) {
		evictCount = len(aged)
	}
	for _, a := range aged[:evictCount] {
		c.entries.Remove(a.source)
		c.evictions++
	}
}

type agedKey struct {
	source      string
	lastUpdated time.Time
}

func sortByLastUpdated(aged []agedKey) {
	for i := 1; i < len(aged); i++ {
		for j := i; j > 0 && aged[j].lastUpdated.Before(aged[j-1].lastUpdated); j-- {
			aged[j], aged[j-1] = aged[j-1], aged[j]
		}
	}
}

// Stats reports current cache performance counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := c.hits + c.misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(c.hits) / float64(total)
	}

	var totalSamples int
	for _, k := range c.entries.Keys() {
		if entry, ok := c.entries.Peek(k); ok {
			totalSamples += entry.SampleCount
		}
	}

	return Stats{
		Entries:      c.entries.Len(),
		MaxEntries:   c.maxEntries,
		Hits:         c.hits,
		Misses:       c.misses,
		Evictions:    c.evictions,
		HitRate:      hitRate,
		TotalSamples: totalSamples,
	}
}

// Len reports the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.Len()
}

// AdaptParameters analyzes recent cache performance and adjusts
// max_entries and max_age: grows capacity under a 70% hit rate (capped
// at 5000), shrinks it above a 95% hit rate (floored at 100), and grows
// the TTL when the eviction rate exceeds 10% (capped at 2 hours).
func (c *Cache) AdaptParameters() {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := c.hits + c.misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(c.hits) / float64(total)
	}

	if hitRate < 0.7 && c.maxEntries < 5000 {
		c.maxEntries = int(float64(c.maxEntries) * 1.2)
		if c.maxEntries > 5000 {
			c.maxEntries = 5000
		}
		c.entries.Resize(c.maxEntries)
	}
	if hitRate > 0.95 && c.maxEntries > 100 {
		c.maxEntries = int(float64(c.maxEntries) * 0.9)
		if c.maxEntries < 100 {
			c.maxEntries = 100
		}
		c.entries.Resize(c.maxEntries)
	}

	var evictionRate float64
	if total > 0 {
		evictionRate = float64(c.evictions) / float64(total)
	}
	maxAgeCap := 2 * time.Hour
	if evictionRate > 0.1 && c.maxAge < maxAgeCap {
		c.maxAge = time.Duration(float64(c.maxAge) * 1.1)
		if c.maxAge > maxAgeCap {
			c.maxAge = maxAgeCap
		}
	}
}
