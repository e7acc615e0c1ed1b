// Package stats implements the parsing statistics monitor: running
// counters, a processing-time distribution, a memory gauge, and derived
// rates, with compact status-line reporting for continuous monitoring.
package stats

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/solwick/cascade/internal/event"
	"github.com/solwick/cascade/internal/parseerr"
)

// ProcessingTimeStats tracks the running min/max/average processing
// time, in microseconds, across every line observed.
type ProcessingTimeStats struct {
	TotalTime uint64
	MinTime   uint64
	MaxTime   uint64
	AvgTime   float64
}

func (p *ProcessingTimeStats) update(timeMicros uint64, totalLines uint64) {
	p.TotalTime += timeMicros

	if p.MinTime == 0 || timeMicros < p.MinTime {
		p.MinTime = timeMicros
	}
	if timeMicros > p.MaxTime {
		p.MaxTime = timeMicros
	}
	if totalLines > 0 {
		p.AvgTime = float64(p.TotalTime) / float64(totalLines)
	}
}

// MemoryStats tracks memory gauges reported by the engines.
type MemoryStats struct {
	PeakMemoryBytes    uint64
	CurrentMemoryBytes uint64
	TotalAllocations   uint64
}

// Counters holds the raw accumulated parsing statistics. It is not
// safe for concurrent use on its own; Monitor guards it with a mutex.
type Counters struct {
	TotalLines           uint64
	SuccessfulParses     uint64
	FailedParses         uint64
	PlainTextFallbacks   uint64
	FormatDistribution   map[string]uint64
	ErrorDistribution    map[string]uint64
	ProcessingTimeMicros ProcessingTimeStats
	MemoryStats          MemoryStats
}

func newCounters() Counters {
	return Counters{
		FormatDistribution: make(map[string]uint64),
		ErrorDistribution:  make(map[string]uint64),
	}
}

func (c *Counters) recordSuccess(formatType event.FormatType, processingTimeMicros uint64) {
	c.TotalLines++
	c.SuccessfulParses++
	c.FormatDistribution[formatType.String()]++
	c.ProcessingTimeMicros.update(processingTimeMicros, c.TotalLines)
}

func (c *Counters) recordFailure(err error, processingTimeMicros uint64) {
	c.TotalLines++
	c.FailedParses++
	c.ErrorDistribution[errorTypeName(err)]++
	c.ProcessingTimeMicros.update(processingTimeMicros, c.TotalLines)
}

func (c *Counters) recordPlainTextFallback(processingTimeMicros uint64) {
	c.TotalLines++
	c.SuccessfulParses++
	c.PlainTextFallbacks++
	c.FormatDistribution[event.FormatPlainText.String()]++
	c.ProcessingTimeMicros.update(processingTimeMicros, c.TotalLines)
}

// SuccessRate returns the percentage of lines that parsed successfully.
func (c *Counters) SuccessRate() float64 { return rate(c.SuccessfulParses, c.TotalLines) }

// ErrorRate returns the percentage of lines that failed to parse.
func (c *Counters) ErrorRate() float64 { return rate(c.FailedParses, c.TotalLines) }

// FallbackRate returns the percentage of lines that fell back to plain text.
func (c *Counters) FallbackRate() float64 { return rate(c.PlainTextFallbacks, c.TotalLines) }

func rate(n, total uint64) float64 {
	if total == 0 {
		return 0
	}
	return (float64(n) / float64(total)) * 100.0
}

// errorTypeName maps a parseerr error to its taxonomy name for the
// error distribution histogram, falling back to the Go type name for
// errors outside the closed taxonomy (which should not occur in
// practice, since every parser returns parseerr types).
func errorTypeName(err error) string {
	if k, ok := err.(interface{ Kind() parseerr.Kind }); ok {
		return k.Kind().String()
	}
	return fmt.Sprintf("%T", err)
}

// Monitor is the statistics monitor: it wraps Counters with a mutex,
// optional periodic status-line logging, and debug-level per-line
// logging, matching the dispatcher's need to record every processed
// line from potentially many goroutines.
type Monitor struct {
	mu sync.Mutex

	counters Counters

	monitoringEnabled   bool
	debugOutputEnabled  bool
	reportInterval      uint64
	lastReportLine      uint64

	logger *zap.Logger
}

// Option configures a Monitor at construction.
type Option func(*Monitor)

// WithLogger attaches a zap logger for status-line and debug output.
// The default is a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Monitor) { m.logger = logger }
}

// WithMonitoring enables periodic status-line emission every
// reportInterval processed lines.
func WithMonitoring(enabled bool, reportInterval uint64) Option {
	return func(m *Monitor) {
		m.monitoringEnabled = enabled
		if reportInterval > 0 {
			m.reportInterval = reportInterval
		}
	}
}

// WithDebugOutput enables a debug-level log line for every recorded
// event in addition to periodic status reporting.
func WithDebugOutput(enabled bool) Option {
	return func(m *Monitor) { m.debugOutputEnabled = enabled }
}

// New constructs a Monitor with default settings: monitoring and debug
// output disabled, reporting every 1000 lines.
func New(opts ...Option) *Monitor {
	m := &Monitor{
		counters:       newCounters(),
		reportInterval: 1000,
		logger:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SetMonitoringEnabled toggles periodic status-line emission.
func (m *Monitor) SetMonitoringEnabled(enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.monitoringEnabled = enabled
}

// SetDebugOutputEnabled toggles per-line debug logging.
func (m *Monitor) SetDebugOutputEnabled(enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.debugOutputEnabled = enabled
}

// SetReportInterval changes the number of lines between status reports.
func (m *Monitor) SetReportInterval(interval uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reportInterval = interval
}

// RecordSuccess records a successful parse of the given format at the
// given processing time.
func (m *Monitor) RecordSuccess(formatType event.FormatType, processingTimeMicros uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.counters.recordSuccess(formatType, processingTimeMicros)
	if m.debugOutputEnabled {
		m.logger.Debug("successful parse",
			zap.String("format", formatType.String()),
			zap.Uint64("micros", processingTimeMicros))
	}
	m.checkAndReportLocked()
}

// RecordFailure records a failed parse and its error.
func (m *Monitor) RecordFailure(err error, processingTimeMicros uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.counters.recordFailure(err, processingTimeMicros)
	if m.debugOutputEnabled {
		m.logger.Debug("parse failure",
			zap.Error(err),
			zap.Uint64("micros", processingTimeMicros))
	}
	m.checkAndReportLocked()
}

// RecordPlainTextFallback records a line that fell back to plain text.
func (m *Monitor) RecordPlainTextFallback(processingTimeMicros uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.counters.recordPlainTextFallback(processingTimeMicros)
	if m.debugOutputEnabled {
		m.logger.Debug("plain text fallback", zap.Uint64("micros", processingTimeMicros))
	}
	m.checkAndReportLocked()
}

// Statistics returns a snapshot copy of the current counters.
func (m *Monitor) Statistics() Counters {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Monitor) snapshotLocked() Counters {
	snap := m.counters
	snap.FormatDistribution = make(map[string]uint64, len(m.counters.FormatDistribution))
	for k, v := range m.counters.FormatDistribution {
		snap.FormatDistribution[k] = v
	}
	snap.ErrorDistribution = make(map[string]uint64, len(m.counters.ErrorDistribution))
	for k, v := range m.counters.ErrorDistribution {
		snap.ErrorDistribution[k] = v
	}
	return snap
}

// Reset clears every counter back to zero.
func (m *Monitor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters = newCounters()
	m.lastReportLine = 0
}

// UpdateMemoryStats records the current/peak memory footprint and
// cumulative allocation count, as reported by a streaming or parallel
// engine's own accounting.
func (m *Monitor) UpdateMemoryStats(currentBytes, peakBytes, allocations uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.counters.MemoryStats.CurrentMemoryBytes = currentBytes
	if peakBytes > m.counters.MemoryStats.PeakMemoryBytes {
		m.counters.MemoryStats.PeakMemoryBytes = peakBytes
	}
	m.counters.MemoryStats.TotalAllocations = allocations
}

// Report generates a multi-line, human-readable monitoring report.
func (m *Monitor) Report() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.generateReportLocked()
}

func (m *Monitor) generateReportLocked() string {
	c := &m.counters
	var b []byte
	b = append(b, "=== Parsing Statistics Report ===\n"...)
	b = append(b, fmt.Sprintf("Total lines processed: %d\n", c.TotalLines)...)
	b = append(b, fmt.Sprintf("Successful parses: %d (%.2f%%)\n", c.SuccessfulParses, c.SuccessRate())...)
	b = append(b, fmt.Sprintf("Failed parses: %d (%.2f%%)\n", c.FailedParses, c.ErrorRate())...)
	b = append(b, fmt.Sprintf("Plain text fallbacks: %d (%.2f%%)\n", c.PlainTextFallbacks, c.FallbackRate())...)

	b = append(b, "\n--- Format Distribution ---\n"...)
	for _, k := range sortedKeys(c.FormatDistribution) {
		count := c.FormatDistribution[k]
		pct := rate(count, c.TotalLines)
		b = append(b, fmt.Sprintf("%s: %d (%.2f%%)\n", k, count, pct)...)
	}

	b = append(b, "\n--- Error Distribution ---\n"...)
	for _, k := range sortedKeys(c.ErrorDistribution) {
		count := c.ErrorDistribution[k]
		pct := rate(count, c.FailedParses)
		b = append(b, fmt.Sprintf("%s: %d (%.2f%%)\n", k, count, pct)...)
	}

	b = append(b, "\n--- Performance Metrics ---\n"...)
	b = append(b, fmt.Sprintf("Total processing time: %dµs\n", c.ProcessingTimeMicros.TotalTime)...)
	b = append(b, fmt.Sprintf("Average processing time: %.2fµs\n", c.ProcessingTimeMicros.AvgTime)...)
	b = append(b, fmt.Sprintf("Min processing time: %dµs\n", c.ProcessingTimeMicros.MinTime)...)
	b = append(b, fmt.Sprintf("Max processing time: %dµs\n", c.ProcessingTimeMicros.MaxTime)...)
	if c.TotalLines > 0 && c.ProcessingTimeMicros.TotalTime > 0 {
		throughput := float64(c.TotalLines) / (float64(c.ProcessingTimeMicros.TotalTime) / 1_000_000.0)
		b = append(b, fmt.Sprintf("Throughput: %.2f lines/second\n", throughput)...)
	}

	b = append(b, "\n--- Memory Usage ---\n"...)
	b = append(b, fmt.Sprintf("Peak memory: %d bytes\n", c.MemoryStats.PeakMemoryBytes)...)
	b = append(b, fmt.Sprintf("Current memory: %d bytes\n", c.MemoryStats.CurrentMemoryBytes)...)
	b = append(b, fmt.Sprintf("Total allocations: %d\n", c.MemoryStats.TotalAllocations)...)

	return string(b)
}

// StatusLine generates a single-line compact summary suitable for
// continuous monitoring output.
func (m *Monitor) StatusLine() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.statusLineLocked()
}

func (m *Monitor) statusLineLocked() string {
	c := &m.counters
	return fmt.Sprintf(
		"Lines: %d | Success: %.1f%% | Errors: %.1f%% | Fallbacks: %.1f%% | Avg Time: %.1fµs",
		c.TotalLines, c.SuccessRate(), c.ErrorRate(), c.FallbackRate(), c.ProcessingTimeMicros.AvgTime,
	)
}

func (m *Monitor) checkAndReportLocked() {
	if !m.monitoringEnabled {
		return
	}
	linesSinceReport := m.counters.TotalLines - m.lastReportLine
	if linesSinceReport >= m.reportInterval {
		m.logger.Info(m.statusLineLocked())
		m.lastReportLine = m.counters.TotalLines
	}
}

// Summary computes a PerformanceSummary snapshot for alerting systems.
func (m *Monitor) Summary() PerformanceSummary {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := &m.counters
	var throughput float64
	if c.ProcessingTimeMicros.TotalTime > 0 {
		throughput = float64(c.TotalLines) / (float64(c.ProcessingTimeMicros.TotalTime) / 1_000_000.0)
	}

	return PerformanceSummary{
		TotalLines:               c.TotalLines,
		SuccessRate:              c.SuccessRate(),
		ErrorRate:                c.ErrorRate(),
		FallbackRate:             c.FallbackRate(),
		AvgProcessingTimeMicros:  c.ProcessingTimeMicros.AvgTime,
		ThroughputLinesPerSecond: throughput,
		PeakMemoryBytes:          c.MemoryStats.PeakMemoryBytes,
		MostCommonFormat:         mostCommon(c.FormatDistribution),
		MostCommonError:          mostCommon(c.ErrorDistribution),
	}
}

func mostCommon(dist map[string]uint64) string {
	var best string
	var bestCount uint64
	for _, k := range sortedKeys(dist) {
		if dist[k] > bestCount {
			best, bestCount = k, dist[k]
		}
	}
	return best
}

func sortedKeys(m map[string]uint64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// PerformanceSummary is a point-in-time snapshot suitable for
// alerting/monitoring systems that don't want to hold the Monitor's
// lock or poll Report().
type PerformanceSummary struct {
	TotalLines               uint64
	SuccessRate              float64
	ErrorRate                float64
	FallbackRate             float64
	AvgProcessingTimeMicros  float64
	ThroughputLinesPerSecond float64
	PeakMemoryBytes          uint64
	MostCommonFormat         string
	MostCommonError          string
}

// HasPerformanceIssues reports whether the summary crosses any of the
// three alerting thresholds: more than 10% errors, average processing
// time above 10ms, or throughput below 100 lines/second.
func (s PerformanceSummary) HasPerformanceIssues() bool {
	return s.ErrorRate > 10.0 ||
		s.AvgProcessingTimeMicros > 10000.0 ||
		s.ThroughputLinesPerSecond < 100.0
}

// Status returns a qualitative health string: "critical" if any
// performance-issue threshold is crossed, "degraded" if error rate
// exceeds 5% or average processing time exceeds 5ms, else "healthy".
func (s PerformanceSummary) Status() string {
	switch {
	case s.HasPerformanceIssues():
		return "critical"
	case s.ErrorRate > 5.0 || s.AvgProcessingTimeMicros > 5000.0:
		return "degraded"
	default:
		return "healthy"
	}
}
