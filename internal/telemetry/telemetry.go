// Package telemetry exposes an internal/stats.Monitor's counters as a
// Prometheus /metrics endpoint, an optional sink alongside the
// monitor's own plain stdout status line.
package telemetry

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/solwick/cascade/internal/stats"
)

// Config controls the metrics server's listen address, path, and
// naming.
type Config struct {
	ListenAddress  string
	MetricsPath    string
	Namespace      string
	PollInterval   time.Duration
}

// DefaultConfig returns sane defaults for a standalone metrics server.
func DefaultConfig() Config {
	return Config{
		ListenAddress: ":9090",
		MetricsPath:   "/metrics",
		Namespace:     "cascade",
		PollInterval:  5 * time.Second,
	}
}

// Exporter polls a stats.Monitor on an interval and republishes its
// counters as Prometheus gauges/counters, served over HTTP.
type Exporter struct {
	logger   *zap.Logger
	monitor  *stats.Monitor
	config   Config
	registry *prometheus.Registry
	server   *http.Server

	totalLines      prometheus.Gauge
	successfulLines prometheus.Gauge
	failedLines     prometheus.Gauge
	fallbackLines   prometheus.Gauge
	successRate     prometheus.Gauge
	errorRate       prometheus.Gauge
	fallbackRate    prometheus.Gauge
	avgProcessingUs prometheus.Gauge
	peakMemoryBytes prometheus.Gauge
	formatTotal     *prometheus.GaugeVec
	errorTotal      *prometheus.GaugeVec
}

// New constructs an Exporter bound to monitor, registering every gauge
// under config's namespace but not yet starting the HTTP server.
func New(monitor *stats.Monitor, config Config, logger *zap.Logger) *Exporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	registry := prometheus.NewRegistry()

	e := &Exporter{
		logger:   logger,
		monitor:  monitor,
		config:   config,
		registry: registry,

		totalLines: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: config.Namespace, Name: "lines_total", Help: "Total lines processed.",
		}),
		successfulLines: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: config.Namespace, Name: "lines_successful", Help: "Lines that parsed successfully (including plain-text fallbacks).",
		}),
		failedLines: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: config.Namespace, Name: "lines_failed", Help: "Lines that failed every parsing stage.",
		}),
		fallbackLines: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: config.Namespace, Name: "lines_plain_text_fallback", Help: "Lines that fell back to the plain-text parser.",
		}),
		successRate: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: config.Namespace, Name: "success_rate_percent", Help: "Percentage of lines parsed successfully.",
		}),
		errorRate: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: config.Namespace, Name: "error_rate_percent", Help: "Percentage of lines that failed to parse.",
		}),
		fallbackRate: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: config.Namespace, Name: "fallback_rate_percent", Help: "Percentage of lines that fell back to plain text.",
		}),
		avgProcessingUs: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: config.Namespace, Name: "avg_processing_microseconds", Help: "Running average per-line processing time.",
		}),
		peakMemoryBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: config.Namespace, Name: "peak_memory_bytes", Help: "Peak reported memory usage.",
		}),
		formatTotal: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: config.Namespace, Name: "format_total", Help: "Lines observed per detected format.",
		}, []string{"format"}),
		errorTotal: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: config.Namespace, Name: "error_total", Help: "Lines observed per error kind.",
		}, []string{"kind"}),
	}

	registry.MustRegister(
		e.totalLines, e.successfulLines, e.failedLines, e.fallbackLines,
		e.successRate, e.errorRate, e.fallbackRate,
		e.avgProcessingUs, e.peakMemoryBytes,
		e.formatTotal, e.errorTotal,
	)
	registry.MustRegister(prometheus.NewGoCollector())
	registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	mux := http.NewServeMux()
	mux.Handle(config.MetricsPath, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	e.server = &http.Server{Addr: config.ListenAddress, Handler: mux}

	return e
}

// Start launches the metrics HTTP server and the polling loop in
// background goroutines; it returns immediately. Stop (or ctx
// cancellation) shuts both down.
func (e *Exporter) Start(ctx context.Context) {
	e.logger.Info("starting telemetry server", zap.String("address", e.config.ListenAddress), zap.String("path", e.config.MetricsPath))

	go func() {
		if err := e.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			e.logger.Error("telemetry server failed", zap.Error(err))
		}
	}()

	go e.poll(ctx)
}

// Stop shuts down the HTTP server, waiting up to the context deadline.
func (e *Exporter) Stop(ctx context.Context) error {
	e.logger.Info("stopping telemetry server")
	return e.server.Shutdown(ctx)
}

func (e *Exporter) poll(ctx context.Context) {
	interval := e.config.PollInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.refresh()
		}
	}
}

// refresh republishes the monitor's current snapshot into every gauge.
func (e *Exporter) refresh() {
	snap := e.monitor.Statistics()

	e.totalLines.Set(float64(snap.TotalLines))
	e.successfulLines.Set(float64(snap.SuccessfulParses))
	e.failedLines.Set(float64(snap.FailedParses))
	e.fallbackLines.Set(float64(snap.PlainTextFallbacks))
	e.successRate.Set(snap.SuccessRate())
	e.errorRate.Set(snap.ErrorRate())
	e.fallbackRate.Set(snap.FallbackRate())
	e.avgProcessingUs.Set(snap.ProcessingTimeMicros.AvgTime)
	e.peakMemoryBytes.Set(float64(snap.MemoryStats.PeakMemoryBytes))

	for format, count := range snap.FormatDistribution {
		e.formatTotal.WithLabelValues(format).Set(float64(count))
	}
	for kind, count := range snap.ErrorDistribution {
		e.errorTotal.WithLabelValues(kind).Set(float64(count))
	}
}
