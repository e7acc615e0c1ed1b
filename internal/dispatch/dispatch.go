// Package dispatch implements the resilient dispatcher: the single
// entry point that turns one raw log line into a canonical event,
// consulting a source-specific profile first, then the format cache,
// then the full classification cascade, and guaranteeing success by
// falling back to plain text.
package dispatch

import (
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/solwick/cascade/internal/cache"
	"github.com/solwick/cascade/internal/classify"
	"github.com/solwick/cascade/internal/event"
	"github.com/solwick/cascade/internal/format"
	"github.com/solwick/cascade/internal/profile"
	"github.com/solwick/cascade/internal/stats"
)

// ProfileBinding pairs a source pattern (exact source name, or a glob
// like "*.access.log") with the profile parser that owns it.
type ProfileBinding struct {
	Pattern string
	Profile profile.Profile
}

// Dispatcher owns the classifier, format cache, any configured profile
// bindings, and the statistics monitor, and is the single call every
// engine (streaming or parallel) makes per line.
type Dispatcher struct {
	classifier *classify.Classifier
	cache      *cache.Cache
	monitor    *stats.Monitor
	bindings   []ProfileBinding
	logger     *zap.Logger

	cacheEnabled bool
}

// Option configures a Dispatcher at construction.
type Option func(*Dispatcher)

// WithCache attaches a format cache; omitting this option disables
// caching entirely (every line runs the full cascade).
func WithCache(c *cache.Cache) Option {
	return func(d *Dispatcher) {
		d.cache = c
		d.cacheEnabled = c != nil
	}
}

// WithStatistics attaches a statistics monitor; omitting this option
// means per-line timing and outcome are not recorded anywhere.
func WithStatistics(m *stats.Monitor) Option {
	return func(d *Dispatcher) { d.monitor = m }
}

// WithProfiles registers source-pattern-to-profile bindings. Patterns
// are matched with filepath.Match against the source identifier, and
// an exact string match always takes precedence over a glob.
func WithProfiles(bindings ...ProfileBinding) Option {
	return func(d *Dispatcher) { d.bindings = append(d.bindings, bindings...) }
}

// WithLogger attaches a zap logger; the default is a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(d *Dispatcher) { d.logger = logger }
}

// New constructs a Dispatcher with its own classifier instance.
func New(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		classifier: classify.New(),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch classifies and parses one raw line for source, recording
// its outcome to the statistics monitor (if attached). A bound profile's
// result — success or failure — is returned as-is. Absent a bound
// profile, the classifier cascade's guaranteed plain-text stage means
// Dispatch still always reports Success for that path.
func (d *Dispatcher) Dispatch(line, source string) event.ParseResult {
	start := time.Now()

	// A bound profile is authoritative: if one matches source, its
	// result is returned unchanged whether or not it succeeds, since a
	// profile binding is a promise about that source's shape, not a
	// guess to be second-guessed by re-classifying or falling back.
	if p := d.profileForSource(source); p != nil {
		result := p.Parse(line)
		d.record(result, start)
		return result
	}

	if d.cacheEnabled {
		if entry, ok := d.cache.Get(source); ok {
			parser := d.classifier.ParserFor(entry.FormatType)
			if result := parser.Parse(line); result.Success {
				d.cache.Update(source, result.Confidence, entry.TimestampFormat, nil)
				d.record(result, start)
				return result
			}
			// The cached format no longer fits this particular line;
			// fall through to the full cascade rather than trusting
			// a stale hint.
		}
	}

	classification := d.classifier.Classify(line)
	if d.cacheEnabled {
		d.cache.Put(source, classification.FormatType, classification.Result.Confidence,
			classification.TimestampFormat, classification.FieldMappings)
	}

	result := classification.Result
	if !result.Success {
		result = d.plainTextFallback(line)
	}
	d.record(result, start)
	return result
}

// plainTextFallback is used when the classifier cascade itself reports
// failure (not expected in practice, since its terminal stage always
// succeeds); the resulting event is always marked as a recovered parse
// error, whereas the cascade's own terminal plain-text stage marks one
// only when an earlier structured stage failed.
func (d *Dispatcher) plainTextFallback(line string) event.ParseResult {
	plaintext := format.NewPlainText()
	result := plaintext.Parse(line)
	result.Event.MarkParseError()
	return result
}

func (d *Dispatcher) profileForSource(source string) profile.Profile {
	for _, b := range d.bindings {
		if b.Pattern == source {
			return b.Profile
		}
	}
	for _, b := range d.bindings {
		if ok, err := filepath.Match(b.Pattern, source); err == nil && ok {
			return b.Profile
		}
	}
	return nil
}

func (d *Dispatcher) record(result event.ParseResult, start time.Time) {
	micro := uint64(time.Since(start).Microseconds())
	if result.ProcessingMicro == nil {
		m := int64(micro)
		result.ProcessingMicro = &m
	}
	if d.monitor == nil {
		return
	}
	switch {
	case result.Event.FormatType.String() == event.FormatPlainText.String():
		d.monitor.RecordPlainTextFallback(micro)
	case result.Success:
		d.monitor.RecordSuccess(result.Event.FormatType, micro)
	case result.Err != nil:
		d.monitor.RecordFailure(result.Err, micro)
	}
}
