// Package stream implements the sequential streaming engine: batched,
// in-order reads from a single io.Reader dispatched one line at a
// time, plus a follow mode for tailing a growing file across
// rotations.
package stream

import (
	"bufio"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/solwick/cascade/internal/dispatch"
	"github.com/solwick/cascade/internal/event"
)

const (
	defaultBatchSize        = 1000
	defaultBufferSize       = 64 * 1024
	defaultMemoryLimitBytes = 100 * 1024 * 1024
)

// Config controls the streaming engine's batching and buffering
// behavior, matching the source cascade's batch_size/buffer_size/
// memory_limit_bytes knobs.
type Config struct {
	// BatchSize is the number of lines accumulated before dispatch is
	// run over the batch.
	BatchSize int
	// BufferSize is the underlying bufio.Reader's buffer size.
	BufferSize int
	// MemoryLimitBytes is a soft budget: a batch flushes early if the
	// accumulated line bytes reach this limit, even if BatchSize has
	// not been reached, bounding worst-case memory for very long lines.
	MemoryLimitBytes int
}

// DefaultConfig returns the engine's default batching configuration.
func DefaultConfig() Config {
	return Config{
		BatchSize:        defaultBatchSize,
		BufferSize:       defaultBufferSize,
		MemoryLimitBytes: defaultMemoryLimitBytes,
	}
}

// Engine reads lines from a reader in batches and dispatches each
// through a shared Dispatcher, preserving input order and assigning
// continuous line numbers across batch boundaries.
type Engine struct {
	dispatcher *dispatch.Dispatcher
	config     Config
	logger     *zap.Logger
}

// Option configures an Engine at construction.
type Option func(*Engine)

// WithConfig overrides the default batching configuration.
func WithConfig(config Config) Option {
	return func(e *Engine) { e.config = config }
}

// WithLogger attaches a zap logger; the default is a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// New constructs a streaming Engine bound to dispatcher.
func New(dispatcher *dispatch.Dispatcher, opts ...Option) *Engine {
	e := &Engine{
		dispatcher: dispatcher,
		config:     DefaultConfig(),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ParseStream reads every line from reader, dispatches it under
// source, and returns the accumulated results in input order.
func (e *Engine) ParseStream(reader io.Reader, source string) ([]event.ParseResult, error) {
	var results []event.ParseResult
	err := e.ParseStreamFunc(reader, source, func(result event.ParseResult) error {
		results = append(results, result)
		return nil
	})
	return results, err
}

// ParseStreamFunc reads every line from reader in batches, invoking fn
// for each dispatched result in order. Unlike ParseStream, it never
// holds more than one batch of results in memory at a time, making it
// the right choice for long-running tails or very large files. fn
// returning an error stops processing and the error propagates.
func (e *Engine) ParseStreamFunc(reader io.Reader, source string, fn func(event.ParseResult) error) error {
	bufReader := bufio.NewReaderSize(reader, e.config.BufferSize)

	batch := make([]string, 0, e.config.BatchSize)
	lineNumber := 1
	memoryUsage := 0

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		startLine := lineNumber - len(batch)
		for i, line := range batch {
			result := e.dispatcher.Dispatch(line, source)
			ln := startLine + i
			result.LineNumber = &ln
			if err := fn(result); err != nil {
				return err
			}
		}
		batch = batch[:0]
		memoryUsage = 0
		return nil
	}

	for {
		line, err := bufReader.ReadString('\n')
		if len(line) > 0 {
			line = stripNewline(line)
			memoryUsage += len(line)
			batch = append(batch, line)
			lineNumber++

			if len(batch) >= e.config.BatchSize || memoryUsage >= e.config.MemoryLimitBytes {
				if ferr := flush(); ferr != nil {
					return ferr
				}
			}
		}

		if err != nil {
			if err == io.EOF {
				return flush()
			}
			e.logger.Error("stream read error", zap.String("source", source), zap.Error(err))
			return err
		}
	}
}

func stripNewline(line string) string {
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")
	return line
}
