// Package parallel implements the parallel engine: two execution
// shapes over a single shared dispatcher (and therefore a single
// shared format cache) — multi-stream mode, one worker per
// (reader, source) pair, and work-queue mode, N workers draining a
// single list of lines. Both guarantee every input is represented in
// the output and carry the input's original line number; only
// multi-stream mode also guarantees per-stream result ordering.
package parallel

import (
	"context"
	"io"
	"runtime"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/solwick/cascade/internal/dispatch"
	"github.com/solwick/cascade/internal/event"
	"github.com/solwick/cascade/internal/stream"
)

const (
	defaultQueueCapacity = 10000
)

// Config controls the parallel engine's worker count and work-queue
// capacity.
type Config struct {
	// NumWorkers is the number of concurrent workers; 0 auto-detects
	// from runtime.NumCPU().
	NumWorkers int
	// QueueCapacity bounds the work-queue mode's internal line buffer.
	QueueCapacity int
	// StreamConfig is passed through to each per-stream stream.Engine
	// in multi-stream mode.
	StreamConfig stream.Config
}

// DefaultConfig returns auto-detected worker count and the source
// cascade's default queue capacity.
func DefaultConfig() Config {
	return Config{
		NumWorkers:    0,
		QueueCapacity: defaultQueueCapacity,
		StreamConfig:  stream.DefaultConfig(),
	}
}

func (c Config) workers() int {
	if c.NumWorkers > 0 {
		return c.NumWorkers
	}
	return runtime.NumCPU()
}

// Engine runs work across goroutines against a single shared
// Dispatcher, so every worker observes the same format cache.
type Engine struct {
	dispatcher *dispatch.Dispatcher
	config     Config
	logger     *zap.Logger
}

// Option configures an Engine at construction.
type Option func(*Engine)

// WithConfig overrides the default worker count and queue capacity.
func WithConfig(config Config) Option {
	return func(e *Engine) { e.config = config }
}

// WithLogger attaches a zap logger; the default is a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// New constructs a parallel Engine sharing dispatcher across every
// worker it spawns.
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

// StreamInput pairs a reader with the source identifier its lines
// should be tagged with.
type StreamInput struct {
	Reader io.Reader
	Source string
}

// StreamResult is one input stream's results, in the order they were
// read from that stream.
type StreamResult struct {
	Source  string
	Results []event.ParseResult
	Err     error
}

// ParseStreamsParallel runs one worker per input, each using its own
// stream.Engine (so batching/memory-budget behavior matches the
// sequential engine) against the same shared Dispatcher. A session ID
// is attached to every worker's log lines so interleaved output from
// concurrent runs can be told apart.
func (e *Engine) ParseStreamsParallel(ctx context.Context, inputs []StreamInput) []StreamResult {
	sessionID := uuid.New().String()
	logger := e.logger.With(zap.String("session", sessionID))

	results := make([]StreamResult, len(inputs))
	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(e.config.workers())

	for i, in := range inputs {
		i, in := i, in
		group.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			worker := stream.New(e.dispatcher, stream.WithConfig(e.config.StreamConfig), stream.WithLogger(logger))
			streamResults, err := worker.ParseStream(in.Reader, in.Source)
			results[i] = StreamResult{Source: in.Source, Results: streamResults, Err: err}
			if err != nil {
				logger.Error("stream worker failed", zap.String("source", in.Source), zap.Error(err))
			}
			return nil
		})
	}

	_ = group.Wait()
	return results
}

// WorkItem is one line of input queued for work-queue mode, carrying
// its originating source and its original (1-based) position in the
// input list.
type WorkItem struct {
	Line       string
	Source     string
	LineNumber int
}

// ParseLinesParallel drains items across a pool of workers sharing
// the Dispatcher's cache. Results are returned unordered relative to
// the input list, but each result's LineNumber is the authoritative
// original position, so callers that need input order can re-sort on
// it.
func (e *Engine) ParseLinesParallel(ctx context.Context, items []WorkItem) []event.ParseResult {
	sessionID := uuid.New().String()
	logger := e.logger.With(zap.String("session", sessionID))

	queue := make(chan WorkItem, e.config.QueueCapacity)
	out := make(chan event.ParseResult, e.config.QueueCapacity)

	group, gctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		defer close(queue)
		for _, item := range items {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case queue <- item:
			}
		}
		return nil
	})

	workers := e.config.workers()
	for w := 0; w < workers; w++ {
		group.Go(func() error {
			for item := range queue {
				result := e.dispatcher.Dispatch(item.Line, item.Source)
				ln := item.LineNumber
				result.LineNumber = &ln
				select {
				case out <- result:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			return nil
		})
	}

	done := make(chan struct{})
	var results []event.ParseResult
	go func() {
		for result := range out {
			results = append(results, result)
		}
		close(done)
	}()

	if err := group.Wait(); err != nil {
		logger.Error("work-queue processing failed", zap.Error(err))
	}
	close(out)
	<-done

	return results
}
