package stream

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/solwick/cascade/internal/dispatch"
	"github.com/solwick/cascade/internal/event"
)

// FollowOptions configures a Follower.
type FollowOptions struct {
	// FilePath is the file to tail.
	FilePath string
	// InitialLines is the number of existing lines to emit before
	// switching to follow mode; 0 skips replay entirely.
	InitialLines int
	// FollowRotate controls whether the Follower reopens FilePath after
	// it is removed or renamed (log rotation) instead of exiting.
	FollowRotate bool
	// RotationTimeout bounds how long the Follower waits for a rotated
	// file to reappear before giving up.
	RotationTimeout time.Duration
}

// Follower tails a single file, dispatching each new line as it is
// written and optionally surviving log rotation.
type Follower struct {
	opts       FollowOptions
	dispatcher *dispatch.Dispatcher
	logger     *zap.Logger

	file    *os.File
	offset  int64
	watcher *fsnotify.Watcher
	source  string
}

// FollowOption configures a Follower at construction.
type FollowOption func(*Follower)

// WithFollowLogger attaches a zap logger; the default is a no-op logger.
func WithFollowLogger(logger *zap.Logger) FollowOption {
	return func(f *Follower) { f.logger = logger }
}

// NewFollower constructs a Follower for opts, dispatching through
// dispatcher and tagging every event with source.
func NewFollower(dispatcher *dispatch.Dispatcher, source string, opts FollowOptions, followOpts ...FollowOption) *Follower {
	f := &Follower{
		opts:       opts,
		dispatcher: dispatcher,
		source:     source,
		logger:     zap.NewNop(),
	}
	if opts.RotationTimeout == 0 {
		f.opts.RotationTimeout = 10 * time.Second
	}
	for _, opt := range followOpts {
		opt(f)
	}
	return f
}

// Run replays InitialLines (if any), then blocks dispatching new
// lines as they are written until ctx is cancelled or an
// unrecoverable error occurs (including rotation when FollowRotate is
// false).
func (f *Follower) Run(ctx context.Context, fn func(event.ParseResult) error) error {
	if err := f.open(); err != nil {
		return fmt.Errorf("open %s: %w", f.opts.FilePath, err)
	}
	defer f.close()

	if f.opts.InitialLines > 0 {
		if err := f.replayInitialLines(fn); err != nil {
			return err
		}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	f.watcher = watcher
	defer watcher.Close()

	if err := watcher.Add(f.opts.FilePath); err != nil {
		return fmt.Errorf("watch %s: %w", f.opts.FilePath, err)
	}

	return f.watch(ctx, fn)
}

func (f *Follower) open() error {
	file, err := os.Open(f.opts.FilePath)
	if err != nil {
		return err
	}
	f.file = file

	stat, err := file.Stat()
	if err != nil {
		return err
	}
	f.offset = stat.Size()
	return nil
}

// replayInitialLines emits the trailing InitialLines lines of the
// file (best-effort: it seeks to an estimated offset rather than
// scanning the whole file, matching the teacher's tail implementation)
// before advancing the read offset to end-of-file for follow mode.
func (f *Follower) replayInitialLines(fn func(event.ParseResult) error) error {
	stat, err := f.file.Stat()
	if err != nil {
		return err
	}
	size := stat.Size()
	if size == 0 {
		return nil
	}

	const estimatedBytesPerLine = 300
	estimatedBytesNeeded := int64(f.opts.InitialLines * estimatedBytesPerLine * 2)
	startPos := size - estimatedBytesNeeded
	if startPos < 0 {
		startPos = 0
	}

	if _, err := f.file.Seek(startPos, io.SeekStart); err != nil {
		return err
	}

	scanner := bufio.NewScanner(f.file)
	const maxToken = 1024 * 1024
	scanner.Buffer(make([]byte, maxToken), maxToken)

	if startPos > 0 {
		scanner.Scan() // discard the partial first line
	}

	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	if len(lines) > f.opts.InitialLines {
		lines = lines[len(lines)-f.opts.InitialLines:]
	}
	for i, line := range lines {
		ln := i + 1
		result := f.dispatcher.Dispatch(line, f.source)
		result.LineNumber = &ln
		if err := fn(result); err != nil {
			return err
		}
	}

	f.offset, err = f.file.Seek(0, io.SeekEnd)
	return err
}

func (f *Follower) watch(ctx context.Context, fn func(event.ParseResult) error) error {
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-f.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher closed unexpectedly")
			}
			if err := f.handleEvent(ctx, ev, fn); err != nil {
				return err
			}

		case err, ok := <-f.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher error channel closed")
			}
			f.logger.Error("file watch error", zap.String("file", f.opts.FilePath), zap.Error(err))
			return err
		}
	}
}

func (f *Follower) handleEvent(ctx context.Context, ev fsnotify.Event, fn func(event.ParseResult) error) error {
	switch {
	case ev.Op&fsnotify.Write == fsnotify.Write:
		return f.readNewContent(fn)
	case ev.Op&fsnotify.Remove == fsnotify.Remove, ev.Op&fsnotify.Rename == fsnotify.Rename:
		return f.handleRotation(ctx)
	default:
		return nil
	}
}

func (f *Follower) readNewContent(fn func(event.ParseResult) error) error {
	if _, err := f.file.Seek(f.offset, io.SeekStart); err != nil {
		return err
	}

	scanner := bufio.NewScanner(f.file)
	const maxToken = 1024 * 1024
	scanner.Buffer(make([]byte, maxToken), maxToken)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		result := f.dispatcher.Dispatch(line, f.source)
		ln := lineNum
		result.LineNumber = &ln
		if err := fn(result); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	var err error
	f.offset, err = f.file.Seek(0, io.SeekCurrent)
	return err
}

func (f *Follower) handleRotation(ctx context.Context) error {
	if !f.opts.FollowRotate {
		f.logger.Info("file rotated, exiting", zap.String("file", f.opts.FilePath))
		return fmt.Errorf("file rotated")
	}

	if f.file != nil {
		f.file.Close()
		f.file = nil
	}

	timeout := time.After(f.opts.RotationTimeout)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timeout:
			return fmt.Errorf("timeout waiting for rotated file %s to reappear", f.opts.FilePath)
		case <-ticker.C:
			file, err := os.Open(f.opts.FilePath)
			if err != nil {
				continue
			}
			f.file = file
			f.offset = 0
			if err := f.watcher.Add(f.opts.FilePath); err != nil {
				return fmt.Errorf("rewatch %s: %w", f.opts.FilePath, err)
			}
			f.logger.Info("file rotated, following new file", zap.String("file", f.opts.FilePath))
			return nil
		}
	}
}

func (f *Follower) close() {
	if f.file != nil {
		f.file.Close()
	}
	if f.watcher != nil {
		f.watcher.Close()
	}
}
