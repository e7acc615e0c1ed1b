package cmd

import (
	"fmt"
	"regexp"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/solwick/cascade/internal/config"
	"github.com/solwick/cascade/internal/dispatch"
	"github.com/solwick/cascade/internal/event"
	"github.com/solwick/cascade/internal/output"
)

var searchCmd = &cobra.Command{
	Use:   "search [flags] <file>",
	Short: "Search and filter parsed log lines",
	Long: `Search through log files using patterns, log levels, and time ranges.

Every line is classified and parsed into a canonical event before
filtering runs, so patterns and level filters apply the same whether
the source line was JSON, logfmt, or plain text.

Examples:
  cascade search --pattern "error|timeout" /var/log/app.log
  cascade search --level error --since "2024-01-01" /var/log/app.log
  cascade search --pattern "user_id=123" --level warn app.log`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringP("pattern", "p", "", "regex pattern to search for")
	searchCmd.Flags().StringP("level", "l", "", "filter by log level (debug, info, warn, error, fatal)")
	searchCmd.Flags().String("since", "", "show logs since timestamp (RFC3339 or relative like '1h')")
	searchCmd.Flags().String("until", "", "show logs until timestamp (RFC3339 or relative like '1h')")
	searchCmd.Flags().IntP("context", "C", 0, "number of context lines around matches")
	searchCmd.Flags().BoolP("count", "c", false, "only print count of matching lines")
	searchCmd.Flags().BoolP("invert", "V", false, "invert match (show non-matching lines)")

	_ = viper.BindPFlag("search.pattern", searchCmd.Flags().Lookup("pattern"))
	_ = viper.BindPFlag("search.level", searchCmd.Flags().Lookup("level"))

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	pattern, _ := cmd.Flags().GetString("pattern")
	levelStr, _ := cmd.Flags().GetString("level")
	sinceStr, _ := cmd.Flags().GetString("since")
	untilStr, _ := cmd.Flags().GetString("until")
	contextLines, _ := cmd.Flags().GetInt("context")
	countOnly, _ := cmd.Flags().GetBool("count")
	invert, _ := cmd.Flags().GetBool("invert")

	if invert && pattern == "" {
		return fmt.Errorf("--invert requires --pattern")
	}

	files, err := config.ExpandGlobs(args)
	if err != nil {
		return err
	}

	var re *regexp.Regexp
	if pattern != "" {
		re, err = regexp.Compile(pattern)
		if err != nil {
			return fmt.Errorf("invalid pattern: %w", err)
		}
	}

	levelFilter := event.LevelUnknown
	if levelStr != "" {
		levelFilter = event.ParseLevel(levelStr)
		if levelFilter == event.LevelUnknown {
			return fmt.Errorf("invalid level: %s", levelStr)
		}
	}

	var since time.Time
	if sinceStr != "" {
		since, err = config.ParseTimeRef(sinceStr)
		if err != nil {
			return fmt.Errorf("invalid --since value: %w", err)
		}
	}

	var until time.Time
	if untilStr != "" {
		until, err = config.ParseTimeRef(untilStr)
		if err != nil {
			return fmt.Errorf("invalid --until value: %w", err)
		}
	}

	format := output.ParseFormat(viper.GetString("format"))
	d := newDispatcher()
	multiFile := len(files) > 1

	opts := searchFilterOptions{
		re:          re,
		invert:      invert,
		level:       levelFilter,
		since:       since,
		until:       until,
		levelActive: levelStr != "",
	}

	if countOnly {
		return runSearchCount(cmd, d, files, opts, multiFile)
	}

	if format == output.FormatJSON {
		return runSearchJSON(cmd, d, files, opts, contextLines)
	}

	return runSearchTextOrTable(cmd, d, files, opts, format, contextLines, multiFile)
}

type searchFilterOptions struct {
	re          *regexp.Regexp
	invert      bool
	level       event.Level
	since       time.Time
	until       time.Time
	levelActive bool
}

func (opts searchFilterOptions) matches(r event.ParseResult) bool {
	e := r.Event

	if opts.levelActive && e.Level != opts.level {
		return false
	}

	if !opts.since.IsZero() && e.Timestamp != nil && e.Timestamp.Before(opts.since) {
		return false
	}

	if !opts.until.IsZero() && e.Timestamp != nil && e.Timestamp.After(opts.until) {
		return false
	}

	if opts.re != nil {
		matched := opts.re.MatchString(e.Raw)
		if opts.invert {
			matched = !matched
		}
		if !matched {
			return false
		}
	}

	return true
}

// contextEmitter replays N lines of context around each match, the
// same line only ever emitted once even when two matches' context
// windows overlap.
type contextEmitter struct {
	context         int
	matchFn         func(event.ParseResult) bool
	emit            func(event.ParseResult) error
	emitSeparator   func() error
	lastEmittedLine int
	afterRemaining  int
	inContext       bool
	hasOutput       bool
	before          []event.ParseResult
}

func lineOf(r event.ParseResult) int {
	if r.LineNumber == nil {
		return 0
	}
	return *r.LineNumber
}

func (c *contextEmitter) process(r event.ParseResult) error {
	if c.context == 0 {
		if c.matchFn(r) {
			if err := c.emit(r); err != nil {
				return err
			}
			c.lastEmittedLine = lineOf(r)
			c.hasOutput = true
		}
		return nil
	}

	matched := c.matchFn(r)
	if matched {
		if !c.inContext && c.hasOutput && c.emitSeparator != nil {
			if err := c.emitSeparator(); err != nil {
				return err
			}
		}

		for _, prev := range c.before {
			if lineOf(prev) <= c.lastEmittedLine {
				continue
			}
			if err := c.emit(prev); err != nil {
				return err
			}
			c.lastEmittedLine = lineOf(prev)
			c.hasOutput = true
		}

		if lineOf(r) > c.lastEmittedLine {
			if err := c.emit(r); err != nil {
				return err
			}
			c.lastEmittedLine = lineOf(r)
			c.hasOutput = true
		}

		c.inContext = true
		c.afterRemaining = c.context
	} else if c.inContext {
		if lineOf(r) > c.lastEmittedLine {
			if err := c.emit(r); err != nil {
				return err
			}
			c.lastEmittedLine = lineOf(r)
			c.hasOutput = true
		}
		c.afterRemaining--
		if c.afterRemaining <= 0 {
			c.inContext = false
		}
	}

	if c.context > 0 {
		c.before = append(c.before, r)
		if len(c.before) > c.context {
			c.before = c.before[1:]
		}
	}

	return nil
}

func runSearchCount(cmd *cobra.Command, d *dispatch.Dispatcher, files []string, opts searchFilterOptions, multiFile bool) error {
	for _, filePath := range files {
		count := 0
		err := parseFileStream(d, filePath, func(r event.ParseResult) error {
			if opts.matches(r) {
				count++
			}
			return nil
		})
		if err != nil {
			return err
		}
		if multiFile {
			fmt.Fprintf(cmd.OutOrStdout(), "%s:%d\n", filePath, count)
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d\n", count)
	}
	return nil
}

func runSearchJSON(cmd *cobra.Command, d *dispatch.Dispatcher, files []string, opts searchFilterOptions, contextLines int) error {
	writer := output.New(cmd.OutOrStdout(), output.FormatJSON)

	if len(files) == 1 {
		results, err := collectResults(d, files[0], opts, contextLines)
		if err != nil {
			return err
		}
		return writer.WriteResults(results)
	}

	result := make(map[string][]event.ParseResult)
	for _, filePath := range files {
		results, err := collectResults(d, filePath, opts, contextLines)
		if err != nil {
			return err
		}
		result[filePath] = results
	}

	return writer.WriteJSON(result)
}

func runSearchTextOrTable(cmd *cobra.Command, d *dispatch.Dispatcher, files []string, opts searchFilterOptions, format output.Format, contextLines int, multiFile bool) error {
	if format == output.FormatTable {
		writer := output.New(cmd.OutOrStdout(), output.FormatTable)
		for _, filePath := range files {
			results, err := collectResults(d, filePath, opts, contextLines)
			if err != nil {
				return err
			}
			if multiFile {
				fmt.Fprintf(cmd.OutOrStdout(), "==> %s <==\n", filePath)
			}
			if err := writer.WriteResults(results); err != nil {
				return err
			}
		}
		return nil
	}

	prefix := func(filePath string, line string) string {
		if !multiFile {
			return line
		}
		return fmt.Sprintf("%s:%s", filePath, line)
	}

	for _, filePath := range files {
		emitter := &contextEmitter{
			context: contextLines,
			matchFn: opts.matches,
			emit: func(r event.ParseResult) error {
				fmt.Fprintln(cmd.OutOrStdout(), prefix(filePath, r.Event.Raw))
				return nil
			},
			emitSeparator: func() error {
				fmt.Fprintln(cmd.OutOrStdout(), "--")
				return nil
			},
		}

		err := parseFileStream(d, filePath, emitter.process)
		if err != nil {
			return err
		}
	}

	return nil
}

func collectResults(d *dispatch.Dispatcher, filePath string, opts searchFilterOptions, contextLines int) ([]event.ParseResult, error) {
	var results []event.ParseResult

	emitter := &contextEmitter{
		context: contextLines,
		matchFn: opts.matches,
		emit: func(r event.ParseResult) error {
			results = append(results, r)
			return nil
		},
	}

	err := parseFileStream(d, filePath, emitter.process)
	if err != nil {
		return nil, err
	}

	return results, nil
}
