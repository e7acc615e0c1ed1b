package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"regexp"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/solwick/cascade/internal/event"
	"github.com/solwick/cascade/internal/output"
	"github.com/solwick/cascade/internal/stream"
)

var tailCmd = &cobra.Command{
	Use:   "tail [flags] <file>",
	Short: "Live-tail a log file with filtering",
	Long: `Watch a log file in real-time, similar to 'tail -f' but with
every new line classified and parsed into a canonical event before
filtering by log level, pattern, and formatted output.

Examples:
  cascade tail /var/log/app.log
  cascade tail --level error /var/log/app.log
  cascade tail --pattern "request_id=abc" --level warn app.log
  cascade tail --follow-rotate /var/log/app.log`,
	Args: cobra.ExactArgs(1),
	RunE: runTail,
}

func init() {
	tailCmd.Flags().StringP("pattern", "p", "", "only show lines matching regex pattern")
	tailCmd.Flags().StringP("level", "l", "", "minimum log level to display (debug, info, warn, error, fatal)")
	tailCmd.Flags().IntP("lines", "n", 10, "number of initial lines to show")
	tailCmd.Flags().Bool("no-follow", false, "print last N lines and exit (don't follow)")
	tailCmd.Flags().Bool("follow-rotate", false, "follow through log rotations (continue when file is renamed/removed)")
	tailCmd.Flags().Bool("no-color", false, "disable colored output")

	rootCmd.AddCommand(tailCmd)
}

func runTail(cmd *cobra.Command, args []string) error {
	filePath := args[0]
	levelStr, _ := cmd.Flags().GetString("level")
	lines, _ := cmd.Flags().GetInt("lines")
	noFollow, _ := cmd.Flags().GetBool("no-follow")
	followRotate, _ := cmd.Flags().GetBool("follow-rotate")
	noColor, _ := cmd.Flags().GetBool("no-color")
	patternStr, _ := cmd.Flags().GetString("pattern")

	if _, err := os.Stat(filePath); err != nil {
		return fmt.Errorf("file does not exist: %s", filePath)
	}

	var pattern *regexp.Regexp
	var err error
	if patternStr != "" {
		pattern, err = regexp.Compile(patternStr)
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

	colorMode := output.ColorAuto
	if noColor {
		colorMode = output.ColorNever
	}

	writer := output.New(cmd.OutOrStdout(), output.FormatText)

	emit := func(r event.ParseResult) error {
		e := r.Event
		if levelStr != "" && e.Level < levelFilter {
			return nil
		}
		if pattern != nil && !pattern.MatchString(e.Raw) {
			return nil
		}
		return writer.WriteColoredResult(r, colorMode)
	}

	d := newDispatcher()
	follower := stream.NewFollower(d, filePath, stream.FollowOptions{
		FilePath:     filePath,
		InitialLines: lines,
		FollowRotate: followRotate,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	if noFollow {
		doneCtx, doneCancel := context.WithCancel(ctx)
		doneCancel()
		err := follower.Run(doneCtx, emit)
		if err != nil && err.Error() != "file rotated" {
			return err
		}
		return nil
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- follower.Run(ctx, emit)
	}()

	select {
	case <-sigChan:
		cancel()
		<-errChan
		return nil
	case err := <-errChan:
		if err != nil && err.Error() != "file rotated" {
			return err
		}
		return nil
	}
}
