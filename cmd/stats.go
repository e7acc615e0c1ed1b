package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/solwick/cascade/internal/analyze"
	"github.com/solwick/cascade/internal/config"
	"github.com/solwick/cascade/internal/event"
	"github.com/solwick/cascade/internal/output"
)

var statsCmd = &cobra.Command{
	Use:   "stats [flags] <file>",
	Short: "Show parsed log statistics",
	Long: `Display statistical summary of a log file including line counts,
level distribution, time range, error rates, and top messages.

Examples:
  cascade stats /var/log/app.log
  cascade stats --format json /var/log/app.log
  cascade stats --since "2024-01-01" app.log`,
	Args: cobra.ExactArgs(1),
	RunE: runStats,
}

func init() {
	statsCmd.Flags().String("since", "", "only include logs since timestamp (RFC3339 or relative like '1h')")
	statsCmd.Flags().String("until", "", "only include logs until timestamp (RFC3339 or relative like '1h')")
	statsCmd.Flags().Int("top", 10, "number of top messages to show")

	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	filePath := args[0]
	sinceStr, _ := cmd.Flags().GetString("since")
	untilStr, _ := cmd.Flags().GetString("until")
	topN, _ := cmd.Flags().GetInt("top")

	var since time.Time
	var err error
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

	d := newDispatcher()

	var results []event.ParseResult
	err = parseFileStream(d, filePath, func(r event.ParseResult) error {
		e := r.Event
		if !since.IsZero() && e.Timestamp != nil && e.Timestamp.Before(since) {
			return nil
		}
		if !until.IsZero() && e.Timestamp != nil && e.Timestamp.After(until) {
			return nil
		}
		results = append(results, r)
		return nil
	})
	if err != nil {
		return err
	}

	summary := analyze.ComputeSummary(results, topN)

	format := output.ParseFormat(viper.GetString("format"))

	switch format {
	case output.FormatJSON:
		return outputStatsJSON(cmd, summary)
	case output.FormatTable:
		return outputStatsTable(cmd, summary)
	default:
		return outputStatsText(cmd, filePath, summary)
	}
}

func outputStatsJSON(cmd *cobra.Command, summary analyze.Summary) error {
	writer := output.New(cmd.OutOrStdout(), output.FormatJSON)
	return writer.WriteJSON(summary)
}

var statsLevelOrder = []event.Level{
	event.LevelFatal,
	event.LevelError,
	event.LevelWarn,
	event.LevelInfo,
	event.LevelDebug,
	event.LevelUnknown,
}

func outputStatsTable(cmd *cobra.Command, summary analyze.Summary) error {
	fmt.Fprintf(cmd.OutOrStdout(), "Total Lines: %d\n\n", summary.TotalLines)

	fmt.Fprintln(cmd.OutOrStdout(), "Level Distribution:")
	fmt.Fprintln(cmd.OutOrStdout(), "LEVEL\tCOUNT\tPERCENTAGE")
	fmt.Fprintln(cmd.OutOrStdout(), "-----\t-----\t----------")
	for _, level := range statsLevelOrder {
		count := summary.LevelCounts[level]
		if count > 0 {
			percent := float64(count) * 100 / float64(summary.TotalLines)
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\t%.1f%%\n", level, count, percent)
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\nError Rate: %.2f%%\n\n", summary.ErrorRate*100)

	if !summary.FirstEntry.IsZero() {
		fmt.Fprintf(cmd.OutOrStdout(), "Time Range: %s to %s\n\n",
			summary.FirstEntry.Format("2006-01-02 15:04:05"),
			summary.LastEntry.Format("2006-01-02 15:04:05"))
	}

	if len(summary.TopMessages) > 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "Top Messages:")
		fmt.Fprintln(cmd.OutOrStdout(), "COUNT\tMESSAGE")
		fmt.Fprintln(cmd.OutOrStdout(), "-----\t-------")
		for _, msg := range summary.TopMessages {
			msgStr := msg.Message
			if len(msgStr) > 60 {
				msgStr = msgStr[:57] + "..."
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\n", msg.Count, msgStr)
		}
	}

	return nil
}

func outputStatsText(cmd *cobra.Command, filePath string, summary analyze.Summary) error {
	fmt.Fprintf(cmd.OutOrStdout(), "Statistics for %s:\n", filePath)
	fmt.Fprintf(cmd.OutOrStdout(), "  Total Lines: %d\n", summary.TotalLines)

	fmt.Fprintln(cmd.OutOrStdout(), "\n  Level Distribution:")
	for _, level := range statsLevelOrder {
		count := summary.LevelCounts[level]
		if count > 0 {
			percent := float64(count) * 100 / float64(summary.TotalLines)
			fmt.Fprintf(cmd.OutOrStdout(), "    %s: %d (%.1f%%)\n", level, count, percent)
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\n  Error Rate: %.2f%%\n", summary.ErrorRate*100)

	if !summary.FirstEntry.IsZero() {
		fmt.Fprintf(cmd.OutOrStdout(), "\n  Time Range:\n")
		fmt.Fprintf(cmd.OutOrStdout(), "    First Entry: %s\n", summary.FirstEntry.Format("2006-01-02 15:04:05"))
		fmt.Fprintf(cmd.OutOrStdout(), "    Last Entry:  %s\n", summary.LastEntry.Format("2006-01-02 15:04:05"))
		duration := summary.LastEntry.Sub(summary.FirstEntry)
		fmt.Fprintf(cmd.OutOrStdout(), "    Duration:    %s\n", duration)
	}

	if len(summary.TopMessages) > 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "\n  Top Messages:")
		for i, msg := range summary.TopMessages {
			fmt.Fprintf(cmd.OutOrStdout(), "    %d. [%d] %s\n", i+1, msg.Count, msg.Message)
		}
	}

	return nil
}
