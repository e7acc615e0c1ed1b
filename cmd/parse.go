package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/solwick/cascade/internal/config"
	"github.com/solwick/cascade/internal/event"
	"github.com/solwick/cascade/internal/output"
)

var parseCmd = &cobra.Command{
	Use:   "parse [flags] <file...>",
	Short: "Parse one or more log files into canonical events",
	Long: `Run every line of the given files (or stdin, with "-") through the
resilient parsing cascade and emit the resulting canonical events in
the requested --format.

Every line produces an event: lines that match no known format still
surface as a plain-text event rather than being dropped.

Examples:
  cascade parse /var/log/app.log
  cascade parse --format ndjson /var/log/*.log
  cat app.log | cascade parse --format json -`,
	Args: cobra.MinimumNArgs(1),
	RunE: runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)
}

func runParse(cmd *cobra.Command, args []string) error {
	d := newDispatcher()

	var results []event.ParseResult
	var fileArgs []string

	for _, arg := range args {
		if arg != "-" {
			fileArgs = append(fileArgs, arg)
			continue
		}
		err := parseReaderStream(d, os.Stdin, "stdin", func(r event.ParseResult) error {
			results = append(results, r)
			return nil
		})
		if err != nil {
			return err
		}
	}

	if len(fileArgs) > 0 {
		files, err := config.ExpandGlobs(fileArgs)
		if err != nil {
			return err
		}
		for _, filePath := range files {
			err := parseFileStream(d, filePath, func(r event.ParseResult) error {
				results = append(results, r)
				return nil
			})
			if err != nil {
				return err
			}
		}
	}

	format := output.ParseFormat(viper.GetString("format"))
	writer := output.New(cmd.OutOrStdout(), format)
	return writer.WriteResults(results)
}
