package cmd

import (
	"github.com/spf13/cobra"

	"github.com/solwick/cascade/internal/config"
	"github.com/solwick/cascade/internal/event"
	"github.com/solwick/cascade/internal/output"
)

var convertCmd = &cobra.Command{
	Use:   "convert [flags] <file...>",
	Short: "Re-emit a parsed log file in another output format",
	Long: `Parse the given files and write the resulting canonical events out
in --to format, regardless of what format the input lines were in.

Unlike parse, convert always writes its output format explicitly via
--to rather than inheriting the root --format flag, so it can sit in
a pipeline that converts, say, a mixed-format application log into a
single clean CSV or NDJSON file.

Examples:
  cascade convert --to csv /var/log/app.log > app.csv
  cascade convert --to ndjson /var/log/*.log > app.ndjson`,
	Args: cobra.MinimumNArgs(1),
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().String("to", "json", "output format to convert to (json, ndjson, table, csv, raw, text)")
	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	toStr, _ := cmd.Flags().GetString("to")

	files, err := config.ExpandGlobs(args)
	if err != nil {
		return err
	}

	d := newDispatcher()
	var results []event.ParseResult
	for _, filePath := range files {
		err := parseFileStream(d, filePath, func(r event.ParseResult) error {
			results = append(results, r)
			return nil
		})
		if err != nil {
			return err
		}
	}

	writer := output.New(cmd.OutOrStdout(), output.ParseFormat(toStr))
	return writer.WriteResults(results)
}
