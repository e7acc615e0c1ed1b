package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "cascade",
	Short: "A resilient multi-format log ingestion tool",
	Long: `Cascade parses, searches, tails, and summarizes log files that mix
JSON, logfmt, timestamp+level, and raw plain-text lines, without ever
failing to produce output for a line.

It classifies each line's format on the fly, remembers what worked per
source, and falls back to a plain-text record rather than dropping a
line it cannot parse.

Examples:
  cascade search --level error /var/log/app.log
  cascade stats /var/log/app.log
  cascade tail --level warn /var/log/app.log
  cascade parse --format json /var/log/app.log`,
}

// Execute is called by main.main(). It runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.cascade.yaml)")
	rootCmd.PersistentFlags().StringP("format", "f", "text", "output format (text, json, ndjson, table, csv, raw)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().String("profiles", "", "path to a profiles.yaml defining named regex/CSV profiles and source bindings")

	_ = viper.BindPFlag("format", rootCmd.PersistentFlags().Lookup("format"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("profiles_file", rootCmd.PersistentFlags().Lookup("profiles"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error finding home directory:", err)
			os.Exit(1)
		}

		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigName(".cascade")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("CASCADE")
	viper.AutomaticEnv()

	viper.SetDefault("format", "text")
	viper.SetDefault("verbose", false)
	viper.SetDefault("timestamp_formats", []string{
		"2006-01-02T15:04:05Z07:00",  // RFC3339
		"2006-01-02 15:04:05",        // Common datetime
		"Jan 02 15:04:05",            // Syslog
		"02/Jan/2006:15:04:05 -0700", // Apache/Nginx
	})
	viper.SetDefault("cache.enabled", true)
	viper.SetDefault("cache.max_entries", 1000)
	viper.SetDefault("cache.ttl_seconds", 3600)
	viper.SetDefault("cache.min_samples", 5)
	viper.SetDefault("parallel.enabled", false)
	viper.SetDefault("parallel.workers", 0)
	viper.SetDefault("stats.enabled", false)

	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("verbose") {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}
}
