package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dataoneorg/d1logdigest/internal/config"
)

var cfgFile string

// rootCmd is the digest command itself.
var rootCmd = &cobra.Command{
	Use:   "d1logdigest <regex>",
	Short: "Digest DataONE node logs for records matching a pattern",
	Long: `d1logdigest scans the log directories of a DataONE coordinating or member
node, selects the records whose message matches the given regular
expression inside a time window, and writes them newest first to a
plain-text digest file.

Examples:
  d1logdigest 'ERROR|Exception'
  d1logdigest --max-record 24 --similar 'replication'
  d1logdigest --log-dir /var/log/dataone --log-dir '/opt/tomcat/logs/*.log*' '.*'`,
	Args:          cobra.ExactArgs(1),
	RunE:          runDigest,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	config.Defaults(viper.GetViper())

	f := rootCmd.Flags()
	f.StringVarP(&cfgFile, "config", "c", "", "config file (default: $HOME/.d1logdigest.yaml)")
	f.Bool("debug", false, "enable debug logging (overrides --log-level)")
	f.String("log-level", "info", "log level: debug, info, warn or error")
	f.Float64("max-record", 744, "oldest record to include, in hours before now (<= 0 for no limit)")
	f.Float64("min-record", 0, "newest record to include, in hours before now (<= 0 for no limit)")
	f.Int("max-lines", 200, "maximum physical lines per logical record")
	f.Int("max-per-type", 25, "maximum records kept per log type")
	f.Int("max_line_width", 120, "wrap width of message bodies")
	f.StringSlice("log-dir", nil, "log directory or glob pattern (repeatable)")
	f.String("output-dir", "", "directory the digest file is written to")
	f.Bool("similar", false, "collapse records with similar messages")
	f.Float64("similarity", 0.8, "similarity ratio at which messages are collapsed")
	f.Int("workers", 0, "scan workers (default: number of CPUs)")
	f.Bool("json", false, "also write the records as JSON lines")
	f.String("metrics-file", "", "write run metrics in Prometheus textfile format")
	f.Bool("no-progress", false, "disable the progress bar")

	for key, flag := range map[string]string{
		"debug":          "debug",
		"log_level":      "log-level",
		"max_record":     "max-record",
		"min_record":     "min-record",
		"max_lines":      "max-lines",
		"max_per_type":   "max-per-type",
		"max_line_width": "max_line_width",
		"log_dirs":       "log-dir",
		"output_dir":     "output-dir",
		"similar":        "similar",
		"similarity":     "similarity",
		"workers":        "workers",
		"json":           "json",
		"metrics_file":   "metrics-file",
		"no_progress":    "no-progress",
	} {
		cobra.CheckErr(viper.BindPFlag(key, f.Lookup(flag)))
	}
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigName(".d1logdigest")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix(config.EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	if err := viper.ReadInConfig(); err != nil && cfgFile != "" {
		cobra.CheckErr(err)
	}
}
