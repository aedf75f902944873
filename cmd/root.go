package cmd

import (
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// envPrefix namespaces environment overrides, e.g. PCSIM_LOG=debug.
const envPrefix = "PCSIM"

var (
	// CLI flags shared by every command
	logLevel     string        // Log verbosity level
	tickInterval time.Duration // Wall-clock time between playback ticks
	outputFormat string        // Output format: table or json
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "prompt-cache-sim",
	Short: "Deterministic simulator for sliding-TTL prompt caches and cached-prefill throughput",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(viper.GetString("log"))
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", viper.GetString("log"))
		}
		logrus.SetLevel(level)
		logrus.SetOutput(cmd.ErrOrStderr())
		if f := viper.GetString("format"); f != formatTable && f != formatJSON {
			logrus.Fatalf("Invalid output format %q; valid: %s, %s", f, formatTable, formatJSON)
		}
	},
	SilenceUsage: true,
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up persistent flags and binds them to PCSIM_* environment variables
func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "error", "Log level (trace, debug, info, warn, error, fatal, panic)")
	rootCmd.PersistentFlags().DurationVar(&tickInterval, "tick", 0, "Wall-clock interval between playback ticks (0 = scenario or built-in default)")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", formatTable, "Output format (table, json)")

	_ = viper.BindPFlag("log", rootCmd.PersistentFlags().Lookup("log"))
	_ = viper.BindPFlag("tick", rootCmd.PersistentFlags().Lookup("tick"))
	_ = viper.BindPFlag("format", rootCmd.PersistentFlags().Lookup("format"))

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}
