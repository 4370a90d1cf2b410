// Command pacer records an athletic attempt from the local camera (or takes
// a video file), extracts a still frame and submits both to the analysis
// service.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/okian/pacer/internal/capture"
	"github.com/okian/pacer/pkg/logger"
)

var (
	version = "dev"
	commit  = "none"
)

var (
	serverURL  string
	logLevel   string
	jsonOutput bool
	noColor    bool
)

// Backends are variables so tests can substitute fakes.
var (
	newSource  = func(device string) capture.Source { return capture.NewDefaultSource(device) }
	newDecoder = func() capture.Decoder { return capture.NewDefaultDecoder() }
)

var rootCmd = &cobra.Command{
	Use:   "pacer",
	Short: "Record an attempt and compare it with the lead athlete",
	Long: `Pacer records a short video of an athletic attempt, extracts a still frame
and sends both with your reported metric to the analysis service.

Examples:
  pacer analyze --sport javelin --metric 72.4
  pacer analyze --sport sprint400 --metric 51.2 --file ./run.webm --last 52.0
  pacer leads`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		color.NoColor = color.NoColor || noColor
		if err := logger.Init(logger.WithWriter(cmd.ErrOrStderr())); err != nil {
			return err
		}
		// The CLI talks to the user through stdout; logs stay quiet by default.
		return logger.SetLevelString(logLevel)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "pacer %s (%s, %s capture)\n", version, commit, capture.Backend)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", envOr("PACER_SERVER", "http://localhost:9080"), "Analysis service base URL")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Print the raw JSON response")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(leadsCmd)
	rootCmd.AddCommand(versionCmd)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
