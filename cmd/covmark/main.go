package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/covmark/covmark/pkg/log"
)

var (
	// Global flags
	logLevel string
	logDir   string

	logger *log.Logger

	// Root command
	rootCmd = &cobra.Command{
		Use:   "covmark",
		Short: "Convert coverage artifacts into a markdown review comment",
		Long: `covmark consumes a coverage-summary JSON document and an LCOV trace
and produces a markdown report with per-file and per-directory coverage
badges, suitable for posting as a code-review comment.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// A .env file may supply the COVMARK_* path defaults.
			_ = godotenv.Load()

			level, err := log.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			logger, err = log.New(level, logDir)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			return nil
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log verbosity (error, info, debug)")
	rootCmd.PersistentFlags().StringVar(&logDir, "log-dir", "", "Directory for run log files (optional)")
}

// ensureLogger returns the shared logger, creating a console-only one when
// a run function is invoked outside cobra.
func ensureLogger() *log.Logger {
	if logger == nil {
		logger, _ = log.New(log.InfoLevel, "")
	}
	return logger
}

// resolvePath picks the flag value, then the environment variable, then the
// built-in default.
func resolvePath(flagValue, envKey, fallback string) string {
	if flagValue != "" {
		return flagValue
	}
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	return fallback
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
