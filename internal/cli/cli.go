package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/geoportal-waw/waw-events/internal/event"
)

const (
	ExitSuccess = 0
	ExitError   = 1
)

var (
	flagEnvFile  string
	flagLogLevel string
	flagDB       string
	flagBaseURL  string
	flagVerbose  bool
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "waw-events",
		Short: "Scrape free events in Warsaw from waw4free.pl",
		Long: `A CLI tool that scrapes the waw4free.pl calendar, resolves event
addresses and geocodes them, and serves or publishes the results.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Settings shared by every subcommand; they override the environment
	pf := cmd.PersistentFlags()
	pf.StringVar(&flagEnvFile, "env-file", ".env", "Dotenv file to load before reading the environment")
	pf.StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn or error (overrides WAW_LOG_LEVEL)")
	pf.StringVar(&flagDB, "db", "", "Location cache: sqlite path or postgres:// DSN (overrides WAW_DATABASE_URL)")
	pf.StringVar(&flagBaseURL, "base-url", "", "Listing site root (overrides WAW_BASE_URL)")
	pf.BoolVar(&flagVerbose, "verbose", false, "Enable verbose output and debug logging")

	cmd.AddCommand(
		newEventsCmd(),
		newServeCmd(),
		newCacheCmd(),
		newPublishCmd(),
	)

	return cmd
}

// parseDay reads a --date style flag. Accepts 2026-01-29 and 29.01.2026.
func parseDay(raw string) (time.Time, error) {
	day := event.ParseDate(raw)
	if day.IsZero() {
		return time.Time{}, fmt.Errorf("invalid date %q (use YYYY-MM-DD or DD.MM.YYYY)", raw)
	}
	return day, nil
}

// today returns the current calendar day in Warsaw.
func today() time.Time {
	now := time.Now().In(event.Warsaw)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, event.Warsaw)
}

// Execute runs the CLI
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitError)
	}
}
