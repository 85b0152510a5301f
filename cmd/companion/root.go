package main

import (
	"github.com/spf13/cobra"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "companion",
	Short: "Conference companion: schedule, bookmarks, reminders and live feed",
	Long: `Conference companion keeps the active event, the day being browsed and
your bookmarked sessions, and reminds you 5 minutes before a bookmarked
session starts.

Commands:
  serve      Run the HTTP API (schedule, bookmarks, settings, live feed)
  events     Inspect the event catalog
  state      Inspect the persisted companion state
  bookmark   Bookmark or un-bookmark a session`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error (overrides LOG_LEVEL)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(eventsCmd)
	rootCmd.AddCommand(stateCmd)
	rootCmd.AddCommand(bookmarkCmd)
}
