package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"conferencecompanion/internal/domain"
	"conferencecompanion/internal/services"
)

var stateJSONOut bool

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Inspect the persisted companion state",
}

var stateShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the active event, day and bookmarks",
	RunE:  runStateShow,
}

func init() {
	stateShowCmd.Flags().BoolVar(&stateJSONOut, "json", false, "print the raw persisted state as JSON")
	stateCmd.AddCommand(stateShowCmd)
}

func runStateShow(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	events, err := a.loadEvents(cmd.Context())
	if err != nil {
		return err
	}
	if stateJSONOut {
		return writeJSON(cmd.OutOrStdout(), a.events.Snapshot())
	}
	return writeState(cmd.OutOrStdout(), a.events, events)
}

func writeState(out io.Writer, store *services.EventStore, events []domain.ConferenceEvent) error {
	ev := store.ActiveEvent(events)
	if ev == nil {
		_, err := fmt.Fprintln(out, "No active event.")
		return err
	}
	fmt.Fprintf(out, "Event: %s (%s)\n", ev.Name, ev.ID)
	if day := store.ActiveDay(events); day != nil {
		fmt.Fprintf(out, "Day:   %s %s\n", day.Label, day.Date)
	}
	bookmarked := store.BookmarkedSessions(events)
	fmt.Fprintf(out, "Bookmarks: %d\n", len(bookmarked))
	for _, s := range bookmarked {
		fmt.Fprintf(out, "  %s  %s  %s\n", s.StartTime.Format(time.DateTime), s.ID, s.Title)
	}
	return nil
}
