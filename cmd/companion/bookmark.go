package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"conferencecompanion/internal/services"
)

var bookmarkCmd = &cobra.Command{
	Use:   "bookmark",
	Short: "Bookmark or un-bookmark a session",
}

var bookmarkToggleCmd = &cobra.Command{
	Use:   "toggle <sessionID>",
	Short: "Toggle the bookmark of a session in the active event",
	Long: `Toggle the bookmark of a session in the active event.

Reminders are delivered by the serve process, which schedules them again
for every bookmark when it starts.`,
	Args: cobra.ExactArgs(1),
	RunE: runBookmarkToggle,
}

func init() {
	bookmarkCmd.AddCommand(bookmarkToggleCmd)
}

func runBookmarkToggle(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	events, err := a.loadEvents(cmd.Context())
	if err != nil {
		return err
	}
	res, err := a.events.ToggleBookmark(cmd.Context(), args[0], events)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	switch res.Action {
	case services.ToggleNoop:
		return fmt.Errorf("session %q not found in the active event", args[0])
	case services.ToggleAdded:
		fmt.Fprintf(out, "Bookmarked %s (reminder: %s)\n", args[0], res.Reminder)
	case services.ToggleRemoved:
		fmt.Fprintf(out, "Removed bookmark %s\n", args[0])
	}
	return nil
}
